package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/JayLeung362573/373-sub000/internal/services/game/storage"
)

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]storage.SessionRecord
	order    []string
	journal  map[string][]storage.JournalEntry
	failNext error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: map[string]storage.SessionRecord{},
		journal:  map[string][]storage.JournalEntry{},
	}
}

func (s *fakeStore) CreateSession(_ context.Context, record storage.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		return err
	}
	if _, ok := s.sessions[record.ID]; ok {
		return storage.ErrAlreadyExists
	}
	s.sessions[record.ID] = record
	s.order = append(s.order, record.ID)
	return nil
}

func (s *fakeStore) UpdateSessionStatus(_ context.Context, id string, status storage.SessionStatus, failure string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[id]
	if !ok {
		return storage.ErrNotFound
	}
	record.Status = status
	record.Failure = failure
	record.UpdatedAt = updatedAt
	s.sessions[id] = record
	return nil
}

func (s *fakeStore) GetSession(_ context.Context, id string) (storage.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[id]
	if !ok {
		return storage.SessionRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (s *fakeStore) ListSessions(_ context.Context, status storage.SessionStatus) ([]storage.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.SessionRecord
	for _, id := range s.order {
		record := s.sessions[id]
		if status == "" || record.Status == status {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *fakeStore) AppendJournal(_ context.Context, entry storage.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[entry.SessionID]; !ok {
		return storage.ErrNotFound
	}
	entries := s.journal[entry.SessionID]
	if len(entries) > 0 && entries[len(entries)-1].Seq >= entry.Seq {
		return storage.ErrAlreadyExists
	}
	s.journal[entry.SessionID] = append(entries, entry)
	return nil
}

func (s *fakeStore) ListJournal(_ context.Context, sessionID string, afterSeq int64, limit int) ([]storage.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.JournalEntry
	for _, entry := range s.journal[sessionID] {
		if entry.Seq > afterSeq && len(out) < limit {
			out = append(out, entry)
		}
	}
	return slices.Clone(out), nil
}

func (s *fakeStore) kinds(sessionID string) []storage.JournalKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.JournalKind
	for _, entry := range s.journal[sessionID] {
		out = append(out, entry.Kind)
	}
	return out
}
