// Package storage defines persistence contracts for rules sessions.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested session record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a session or journal sequence already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// SessionStatus is the lifecycle state of a stored session.
type SessionStatus string

const (
	// StatusAwaitingInput means the program is suspended on player answers.
	StatusAwaitingInput SessionStatus = "AWAITING_INPUT"
	// StatusCompleted means the program ran to the end.
	StatusCompleted SessionStatus = "COMPLETED"
	// StatusFailed means the program stopped on a runtime error.
	StatusFailed SessionStatus = "FAILED"
)

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusAwaitingInput, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Player is one seat at the table.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// SessionRecord is the durable header of a session. Together with its
// journal it is enough to rebuild the running interpreter.
type SessionRecord struct {
	ID        string
	Ruleset   string
	Players   []Player
	Seed      int64
	Status    SessionStatus
	Failure   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JournalKind names what a journal entry carries.
type JournalKind string

const (
	// JournalResponses holds one batch of answers fed to the program.
	JournalResponses JournalKind = "responses"
	// JournalRequests holds the prompts raised by one step.
	JournalRequests JournalKind = "requests"
	// JournalOutputs holds the announcements made by one step.
	JournalOutputs JournalKind = "outputs"
)

// JournalEntry is one append-only record in a session journal. Seq starts at
// 1 and increases by one per entry within a session.
type JournalEntry struct {
	SessionID string
	Seq       int64
	Kind      JournalKind
	Payload   []byte
	CreatedAt time.Time
}

// SessionStore persists session headers and journals.
type SessionStore interface {
	CreateSession(ctx context.Context, record SessionRecord) error
	UpdateSessionStatus(ctx context.Context, id string, status SessionStatus, failure string, updatedAt time.Time) error
	GetSession(ctx context.Context, id string) (SessionRecord, error)
	// ListSessions returns sessions in creation order. An empty status
	// lists every session.
	ListSessions(ctx context.Context, status SessionStatus) ([]SessionRecord, error)
	AppendJournal(ctx context.Context, entry JournalEntry) error
	// ListJournal returns up to limit entries with Seq greater than afterSeq.
	ListJournal(ctx context.Context, sessionID string, afterSeq int64, limit int) ([]JournalEntry, error)
}
