// Package sqlite provides a SQLite-backed session storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/JayLeung362573/373-sub000/internal/platform/storage/sqlitemigrate"
	"github.com/JayLeung362573/373-sub000/internal/services/game/storage"
	"github.com/JayLeung362573/373-sub000/internal/services/game/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists sessions and their journals in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite session store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateSession inserts one session header.
func (s *Store) CreateSession(ctx context.Context, record storage.SessionRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id := strings.TrimSpace(record.ID)
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(record.Ruleset) == "" {
		return fmt.Errorf("ruleset is required")
	}
	if !record.Status.Valid() {
		return fmt.Errorf("invalid session status %q", record.Status)
	}
	players, err := json.Marshal(record.Players)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}
	createdAt, updatedAt := normalizeTimes(record.CreatedAt, record.UpdatedAt)

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sessions (id, ruleset, players, seed, status, failure, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		record.Ruleset,
		string(players),
		record.Seed,
		string(record.Status),
		record.Failure,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isConstraint(err, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// UpdateSessionStatus sets the status and failure text of one session.
func (s *Store) UpdateSessionStatus(ctx context.Context, id string, status storage.SessionStatus, failure string, updatedAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("invalid session status %q", status)
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE sessions SET status = ?, failure = ?, updated_at = ? WHERE id = ?`,
		string(status), failure, toMillis(updatedAt), strings.TrimSpace(id),
	)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetSession returns one session header by ID.
func (s *Store) GetSession(ctx context.Context, id string) (storage.SessionRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.SessionRecord{}, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, ruleset, players, seed, status, failure, created_at, updated_at
		   FROM sessions
		  WHERE id = ?`,
		strings.TrimSpace(id),
	)
	record, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SessionRecord{}, storage.ErrNotFound
		}
		return storage.SessionRecord{}, fmt.Errorf("get session: %w", err)
	}
	return record, nil
}

// ListSessions returns sessions in creation order, filtered by status when
// status is not empty.
func (s *Store) ListSessions(ctx context.Context, status storage.SessionStatus) ([]storage.SessionRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	query := `SELECT id, ruleset, players, seed, status, failure, created_at, updated_at
	            FROM sessions`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []storage.SessionRecord
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return records, nil
}

// AppendJournal stores one journal entry. A repeated sequence number returns
// ErrAlreadyExists; an unknown session returns ErrNotFound.
func (s *Store) AppendJournal(ctx context.Context, entry storage.JournalEntry) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if entry.Seq <= 0 {
		return fmt.Errorf("journal seq must be positive")
	}
	switch entry.Kind {
	case storage.JournalResponses, storage.JournalRequests, storage.JournalOutputs:
	default:
		return fmt.Errorf("invalid journal kind %q", entry.Kind)
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	payload := entry.Payload
	if payload == nil {
		payload = []byte{}
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO session_journal (session_id, seq, kind, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		strings.TrimSpace(entry.SessionID), entry.Seq, string(entry.Kind), payload, toMillis(createdAt),
	)
	if err != nil {
		if isConstraint(err, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE) {
			return storage.ErrAlreadyExists
		}
		if isConstraint(err, sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

// ListJournal returns up to limit entries after afterSeq in sequence order.
func (s *Store) ListJournal(ctx context.Context, sessionID string, afterSeq int64, limit int) ([]storage.JournalEntry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT session_id, seq, kind, payload, created_at
		   FROM session_journal
		  WHERE session_id = ? AND seq > ?
		  ORDER BY seq ASC
		  LIMIT ?`,
		strings.TrimSpace(sessionID), afterSeq, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	entries := make([]storage.JournalEntry, 0, limit)
	for rows.Next() {
		var entry storage.JournalEntry
		var kind string
		var createdAt int64
		if err := rows.Scan(&entry.SessionID, &entry.Seq, &kind, &entry.Payload, &createdAt); err != nil {
			return nil, fmt.Errorf("list journal: %w", err)
		}
		entry.Kind = storage.JournalKind(kind)
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	return entries, nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (storage.SessionRecord, error) {
	var record storage.SessionRecord
	var players, status string
	var createdAt, updatedAt int64
	if err := row.Scan(
		&record.ID,
		&record.Ruleset,
		&players,
		&record.Seed,
		&status,
		&record.Failure,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.SessionRecord{}, err
	}
	if err := json.Unmarshal([]byte(players), &record.Players); err != nil {
		return storage.SessionRecord{}, fmt.Errorf("decode players: %w", err)
	}
	record.Status = storage.SessionStatus(status)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func normalizeTimes(createdAt, updatedAt time.Time) (time.Time, time.Time) {
	switch {
	case createdAt.IsZero() && updatedAt.IsZero():
		now := time.Now().UTC()
		return now, now
	case createdAt.IsZero():
		return updatedAt, updatedAt
	case updatedAt.IsZero():
		return createdAt, createdAt
	default:
		return createdAt, updatedAt
	}
}

func isConstraint(err error, codes ...int) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	for _, code := range codes {
		if sqliteErr.Code() == code {
			return true
		}
	}
	return false
}

var _ storage.SessionStore = (*Store)(nil)
