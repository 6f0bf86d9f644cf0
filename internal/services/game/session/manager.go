package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
	"github.com/JayLeung362573/373-sub000/internal/platform/id"
	"github.com/JayLeung362573/373-sub000/internal/platform/otel"
	"github.com/JayLeung362573/373-sub000/internal/random"
	"github.com/JayLeung362573/373-sub000/internal/rules/input"
	"github.com/JayLeung362573/373-sub000/internal/services/game/storage"
)

const (
	tracerName = "github.com/JayLeung362573/373-sub000/internal/services/game/session"
	// journalPageSize bounds each journal read during replay.
	journalPageSize = 256
)

// Config wires a Manager.
type Config struct {
	Store    storage.SessionStore
	Rulesets *Rulesets
	// IdleTimeout is how long a session may sit unused in memory before Reap
	// evicts it. Zero disables eviction.
	IdleTimeout time.Duration
	Logger      *log.Logger
	Now         func() time.Time
	NewSeed     func() (int64, error)
	NewID       func() (string, error)
}

// Manager owns the live sessions of one server.
type Manager struct {
	store       storage.SessionStore
	rulesets    *Rulesets
	idleTimeout time.Duration
	logger      *log.Logger
	now         func() time.Time
	newSeed     func() (int64, error)
	newID       func() (string, error)
	tracer      trace.Tracer

	mu       sync.Mutex
	sessions map[string]*Session
	// restoreMu serializes rebuilds so a replay never registers a copy
	// older than the journal.
	restoreMu sync.Mutex
}

// JournalEvent is one decoded journal entry.
type JournalEvent struct {
	Seq       int64
	Kind      storage.JournalKind
	Requests  []input.Request
	Responses []input.Response
	Outputs   []string
	CreatedAt time.Time
}

// NewManager validates cfg and returns a manager with no live sessions.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.Rulesets == nil {
		return nil, errors.New("rulesets are required")
	}
	m := &Manager{
		store:       cfg.Store,
		rulesets:    cfg.Rulesets,
		idleTimeout: cfg.IdleTimeout,
		logger:      cfg.Logger,
		now:         cfg.Now,
		newSeed:     cfg.NewSeed,
		newID:       cfg.NewID,
		tracer:      otel.Tracer(tracerName),
		sessions:    map[string]*Session{},
	}
	if m.logger == nil {
		m.logger = log.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newSeed == nil {
		m.newSeed = random.NewSeed
	}
	if m.newID == nil {
		m.newID = id.NewID
	}
	return m, nil
}

// Rulesets returns the catalog sessions are started from.
func (m *Manager) Rulesets() *Rulesets {
	return m.rulesets
}

// Start creates a session for players and runs the ruleset until it first
// needs input. A rules error fails the session and is returned together with
// the failed snapshot.
func (m *Manager) Start(ctx context.Context, ruleset string, players []storage.Player) (snap Snapshot, err error) {
	ctx, span := m.tracer.Start(ctx, "session.Start", trace.WithAttributes(attribute.String("ruleset", ruleset)))
	defer func() { endSpan(span, err) }()

	players, err = normalizePlayers(players)
	if err != nil {
		return Snapshot{}, err
	}
	rs, err := m.rulesets.Get(ruleset)
	if err != nil {
		return Snapshot{}, err
	}
	seed, err := m.newSeed()
	if err != nil {
		return Snapshot{}, err
	}
	sessionID, err := m.newID()
	if err != nil {
		return Snapshot{}, err
	}
	span.SetAttributes(attribute.String("session.id", sessionID))

	now := m.now().UTC()
	record := storage.SessionRecord{
		ID:        sessionID,
		Ruleset:   strings.TrimSpace(ruleset),
		Players:   players,
		Seed:      seed,
		Status:    storage.StatusAwaitingInput,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sess, err := newSession(rs, record)
	if err != nil {
		return Snapshot{}, err
	}
	if err := m.store.CreateSession(ctx, record); err != nil {
		return Snapshot{}, fmt.Errorf("create session: %w", err)
	}
	sess.lastActive = now
	sess.mu.Lock()
	defer sess.mu.Unlock()
	m.register(sess)

	snap, err = m.step(ctx, sess)
	m.logger.Printf("session %s started ruleset=%s players=%d status=%s", sessionID, record.Ruleset, len(players), snap.Status)
	return snap, err
}

// Submit feeds one batch of answers to a session awaiting input and runs it
// until it needs more. Every answer must match a pending prompt.
func (m *Manager) Submit(ctx context.Context, sessionID string, responses []input.Response) (snap Snapshot, err error) {
	ctx, span := m.tracer.Start(ctx, "session.Submit", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("responses", len(responses)),
	))
	defer func() { endSpan(span, err) }()

	sess, err := m.acquire(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	defer sess.mu.Unlock()
	sess.lastActive = m.now()

	if sess.record.Status != storage.StatusAwaitingInput {
		return sess.snapshot(), notAwaiting(sess.record)
	}
	if len(responses) == 0 {
		return sess.snapshot(), nil
	}
	if err := sess.validate(responses); err != nil {
		return sess.snapshot(), err
	}
	payload, err := encodeResponses(responses)
	if err != nil {
		return Snapshot{}, err
	}
	if err := m.appendJournal(ctx, sess, storage.JournalResponses, payload); err != nil {
		return Snapshot{}, err
	}
	sess.answer(responses)
	return m.step(ctx, sess)
}

// Get returns the latest snapshot of a session. Sessions that are not live
// are read from storage and carry no pending prompts or variables.
func (m *Manager) Get(ctx context.Context, sessionID string) (Snapshot, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Snapshot{}, apperrors.New(apperrors.CodeSessionEmptyID, "session id is required")
	}
	if sess, ok := m.cached(sessionID); ok {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return sess.snapshot(), nil
	}
	record, err := m.load(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	if record.Status != storage.StatusAwaitingInput {
		return recordSnapshot(record), nil
	}
	sess, err := m.restore(ctx, record)
	if code := apperrors.CodeOf(err); code == apperrors.CodeSessionNotAwaiting || code == apperrors.CodeSessionFailed {
		if record, err = m.load(ctx, sessionID); err != nil {
			return Snapshot{}, err
		}
		return recordSnapshot(record), nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// Journal returns up to limit decoded journal entries after afterSeq.
func (m *Manager) Journal(ctx context.Context, sessionID string, afterSeq int64, limit int) ([]JournalEvent, error) {
	if _, err := m.load(ctx, sessionID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > journalPageSize {
		limit = journalPageSize
	}
	entries, err := m.store.ListJournal(ctx, sessionID, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	events := make([]JournalEvent, 0, len(entries))
	for _, entry := range entries {
		event := JournalEvent{Seq: entry.Seq, Kind: entry.Kind, CreatedAt: entry.CreatedAt}
		switch entry.Kind {
		case storage.JournalRequests:
			event.Requests, err = decodeRequests(entry.Payload)
		case storage.JournalResponses:
			event.Responses, err = decodeResponses(entry.Payload)
		case storage.JournalOutputs:
			event.Outputs, err = decodeOutputs(entry.Payload)
		}
		if err != nil {
			return nil, fmt.Errorf("journal %s/%d: %w", sessionID, entry.Seq, err)
		}
		events = append(events, event)
	}
	return events, nil
}

// Recover rebuilds every session that was awaiting input when the server
// stopped. Sessions whose ruleset is gone or whose replay fails are marked
// failed. It returns the number of sessions brought back.
func (m *Manager) Recover(ctx context.Context) (int, error) {
	records, err := m.store.ListSessions(ctx, storage.StatusAwaitingInput)
	if err != nil {
		return 0, fmt.Errorf("list awaiting sessions: %w", err)
	}
	recovered := 0
	for _, record := range records {
		if _, ok := m.cached(record.ID); ok {
			continue
		}
		if _, err := m.restore(ctx, record); err != nil {
			if ctx.Err() != nil {
				return recovered, ctx.Err()
			}
			m.logger.Printf("session %s could not be recovered: %v", record.ID, err)
			continue
		}
		recovered++
	}
	return recovered, nil
}

// Reap evicts live sessions idle for at least the idle timeout. Evicted
// sessions that still await input are rebuilt from storage on next use. It
// returns the number of sessions evicted.
func (m *Manager) Reap(now time.Time) int {
	if m.idleTimeout <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for sessionID, sess := range m.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if now.Sub(sess.lastActive) >= m.idleTimeout {
			delete(m.sessions, sessionID)
			evicted++
		}
		sess.mu.Unlock()
	}
	return evicted
}

// Live returns the number of sessions held in memory.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// step runs the session, journals what it produced, and persists its status.
// The caller holds sess.mu.
func (m *Manager) step(ctx context.Context, sess *Session) (Snapshot, error) {
	requests, outputs, runErr := sess.run()
	if len(requests) > 0 {
		payload, err := encodeRequests(requests)
		if err != nil {
			return Snapshot{}, err
		}
		if err := m.appendJournal(ctx, sess, storage.JournalRequests, payload); err != nil {
			return Snapshot{}, err
		}
	}
	if len(outputs) > 0 {
		payload, err := encodeOutputs(outputs)
		if err != nil {
			return Snapshot{}, err
		}
		if err := m.appendJournal(ctx, sess, storage.JournalOutputs, payload); err != nil {
			return Snapshot{}, err
		}
	}

	sess.record.UpdatedAt = m.now().UTC()
	if err := m.store.UpdateSessionStatus(ctx, sess.record.ID, sess.record.Status, sess.record.Failure, sess.record.UpdatedAt); err != nil {
		return Snapshot{}, fmt.Errorf("update session status: %w", err)
	}
	if runErr != nil {
		m.logger.Printf("session %s failed: %v", sess.record.ID, runErr)
		return sess.snapshot(), runErr
	}
	return sess.snapshot(), nil
}

func (m *Manager) appendJournal(ctx context.Context, sess *Session, kind storage.JournalKind, payload []byte) error {
	entry := storage.JournalEntry{
		SessionID: sess.record.ID,
		Seq:       sess.seq + 1,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: m.now().UTC(),
	}
	if err := m.store.AppendJournal(ctx, entry); err != nil {
		return fmt.Errorf("append %s journal: %w", kind, err)
	}
	sess.seq = entry.Seq
	return nil
}

// restore replays the journal of an awaiting session and registers it. The
// record is read again once no other rebuild is running, so a copy that went
// live in the meantime is returned instead.
func (m *Manager) restore(ctx context.Context, record storage.SessionRecord) (_ *Session, err error) {
	ctx, span := m.tracer.Start(ctx, "session.Replay", trace.WithAttributes(attribute.String("session.id", record.ID)))
	defer func() { endSpan(span, err) }()

	m.restoreMu.Lock()
	defer m.restoreMu.Unlock()
	if sess, ok := m.cached(record.ID); ok {
		return sess, nil
	}
	record, err = m.load(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	if record.Status != storage.StatusAwaitingInput {
		return nil, notAwaiting(record)
	}

	sess, err := m.replay(ctx, record)
	if err != nil {
		failure := fmt.Sprintf("replay: %v", err)
		if ctx.Err() == nil {
			if updErr := m.store.UpdateSessionStatus(ctx, record.ID, storage.StatusFailed, failure, m.now().UTC()); updErr != nil {
				m.logger.Printf("session %s: mark failed: %v", record.ID, updErr)
			}
		}
		return nil, err
	}
	sess.lastActive = m.now()
	return m.register(sess), nil
}

func (m *Manager) replay(ctx context.Context, record storage.SessionRecord) (*Session, error) {
	rs, err := m.rulesets.Get(record.Ruleset)
	if err != nil {
		return nil, err
	}
	sess, err := newSession(rs, record)
	if err != nil {
		return nil, err
	}
	if _, _, err := sess.run(); err != nil {
		return nil, err
	}

	var after int64
	for {
		entries, err := m.store.ListJournal(ctx, record.ID, after, journalPageSize)
		if err != nil {
			return nil, fmt.Errorf("list journal: %w", err)
		}
		for _, entry := range entries {
			after = entry.Seq
			sess.seq = entry.Seq
			if entry.Kind != storage.JournalResponses {
				continue
			}
			responses, err := decodeResponses(entry.Payload)
			if err != nil {
				return nil, err
			}
			sess.answer(responses)
			if _, _, err := sess.run(); err != nil {
				return nil, err
			}
		}
		if len(entries) < journalPageSize {
			break
		}
	}
	if sess.record.Status != storage.StatusAwaitingInput {
		return nil, fmt.Errorf("replay ended %s, stored status is %s", sess.record.Status, record.Status)
	}
	sess.record.UpdatedAt = record.UpdatedAt
	return sess, nil
}

// live returns the in-memory session, rebuilding it from storage when it was
// evicted or the server restarted.
func (m *Manager) live(ctx context.Context, sessionID string) (*Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.New(apperrors.CodeSessionEmptyID, "session id is required")
	}
	if sess, ok := m.cached(sessionID); ok {
		return sess, nil
	}
	record, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record.Status != storage.StatusAwaitingInput {
		return nil, notAwaiting(record)
	}
	return m.restore(ctx, record)
}

// acquire returns the live session with its mutex held. A copy evicted
// between lookup and locking is dropped and the session is looked up again,
// so only the registered copy ever writes to the journal.
func (m *Manager) acquire(ctx context.Context, sessionID string) (*Session, error) {
	for {
		sess, err := m.live(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		sess.mu.Lock()
		if m.registered(sess) {
			return sess, nil
		}
		sess.mu.Unlock()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func (m *Manager) load(ctx context.Context, sessionID string) (storage.SessionRecord, error) {
	record, err := m.store.GetSession(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.SessionRecord{}, apperrors.WithMetadata(
			apperrors.CodeNotFound,
			fmt.Sprintf("session %q not found", sessionID),
			map[string]string{"SessionID": sessionID},
		)
	}
	if err != nil {
		return storage.SessionRecord{}, fmt.Errorf("get session: %w", err)
	}
	return record, nil
}

func (m *Manager) cached(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	return sess, ok
}

func (m *Manager) registered(sess *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sess.record.ID] == sess
}

// register adds sess unless another copy won the race, and returns the copy
// that is live.
func (m *Manager) register(sess *Session) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[sess.record.ID]; ok {
		return existing
	}
	m.sessions[sess.record.ID] = sess
	return sess
}

func normalizePlayers(players []storage.Player) ([]storage.Player, error) {
	if len(players) == 0 {
		return nil, apperrors.New(apperrors.CodeSessionNoPlayers, "at least one player is required")
	}
	seen := make(map[string]struct{}, len(players))
	out := make([]storage.Player, 0, len(players))
	for _, p := range players {
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		if p.ID == "" {
			return nil, apperrors.New(apperrors.CodeSessionNoPlayers, "player id is required")
		}
		if _, dup := seen[p.ID]; dup {
			return nil, apperrors.WithMetadata(
				apperrors.CodeSessionDuplicatePlayer,
				fmt.Sprintf("player %q listed twice", p.ID),
				map[string]string{"PlayerID": p.ID},
			)
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// notAwaiting reports why a session takes no answers. Failed sessions carry
// their failure so callers can show what stopped the game.
func notAwaiting(record storage.SessionRecord) error {
	status := record.Status
	if status == storage.StatusFailed {
		return apperrors.WithMetadata(
			apperrors.CodeSessionFailed,
			fmt.Sprintf("session failed: %s", record.Failure),
			map[string]string{"Status": string(status), "Failure": record.Failure},
		)
	}
	return apperrors.WithMetadata(
		apperrors.CodeSessionNotAwaiting,
		fmt.Sprintf("session is %s", status),
		map[string]string{"Status": string(status)},
	)
}

func validationError(prompt, answer, message string) error {
	return apperrors.WithMetadata(
		apperrors.CodeRulesArgumentValidation,
		message,
		map[string]string{"Prompt": prompt, "Value": answer},
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}
