// Package session hosts running rules programs. A session pairs one
// interpreter with a durable journal of every answer fed to it, so a
// restarted server rebuilds the same state by replaying the journal with the
// stored shuffle seed.
package session

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/JayLeung362573/373-sub000/internal/random"
	"github.com/JayLeung362573/373-sub000/internal/rules/input"
	"github.com/JayLeung362573/373-sub000/internal/rules/interpreter"
	"github.com/JayLeung362573/373-sub000/internal/rules/source"
	"github.com/JayLeung362573/373-sub000/internal/rules/value"
	"github.com/JayLeung362573/373-sub000/internal/services/game/storage"
)

// Snapshot is a read-only view of a session after its latest step.
type Snapshot struct {
	ID        string
	Ruleset   string
	Players   []storage.Player
	Status    storage.SessionStatus
	Failure   string
	Pending   []input.Request
	Outputs   []string
	Variables map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session is one running program. The mutex serializes every call into the
// interpreter.
type Session struct {
	mu         sync.Mutex
	record     storage.SessionRecord
	interp     *interpreter.Interpreter
	pending    []input.Request
	outputs    []string
	seq        int64
	lastActive time.Time
}

func newSession(rs *source.Ruleset, record storage.SessionRecord) (*Session, error) {
	interp, err := interpreter.New(rs.Program,
		interpreter.WithRand(random.NewSource(record.Seed)),
		interpreter.WithVariables(InitialVariables(record)),
	)
	if err != nil {
		return nil, err
	}
	record.Status = storage.StatusAwaitingInput
	record.Failure = ""
	return &Session{record: record, interp: interp}, nil
}

// InitialVariables exposes the table to the program as `players`, a list of
// {id, name, seat} maps, and `session`, an {id, ruleset} map.
func InitialVariables(record storage.SessionRecord) map[string]value.Value {
	players := value.NewList()
	for seat, p := range record.Players {
		name := p.Name
		if name == "" {
			name = p.ID
		}
		players.Append(value.NewMap(map[string]value.Value{
			"id":   value.String(p.ID),
			"name": value.String(name),
			"seat": value.Integer(seat),
		}))
	}
	return map[string]value.Value{
		"players": players,
		"session": value.NewMap(map[string]value.Value{
			"id":      value.String(record.ID),
			"ruleset": value.String(record.Ruleset),
		}),
	}
}

// run executes until the program suspends, ends, or fails, and folds the
// result into the session state.
func (s *Session) run() (requests []input.Request, outputs []string, err error) {
	status, err := s.interp.Execute()
	requests = s.interp.ConsumeOutGameMessages()
	outputs = s.interp.PopOutputs()
	s.outputs = outputs
	s.pending = append(s.pending, requests...)

	switch {
	case err != nil:
		s.record.Status = storage.StatusFailed
		s.record.Failure = err.Error()
		s.pending = nil
	case status == interpreter.StatusDone:
		s.record.Status = storage.StatusCompleted
		s.pending = nil
	default:
		s.record.Status = storage.StatusAwaitingInput
	}
	return requests, outputs, err
}

// answer hands responses to the interpreter and retires the prompts they
// answer.
func (s *Session) answer(responses []input.Response) {
	s.interp.SetInGameMessages(responses)
	answered := make(map[input.Key]struct{}, len(responses))
	for _, resp := range responses {
		answered[resp.Key()] = struct{}{}
	}
	s.pending = slices.DeleteFunc(s.pending, func(req input.Request) bool {
		_, ok := answered[req.Key()]
		return ok
	})
}

// validate rejects answers to prompts that are not pending and answers that
// the prompt would refuse.
func (s *Session) validate(responses []input.Response) error {
	for _, resp := range responses {
		if resp == nil {
			return validationError("", "", "missing answer")
		}
		idx := slices.IndexFunc(s.pending, func(req input.Request) bool {
			return req.Key() == resp.Key()
		})
		if idx < 0 {
			key := resp.Key()
			return validationError(key.Prompt, input.Answer(resp),
				"no pending prompt "+strconv.Quote(key.Prompt)+" for player "+strconv.Quote(key.PlayerID))
		}
		if err := input.Validate(s.pending[idx], resp); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) snapshot() Snapshot {
	vars := s.interp.Variables().Snapshot()
	variables := make(map[string]any, len(vars))
	for name, v := range vars {
		variables[name] = value.ToGo(v)
	}
	return Snapshot{
		ID:        s.record.ID,
		Ruleset:   s.record.Ruleset,
		Players:   slices.Clone(s.record.Players),
		Status:    s.record.Status,
		Failure:   s.record.Failure,
		Pending:   slices.Clone(s.pending),
		Outputs:   slices.Clone(s.outputs),
		Variables: variables,
		CreatedAt: s.record.CreatedAt,
		UpdatedAt: s.record.UpdatedAt,
	}
}

func recordSnapshot(record storage.SessionRecord) Snapshot {
	return Snapshot{
		ID:        record.ID,
		Ruleset:   record.Ruleset,
		Players:   record.Players,
		Status:    record.Status,
		Failure:   record.Failure,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
