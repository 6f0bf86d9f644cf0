package sessions

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JayLeung362573/373-sub000/internal/rules/input"
	"github.com/JayLeung362573/373-sub000/internal/services/game/session"
	"github.com/JayLeung362573/373-sub000/internal/services/game/storage"
)

// Player is one seat. SeatGrant is only set on StartSession responses when
// the server signs grants.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	SeatGrant string `json:"seat_grant,omitempty"`
}

// Prompt is an input request waiting for one player.
type Prompt struct {
	Kind     string   `json:"kind"`
	PlayerID string   `json:"player_id"`
	Prompt   string   `json:"prompt"`
	Choices  []string `json:"choices,omitempty"`
	Min      *int64   `json:"min,omitempty"`
	Max      *int64   `json:"max,omitempty"`
}

// Answer is one player's response to a prompt. An empty Kind is taken from
// the matching pending prompt.
type Answer struct {
	Kind     string `json:"kind,omitempty"`
	PlayerID string `json:"player_id"`
	Prompt   string `json:"prompt"`
	Value    string `json:"value"`
}

// Session is the view of a session returned by every call.
type Session struct {
	ID        string         `json:"id"`
	Ruleset   string         `json:"ruleset"`
	Status    string         `json:"status"`
	Failure   string         `json:"failure,omitempty"`
	Players   []Player       `json:"players"`
	Pending   []Prompt       `json:"pending"`
	Outputs   []string       `json:"outputs"`
	Variables map[string]any `json:"variables,omitempty"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// StartSessionRequest starts a ruleset for a table of players.
type StartSessionRequest struct {
	Ruleset string   `json:"ruleset"`
	Players []Player `json:"players"`
}

// SubmitInputsRequest delivers one batch of answers.
type SubmitInputsRequest struct {
	SessionID string   `json:"session_id"`
	Answers   []Answer `json:"answers"`
}

// GetSessionRequest reads one session.
type GetSessionRequest struct {
	SessionID string `json:"session_id"`
}

// ListJournalRequest pages through a session journal.
type ListJournalRequest struct {
	SessionID string `json:"session_id"`
	AfterSeq  int64  `json:"after_seq,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// JournalEvent is one journal entry.
type JournalEvent struct {
	Seq       int64    `json:"seq"`
	Kind      string   `json:"kind"`
	Prompts   []Prompt `json:"prompts,omitempty"`
	Answers   []Answer `json:"answers,omitempty"`
	Outputs   []string `json:"outputs,omitempty"`
	CreatedAt string   `json:"created_at"`
}

// ListJournalResponse holds one page of journal events.
type ListJournalResponse struct {
	Events []JournalEvent `json:"events"`
}

// toStruct encodes a wire value as a Struct through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return out, nil
}

// fromStruct decodes a Struct into a wire value through its JSON form.
func fromStruct(in *structpb.Struct, v any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

func sessionFromSnapshot(snap session.Snapshot) Session {
	out := Session{
		ID:        snap.ID,
		Ruleset:   snap.Ruleset,
		Status:    string(snap.Status),
		Failure:   snap.Failure,
		Players:   make([]Player, 0, len(snap.Players)),
		Pending:   promptsFromRequests(snap.Pending),
		Outputs:   append([]string{}, snap.Outputs...),
		Variables: snap.Variables,
		CreatedAt: formatTime(snap.CreatedAt),
		UpdatedAt: formatTime(snap.UpdatedAt),
	}
	for _, p := range snap.Players {
		out.Players = append(out.Players, Player{ID: p.ID, Name: p.Name})
	}
	return out
}

func promptsFromRequests(requests []input.Request) []Prompt {
	out := make([]Prompt, 0, len(requests))
	for _, req := range requests {
		key := req.Key()
		prompt := Prompt{
			Kind:     string(req.Kind()),
			PlayerID: key.PlayerID,
			Prompt:   key.Prompt,
			Choices:  input.Choices(req),
		}
		if r, ok := req.(input.GetRangeInput); ok {
			prompt.Min, prompt.Max = &r.Min, &r.Max
		}
		out = append(out, prompt)
	}
	return out
}

func answersFromResponses(responses []input.Response) []Answer {
	out := make([]Answer, 0, len(responses))
	for _, resp := range responses {
		key := resp.Key()
		out = append(out, Answer{
			Kind:     string(resp.Kind()),
			PlayerID: key.PlayerID,
			Prompt:   key.Prompt,
			Value:    input.Answer(resp),
		})
	}
	return out
}

func journalFromEvents(events []session.JournalEvent) ListJournalResponse {
	out := ListJournalResponse{Events: make([]JournalEvent, 0, len(events))}
	for _, event := range events {
		wire := JournalEvent{
			Seq:       event.Seq,
			Kind:      string(event.Kind),
			Outputs:   event.Outputs,
			CreatedAt: formatTime(event.CreatedAt),
		}
		switch event.Kind {
		case storage.JournalRequests:
			wire.Prompts = promptsFromRequests(event.Requests)
		case storage.JournalResponses:
			wire.Answers = answersFromResponses(event.Responses)
		}
		out.Events = append(out.Events, wire)
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
