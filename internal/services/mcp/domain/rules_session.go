package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
	"github.com/JayLeung362573/373-sub000/internal/platform/timeouts"
	grpcmeta "github.com/JayLeung362573/373-sub000/internal/services/game/api/grpc/metadata"
	"github.com/JayLeung362573/373-sub000/internal/services/game/api/grpc/sessions"
)

// SessionClient is the slice of the rules session API the tools call.
type SessionClient interface {
	StartSession(context.Context, sessions.StartSessionRequest, ...grpc.CallOption) (sessions.Session, error)
	SubmitInputs(context.Context, sessions.SubmitInputsRequest, ...grpc.CallOption) (sessions.Session, error)
	GetSession(context.Context, sessions.GetSessionRequest, ...grpc.CallOption) (sessions.Session, error)
	ListJournal(context.Context, sessions.ListJournalRequest, ...grpc.CallOption) (sessions.ListJournalResponse, error)
}

// PlayerInput names one seat at the table.
type PlayerInput struct {
	ID   string `json:"id" jsonschema:"player identifier"`
	Name string `json:"name,omitempty" jsonschema:"display name (defaults to the id inside the rules)"`
}

// AnswerInput is one player's answer to a pending prompt.
type AnswerInput struct {
	PlayerID string `json:"player_id" jsonschema:"player answering"`
	Prompt   string `json:"prompt" jsonschema:"prompt text exactly as listed in pending"`
	Value    string `json:"value" jsonschema:"answer text; range answers are decimal integers"`
	Kind     string `json:"kind,omitempty" jsonschema:"text, choice, range or vote (defaults to the pending prompt's kind)"`
}

// PlayerResult is one seat of a session.
type PlayerResult struct {
	ID        string `json:"id" jsonschema:"player identifier"`
	Name      string `json:"name,omitempty" jsonschema:"display name"`
	SeatGrant string `json:"seat_grant,omitempty" jsonschema:"token authorizing this player's answers"`
}

// PromptResult is an input request waiting on one player.
type PromptResult struct {
	Kind     string   `json:"kind" jsonschema:"text, choice, range or vote"`
	PlayerID string   `json:"player_id" jsonschema:"player who must answer"`
	Prompt   string   `json:"prompt" jsonschema:"prompt text"`
	Choices  []string `json:"choices,omitempty" jsonschema:"allowed answers for choice and vote prompts"`
	Min      *int64   `json:"min,omitempty" jsonschema:"inclusive lower bound for range prompts"`
	Max      *int64   `json:"max,omitempty" jsonschema:"inclusive upper bound for range prompts"`
}

// SessionResult is the state of a session after a tool call.
type SessionResult struct {
	ID        string         `json:"id" jsonschema:"session identifier"`
	Ruleset   string         `json:"ruleset" jsonschema:"ruleset name"`
	Status    string         `json:"status" jsonschema:"session status (AWAITING_INPUT, COMPLETED, FAILED)"`
	Failure   string         `json:"failure,omitempty" jsonschema:"rules error that stopped the session"`
	Players   []PlayerResult `json:"players" jsonschema:"seats in table order"`
	Pending   []PromptResult `json:"pending" jsonschema:"prompts still waiting for answers"`
	Outputs   []string       `json:"outputs" jsonschema:"announcements produced by the latest step"`
	Variables map[string]any `json:"variables,omitempty" jsonschema:"game state after the latest step"`
	CreatedAt string         `json:"created_at" jsonschema:"RFC3339 timestamp when the session was created"`
	UpdatedAt string         `json:"updated_at" jsonschema:"RFC3339 timestamp of the latest step"`
}

// RulesSessionStartInput represents the MCP tool input for starting a session.
type RulesSessionStartInput struct {
	Ruleset string        `json:"ruleset" jsonschema:"name of the ruleset to run"`
	Players []PlayerInput `json:"players" jsonschema:"players in seat order"`
	Locale  string        `json:"locale,omitempty" jsonschema:"language for error messages, e.g. en-US or pt-BR"`
}

// RulesSessionSubmitInput represents the MCP tool input for answering prompts.
type RulesSessionSubmitInput struct {
	SessionID string        `json:"session_id" jsonschema:"session identifier"`
	Answers   []AnswerInput `json:"answers" jsonschema:"answers to pending prompts"`
	SeatGrant string        `json:"seat_grant,omitempty" jsonschema:"seat grant of the answering player when the server requires one"`
	Locale    string        `json:"locale,omitempty" jsonschema:"language for error messages"`
}

// RulesSessionGetInput represents the MCP tool input for reading a session.
type RulesSessionGetInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
	Locale    string `json:"locale,omitempty" jsonschema:"language for error messages"`
}

// RulesSessionJournalInput represents the MCP tool input for reading a journal.
type RulesSessionJournalInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
	AfterSeq  int64  `json:"after_seq,omitempty" jsonschema:"only return entries after this sequence number"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of entries"`
	Locale    string `json:"locale,omitempty" jsonschema:"language for error messages"`
}

// JournalEntryResult is one journal entry.
type JournalEntryResult struct {
	Seq       int64          `json:"seq" jsonschema:"sequence number within the session"`
	Kind      string         `json:"kind" jsonschema:"requests, responses or outputs"`
	Prompts   []PromptResult `json:"prompts,omitempty" jsonschema:"prompts issued by the rules"`
	Answers   []AnswerInput  `json:"answers,omitempty" jsonschema:"answers delivered by players"`
	Outputs   []string       `json:"outputs,omitempty" jsonschema:"announcements"`
	CreatedAt string         `json:"created_at" jsonschema:"RFC3339 timestamp of the entry"`
}

// RulesSessionJournalResult represents the MCP tool output for a journal page.
type RulesSessionJournalResult struct {
	Entries []JournalEntryResult `json:"entries" jsonschema:"journal entries in sequence order"`
}

// RulesSessionStartTool defines the MCP tool schema for starting a session.
func RulesSessionStartTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "rules_session_start",
		Description: "Starts a ruleset for a table of players and runs it until it needs player input or finishes.",
	}
}

// RulesSessionSubmitTool defines the MCP tool schema for answering prompts.
func RulesSessionSubmitTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "rules_session_submit",
		Description: "Answers pending prompts of a session and runs it until it needs more input or finishes.",
	}
}

// RulesSessionGetTool defines the MCP tool schema for reading a session.
func RulesSessionGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "rules_session_get",
		Description: "Returns the status, pending prompts and game state of a session.",
	}
}

// RulesSessionJournalTool defines the MCP tool schema for reading a journal.
func RulesSessionJournalTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "rules_session_journal",
		Description: "Lists the prompts, answers and announcements recorded for a session.",
	}
}

// RulesSessionStartHandler executes a session start request.
func RulesSessionStartHandler(client SessionClient) mcp.ToolHandlerFor[RulesSessionStartInput, SessionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RulesSessionStartInput) (*mcp.CallToolResult, SessionResult, error) {
		players := make([]sessions.Player, 0, len(input.Players))
		for _, p := range input.Players {
			players = append(players, sessions.Player{ID: p.ID, Name: p.Name})
		}
		return callSession(ctx, "rules session start", input.Locale, "", func(ctx context.Context, opts ...grpc.CallOption) (sessions.Session, error) {
			return client.StartSession(ctx, sessions.StartSessionRequest{Ruleset: input.Ruleset, Players: players}, opts...)
		})
	}
}

// RulesSessionSubmitHandler executes a submit request.
func RulesSessionSubmitHandler(client SessionClient) mcp.ToolHandlerFor[RulesSessionSubmitInput, SessionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RulesSessionSubmitInput) (*mcp.CallToolResult, SessionResult, error) {
		answers := make([]sessions.Answer, 0, len(input.Answers))
		for _, a := range input.Answers {
			answers = append(answers, sessions.Answer{Kind: a.Kind, PlayerID: a.PlayerID, Prompt: a.Prompt, Value: a.Value})
		}
		return callSession(ctx, "rules session submit", input.Locale, input.SeatGrant, func(ctx context.Context, opts ...grpc.CallOption) (sessions.Session, error) {
			return client.SubmitInputs(ctx, sessions.SubmitInputsRequest{SessionID: input.SessionID, Answers: answers}, opts...)
		})
	}
}

// RulesSessionGetHandler executes a get request.
func RulesSessionGetHandler(client SessionClient) mcp.ToolHandlerFor[RulesSessionGetInput, SessionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RulesSessionGetInput) (*mcp.CallToolResult, SessionResult, error) {
		return callSession(ctx, "rules session get", input.Locale, "", func(ctx context.Context, opts ...grpc.CallOption) (sessions.Session, error) {
			return client.GetSession(ctx, sessions.GetSessionRequest{SessionID: input.SessionID}, opts...)
		})
	}
}

// RulesSessionJournalHandler executes a journal request.
func RulesSessionJournalHandler(client SessionClient) mcp.ToolHandlerFor[RulesSessionJournalInput, RulesSessionJournalResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RulesSessionJournalInput) (*mcp.CallToolResult, RulesSessionJournalResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
		defer cancel()
		callCtx, callMeta, err := NewOutgoingContext(grpcmeta.WithLocale(runCtx, input.Locale))
		if err != nil {
			return nil, RulesSessionJournalResult{}, fmt.Errorf("create request metadata: %w", err)
		}

		var header metadata.MD
		response, err := client.ListJournal(callCtx, sessions.ListJournalRequest{
			SessionID: input.SessionID,
			AfterSeq:  input.AfterSeq,
			Limit:     input.Limit,
		}, grpc.Header(&header))
		if err != nil {
			return nil, RulesSessionJournalResult{}, toolError("rules session journal", err)
		}

		result := RulesSessionJournalResult{Entries: make([]JournalEntryResult, 0, len(response.Events))}
		for _, event := range response.Events {
			entry := JournalEntryResult{
				Seq:       event.Seq,
				Kind:      event.Kind,
				Prompts:   promptResults(event.Prompts),
				Outputs:   event.Outputs,
				CreatedAt: event.CreatedAt,
			}
			for _, a := range event.Answers {
				entry.Answers = append(entry.Answers, AnswerInput{Kind: a.Kind, PlayerID: a.PlayerID, Prompt: a.Prompt, Value: a.Value})
			}
			result.Entries = append(result.Entries, entry)
		}
		return CallToolResultWithMetadata(MergeResponseMetadata(callMeta, header)), result, nil
	}
}

type sessionCall func(context.Context, ...grpc.CallOption) (sessions.Session, error)

// callSession runs one session RPC under the request timeout with locale,
// seat grant and correlation metadata attached.
func callSession(ctx context.Context, op, locale, seatGrant string, call sessionCall) (*mcp.CallToolResult, SessionResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
	defer cancel()

	runCtx = grpcmeta.WithSeatGrant(grpcmeta.WithLocale(runCtx, locale), seatGrant)
	callCtx, callMeta, err := NewOutgoingContext(runCtx)
	if err != nil {
		return nil, SessionResult{}, fmt.Errorf("create request metadata: %w", err)
	}

	var header metadata.MD
	response, err := call(callCtx, grpc.Header(&header))
	if err != nil {
		return nil, SessionResult{}, toolError(op, err)
	}
	return CallToolResultWithMetadata(MergeResponseMetadata(callMeta, header)), sessionResult(response), nil
}

// toolError reports the localized message the game server attached, tagged
// with its reason code.
func toolError(op string, err error) error {
	reason := apperrors.ReasonOf(err)
	if reason == apperrors.CodeUnknown {
		return fmt.Errorf("%s failed: %s", op, apperrors.UserMessage(err))
	}
	return fmt.Errorf("%s failed (%s): %s", op, reason, apperrors.UserMessage(err))
}

func sessionResult(s sessions.Session) SessionResult {
	result := SessionResult{
		ID:        s.ID,
		Ruleset:   s.Ruleset,
		Status:    s.Status,
		Failure:   s.Failure,
		Players:   make([]PlayerResult, 0, len(s.Players)),
		Pending:   promptResults(s.Pending),
		Outputs:   s.Outputs,
		Variables: s.Variables,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if result.Outputs == nil {
		result.Outputs = []string{}
	}
	for _, p := range s.Players {
		result.Players = append(result.Players, PlayerResult{ID: p.ID, Name: p.Name, SeatGrant: p.SeatGrant})
	}
	return result
}

func promptResults(prompts []sessions.Prompt) []PromptResult {
	out := make([]PromptResult, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, PromptResult{
			Kind:     p.Kind,
			PlayerID: p.PlayerID,
			Prompt:   p.Prompt,
			Choices:  p.Choices,
			Min:      p.Min,
			Max:      p.Max,
		})
	}
	return out
}

// ErrMissingClient is returned when tools are registered without a client.
var ErrMissingClient = errors.New("rules session client is required")
