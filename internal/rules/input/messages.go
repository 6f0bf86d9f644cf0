// Package input reconciles player-facing input requests with the responses
// delivered by the session layer.
package input

import (
	"fmt"
	"slices"
)

// Kind names the shape of a request or response.
type Kind string

const (
	KindText   Kind = "text"
	KindChoice Kind = "choice"
	KindRange  Kind = "range"
	KindVote   Kind = "vote"
)

// Key identifies one prompt addressed to one player. It is the dedup key for
// requests and the lookup key for responses.
type Key struct {
	PlayerID string
	Prompt   string
}

// Request is an outgoing prompt waiting for a player's answer.
type Request interface {
	Key() Key
	Kind() Kind
	request()
}

// Response is a player's answer to a prompt.
type Response interface {
	Key() Key
	Kind() Kind
	response()
}

// GetTextInput asks for free text.
type GetTextInput struct {
	PlayerID string
	Prompt   string
}

// GetChoiceInput asks the player to pick one of Choices.
type GetChoiceInput struct {
	PlayerID string
	Prompt   string
	Choices  []string
}

// GetRangeInput asks for an integer in [Min, Max].
type GetRangeInput struct {
	PlayerID string
	Prompt   string
	Min      int64
	Max      int64
}

// GetVoteInput asks the player to vote for one of Choices.
type GetVoteInput struct {
	PlayerID string
	Prompt   string
	Choices  []string
}

func (r GetTextInput) Key() Key   { return Key{PlayerID: r.PlayerID, Prompt: r.Prompt} }
func (r GetChoiceInput) Key() Key { return Key{PlayerID: r.PlayerID, Prompt: r.Prompt} }
func (r GetRangeInput) Key() Key  { return Key{PlayerID: r.PlayerID, Prompt: r.Prompt} }
func (r GetVoteInput) Key() Key   { return Key{PlayerID: r.PlayerID, Prompt: r.Prompt} }

func (GetTextInput) Kind() Kind   { return KindText }
func (GetChoiceInput) Kind() Kind { return KindChoice }
func (GetRangeInput) Kind() Kind  { return KindRange }
func (GetVoteInput) Kind() Kind   { return KindVote }

func (GetTextInput) request()   {}
func (GetChoiceInput) request() {}
func (GetRangeInput) request()  {}
func (GetVoteInput) request()   {}

// TextInput answers a GetTextInput.
type TextInput struct {
	PlayerID string
	Prompt   string
	Input    string
}

// ChoiceInput answers a GetChoiceInput.
type ChoiceInput struct {
	PlayerID string
	Prompt   string
	Choice   string
}

// RangeInput answers a GetRangeInput. Value must parse as an integer.
type RangeInput struct {
	PlayerID string
	Prompt   string
	Value    string
}

// VoteInput answers a GetVoteInput.
type VoteInput struct {
	PlayerID string
	Prompt   string
	Vote     string
}

func (r TextInput) Key() Key   { return Key{PlayerID: r.PlayerID, Prompt: r.Prompt} }
func (r ChoiceInput) Key() Key { return Key{PlayerID: r.PlayerID, Prompt: r.Prompt} }
func (r RangeInput) Key() Key  { return Key{PlayerID: r.PlayerID, Prompt: r.Prompt} }
func (r VoteInput) Key() Key   { return Key{PlayerID: r.PlayerID, Prompt: r.Prompt} }

func (TextInput) Kind() Kind   { return KindText }
func (ChoiceInput) Kind() Kind { return KindChoice }
func (RangeInput) Kind() Kind  { return KindRange }
func (VoteInput) Kind() Kind   { return KindVote }

func (TextInput) response()   {}
func (ChoiceInput) response() {}
func (RangeInput) response()  {}
func (VoteInput) response()   {}

// NewResponse builds the response of the given kind carrying answer.
func NewResponse(kind Kind, playerID, prompt, answer string) (Response, error) {
	switch kind {
	case KindText:
		return TextInput{PlayerID: playerID, Prompt: prompt, Input: answer}, nil
	case KindChoice:
		return ChoiceInput{PlayerID: playerID, Prompt: prompt, Choice: answer}, nil
	case KindRange:
		return RangeInput{PlayerID: playerID, Prompt: prompt, Value: answer}, nil
	case KindVote:
		return VoteInput{PlayerID: playerID, Prompt: prompt, Vote: answer}, nil
	default:
		return nil, fmt.Errorf("unknown input kind %q", kind)
	}
}

// Answer returns the raw answer text of resp.
func Answer(resp Response) string {
	switch r := resp.(type) {
	case TextInput:
		return r.Input
	case ChoiceInput:
		return r.Choice
	case RangeInput:
		return r.Value
	case VoteInput:
		return r.Vote
	default:
		return ""
	}
}

// Choices returns the options offered by req, or nil for free-form prompts.
func Choices(req Request) []string {
	switch r := req.(type) {
	case GetChoiceInput:
		return slices.Clone(r.Choices)
	case GetVoteInput:
		return slices.Clone(r.Choices)
	default:
		return nil
	}
}
