package input

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
)

// Mediator records responses and queues requests for one session. It is not
// safe for concurrent use.
type Mediator struct {
	responses map[Key]Response
	// requested remembers every key ever enqueued; it survives
	// ClearPendingRequests so a prompt is asked at most once.
	requested map[Key]struct{}
	pending   []Request
	outputs   []string
}

// NewMediator returns an empty mediator.
func NewMediator() *Mediator {
	return &Mediator{
		responses: map[Key]Response{},
		requested: map[Key]struct{}{},
	}
}

// GetTextInput returns the recorded answer, or enqueues the request and
// reports ok=false.
func (m *Mediator) GetTextInput(playerID, prompt string) (string, bool, error) {
	req := GetTextInput{PlayerID: playerID, Prompt: prompt}
	resp, ok := m.lookup(req)
	if !ok {
		return "", false, nil
	}
	text, isText := resp.(TextInput)
	if !isText {
		return "", false, kindMismatch(req, resp)
	}
	return text.Input, true, nil
}

// GetChoiceInput returns the recorded choice, which must be one of choices.
func (m *Mediator) GetChoiceInput(playerID, prompt string, choices []string) (string, bool, error) {
	req := GetChoiceInput{PlayerID: playerID, Prompt: prompt, Choices: slices.Clone(choices)}
	resp, ok := m.lookup(req)
	if !ok {
		return "", false, nil
	}
	choice, isChoice := resp.(ChoiceInput)
	if !isChoice {
		return "", false, kindMismatch(req, resp)
	}
	if err := requireOneOf(req.Key(), choice.Choice, choices); err != nil {
		return "", false, err
	}
	return choice.Choice, true, nil
}

// GetRangeInput returns the recorded integer, which must lie in [min, max].
func (m *Mediator) GetRangeInput(playerID, prompt string, min, max int64) (int64, bool, error) {
	req := GetRangeInput{PlayerID: playerID, Prompt: prompt, Min: min, Max: max}
	resp, ok := m.lookup(req)
	if !ok {
		return 0, false, nil
	}
	ranged, isRange := resp.(RangeInput)
	if !isRange {
		return 0, false, kindMismatch(req, resp)
	}
	v, err := parseRange(req.Key(), ranged.Value, min, max)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// GetVoteInput returns the recorded vote, which must be one of choices.
func (m *Mediator) GetVoteInput(playerID, prompt string, choices []string) (string, bool, error) {
	req := GetVoteInput{PlayerID: playerID, Prompt: prompt, Choices: slices.Clone(choices)}
	resp, ok := m.lookup(req)
	if !ok {
		return "", false, nil
	}
	vote, isVote := resp.(VoteInput)
	if !isVote {
		return "", false, kindMismatch(req, resp)
	}
	if err := requireOneOf(req.Key(), vote.Vote, choices); err != nil {
		return "", false, err
	}
	return vote.Vote, true, nil
}

// HandleIncomingMessages records responses, overwriting earlier answers to
// the same prompt.
func (m *Mediator) HandleIncomingMessages(responses []Response) {
	for _, resp := range responses {
		if resp == nil {
			continue
		}
		m.responses[resp.Key()] = resp
	}
}

// PendingRequests returns the outstanding requests in the order they were
// raised.
func (m *Mediator) PendingRequests() []Request {
	return slices.Clone(m.pending)
}

// ClearPendingRequests empties the request queue. Recorded responses and the
// already-requested markers are kept.
func (m *Mediator) ClearPendingRequests() {
	m.pending = nil
}

// SendOutput queues a free-text announcement.
func (m *Mediator) SendOutput(text string) {
	m.outputs = append(m.outputs, text)
}

// PopPendingOutputs drains the announcement queue.
func (m *Mediator) PopPendingOutputs() []string {
	out := m.outputs
	m.outputs = nil
	return out
}

// lookup returns the recorded response for req, enqueuing req the first time
// its key is seen without an answer.
func (m *Mediator) lookup(req Request) (Response, bool) {
	key := req.Key()
	if resp, ok := m.responses[key]; ok {
		return resp, true
	}
	if _, asked := m.requested[key]; !asked {
		m.requested[key] = struct{}{}
		m.pending = append(m.pending, req)
	}
	return nil, false
}

// Validate checks resp against req the same way the Get methods do, without
// recording anything. Hosts use it to reject bad answers before they reach
// a running program.
func Validate(req Request, resp Response) error {
	if req.Key() != resp.Key() {
		return apperrors.WithMetadata(
			apperrors.CodeRulesArgumentValidation,
			fmt.Sprintf("answer for %q does not match prompt %q", resp.Key().Prompt, req.Key().Prompt),
			map[string]string{"Prompt": resp.Key().Prompt, "Value": Answer(resp)},
		)
	}
	if req.Kind() != resp.Kind() {
		return kindMismatch(req, resp)
	}
	switch r := req.(type) {
	case GetChoiceInput:
		return requireOneOf(r.Key(), resp.(ChoiceInput).Choice, r.Choices)
	case GetVoteInput:
		return requireOneOf(r.Key(), resp.(VoteInput).Vote, r.Choices)
	case GetRangeInput:
		_, err := parseRange(r.Key(), resp.(RangeInput).Value, r.Min, r.Max)
		return err
	}
	return nil
}

func parseRange(key Key, raw string, min, max int64) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, apperrors.WithMetadata(
			apperrors.CodeRulesArgumentValidation,
			fmt.Sprintf("range answer %q for %q is not a number", raw, key.Prompt),
			map[string]string{"Prompt": key.Prompt, "Value": raw},
		)
	}
	if v < min || v > max {
		return 0, apperrors.WithMetadata(
			apperrors.CodeRulesArgumentValidation,
			fmt.Sprintf("range answer %d for %q is outside [%d, %d]", v, key.Prompt, min, max),
			map[string]string{
				"Prompt": key.Prompt,
				"Value":  raw,
				"Min":    strconv.FormatInt(min, 10),
				"Max":    strconv.FormatInt(max, 10),
			},
		)
	}
	return v, nil
}

func requireOneOf(key Key, answer string, choices []string) error {
	if slices.Contains(choices, answer) {
		return nil
	}
	return apperrors.WithMetadata(
		apperrors.CodeRulesArgumentValidation,
		fmt.Sprintf("answer %q for %q is not one of %v", answer, key.Prompt, choices),
		map[string]string{"Prompt": key.Prompt, "Value": answer, "Choices": strings.Join(choices, ", ")},
	)
}

func kindMismatch(req Request, resp Response) error {
	return apperrors.WithMetadata(
		apperrors.CodeRulesArgumentValidation,
		fmt.Sprintf("%s answer given for %s prompt %q", resp.Kind(), req.Kind(), req.Key().Prompt),
		map[string]string{"Prompt": req.Key().Prompt, "Expected": string(req.Kind()), "Actual": string(resp.Kind())},
	)
}
