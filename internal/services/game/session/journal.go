package session

import (
	"encoding/json"
	"fmt"

	"github.com/JayLeung362573/373-sub000/internal/rules/input"
)

// journalMessage is the stored form of one request or response.
type journalMessage struct {
	Kind     input.Kind `json:"kind"`
	PlayerID string     `json:"player_id"`
	Prompt   string     `json:"prompt"`
	Answer   string     `json:"answer,omitempty"`
	Choices  []string   `json:"choices,omitempty"`
	Min      *int64     `json:"min,omitempty"`
	Max      *int64     `json:"max,omitempty"`
}

func encodeResponses(responses []input.Response) ([]byte, error) {
	out := make([]journalMessage, 0, len(responses))
	for _, resp := range responses {
		key := resp.Key()
		out = append(out, journalMessage{
			Kind:     resp.Kind(),
			PlayerID: key.PlayerID,
			Prompt:   key.Prompt,
			Answer:   input.Answer(resp),
		})
	}
	return json.Marshal(out)
}

func decodeResponses(payload []byte) ([]input.Response, error) {
	var messages []journalMessage
	if err := json.Unmarshal(payload, &messages); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}
	out := make([]input.Response, 0, len(messages))
	for _, msg := range messages {
		resp, err := input.NewResponse(msg.Kind, msg.PlayerID, msg.Prompt, msg.Answer)
		if err != nil {
			return nil, fmt.Errorf("decode responses: %w", err)
		}
		out = append(out, resp)
	}
	return out, nil
}

func encodeRequests(requests []input.Request) ([]byte, error) {
	out := make([]journalMessage, 0, len(requests))
	for _, req := range requests {
		key := req.Key()
		msg := journalMessage{
			Kind:     req.Kind(),
			PlayerID: key.PlayerID,
			Prompt:   key.Prompt,
			Choices:  input.Choices(req),
		}
		if r, ok := req.(input.GetRangeInput); ok {
			msg.Min, msg.Max = &r.Min, &r.Max
		}
		out = append(out, msg)
	}
	return json.Marshal(out)
}

func decodeRequests(payload []byte) ([]input.Request, error) {
	var messages []journalMessage
	if err := json.Unmarshal(payload, &messages); err != nil {
		return nil, fmt.Errorf("decode requests: %w", err)
	}
	out := make([]input.Request, 0, len(messages))
	for _, msg := range messages {
		switch msg.Kind {
		case input.KindText:
			out = append(out, input.GetTextInput{PlayerID: msg.PlayerID, Prompt: msg.Prompt})
		case input.KindChoice:
			out = append(out, input.GetChoiceInput{PlayerID: msg.PlayerID, Prompt: msg.Prompt, Choices: msg.Choices})
		case input.KindVote:
			out = append(out, input.GetVoteInput{PlayerID: msg.PlayerID, Prompt: msg.Prompt, Choices: msg.Choices})
		case input.KindRange:
			if msg.Min == nil || msg.Max == nil {
				return nil, fmt.Errorf("decode requests: range %q without bounds", msg.Prompt)
			}
			out = append(out, input.GetRangeInput{PlayerID: msg.PlayerID, Prompt: msg.Prompt, Min: *msg.Min, Max: *msg.Max})
		default:
			return nil, fmt.Errorf("decode requests: unknown kind %q", msg.Kind)
		}
	}
	return out, nil
}

func encodeOutputs(outputs []string) ([]byte, error) {
	return json.Marshal(outputs)
}

func decodeOutputs(payload []byte) ([]string, error) {
	var outputs []string
	if err := json.Unmarshal(payload, &outputs); err != nil {
		return nil, fmt.Errorf("decode outputs: %w", err)
	}
	return outputs, nil
}
