package sessions

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls game.v1.RulesSessionService with the typed wire structs.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// StartSession starts a ruleset.
func (c *Client) StartSession(ctx context.Context, req StartSessionRequest, opts ...grpc.CallOption) (Session, error) {
	return invoke[Session](ctx, c.conn, StartSessionMethod, req, opts...)
}

// SubmitInputs delivers a batch of answers.
func (c *Client) SubmitInputs(ctx context.Context, req SubmitInputsRequest, opts ...grpc.CallOption) (Session, error) {
	return invoke[Session](ctx, c.conn, SubmitInputsMethod, req, opts...)
}

// GetSession reads one session.
func (c *Client) GetSession(ctx context.Context, req GetSessionRequest, opts ...grpc.CallOption) (Session, error) {
	return invoke[Session](ctx, c.conn, GetSessionMethod, req, opts...)
}

// ListJournal reads one page of a session journal.
func (c *Client) ListJournal(ctx context.Context, req ListJournalRequest, opts ...grpc.CallOption) (ListJournalResponse, error) {
	return invoke[ListJournalResponse](ctx, c.conn, ListJournalMethod, req, opts...)
}

func invoke[T any](ctx context.Context, conn grpc.ClientConnInterface, method string, req any, opts ...grpc.CallOption) (T, error) {
	var out T
	in, err := toStruct(req)
	if err != nil {
		return out, err
	}
	reply := new(structpb.Struct)
	if err := conn.Invoke(ctx, method, in, reply, opts...); err != nil {
		return out, err
	}
	if err := fromStruct(reply, &out); err != nil {
		return out, err
	}
	return out, nil
}
