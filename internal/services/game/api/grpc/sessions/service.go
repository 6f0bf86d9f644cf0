package sessions

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
	"github.com/JayLeung362573/373-sub000/internal/rules/input"
	"github.com/JayLeung362573/373-sub000/internal/services/game/api/grpc/metadata"
	"github.com/JayLeung362573/373-sub000/internal/services/game/seat"
	"github.com/JayLeung362573/373-sub000/internal/services/game/session"
	"github.com/JayLeung362573/373-sub000/internal/services/game/storage"
)

// Service implements game.v1.RulesSessionService over a session manager.
type Service struct {
	manager *session.Manager
	grants  *seat.Grants
}

// NewService builds the service. With nil grants every caller may answer
// for every seat.
func NewService(manager *session.Manager, grants *seat.Grants) *Service {
	return &Service{manager: manager, grants: grants}
}

// StartSession starts a ruleset and returns the first snapshot. Each player
// carries a seat grant when the server signs grants.
func (s *Service) StartSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req StartSessionRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if strings.TrimSpace(req.Ruleset) == "" {
		return nil, status.Error(codes.InvalidArgument, "ruleset is required")
	}
	players := make([]storage.Player, 0, len(req.Players))
	for _, p := range req.Players {
		players = append(players, storage.Player{ID: p.ID, Name: p.Name})
	}

	snap, err := s.manager.Start(ctx, req.Ruleset, players)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	out := sessionFromSnapshot(snap)
	if s.grants != nil {
		for i := range out.Players {
			grant, err := s.grants.Issue(out.ID, out.Players[i].ID)
			if err != nil {
				return nil, status.Errorf(codes.Internal, "issue seat grant: %v", err)
			}
			out.Players[i].SeatGrant = grant
		}
	}
	return toStruct(out)
}

// SubmitInputs delivers answers and runs the session until it needs more
// input or finishes.
func (s *Service) SubmitInputs(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SubmitInputsRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, handleError(ctx, apperrors.New(apperrors.CodeSessionEmptyID, "session id is required"))
	}
	if err := s.authorize(ctx, req); err != nil {
		return nil, handleError(ctx, err)
	}

	responses, err := s.responses(ctx, req)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	snap, err := s.manager.Submit(ctx, req.SessionID, responses)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return toStruct(sessionFromSnapshot(snap))
}

// GetSession returns the latest snapshot of a session.
func (s *Service) GetSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req GetSessionRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, handleError(ctx, apperrors.New(apperrors.CodeSessionEmptyID, "session id is required"))
	}
	snap, err := s.manager.Get(ctx, req.SessionID)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return toStruct(sessionFromSnapshot(snap))
}

// ListJournal returns journal entries after AfterSeq.
func (s *Service) ListJournal(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ListJournalRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, handleError(ctx, apperrors.New(apperrors.CodeSessionEmptyID, "session id is required"))
	}
	if req.AfterSeq < 0 || req.Limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "after_seq and limit must not be negative")
	}
	events, err := s.manager.Journal(ctx, req.SessionID, req.AfterSeq, req.Limit)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return toStruct(journalFromEvents(events))
}

func (s *Service) authorize(ctx context.Context, req SubmitInputsRequest) error {
	if s.grants == nil {
		return nil
	}
	claims, err := s.grants.Verify(metadata.SeatGrantFromContext(ctx), req.SessionID)
	if err != nil {
		return err
	}
	playerIDs := make([]string, 0, len(req.Answers))
	for _, answer := range req.Answers {
		playerIDs = append(playerIDs, answer.PlayerID)
	}
	return claims.Authorize(playerIDs...)
}

// responses converts wire answers, taking a missing kind from the pending
// prompt it answers.
func (s *Service) responses(ctx context.Context, req SubmitInputsRequest) ([]input.Response, error) {
	if len(req.Answers) == 0 {
		return nil, nil
	}
	var pending map[input.Key]input.Kind
	out := make([]input.Response, 0, len(req.Answers))
	for _, answer := range req.Answers {
		kind := input.Kind(answer.Kind)
		if kind == "" {
			if pending == nil {
				snap, err := s.manager.Get(ctx, req.SessionID)
				if err != nil {
					return nil, err
				}
				pending = make(map[input.Key]input.Kind, len(snap.Pending))
				for _, p := range snap.Pending {
					pending[p.Key()] = p.Kind()
				}
			}
			kind = pending[input.Key{PlayerID: answer.PlayerID, Prompt: answer.Prompt}]
		}
		resp, err := input.NewResponse(kind, answer.PlayerID, answer.Prompt, answer.Value)
		if err != nil {
			return nil, apperrors.WithMetadata(
				apperrors.CodeRulesArgumentValidation,
				err.Error(),
				map[string]string{"Prompt": answer.Prompt, "Value": answer.Value},
			)
		}
		out = append(out, resp)
	}
	return out, nil
}

func handleError(ctx context.Context, err error) error {
	return apperrors.HandleError(err, metadata.LocaleFromContext(ctx))
}
