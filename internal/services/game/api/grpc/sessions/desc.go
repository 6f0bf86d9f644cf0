// Package sessions exposes rules sessions over gRPC as
// game.v1.RulesSessionService. Requests and responses are
// google.protobuf.Struct documents whose shape is given by the wire types in
// this package.
package sessions

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "game.v1.RulesSessionService"

// Full method names.
const (
	StartSessionMethod = "/" + ServiceName + "/StartSession"
	SubmitInputsMethod = "/" + ServiceName + "/SubmitInputs"
	GetSessionMethod   = "/" + ServiceName + "/GetSession"
	ListJournalMethod  = "/" + ServiceName + "/ListJournal"
)

// RulesSessionServer is the server API for game.v1.RulesSessionService.
type RulesSessionServer interface {
	StartSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitInputs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListJournal(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RulesSessionServiceDesc describes the service for grpc.Server.
var RulesSessionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RulesSessionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StartSession", Handler: unaryHandler(StartSessionMethod, RulesSessionServer.StartSession)},
		{MethodName: "SubmitInputs", Handler: unaryHandler(SubmitInputsMethod, RulesSessionServer.SubmitInputs)},
		{MethodName: "GetSession", Handler: unaryHandler(GetSessionMethod, RulesSessionServer.GetSession)},
		{MethodName: "ListJournal", Handler: unaryHandler(ListJournalMethod, RulesSessionServer.ListJournal)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "game/v1/rules_session.proto",
}

// RegisterRulesSessionServer registers srv on s.
func RegisterRulesSessionServer(s grpc.ServiceRegistrar, srv RulesSessionServer) {
	s.RegisterService(&RulesSessionServiceDesc, srv)
}

type unaryMethod func(RulesSessionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RulesSessionServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RulesSessionServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
