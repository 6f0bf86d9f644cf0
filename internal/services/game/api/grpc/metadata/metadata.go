// Package metadata defines the gRPC headers shared by the game server and
// its clients.
//
//   - RequestIDHeader correlates logs and spans across a call chain.
//   - InvocationIDHeader tracks MCP tool invocations.
//   - SeatGrantHeader carries the seat grant that authorizes answers.
//   - LocaleHeader selects the language of player-facing error messages.
package metadata

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/JayLeung362573/373-sub000/internal/platform/id"
)

const (
	// RequestIDHeader is the gRPC metadata key for request correlation IDs.
	RequestIDHeader = "x-fracturing-space-request-id"
	// InvocationIDHeader is the gRPC metadata key for MCP tool invocation IDs.
	InvocationIDHeader = "x-fracturing-space-invocation-id"
	// SeatGrantHeader is the gRPC metadata key for seat grants.
	SeatGrantHeader = "x-seat-grant"
	// LocaleHeader is the gRPC metadata key for the caller's locale.
	LocaleHeader = "x-locale"
)

type contextKey string

const (
	requestIDContextKey    contextKey = "fracturing-space-request-id"
	invocationIDContextKey contextKey = "fracturing-space-invocation-id"
)

// RequestIDFromContext returns the request ID stored by the interceptor.
func RequestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDContextKey).(string)
	return value
}

// InvocationIDFromContext returns the invocation ID stored by the interceptor.
func InvocationIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(invocationIDContextKey).(string)
	return value
}

// SeatGrantFromContext returns the seat grant from incoming metadata.
func SeatGrantFromContext(ctx context.Context) string {
	return incomingValue(ctx, SeatGrantHeader)
}

// LocaleFromContext returns the requested locale from incoming metadata.
func LocaleFromContext(ctx context.Context) string {
	return incomingValue(ctx, LocaleHeader)
}

// WithSeatGrant attaches a seat grant to outgoing calls made with ctx.
func WithSeatGrant(ctx context.Context, grant string) context.Context {
	return appendOutgoing(ctx, SeatGrantHeader, grant)
}

// WithLocale attaches a locale to outgoing calls made with ctx.
func WithLocale(ctx context.Context, locale string) context.Context {
	return appendOutgoing(ctx, LocaleHeader, locale)
}

// WithInvocationID attaches an invocation ID to outgoing calls made with ctx.
func WithInvocationID(ctx context.Context, invocationID string) context.Context {
	return appendOutgoing(ctx, InvocationIDHeader, invocationID)
}

// IsPrintableASCII reports whether value is non-empty printable ASCII.
func IsPrintableASCII(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7e {
			return false
		}
	}
	return true
}

// FirstMetadataValue returns the first printable ASCII value for key.
func FirstMetadataValue(md metadata.MD, key string) string {
	for _, value := range md.Get(key) {
		if IsPrintableASCII(value) {
			return value
		}
	}
	return ""
}

// UnaryServerInterceptor guarantees every call carries a request ID, echoes
// it in the response headers, and tags the active span with it.
func UnaryServerInterceptor(idGenerator func() (string, error)) grpc.UnaryServerInterceptor {
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := incomingValue(ctx, RequestIDHeader)
		if requestID == "" {
			generated, err := idGenerator()
			if err != nil {
				return nil, status.Errorf(codes.Internal, "ensure request metadata: %v", err)
			}
			requestID = generated
		}
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)
		attrs := []attribute.KeyValue{attribute.String("request.id", requestID)}
		headers := metadata.Pairs(RequestIDHeader, requestID)
		if invocationID := incomingValue(ctx, InvocationIDHeader); invocationID != "" {
			ctx = context.WithValue(ctx, invocationIDContextKey, invocationID)
			attrs = append(attrs, attribute.String("invocation.id", invocationID))
			headers.Set(InvocationIDHeader, invocationID)
		}
		trace.SpanFromContext(ctx).SetAttributes(attrs...)
		if err := grpc.SetHeader(ctx, headers); err != nil {
			return nil, status.Errorf(codes.Internal, "set response metadata: %v", err)
		}
		return handler(ctx, req)
	}
}

func incomingValue(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	return FirstMetadataValue(md, key)
}

func appendOutgoing(ctx context.Context, key, value string) context.Context {
	value = strings.TrimSpace(value)
	if value == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, key, value)
}
