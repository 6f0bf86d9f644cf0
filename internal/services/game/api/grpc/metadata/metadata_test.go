package metadata

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestIncomingHelpers(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		SeatGrantHeader, "grant",
		LocaleHeader, "pt-BR",
	))
	if got := SeatGrantFromContext(ctx); got != "grant" {
		t.Fatalf("seat grant = %q", got)
	}
	if got := LocaleFromContext(ctx); got != "pt-BR" {
		t.Fatalf("locale = %q", got)
	}
	if got := LocaleFromContext(context.Background()); got != "" {
		t.Fatalf("locale without metadata = %q", got)
	}
}

func TestOutgoingHelpers(t *testing.T) {
	ctx := WithLocale(WithSeatGrant(context.Background(), "grant"), " ")
	md, _ := metadata.FromOutgoingContext(ctx)
	if got := md.Get(SeatGrantHeader); len(got) != 1 || got[0] != "grant" {
		t.Fatalf("seat grant = %v", got)
	}
	if got := md.Get(LocaleHeader); len(got) != 0 {
		t.Fatalf("blank locale was attached: %v", got)
	}
}

func TestFirstMetadataValueSkipsUnprintable(t *testing.T) {
	md := metadata.MD{RequestIDHeader: []string{"bad\n", "good"}}
	if got := FirstMetadataValue(md, RequestIDHeader); got != "good" {
		t.Fatalf("value = %q, want good", got)
	}
	if IsPrintableASCII("") {
		t.Fatal("empty string is not printable")
	}
}

type headerStream struct {
	header metadata.MD
}

func (s *headerStream) Method() string { return "/test" }

func (s *headerStream) SetHeader(md metadata.MD) error {
	s.header = metadata.Join(s.header, md)
	return nil
}

func (s *headerStream) SendHeader(md metadata.MD) error { return s.SetHeader(md) }

func (s *headerStream) SetTrailer(metadata.MD) error { return nil }

func TestUnaryServerInterceptorAssignsRequestID(t *testing.T) {
	stream := &headerStream{}
	ctx := grpc.NewContextWithServerTransportStream(context.Background(), stream)
	ctx = metadata.NewIncomingContext(ctx, metadata.Pairs(InvocationIDHeader, "inv-1"))

	interceptor := UnaryServerInterceptor(func() (string, error) { return "req-1", nil })
	var seenRequest, seenInvocation string
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, _ any) (any, error) {
		seenRequest = RequestIDFromContext(ctx)
		seenInvocation = InvocationIDFromContext(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if seenRequest != "req-1" || seenInvocation != "inv-1" {
		t.Fatalf("context ids = %q, %q", seenRequest, seenInvocation)
	}
	if got := stream.header.Get(RequestIDHeader); len(got) != 1 || got[0] != "req-1" {
		t.Fatalf("response header = %v", stream.header)
	}
}

func TestUnaryServerInterceptorKeepsCallerRequestID(t *testing.T) {
	ctx := grpc.NewContextWithServerTransportStream(context.Background(), &headerStream{})
	ctx = metadata.NewIncomingContext(ctx, metadata.Pairs(RequestIDHeader, "caller"))
	interceptor := UnaryServerInterceptor(func() (string, error) { return "", errors.New("unused") })
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, _ any) (any, error) {
		if got := RequestIDFromContext(ctx); got != "caller" {
			t.Fatalf("request id = %q, want caller", got)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
}
