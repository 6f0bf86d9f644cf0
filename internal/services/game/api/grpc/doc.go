// Package grpc groups the game service's gRPC surface.
//
//   - sessions/: RulesSessionService handlers, wire messages, and client
//   - metadata/: header helpers and the unary interceptor
package grpc
