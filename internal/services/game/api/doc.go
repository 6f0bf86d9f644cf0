// Package api holds the transports the game service exposes.
//
// Rules sessions are served over gRPC from grpc/sessions; grpc/metadata
// carries the request, locale, and seat grant headers those calls share.
package api
