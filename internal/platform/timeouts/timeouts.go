// Package timeouts defines timeout constants shared across services.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing a gRPC peer.
const GRPCDial = 2 * time.Second

// GRPCRequest caps a single call from the MCP bridge to the game service.
const GRPCRequest = 5 * time.Second

// Shutdown limits how long a server waits for in-flight calls during
// graceful shutdown.
const Shutdown = 5 * time.Second

// ReapInterval is how often the game service evicts idle sessions.
const ReapInterval = time.Minute
