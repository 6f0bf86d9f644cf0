// Package server composes the game gRPC entrypoint.
//
// It opens the session store, loads the ruleset catalog, restores sessions
// that were waiting on players when the process last stopped, and serves
// game.v1.RulesSessionService next to the standard health service. A
// background reaper evicts idle sessions from memory while the server runs.
package server
