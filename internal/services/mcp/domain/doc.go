// Package domain maps MCP tool calls onto the rules session API.
//
// Each tool has an input type, a result type, a tool definition and a
// handler. Handlers attach locale, seat grant and correlation metadata to the
// outgoing gRPC call and turn server errors into the localized text players
// would see.
package domain
