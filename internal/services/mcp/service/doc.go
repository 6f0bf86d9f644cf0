// Package service runs the MCP bridge: it dials the game server, registers
// the rules session tools and serves MCP over stdio.
package service
