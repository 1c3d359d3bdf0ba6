// Package mcpsup supervises external MCP (Model Context Protocol) tool
// servers: spawning them, speaking newline-delimited JSON-RPC over their
// stdio, discovering their tools, and wrapping each one as a
// policy-gated callable.
package mcpsup

import (
	"errors"
	"fmt"
)

// Sentinel errors identify why a supervisor operation failed.
var (
	// ErrSpawnFailed means the child process could not be started.
	ErrSpawnFailed = errors.New("mcpsup: spawn failed")
	// ErrServerDied means the child process has exited; subsequent calls
	// fail fast until the host reconnects.
	ErrServerDied = errors.New("mcpsup: server died")
	// ErrNotInitialized means a call/discovery method was invoked before
	// Initialize succeeded.
	ErrNotInitialized = errors.New("mcpsup: server not initialized")
	// ErrToolNotFound means a tool name wasn't in the server's tools/list
	// result.
	ErrToolNotFound = errors.New("mcpsup: tool not found")
	// ErrTimeout means the caller's context deadline elapsed waiting for
	// a request's response.
	ErrTimeout = errors.New("mcpsup: request timed out")
)

// ProtocolError wraps a JSON-RPC error object returned by the server.
type ProtocolError struct {
	Code    int
	Message string
	Data    any
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("mcpsup: rpc error %d: %s", e.Code, e.Message)
}
