package mcpsup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tarkdev/tarkcore/internal/policy/types"
)

const (
	protocolVersion = "2024-11-05"
	clientName      = "tarkcored"
	clientVersion   = "1"
)

// PolicyStore is the subset of policystore.Store the supervisor needs to
// resolve an MCP tool policy.
type PolicyStore interface {
	McpPolicy(serverID, toolName string) (types.McpPolicy, error)
	McpDenialExists(serverID, toolName string) (bool, error)
	McpApprovalExists(serverID, toolName string) (bool, error)
}

// CallableTool is one MCP tool wrapped with the policy decision the
// supervisor resolved at discovery time.
type CallableTool struct {
	ServerID    string
	Name        string
	Description string
	InputSchema json.RawMessage
	Policy      types.McpPolicy
}

// Supervisor owns one MCP server's lifecycle: spawn, initialize, discover,
// invoke, probe, shutdown. It reports a server death once; subsequent
// calls fail fast with ErrServerDied until the caller reconnects by
// spawning a fresh Supervisor.
type Supervisor struct {
	serverID string
	store    PolicyStore
	log      *slog.Logger

	transport    *stdioTransport
	callMu       sync.Mutex // held across one request's write and its reply's read
	nextID       atomic.Int64
	capabilities ServerCapabilities
	tools        map[string]CallableTool
	dead         bool
}

// New spawns cfg's command and returns a Supervisor for it. The server is
// not yet initialized or discovered — call Initialize then Discover.
func New(serverID string, cfg ServerConfig, store PolicyStore, log *slog.Logger) (*Supervisor, error) {
	transport, err := spawnStdioTransport(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{
		serverID:  serverID,
		store:     store,
		log:       log,
		transport: transport,
		tools:     make(map[string]CallableTool),
	}, nil
}

// call sends one JSON-RPC request and blocks for its correlated response.
// Per spec.md §4.10, requests within one server are linearizable: the
// stdin write and the stdout read for its response both happen while
// holding callMu, one request in flight at a time. Lines whose id does not
// match the request's id are skipped.
func (s *Supervisor) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if s.dead {
		return nil, ErrServerDied
	}
	if !s.transport.alive() {
		s.dead = true
		s.log.Error("mcp server died", "server", s.serverID)
		return nil, ErrServerDied
	}

	id := s.nextID.Add(1)
	req, err := newRequest(id, method, params)
	if err != nil {
		return nil, err
	}
	line, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("mcpsup: marshal request: %w", err)
	}

	type result struct {
		resp response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		s.callMu.Lock()
		defer s.callMu.Unlock()
		if err := s.transport.writeLine(line); err != nil {
			done <- result{err: err}
			return
		}
		for {
			raw, err := s.transport.readLine()
			if err != nil {
				done <- result{err: err}
				return
			}
			var resp response
			if err := json.Unmarshal(raw, &resp); err != nil {
				done <- result{err: fmt.Errorf("mcpsup: parse response: %w", err)}
				return
			}
			if resp.ID != id {
				continue
			}
			done <- result{resp: resp}
			return
		}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, method)
		}
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		if r.resp.Error != nil {
			return nil, &ProtocolError{Code: r.resp.Error.Code, Message: r.resp.Error.Message, Data: r.resp.Error.Data}
		}
		return r.resp.Result, nil
	}
}

// Initialize performs the MCP handshake and records the server's
// advertised capabilities.
func (s *Supervisor) Initialize(ctx context.Context) error {
	raw, err := s.call(ctx, "initialize", initializeParams{
		ProtocolVersion: protocolVersion,
		ClientInfo:      clientInfo{Name: clientName, Version: clientVersion},
		Capabilities:    map[string]any{"tools": map[string]any{}},
	})
	if err != nil {
		return fmt.Errorf("mcpsup: initialize: %w", err)
	}
	var result initializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("mcpsup: parse initialize result: %w", err)
	}
	s.capabilities = result.Capabilities
	return nil
}

// Capabilities returns the capabilities recorded at Initialize.
func (s *Supervisor) Capabilities() ServerCapabilities { return s.capabilities }

// Discover calls tools/list and wraps each returned tool with the policy
// resolved for (serverID, toolName), defaulting to moderate risk,
// approval required, and pattern-save allowed when no row exists.
func (s *Supervisor) Discover(ctx context.Context) ([]CallableTool, error) {
	raw, err := s.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, fmt.Errorf("mcpsup: tools/list: %w", err)
	}
	var result toolsListResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("mcpsup: parse tools/list result: %w", err)
	}

	callables := make([]CallableTool, 0, len(result.Tools))
	for _, tool := range result.Tools {
		policy, err := s.store.McpPolicy(s.serverID, tool.Name)
		if err != nil {
			return nil, fmt.Errorf("mcpsup: resolve policy for %s: %w", tool.Name, err)
		}
		callable := CallableTool{
			ServerID:    s.serverID,
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
			Policy:      policy,
		}
		s.tools[tool.Name] = callable
		callables = append(callables, callable)
	}
	return callables, nil
}

// Tools returns the tools discovered by the last Discover call.
func (s *Supervisor) Tools() []CallableTool {
	out := make([]CallableTool, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, t)
	}
	return out
}

// CheckApproval resolves the approval decision for toolName per spec.md
// §4.10/§6: a saved MCP denial pattern blocks the call outright; a saved
// MCP approval pattern clears the policy's own needs_approval flag;
// otherwise the policy row (or its defaults) decides.
func (s *Supervisor) CheckApproval(toolName string) (needsApproval, blocked bool, err error) {
	tool, ok := s.tools[toolName]
	if !ok {
		return false, false, fmt.Errorf("%w: %s", ErrToolNotFound, toolName)
	}

	denied, err := s.store.McpDenialExists(s.serverID, toolName)
	if err != nil {
		return false, false, fmt.Errorf("mcpsup: check denial pattern: %w", err)
	}
	if denied {
		return true, true, nil
	}

	if tool.Policy.NeedsApproval {
		approved, err := s.store.McpApprovalExists(s.serverID, toolName)
		if err != nil {
			return false, false, fmt.Errorf("mcpsup: check approval pattern: %w", err)
		}
		if approved {
			return false, false, nil
		}
	}

	return tool.Policy.NeedsApproval, false, nil
}

// Invoke sends tools/call for toolName and collapses the returned content
// blocks into a single string. isError mirrors the MCP result's own
// isError flag, so the caller decides how to surface a tool-reported
// failure rather than this layer turning it into a Go error.
func (s *Supervisor) Invoke(ctx context.Context, toolName string, arguments any) (text string, isError bool, err error) {
	if _, ok := s.tools[toolName]; !ok {
		return "", false, fmt.Errorf("%w: %s", ErrToolNotFound, toolName)
	}

	raw, err := s.call(ctx, "tools/call", callToolParams{Name: toolName, Arguments: arguments})
	if err != nil {
		return "", false, err
	}
	var result callToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", false, fmt.Errorf("mcpsup: parse tools/call result: %w", err)
	}
	return collapseContent(result.Content), result.IsError, nil
}

// Alive is a non-blocking liveness probe.
func (s *Supervisor) Alive() bool {
	if s.dead {
		return false
	}
	return s.transport.alive()
}

// Close sends SIGKILL to the child process and releases its pipes.
func (s *Supervisor) Close() error {
	s.dead = true
	return s.transport.close()
}
