package mcpsup

import (
	"encoding/json"
	"fmt"
)

// jsonrpcVersion is the only JSON-RPC version the supervisor speaks.
const jsonrpcVersion = "2.0"

// request is a JSON-RPC 2.0 request, serialized as a single newline-
// terminated line per spec.
type request struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// response is a JSON-RPC 2.0 response, correlated back to its request by
// ID.
type response struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the JSON-RPC error object; the caller's request fails with
// this wrapped as a *ProtocolError when present.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func newRequest(id int64, method string, params any) (request, error) {
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return request{}, fmt.Errorf("mcpsup: marshal params: %w", err)
		}
		raw = data
	}
	return request{Jsonrpc: jsonrpcVersion, ID: id, Method: method, Params: raw}, nil
}

// initializeParams is sent as the single initialize request's params.
type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ClientInfo      clientInfo     `json:"clientInfo"`
	Capabilities    map[string]any `json:"capabilities"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// initializeResult captures the subset of the server's initialize
// response the supervisor records: advertised capabilities.
type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
}

// ServerCapabilities records the capability flags spec.md asks the
// supervisor to remember after initialize.
type ServerCapabilities struct {
	ToolsListChanged bool `json:"-"`
	Resources        bool `json:"-"`
	Prompts          bool `json:"-"`
}

// UnmarshalJSON reads the nested {tools:{listChanged}, resources, prompts}
// shape MCP servers advertise into the flat ServerCapabilities fields.
func (c *ServerCapabilities) UnmarshalJSON(data []byte) error {
	var wire struct {
		Tools *struct {
			ListChanged bool `json:"listChanged"`
		} `json:"tools"`
		Resources any `json:"resources"`
		Prompts   any `json:"prompts"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Tools != nil {
		c.ToolsListChanged = wire.Tools.ListChanged
	}
	c.Resources = wire.Resources != nil
	c.Prompts = wire.Prompts != nil
	return nil
}

// Tool describes one capability a server's tools/list call returned.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

type toolsListResult struct {
	Tools []Tool `json:"tools"`
}

type callToolParams struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments,omitempty"`
}

// contentBlock is one element of a tools/call result's content array: a
// text block, an image placeholder, or a resource URI. Text is populated
// for text blocks and URI for resource blocks; collapseContent renders a
// placeholder for images instead of decoding image bytes.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	URI  string `json:"uri,omitempty"`
}

type callToolResult struct {
	Content []contentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// collapseContent renders a tools/call content array into a single
// string, per spec.md §4.10 step 4.
func collapseContent(blocks []contentBlock) string {
	out := ""
	for i, b := range blocks {
		if i > 0 {
			out += "\n"
		}
		switch b.Type {
		case "text":
			out += b.Text
		case "image":
			out += "[image content omitted]"
		case "resource":
			out += fmt.Sprintf("[resource: %s]", b.URI)
		default:
			out += fmt.Sprintf("[unknown content type %q]", b.Type)
		}
	}
	return out
}
