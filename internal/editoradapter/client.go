package editoradapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks HTTP to one editor adapter instance.
type Client struct {
	baseURL   string
	authToken string
	http      *http.Client
}

// FromContext builds a Client from ctx's endpoint, or returns nil (no
// error) when ctx has no base_url configured — mirroring the original's
// Option-returning constructor, since "no editor adapter configured" is
// an ordinary, expected state rather than a failure.
func FromContext(ctx EditorContextV1, timeout time.Duration) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(ctx.Endpoint.BaseURL), "/")
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL:   baseURL,
		authToken: ctx.Endpoint.AuthToken,
		http:      &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("editoradapter: marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreachableEndpoint, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnreachableEndpoint, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned %d", ErrBadResponse, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: invalid JSON from %s: %v", ErrBadResponse, req.URL.Path, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// Health pings the adapter's liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/editor/health", nil)
}

// Definition resolves the definition(s) of the symbol at file:line:col.
func (c *Client) Definition(ctx context.Context, file string, line, col int) ([]AdapterLocation, error) {
	var result struct {
		Locations []AdapterLocation `json:"locations"`
	}
	err := c.postJSON(ctx, "/editor/definition", map[string]any{"file": file, "line": line, "col": col}, &result)
	return result.Locations, err
}

// References resolves every reference to the symbol at file:line:col.
func (c *Client) References(ctx context.Context, file string, line, col int) ([]AdapterLocation, error) {
	var result struct {
		References []AdapterLocation `json:"references"`
	}
	err := c.postJSON(ctx, "/editor/references", map[string]any{"file": file, "line": line, "col": col}, &result)
	return result.References, err
}

// Hover returns the hover text at file:line:col, or "", false if none.
func (c *Client) Hover(ctx context.Context, file string, line, col int) (string, bool, error) {
	var result struct {
		Hover *string `json:"hover"`
	}
	if err := c.postJSON(ctx, "/editor/hover", map[string]any{"file": file, "line": line, "col": col}, &result); err != nil {
		return "", false, err
	}
	if result.Hover == nil {
		return "", false, nil
	}
	return *result.Hover, true, nil
}

// Symbols returns the symbols defined in file.
func (c *Client) Symbols(ctx context.Context, file string) ([]AdapterSymbol, error) {
	var result struct {
		Symbols []AdapterSymbol `json:"symbols"`
	}
	err := c.postJSON(ctx, "/editor/symbols", map[string]any{"file": file}, &result)
	return result.Symbols, err
}

// Diagnostics returns diagnostics, optionally scoped to one path; an empty
// path requests diagnostics for the whole workspace.
func (c *Client) Diagnostics(ctx context.Context, path string) ([]AdapterDiagnostic, error) {
	payload := map[string]any{}
	if path != "" {
		payload["path"] = path
	}
	var result struct {
		Diagnostics []AdapterDiagnostic `json:"diagnostics"`
	}
	err := c.postJSON(ctx, "/editor/diagnostics", payload, &result)
	return result.Diagnostics, err
}

// Cursor returns the editor's current cursor position.
func (c *Client) Cursor(ctx context.Context) (AdapterCursor, error) {
	var cursor AdapterCursor
	err := c.getJSON(ctx, "/editor/cursor", &cursor)
	return cursor, err
}

// Buffers returns every open editor buffer.
func (c *Client) Buffers(ctx context.Context) ([]AdapterBufferInfo, error) {
	var result struct {
		Buffers []AdapterBufferInfo `json:"buffers"`
	}
	err := c.getJSON(ctx, "/editor/buffers", &result)
	return result.Buffers, err
}

// BufferContent returns the raw JSON payload describing path's buffer
// content; the original leaves this untyped too, since the shape varies
// by adapter (plain text vs. structured line list).
func (c *Client) BufferContent(ctx context.Context, path string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.postJSON(ctx, "/editor/buffer-content", map[string]any{"path": path}, &raw)
	return raw, err
}

// OpenFile asks the editor to open path, optionally jumping to line:col.
func (c *Client) OpenFile(ctx context.Context, path string, line, col *int) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.postJSON(ctx, "/editor/open-file", map[string]any{"path": path, "line": line, "col": col}, &raw)
	return raw, err
}
