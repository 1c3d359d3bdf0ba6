package editoradapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_EmptyBaseURLReturnsNil(t *testing.T) {
	ctx := NewEditorContextV1("a", "1", EditorEndpoint{BaseURL: "  "}, EditorCapabilities{})
	assert.Nil(t, FromContext(ctx, time.Second))
}

func TestFromContext_TrimsTrailingSlash(t *testing.T) {
	ctx := NewEditorContextV1("a", "1", EditorEndpoint{BaseURL: "http://127.0.0.1:8787/"}, EditorCapabilities{})
	client := FromContext(ctx, time.Second)
	require.NotNil(t, client)
	assert.Equal(t, "http://127.0.0.1:8787", client.baseURL)
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	ctx := NewEditorContextV1("a", "1", EditorEndpoint{BaseURL: srv.URL, AuthToken: "tok"}, EditorCapabilities{})
	return FromContext(ctx, 5*time.Second)
}

func TestClient_Health(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/editor/health", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	})
	require.NoError(t, client.Health(context.Background()))
}

func TestClient_Definition(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "main.go", body["file"])
		json.NewEncoder(w).Encode(map[string]any{
			"locations": []map[string]any{{"file": "main.go", "line": 10, "col": 2}},
		})
	})
	locs, err := client.Definition(context.Background(), "main.go", 5, 1)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "main.go", locs[0].File)
	assert.Equal(t, 10, locs[0].Line)
}

func TestClient_Hover_Present(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"hover": "func main()"})
	})
	text, ok, err := client.Hover(context.Background(), "main.go", 1, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "func main()", text)
}

func TestClient_Hover_Absent(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"hover": nil})
	})
	_, ok, err := client.Hover(context.Background(), "main.go", 1, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_BadStatusReturnsError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	err := client.Health(context.Background())
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestClient_Diagnostics_NoPathOmitsField(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		_, hasPath := body["path"]
		assert.False(t, hasPath)
		json.NewEncoder(w).Encode(map[string]any{"diagnostics": []any{}})
	})
	diags, err := client.Diagnostics(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestClient_Buffers(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"buffers": []map[string]any{{"id": 1, "path": "a.go", "name": "a.go", "modified": true, "filetype": "go"}},
		})
	})
	buffers, err := client.Buffers(context.Background())
	require.NoError(t, err)
	require.Len(t, buffers, 1)
	assert.True(t, buffers[0].Modified)
}
