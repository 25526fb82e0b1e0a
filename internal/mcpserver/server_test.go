package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ReturnsServer(t *testing.T) {
	server, err := New("v1.0.0-test", Options{})
	require.NoError(t, err)
	assert.NotNil(t, server)
}

// connect runs the server over an in-memory transport and returns a client
// session.
func connect(t *testing.T, server *mcp.Server) *mcp.ClientSession {
	t.Helper()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "v1.0.0",
	}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() }) //nolint:errcheck // best-effort close in test

	return session
}

func TestServer_ListsTools(t *testing.T) {
	server, err := New("v1.0.0-test", Options{})
	require.NoError(t, err)
	session := connect(t, server)

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, result.Tools, 4)

	names := make(map[string]bool)
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	assert.True(t, names["get_prs_of_repo"], "should have get_prs_of_repo tool")
	assert.True(t, names["get_pr"], "should have get_pr tool")
	assert.True(t, names["post_comment_on_pr"], "should have post_comment_on_pr tool")
	assert.True(t, names["analyze_and_comment_pr"], "should have analyze_and_comment_pr tool")
}

func TestServer_ServesPrompt(t *testing.T) {
	server, err := New("v1.0.0-test", Options{})
	require.NoError(t, err)
	session := connect(t, server)

	prompts, err := session.ListPrompts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, prompts.Prompts, 1)
	assert.Equal(t, "analyze_pull_request", prompts.Prompts[0].Name)

	result, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{Name: "analyze_pull_request"})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)

	text := result.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Review checklist")
	assert.Contains(t, text, "get_pr")
}

func TestServer_GetPREndToEnd(t *testing.T) {
	// Stub forge behind the real client.
	forgeStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/o/r/pulls/7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"number":7,"title":"wired","state":"open","user":{"login":"alice"},"created_at":"2026-08-20T00:00:00Z"}`) //nolint:errcheck // test handler
	}))
	defer forgeStub.Close()

	server, err := New("v1.0.0-test", Options{BaseURL: forgeStub.URL})
	require.NoError(t, err)
	session := connect(t, server)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_pr",
		Arguments: map[string]any{"owner": "o", "repo": "r", "pull_number": 7},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)

	var decoded struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
	}
	text := result.Content[0].(*mcp.TextContent).Text
	require.NoError(t, json.Unmarshal([]byte(text), &decoded))
	assert.Equal(t, 7, decoded.Number)
	assert.Equal(t, "wired", decoded.Title)
}

func TestServer_UpstreamRejectionIsErrorFlagged(t *testing.T) {
	forgeStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"message":"no"}`) //nolint:errcheck // test handler
	}))
	defer forgeStub.Close()

	server, err := New("v1.0.0-test", Options{BaseURL: forgeStub.URL})
	require.NoError(t, err)
	session := connect(t, server)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_pr",
		Arguments: map[string]any{"owner": "o", "repo": "r", "pull_number": 7},
	})
	require.NoError(t, err, "upstream failures must not surface as protocol faults")
	assert.True(t, result.IsError)
}

func TestHTTPHandler_NotNil(t *testing.T) {
	server, err := New("v1.0.0-test", Options{})
	require.NoError(t, err)
	assert.NotNil(t, HTTPHandler(server))
}
