package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prbridge/prbridge/internal/forge"
	"github.com/prbridge/prbridge/internal/llm"
	"github.com/prbridge/prbridge/internal/report"
)

// testNow is the fixed clock all handler tests run against.
var testNow = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

// mockForgeAPI implements forge.API with canned data. It records the last
// posted comment body.
type mockForgeAPI struct {
	prs     []*forge.PullRequest
	pr      *forge.PullRequest
	err     error
	comment *forge.Comment

	lastCommentBody string
	postErr         error
}

func (m *mockForgeAPI) ListPullRequests(_ context.Context, _, _ string) ([]*forge.PullRequest, error) {
	return m.prs, m.err
}

func (m *mockForgeAPI) GetPullRequest(_ context.Context, _, _ string, _ int) (*forge.PullRequest, error) {
	return m.pr, m.err
}

func (m *mockForgeAPI) CreateComment(_ context.Context, _, _ string, _ int, body string) (*forge.Comment, error) {
	m.lastCommentBody = body
	if m.postErr != nil {
		return nil, m.postErr
	}
	if m.comment != nil {
		return m.comment, nil
	}
	return &forge.Comment{ID: 1, CreatedAt: testNow}, nil
}

// newTestTools wires a handler set against the given mock API.
func newTestTools(t *testing.T, api forge.API, provider llm.Provider) *tools {
	t.Helper()
	renderer, err := report.New(report.Template{})
	require.NoError(t, err)
	return &tools{
		newAPI:   func(string) (forge.API, error) { return api, nil },
		renderer: renderer,
		provider: provider,
		now:      func() time.Time { return testNow },
	}
}

// resultText extracts the single text payload of a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	return result.Content[0].(*mcp.TextContent).Text
}

func testPR() *forge.PullRequest {
	return &forge.PullRequest{
		ID:        99,
		Number:    7,
		Title:     "Tighten parser error paths",
		State:     "open",
		User:      &forge.Actor{Login: "alice"},
		CreatedAt: testNow.Add(-(3*24 + 2) * time.Hour),
		UpdatedAt: testNow.Add(-time.Hour),
		HTMLURL:   "https://example.test/o/r/pull/7",
	}
}

func TestHandleGetPR_EchoesNumber(t *testing.T) {
	api := &mockForgeAPI{pr: testPR()}
	tl := newTestTools(t, api, nil)

	result, _, err := tl.handleGetPR(context.Background(), nil, GetPRInput{Owner: "o", Repo: "r", PullNumber: 7})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var decoded struct {
		Number int `json:"number"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.Equal(t, 7, decoded.Number)
}

func TestHandleListPRs_ReturnsJSONArray(t *testing.T) {
	api := &mockForgeAPI{prs: []*forge.PullRequest{testPR()}}
	tl := newTestTools(t, api, nil)

	result, _, err := tl.handleListPRs(context.Background(), nil, ListPRsInput{Owner: "o", Repo: "r"})
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	require.Len(t, decoded, 1)
}

func TestHandleListPRs_NoPRsIsEmptyArray(t *testing.T) {
	tl := newTestTools(t, &mockForgeAPI{}, nil)

	result, _, err := tl.handleListPRs(context.Background(), nil, ListPRsInput{Owner: "o", Repo: "r"})
	require.NoError(t, err)
	assert.JSONEq(t, "[]", resultText(t, result))
}

func TestHandlers_UpstreamErrorsAreFlaggedNotThrown(t *testing.T) {
	upstream := &forge.StatusError{StatusCode: http.StatusInternalServerError, Status: "Internal Server Error"}
	api := &mockForgeAPI{err: upstream, postErr: upstream}
	tl := newTestTools(t, api, nil)

	list, _, err := tl.handleListPRs(context.Background(), nil, ListPRsInput{Owner: "o", Repo: "r"})
	require.NoError(t, err)
	assert.True(t, list.IsError)
	assert.Contains(t, resultText(t, list), "500")

	get, _, err := tl.handleGetPR(context.Background(), nil, GetPRInput{Owner: "o", Repo: "r", PullNumber: 1})
	require.NoError(t, err)
	assert.True(t, get.IsError)

	post, _, err := tl.handlePostComment(context.Background(), nil, PostCommentInput{Owner: "o", Repo: "r", PullNumber: 1, Body: "hi"})
	require.NoError(t, err)
	assert.True(t, post.IsError)

	analyze, _, err := tl.handleAnalyze(context.Background(), nil, GetPRInput{Owner: "o", Repo: "r", PullNumber: 1})
	require.NoError(t, err)
	assert.True(t, analyze.IsError)
}

func TestHandlePostComment_SuccessPayload(t *testing.T) {
	api := &mockForgeAPI{comment: &forge.Comment{
		ID:        321,
		CreatedAt: testNow,
		User:      &forge.Actor{Login: "prbridge-bot"},
	}}
	tl := newTestTools(t, api, nil)

	result, _, err := tl.handlePostComment(context.Background(), nil,
		PostCommentInput{Owner: "o", Repo: "r", PullNumber: 7, Body: "hello"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "hello", api.lastCommentBody)

	var decoded postCommentResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.True(t, decoded.Success)
	assert.Equal(t, int64(321), decoded.Comment.ID)
	assert.Equal(t, "prbridge-bot", decoded.Comment.Author)
}

func TestHandleAnalyze_ComputesFlooredAge(t *testing.T) {
	api := &mockForgeAPI{
		pr: testPR(), // created 3 days and 2 hours before testNow
		comment: &forge.Comment{
			ID:        55,
			CreatedAt: testNow,
			User:      &forge.Actor{Login: "prbridge-bot"},
		},
	}
	tl := newTestTools(t, api, nil)

	result, _, err := tl.handleAnalyze(context.Background(), nil, GetPRInput{Owner: "o", Repo: "r", PullNumber: 7})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var decoded analyzeResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.True(t, decoded.Success)
	assert.Equal(t, 3, decoded.PR.DaysOld)
	assert.Equal(t, "alice", decoded.PR.Author)
	assert.Equal(t, int64(55), decoded.Comment.ID)
	assert.Equal(t, "prbridge-bot", decoded.Comment.Author)
	assert.Equal(t, "Analysis posted to PR #7", decoded.Message)

	// The posted report embeds the same metadata.
	assert.Contains(t, api.lastCommentBody, "PR #7: Tighten parser error paths")
	assert.Contains(t, api.lastCommentBody, "3 day(s) old")
	assert.Contains(t, api.lastCommentBody, "alice")
}

func TestHandleAnalyze_AuthorFallback(t *testing.T) {
	pr := testPR()
	pr.User = nil
	pr.Author = &forge.Actor{Login: "bob"}
	tl := newTestTools(t, &mockForgeAPI{pr: pr}, nil)

	result, _, err := tl.handleAnalyze(context.Background(), nil, GetPRInput{Owner: "o", Repo: "r", PullNumber: 7})
	require.NoError(t, err)

	var decoded analyzeResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.Equal(t, "bob", decoded.PR.Author)
}

func TestHandleAnalyze_UnknownAuthor(t *testing.T) {
	pr := testPR()
	pr.User = nil
	pr.Author = nil
	api := &mockForgeAPI{pr: pr}
	tl := newTestTools(t, api, nil)

	result, _, err := tl.handleAnalyze(context.Background(), nil, GetPRInput{Owner: "o", Repo: "r", PullNumber: 7})
	require.NoError(t, err)

	var decoded analyzeResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.Equal(t, "Unknown", decoded.PR.Author)
	assert.Contains(t, api.lastCommentBody, "Unknown")
}

func TestHandleAnalyze_AppendsReviewerNotes(t *testing.T) {
	api := &mockForgeAPI{pr: testPR()}
	provider := llm.NewMockProvider(llm.MockResponse{Content: "Watch the parser edge cases."})
	tl := newTestTools(t, api, provider)

	_, _, err := tl.handleAnalyze(context.Background(), nil, GetPRInput{Owner: "o", Repo: "r", PullNumber: 7})
	require.NoError(t, err)

	assert.Contains(t, api.lastCommentBody, "Reviewer notes")
	assert.Contains(t, api.lastCommentBody, "Watch the parser edge cases.")

	calls := provider.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "#7")
}

func TestHandleAnalyze_LLMFailureStillPosts(t *testing.T) {
	api := &mockForgeAPI{pr: testPR()}
	provider := llm.NewMockProvider(llm.MockResponse{Err: errors.New("model unavailable")})
	tl := newTestTools(t, api, provider)

	result, _, err := tl.handleAnalyze(context.Background(), nil, GetPRInput{Owner: "o", Repo: "r", PullNumber: 7})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.NotContains(t, api.lastCommentBody, "Reviewer notes")
}

func TestHandlers_RejectInvalidArguments(t *testing.T) {
	tl := newTestTools(t, &mockForgeAPI{pr: testPR()}, nil)

	_, _, err := tl.handleGetPR(context.Background(), nil, GetPRInput{Owner: "", Repo: "r", PullNumber: 1})
	assert.Error(t, err)

	_, _, err = tl.handleGetPR(context.Background(), nil, GetPRInput{Owner: "o", Repo: "r", PullNumber: 0})
	assert.Error(t, err)

	_, _, err = tl.handlePostComment(context.Background(), nil, PostCommentInput{Owner: "o", Repo: "r", PullNumber: 1})
	assert.Error(t, err, "empty body should be rejected")

	_, _, err = tl.handleListPRs(context.Background(), nil, ListPRsInput{Owner: "o"})
	assert.Error(t, err)
}
