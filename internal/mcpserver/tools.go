package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/prbridge/prbridge/internal/forge"
	"github.com/prbridge/prbridge/internal/llm"
	"github.com/prbridge/prbridge/internal/redact"
	"github.com/prbridge/prbridge/internal/report"
)

// ListPRsInput is the input schema for the get_prs_of_repo tool.
type ListPRsInput struct {
	Owner string `json:"owner" jsonschema:"Repository owner (user or organization)"`
	Repo  string `json:"repo" jsonschema:"Repository name"`
	Token string `json:"token,omitempty" jsonschema:"Forge API token; requests are sent unauthenticated when omitted"`
}

// GetPRInput is the input schema for the get_pr and analyze_and_comment_pr
// tools.
type GetPRInput struct {
	Owner      string `json:"owner" jsonschema:"Repository owner (user or organization)"`
	Repo       string `json:"repo" jsonschema:"Repository name"`
	PullNumber int    `json:"pull_number" jsonschema:"Pull request number"`
	Token      string `json:"token,omitempty" jsonschema:"Forge API token; requests are sent unauthenticated when omitted"`
}

// PostCommentInput is the input schema for the post_comment_on_pr tool.
type PostCommentInput struct {
	Owner      string `json:"owner" jsonschema:"Repository owner (user or organization)"`
	Repo       string `json:"repo" jsonschema:"Repository name"`
	PullNumber int    `json:"pull_number" jsonschema:"Pull request number"`
	Body       string `json:"body" jsonschema:"Markdown comment body"`
	Token      string `json:"token,omitempty" jsonschema:"Forge API token; requests are sent unauthenticated when omitted"`
}

// commentSummary is the comment slice of a tool result payload.
type commentSummary struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Author    string    `json:"author,omitempty"`
}

// prSummary is the pull-request slice of the analyze result payload.
type prSummary struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	State   string `json:"state"`
	DaysOld int    `json:"days_old"`
	URL     string `json:"url"`
}

// postCommentResult is the payload of a successful post_comment_on_pr call.
type postCommentResult struct {
	Success bool           `json:"success"`
	Comment commentSummary `json:"comment"`
}

// analyzeResult is the payload of a successful analyze_and_comment_pr call.
type analyzeResult struct {
	Success bool           `json:"success"`
	PR      prSummary      `json:"pr"`
	Comment commentSummary `json:"comment"`
	Message string         `json:"message"`
}

// boolPtr returns a pointer to a bool.
func boolPtr(b bool) *bool { return &b }

// tools bundles the dependencies of the tool handlers. Tests substitute
// newAPI and now.
type tools struct {
	newAPI   func(token string) (forge.API, error)
	renderer *report.Renderer
	provider llm.Provider
	now      func() time.Time
}

// registerTools adds all prbridge tools to the MCP server.
func registerTools(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_prs_of_repo",
		Description: "List the open pull requests of a repository. Returns a JSON array of pull request metadata.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:    true,
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, t.handleListPRs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_pr",
		Description: "Fetch a single pull request by number. Returns its metadata as a JSON object.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:    true,
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, t.handleGetPR)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "post_comment_on_pr",
		Description: "Post a markdown comment on a pull request. Returns the created comment's id, timestamp, and author.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:    false,
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, t.handlePostComment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_and_comment_pr",
		Description: "Fetch a pull request, render the analysis report (author, state, age in days, review checklist), and post it back as a comment.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:    false,
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, t.handleAnalyze)
}

// clock returns the handler's notion of now.
func (t *tools) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

// api builds a forge client for the supplied token.
func (t *tools) api(token string) (forge.API, error) {
	return t.newAPI(token)
}

// errorResult converts a caught failure into an error-flagged tool result.
// Upstream failures never propagate as protocol faults.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: redact.String(err.Error())},
		},
	}
}

// jsonResult marshals v and wraps it as a single text payload.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil
}

// validateRepo rejects empty owner/repo arguments before any request is made.
func validateRepo(owner, repo string) error {
	if owner == "" || repo == "" {
		return fmt.Errorf("owner and repo must be non-empty")
	}
	return nil
}

// validateNumber rejects non-positive pull request numbers.
func validateNumber(number int) error {
	if number <= 0 {
		return fmt.Errorf("pull_number must be positive, got %d", number)
	}
	return nil
}

func (t *tools) handleListPRs(ctx context.Context, _ *mcp.CallToolRequest, input ListPRsInput) (*mcp.CallToolResult, any, error) {
	if err := validateRepo(input.Owner, input.Repo); err != nil {
		return nil, nil, err
	}

	api, err := t.api(input.Token)
	if err != nil {
		return nil, nil, err
	}

	prs, err := api.ListPullRequests(ctx, input.Owner, input.Repo)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if prs == nil {
		prs = []*forge.PullRequest{}
	}

	result, err := jsonResult(prs)
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}

func (t *tools) handleGetPR(ctx context.Context, _ *mcp.CallToolRequest, input GetPRInput) (*mcp.CallToolResult, any, error) {
	if err := validateRepo(input.Owner, input.Repo); err != nil {
		return nil, nil, err
	}
	if err := validateNumber(input.PullNumber); err != nil {
		return nil, nil, err
	}

	api, err := t.api(input.Token)
	if err != nil {
		return nil, nil, err
	}

	pr, err := api.GetPullRequest(ctx, input.Owner, input.Repo, input.PullNumber)
	if err != nil {
		return errorResult(err), nil, nil
	}

	result, err := jsonResult(pr)
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}

func (t *tools) handlePostComment(ctx context.Context, _ *mcp.CallToolRequest, input PostCommentInput) (*mcp.CallToolResult, any, error) {
	if err := validateRepo(input.Owner, input.Repo); err != nil {
		return nil, nil, err
	}
	if err := validateNumber(input.PullNumber); err != nil {
		return nil, nil, err
	}
	if input.Body == "" {
		return nil, nil, fmt.Errorf("body must be non-empty")
	}

	api, err := t.api(input.Token)
	if err != nil {
		return nil, nil, err
	}

	comment, err := api.CreateComment(ctx, input.Owner, input.Repo, input.PullNumber, input.Body)
	if err != nil {
		return errorResult(err), nil, nil
	}

	result, err := jsonResult(postCommentResult{
		Success: true,
		Comment: commentSummary{
			ID:        comment.ID,
			CreatedAt: comment.CreatedAt,
			Author:    comment.AuthorLogin(),
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}

func (t *tools) handleAnalyze(ctx context.Context, _ *mcp.CallToolRequest, input GetPRInput) (*mcp.CallToolResult, any, error) {
	if err := validateRepo(input.Owner, input.Repo); err != nil {
		return nil, nil, err
	}
	if err := validateNumber(input.PullNumber); err != nil {
		return nil, nil, err
	}

	api, err := t.api(input.Token)
	if err != nil {
		return nil, nil, err
	}

	pr, err := api.GetPullRequest(ctx, input.Owner, input.Repo, input.PullNumber)
	if err != nil {
		return errorResult(err), nil, nil
	}

	age := report.AgeInDays(pr.CreatedAt, t.clock())
	author := pr.AuthorLogin()

	body, err := t.renderer.Render(report.Data{
		Number:    pr.Number,
		Title:     pr.Title,
		State:     pr.State,
		Author:    author,
		AgeDays:   age,
		CreatedAt: pr.CreatedAt.Format(time.RFC3339),
		URL:       pr.HTMLURL,
		Notes:     t.reviewerNotes(ctx, pr, age),
	})
	if err != nil {
		return errorResult(err), nil, nil
	}

	comment, err := api.CreateComment(ctx, input.Owner, input.Repo, input.PullNumber, body)
	if err != nil {
		return errorResult(err), nil, nil
	}

	result, err := jsonResult(analyzeResult{
		Success: true,
		PR: prSummary{
			Number:  pr.Number,
			Title:   pr.Title,
			Author:  author,
			State:   pr.State,
			DaysOld: age,
			URL:     pr.HTMLURL,
		},
		Comment: commentSummary{
			ID:        comment.ID,
			CreatedAt: comment.CreatedAt,
			Author:    comment.AuthorLogin(),
		},
		Message: fmt.Sprintf("Analysis posted to PR #%d", pr.Number),
	})
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}

// reviewerNotes asks the configured LLM for a short reviewer note. Any
// failure is logged and the report goes out without notes; the tool caller
// never sees an error for this.
func (t *tools) reviewerNotes(ctx context.Context, pr *forge.PullRequest, age int) string {
	if t.provider == nil {
		return ""
	}

	prompt := fmt.Sprintf(
		"Pull request #%d %q by %s is %s and %d day(s) old.\n\nReview checklist:\n- %s\n\nWrite at most three short sentences a reviewer should keep in mind. Plain text only.",
		pr.Number, pr.Title, pr.AuthorLogin(), pr.State, age,
		strings.Join(t.renderer.Rules(), "\n- "),
	)

	resp, err := t.provider.Complete(ctx, llm.Request{
		SystemPrompt: "You are a concise code-review assistant.",
		Prompt:       prompt,
		MaxTokens:    512,
	})
	if err != nil {
		slog.Warn("reviewer notes unavailable, posting report without them", "error", err)
		return ""
	}
	return strings.TrimSpace(resp.Content)
}
