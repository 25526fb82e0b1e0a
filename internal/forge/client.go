// Copyright 2026 The prbridge Authors
// SPDX-License-Identifier: MIT

package forge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v68/github"
)

// DefaultBaseURL is the public GitHub REST API endpoint. A different forge
// deployment can be targeted via Options.BaseURL.
const DefaultBaseURL = "https://api.github.com/"

// userAgent identifies prbridge on every outbound request.
const userAgent = "prbridge"

// API is the narrow surface of the forge client used by tool handlers.
// Tests substitute a mock implementation.
type API interface {
	ListPullRequests(ctx context.Context, owner, repo string) ([]*PullRequest, error)
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error)
	CreateComment(ctx context.Context, owner, repo string, number int, body string) (*Comment, error)
}

// StatusError reports a non-2xx response from the forge. Tool handlers catch
// it at their boundary and convert it to an error-flagged result; it is the
// only failure mode the REST layer produces for upstream rejections.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("forge: upstream returned %d %s", e.StatusCode, e.Status)
}

// Options configures a Client. The token is optional: without one, requests
// carry no Authorization header at all.
type Options struct {
	// BaseURL overrides DefaultBaseURL. A trailing slash is added if missing.
	BaseURL string

	// Token, when non-empty, is sent as "Authorization: token {Token}" on
	// every request. No other auth scheme is supported.
	Token string

	// HTTPClient overrides the underlying HTTP client. Mostly for tests.
	HTTPClient *http.Client
}

// Client performs the three REST operations prbridge needs. Requests and
// response decoding ride on the go-github plumbing (versioned Accept header,
// JSON handling, error mapping) while decoding into prbridge's own types.
type Client struct {
	gh *github.Client
}

// Compile-time check that Client satisfies API.
var _ API = (*Client)(nil)

// tokenTransport injects the forge "token" Authorization scheme into every
// request. go-github's own auth helper uses the Bearer scheme, which is not
// the contract here.
type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "token "+t.token)
	return base.RoundTrip(clone)
}

// NewClient builds a forge client from the given options.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if opts.Token != "" {
		var base http.RoundTripper
		if httpClient != nil {
			base = httpClient.Transport
		}
		httpClient = &http.Client{Transport: &tokenTransport{token: opts.Token, base: base}}
	}

	gh := github.NewClient(httpClient)
	gh.UserAgent = userAgent

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", opts.BaseURL, err)
	}
	gh.BaseURL = parsed

	return &Client{gh: gh}, nil
}

// ListPullRequests fetches the open pull requests of a repository.
func (c *Client) ListPullRequests(ctx context.Context, owner, repo string) ([]*PullRequest, error) {
	var prs []*PullRequest
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("repos/%s/%s/pulls", owner, repo), nil, &prs); err != nil {
		return nil, err
	}
	return prs, nil
}

// GetPullRequest fetches a single pull request by number.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	pr := new(PullRequest)
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("repos/%s/%s/pulls/%d", owner, repo, number), nil, pr); err != nil {
		return nil, err
	}
	return pr, nil
}

// CreateComment posts a comment on the pull request's issue thread and
// returns the created comment.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, number int, body string) (*Comment, error) {
	payload := struct {
		Body string `json:"body"`
	}{Body: body}

	comment := new(Comment)
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("repos/%s/%s/issues/%d/comments", owner, repo, number), payload, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// do issues a single request and decodes the response into v. Non-2xx
// statuses surface as *StatusError. There is no retry: every call is
// strictly single-shot.
func (c *Client) do(ctx context.Context, method, path string, body, v any) error {
	req, err := c.gh.NewRequest(method, path, body)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}

	if _, err := c.gh.Do(ctx, req, v); err != nil {
		if statusErr := asStatusError(err); statusErr != nil {
			return statusErr
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return nil
}

// asStatusError extracts the HTTP status from the error types go-github
// produces for non-2xx responses. Returns nil for transport-level failures.
func asStatusError(err error) *StatusError {
	var resp *http.Response

	var errResp *github.ErrorResponse
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	switch {
	case errors.As(err, &errResp):
		resp = errResp.Response
	case errors.As(err, &rateErr):
		resp = rateErr.Response
	case errors.As(err, &abuseErr):
		resp = abuseErr.Response
	}

	if resp == nil {
		return nil
	}
	return &StatusError{
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
	}
}
