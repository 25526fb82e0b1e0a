// Copyright 2026 The prbridge Authors
// SPDX-License-Identifier: MIT

// Package forge provides a thin client for the Git forge REST API used by
// prbridge: listing pull requests, fetching a single pull request, and
// posting issue comments.
package forge

import "time"

// unknownAuthor is substituted when no author field on a pull request
// carries a login.
const unknownAuthor = "Unknown"

// Actor is a forge account reference as it appears in API payloads.
type Actor struct {
	Login string `json:"login"`
}

// PullRequest is the subset of the forge pull-request payload prbridge
// consumes. The upstream payload may carry the author under either the
// "user" or the "author" key depending on the API surface, so both are
// decoded and resolved through AuthorLogin.
type PullRequest struct {
	ID        int64     `json:"id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	User      *Actor    `json:"user,omitempty"`
	Author    *Actor    `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	HTMLURL   string    `json:"html_url"`
}

// AuthorLogin resolves the pull-request author from the candidate fields in
// order of preference. It never returns an empty string.
func (pr *PullRequest) AuthorLogin() string {
	return firstNonEmpty(unknownAuthor,
		func() string {
			if pr.User != nil {
				return pr.User.Login
			}
			return ""
		},
		func() string {
			if pr.Author != nil {
				return pr.Author.Login
			}
			return ""
		},
	)
}

// Comment is an issue comment as returned by the forge after a successful
// post.
type Comment struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	User      *Actor    `json:"user,omitempty"`
}

// AuthorLogin returns the comment author's login, or "Unknown" when the
// forge omitted it.
func (c *Comment) AuthorLogin() string {
	return firstNonEmpty(unknownAuthor, func() string {
		if c.User != nil {
			return c.User.Login
		}
		return ""
	})
}

// firstNonEmpty evaluates the accessors in order and returns the first
// non-empty result, or fallback if every accessor comes up empty.
func firstNonEmpty(fallback string, accessors ...func() string) string {
	for _, get := range accessors {
		if v := get(); v != "" {
			return v
		}
	}
	return fallback
}
