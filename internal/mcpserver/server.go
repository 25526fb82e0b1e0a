// Copyright 2026 The prbridge Authors
// SPDX-License-Identifier: MIT

// Package mcpserver exposes prbridge's pull-request tools and prompt over
// the Model Context Protocol.
package mcpserver

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/prbridge/prbridge/internal/forge"
	"github.com/prbridge/prbridge/internal/llm"
	"github.com/prbridge/prbridge/internal/report"
)

// Options configures the MCP server's backing services.
type Options struct {
	// BaseURL is the forge REST API root. Defaults to forge.DefaultBaseURL.
	BaseURL string

	// Renderer renders the analysis report and prompt text. Defaults to the
	// embedded template.
	Renderer *report.Renderer

	// Provider, when non-nil, adds LLM reviewer notes to analysis reports.
	Provider llm.Provider
}

// New creates a new MCP server with prbridge's tools and prompt registered.
func New(version string, opts Options) (*mcp.Server, error) {
	renderer := opts.Renderer
	if renderer == nil {
		var err error
		renderer, err = report.New(report.Template{})
		if err != nil {
			return nil, err
		}
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "prbridge",
		Title:   "prbridge pull request analysis",
		Version: version,
	}, &mcp.ServerOptions{
		GetSessionID: uuid.NewString,
	})

	t := &tools{
		newAPI: func(token string) (forge.API, error) {
			return forge.NewClient(forge.Options{BaseURL: opts.BaseURL, Token: token})
		},
		renderer: renderer,
		provider: opts.Provider,
	}
	registerTools(server, t)
	registerPrompts(server, renderer)
	return server, nil
}

// Run creates an MCP server and runs it on the given transport.
// It blocks until the client disconnects or the context is cancelled.
func Run(ctx context.Context, version string, transport mcp.Transport, opts Options) error {
	server, err := New(version, opts)
	if err != nil {
		return err
	}
	return server.Run(ctx, transport)
}

// HTTPHandler wraps the server in the streamable HTTP transport. Each
// connection gets a fresh random session identifier (via the server's
// GetSessionID option); no authentication is performed on the transport
// itself.
func HTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return server },
		&mcp.StreamableHTTPOptions{},
	)
}
