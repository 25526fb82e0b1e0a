// Copyright 2026 The prbridge Authors
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/prbridge/prbridge/internal/config"
	"github.com/prbridge/prbridge/internal/llm"
	"github.com/prbridge/prbridge/internal/mcpserver"
	"github.com/prbridge/prbridge/internal/report"
)

// Serve-specific flag values.
var (
	serveConfigFile string
	serveHTTPAddr   string
	serveBaseURL    string
	serveTemplate   string
	serveNoAI       bool
)

// serveCmd runs the MCP server, over stdio by default or over the streaming
// HTTP transport when --http is given.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Start an MCP server exposing prbridge's pull-request tools:
  - get_prs_of_repo:        list the open pull requests of a repository
  - get_pr:                 fetch a single pull request
  - post_comment_on_pr:     post a markdown comment on a pull request
  - analyze_and_comment_pr: render the analysis report and post it back

and the analyze_pull_request prompt. The server speaks the Model Context
Protocol over stdio, or over the streamable HTTP transport with --http.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadServer(serveConfigFile)
		if err != nil {
			return exitError(ExitInvalidArgs, "prbridge: %v", err)
		}
		if serveHTTPAddr != "" {
			cfg.HTTPAddr = serveHTTPAddr
		}
		if serveBaseURL != "" {
			cfg.BaseURL = serveBaseURL
		}
		if serveTemplate != "" {
			cfg.TemplatePath = serveTemplate
		}

		renderer, err := report.Load(cfg.TemplatePath)
		if err != nil {
			return exitError(ExitInvalidArgs, "prbridge: %v", err)
		}

		opts := mcpserver.Options{
			BaseURL:  cfg.BaseURL,
			Renderer: renderer,
			Provider: newProvider(cfg),
		}

		if cfg.HTTPAddr == "" {
			return mcpserver.Run(cmd.Context(), Version, &mcp.StdioTransport{}, opts)
		}

		server, err := mcpserver.New(Version, opts)
		if err != nil {
			return exitError(ExitServeFailed, "prbridge: %v", err)
		}
		slog.Info("serving MCP over HTTP", "addr", cfg.HTTPAddr)
		if err := http.ListenAndServe(cfg.HTTPAddr, mcpserver.HTTPHandler(server)); err != nil { //nolint:gosec // local tool server
			return exitError(ExitServeFailed, "prbridge: %v", err)
		}
		return nil
	},
}

// newProvider builds the optional LLM provider for reviewer notes. Missing
// credentials simply disable the feature.
func newProvider(cfg *config.Server) llm.Provider {
	if serveNoAI {
		return nil
	}
	provider, err := llm.NewAnthropicProvider("", cfg.Model)
	if err != nil {
		slog.Debug("reviewer notes disabled", "reason", err)
		return nil
	}
	return provider
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigFile, "config", "", "path to a prbridge config file")
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http", "", "serve the streamable HTTP transport on this address instead of stdio")
	serveCmd.Flags().StringVar(&serveBaseURL, "base-url", "", "forge REST API root (default https://api.github.com/)")
	serveCmd.Flags().StringVar(&serveTemplate, "template", "", "path to a YAML report/prompt template")
	serveCmd.Flags().BoolVar(&serveNoAI, "no-ai", false, "disable LLM reviewer notes even if credentials are present")
}
