// Copyright 2026 The prbridge Authors
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/prbridge/prbridge/internal/config"
	"github.com/prbridge/prbridge/internal/launcher"
)

// Analyze-specific flag values.
var (
	analyzeFromGit   bool
	analyzeServerCmd []string
)

// analyzeCmd is the launcher: it reads the four required environment
// values, spawns `prbridge serve` as a child, sends the single
// analyze_and_comment_pr call, and relays the child's output until it
// exits.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one pull request and post the report",
	Long: `Read PR_OWNER, PR_REPO, PR_NUMBER, and GITHUB_TOKEN from the environment,
spawn the MCP server as a child process, and fire a single
analyze_and_comment_pr tool call at it. The child's output is relayed to
the console verbatim and its exit code is logged. Missing or invalid
configuration is fatal before any process is spawned.

With --from-git, PR_OWNER and PR_REPO are inferred from the origin remote
of the repository in the current directory instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadLauncherConfig()
		if err != nil {
			return exitError(ExitInvalidArgs, "prbridge: %v", err)
		}

		command := analyzeServerCmd
		if len(command) == 0 {
			self, err := os.Executable()
			if err != nil {
				return exitError(ExitInvalidArgs, "prbridge: locating own binary: %v", err)
			}
			command = []string{self, "serve"}
		}

		return launcher.Run(cmd.Context(), cfg, launcher.Options{Command: command})
	},
}

// loadLauncherConfig builds the launcher configuration, optionally
// detecting owner/repo from the local git remote.
func loadLauncherConfig() (*config.Launcher, error) {
	if !analyzeFromGit {
		return config.LoadLauncher()
	}

	owner, repo, err := launcher.FromGitRemote(".")
	if err != nil {
		return nil, err
	}
	return config.LoadLauncherWithRepo(owner, repo)
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeFromGit, "from-git", false, "detect PR_OWNER and PR_REPO from the origin remote")
	analyzeCmd.Flags().StringSliceVar(&analyzeServerCmd, "server-cmd", nil, "override the server command to spawn (argv, comma-separated)")
}
