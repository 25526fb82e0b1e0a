package main

import (
	"github.com/spf13/cobra"

	prbridgelog "github.com/prbridge/prbridge/internal/log"
)

// Global flag values.
var (
	verbose bool
	quiet   bool
)

// rootCmd is the base command for prbridge.
var rootCmd = &cobra.Command{
	Use:   "prbridge",
	Short: "Analyze pull requests and post review reports over MCP",
	Long: `prbridge is a small bridge between the Model Context Protocol and a Git
forge's pull-request API. It runs an MCP server exposing tools to list,
fetch, and comment on pull requests, plus an analyze tool that renders a
review report and posts it back on the pull request. The analyze command
drives the server end to end for a single pull request.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		prbridgelog.Setup(verbose, quiet)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)
}
