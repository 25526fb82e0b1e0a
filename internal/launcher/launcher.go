// Copyright 2026 The prbridge Authors
// SPDX-License-Identifier: MIT

// Package launcher spawns the MCP server as a child process, fires the
// single analyze_and_comment_pr tool call at it over stdin, and relays the
// child's output to the console until it exits.
package launcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/prbridge/prbridge/internal/config"
	"github.com/prbridge/prbridge/internal/redact"
)

// stderrColor marks relayed child stderr lines on the console.
var stderrColor = color.New(color.Faint)

// Options configures a launcher run.
type Options struct {
	// Command is the argv of the server process to spawn. Required.
	Command []string

	// Stdout and Stderr receive the relayed child streams. They default to
	// the process's own stdout and stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// relayLine is one line of child output tagged with its source stream.
type relayLine struct {
	text   string
	stderr bool
}

// Run spawns the server, writes the one JSON-RPC request, and relays child
// output until the child exits. It is a single best-effort call: there are
// no retries, and a non-zero child exit is logged rather than returned as
// an error.
func Run(ctx context.Context, cfg *config.Launcher, opts Options) error {
	if len(opts.Command) == 0 {
		return fmt.Errorf("launcher: no server command configured")
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	runID := uuid.NewString()

	cmd := exec.CommandContext(ctx, opts.Command[0], opts.Command[1:]...) //nolint:gosec // operator-provided command
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("launcher: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("launcher: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("launcher: stderr pipe: %w", err)
	}

	payload, err := encodeAnalyzeRequest(cfg)
	if err != nil {
		return fmt.Errorf("launcher: encoding request: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launcher: starting server: %w", err)
	}
	slog.Info("server started", "run_id", runID, "pid", cmd.Process.Pid, "pr", cfg.PullNumber)

	// One request, one newline, then EOF so the child can wind down.
	if _, err := stdin.Write(payload); err != nil {
		_ = cmd.Process.Kill() //nolint:errcheck // the child may already be gone
		_ = cmd.Wait()         //nolint:errcheck // reap only
		return fmt.Errorf("launcher: writing request: %w", err)
	}
	if err := stdin.Close(); err != nil {
		slog.Warn("closing server stdin", "error", err)
	}

	// Two independent read loops feed a single consumer that owns the
	// console; the consumer drains until both loops finish.
	lines := make(chan relayLine)
	var g errgroup.Group
	g.Go(func() error { return relay(stdout, false, lines) })
	g.Go(func() error { return relay(stderr, true, lines) })
	go func() {
		_ = g.Wait() //nolint:errcheck // read errors surface as truncated relay
		close(lines)
	}()

	for ln := range lines {
		if ln.stderr {
			stderrColor.Fprintln(opts.Stderr, redact.String(ln.text)) //nolint:errcheck // console write
		} else {
			fmt.Fprintln(opts.Stdout, redact.String(ln.text)) //nolint:errcheck // console write
		}
	}

	waitErr := cmd.Wait()
	exitCode := cmd.ProcessState.ExitCode()
	slog.Info("server exited", "run_id", runID, "code", exitCode)

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			// Exit status already logged; the relay printed whatever the
			// server had to say about it.
			return nil
		}
		return fmt.Errorf("launcher: waiting for server: %w", waitErr)
	}
	return nil
}

// relay copies lines from r into the output channel, tagging their source.
func relay(r io.Reader, isStderr bool, out chan<- relayLine) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		out <- relayLine{text: scanner.Text(), stderr: isStderr}
	}
	return scanner.Err()
}
