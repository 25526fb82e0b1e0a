package main

import "fmt"

// Exit codes for the prbridge CLI.
const (
	ExitOK          = 0 // The requested operation completed.
	ExitInvalidArgs = 1 // Missing/invalid configuration or bad arguments.
	ExitServeFailed = 2 // The MCP server terminated abnormally.
)

// exitCodeError carries a non-zero exit code through cobra's error handling.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode returns the exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

// exitError creates an exitCodeError.
func exitError(code int, format string, args ...any) *exitCodeError {
	return &exitCodeError{code: code, msg: fmt.Sprintf(format, args...)}
}
