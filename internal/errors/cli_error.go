/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

// Package errors holds the user-facing error type returned by commands.
package errors

import (
	"errors"
	"fmt"
)

// ExitCode is the process exit status a failed command ends with.
type ExitCode int

const (
	ExitRuntime ExitCode = 1 // The command ran and failed.
	ExitUsage   ExitCode = 2 // The command line or fleet config is wrong.
)

// CLIError carries the message shown to the user, the underlying cause and
// optional hints. The cause stays reachable through errors.Is and errors.As.
type CLIError struct {
	Message    string
	Cause      error
	Suggestion string   // Rendered as "Hint: ...".
	Details    []string // Rendered as bullet points.
	Code       ExitCode

	// Set when Details already spell out the cause.
	causeInDetails bool
}

func (e *CLIError) Error() string {
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Cause
}

// WithSuggestion sets the hint line.
func (e *CLIError) WithSuggestion(suggestion string) *CLIError {
	e.Suggestion = suggestion
	return e
}

// WithDetails appends bullet points.
func (e *CLIError) WithDetails(details ...string) *CLIError {
	e.Details = append(e.Details, details...)
	return e
}

func newError(code ExitCode, cause error, message string) *CLIError {
	return &CLIError{Message: message, Cause: cause, Code: code}
}

func New(message string) *CLIError {
	return newError(ExitRuntime, nil, message)
}

func Newf(format string, args ...any) *CLIError {
	return newError(ExitRuntime, nil, fmt.Sprintf(format, args...))
}

// Wrap attaches a user-facing message to cause.
func Wrap(cause error, message string) *CLIError {
	return newError(ExitRuntime, cause, message)
}

func Wrapf(cause error, format string, args ...any) *CLIError {
	return newError(ExitRuntime, cause, fmt.Sprintf(format, args...))
}

// NewUsageError reports a bad invocation. The command's usage is printed after it.
func NewUsageError(message string) *CLIError {
	return newError(ExitUsage, nil, message)
}

func NewUsageErrorf(format string, args ...any) *CLIError {
	return newError(ExitUsage, nil, fmt.Sprintf(format, args...))
}

func WrapUsageError(cause error, message string) *CLIError {
	return newError(ExitUsage, cause, message)
}

// AsCLIError returns the first CLIError in err's chain.
func AsCLIError(err error) (*CLIError, bool) {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr, true
	}
	return nil, false
}

// IsUsageError reports whether err should be followed by the usage text.
func IsUsageError(err error) bool {
	cliErr, ok := AsCLIError(err)
	return ok && cliErr.Code == ExitUsage
}

// GetExitCode returns the exit status for err. Errors that are not a
// CLIError count as runtime failures.
func GetExitCode(err error) int {
	if cliErr, ok := AsCLIError(err); ok {
		return int(cliErr.Code)
	}
	return int(ExitRuntime)
}
