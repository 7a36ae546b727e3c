// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - error types and exit codes shared by every pipdeck command.
//
// Commands always return errors and never print-and-return-nil; Main
// decides how to display them and which exit code to use.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/pipdeck/internal/api"
	"github.com/jeranaias/pipdeck/internal/reconcile"
	"github.com/jeranaias/pipdeck/internal/tasks"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitRejected indicates the server refused the request (4xx)
	ExitRejected = 4
	// ExitNetworkError indicates the server is not reachable
	ExitNetworkError = 5
	// ExitProtected indicates an attempt to remove a protected package
	ExitProtected = 6
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates a request or task timed out
	ExitTimeoutError = 8
	// ExitTaskFailed indicates a background task ended in error
	ExitTaskFailed = 9
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "install")
	Action  string // Action being performed (e.g., "submit")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "package")
	ID       string // Identifier that was not found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// TaskError reports a background task that did not succeed.
type TaskError struct {
	Outcome tasks.Outcome
}

func (e *TaskError) Error() string {
	msg := fmt.Sprintf("task %s %s", e.Outcome.TaskID, e.Outcome.Kind)
	if e.Outcome.Message != "" {
		msg += ": " + e.Outcome.Message
	}
	return msg
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{
		Command: command,
		Action:  action,
		Reason:  reason,
		Err:     err,
	}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{
		Field:   argName,
		Reason:  "required argument missing",
		Example: usage,
	}
}

// ErrUnsupportedFormat creates an error for unsupported output formats.
func ErrUnsupportedFormat(format string, supported []string) error {
	return &ValidationError{
		Field:   "format",
		Value:   format,
		Reason:  "unsupported format",
		Example: fmt.Sprintf("supported formats: %s", strings.Join(supported, ", ")),
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return ExitNotFoundError
	}

	var taskErr *TaskError
	if errors.As(err, &taskErr) {
		if taskErr.Outcome.Kind == tasks.OutcomeTimedOut {
			return ExitTimeoutError
		}
		return ExitTaskFailed
	}

	switch {
	case errors.Is(err, reconcile.ErrProtected):
		return ExitProtected
	case errors.Is(err, reconcile.ErrNoTargets):
		return ExitUsageError
	case api.IsNotRunning(err):
		return ExitNetworkError
	case api.IsTimeout(err):
		return ExitTimeoutError
	case api.IsNotFound(err):
		return ExitNotFoundError
	case api.IsRejected(err):
		return ExitRejected
	}

	if strings.Contains(strings.ToLower(err.Error()), "config") {
		return ExitConfigError
	}
	return ExitGeneralError
}

// Hint returns a one-line suggestion for well-known failures, or "".
func Hint(err error) string {
	switch {
	case api.IsNotRunning(err):
		return "Is the package server running? Check server.base_url with 'pipdeck config get server.base_url'."
	case errors.Is(err, reconcile.ErrProtected):
		return "System and app-required packages cannot be removed."
	case api.IsTimeout(err):
		return "Raise server.request_timeout or set PIPDECK_TIMEOUT."
	default:
		return ""
	}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err through p: an error envelope in structured mode,
// a styled line with an optional hint otherwise.
func DisplayError(p *Printer, command string, err error) {
	if err == nil {
		return
	}
	var shown *shownError
	if errors.As(err, &shown) {
		return
	}
	if p.Structured() {
		p.EmitError(command, err)
		return
	}
	p.print(p.Err, fmt.Sprintf("%s %s\n", p.Style(ErrorStyle, "[ERROR]"), err.Error()))
	if hint := Hint(err); hint != "" {
		p.print(p.Err, p.Style(DimStyle, hint)+"\n")
	}
}
