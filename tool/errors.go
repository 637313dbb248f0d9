package tool

import (
	"fmt"
	"strings"
)

// ErrToolNotFound is returned when a tool call references an unregistered tool.
type ErrToolNotFound struct {
	Name string

	// Available lists the names of the tools that are registered, so the
	// model can see what it may call instead.
	Available []string
}

// Error returns a formatted error message including the tool name and the
// available tool names.
func (e *ErrToolNotFound) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("tool: not found: %s (no tools registered)", e.Name)
	}
	return fmt.Sprintf("tool: not found: %s (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// ErrInvalidArguments is returned when a tool call's arguments fail schema
// validation.
type ErrInvalidArguments struct {
	Name   string
	Issues []string
}

// Error returns a formatted error message including the validation issues.
func (e *ErrInvalidArguments) Error() string {
	return fmt.Sprintf("tool: %s invalid arguments: %v", e.Name, e.Issues)
}

// ErrToolExecution wraps errors from tool handler execution.
type ErrToolExecution struct {
	Name string
	Err  error
}

// Error returns a formatted error message including the tool name and cause.
func (e *ErrToolExecution) Error() string {
	return fmt.Sprintf("tool: %s execution failed: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ErrToolExecution) Unwrap() error {
	return e.Err
}

// ErrToolAlreadyRegistered is returned when registering a tool with a duplicate name.
type ErrToolAlreadyRegistered struct {
	Name string
}

// Error returns a formatted error message including the duplicate tool name.
func (e *ErrToolAlreadyRegistered) Error() string {
	return fmt.Sprintf("tool: already registered: %s", e.Name)
}
