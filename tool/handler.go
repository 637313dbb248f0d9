package tool

import (
	"context"

	ai "github.com/spetersoncode/cadence"
)

// Progress reports intermediate output from a long-running tool. Handlers may
// call it zero or more times before returning; a nil Progress is valid and
// discards updates.
type Progress func(update string)

// Handler is a function that executes a tool call and returns a result.
// The context supports cancellation and timeout. The call carries the tool
// name, call ID, and decoded arguments.
// Returns the result content string, or an error if execution failed.
type Handler func(ctx context.Context, call ai.ToolCall, progress Progress) (string, error)

// TypedHandler is a function that executes a tool call with typed arguments.
// The args parameter is automatically decoded from the tool call's arguments.
type TypedHandler[T any] func(ctx context.Context, args T, progress Progress) (string, error)
