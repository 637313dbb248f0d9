package cadence

import "encoding/json"

// Tool defines a function the model can call.
type Tool struct {
	// Name is the unique identifier for the tool within a toolset.
	Name string
	// Description explains what the tool does (helps the model decide when to use it).
	Description string
	// Parameters is a JSON Schema object defining the tool's arguments.
	Parameters json.RawMessage
}

// ToolCall is a request from the model to invoke a tool. Arguments are
// untyped until validated against the tool's declared schema.
type ToolCall struct {
	// ID is a unique identifier for this call (used to match results).
	ID string `json:"id"`
	// Name is the name of the tool to invoke.
	Name string `json:"name"`
	// Arguments is the argument map pending validation.
	Arguments map[string]any `json:"arguments"`
}

// ToolErrorKind classifies a tool invocation failure.
type ToolErrorKind string

const (
	// ToolErrorNotFound means no tool with the requested name is registered.
	ToolErrorNotFound ToolErrorKind = "tool_not_found"
	// ToolErrorInvalidArguments means the arguments violated the tool's schema.
	ToolErrorInvalidArguments ToolErrorKind = "invalid_arguments"
	// ToolErrorExecution means the tool body failed.
	ToolErrorExecution ToolErrorKind = "execution_error"
	// ToolErrorAborted means the invocation was cancelled.
	ToolErrorAborted ToolErrorKind = "aborted"
)

// ErrorDetail carries structured diagnostics for a failed tool invocation.
type ErrorDetail struct {
	Message string        `json:"message"`
	Kind    ToolErrorKind `json:"kind"`
	// Trace is a best-effort stack trace for execution failures.
	Trace string `json:"trace,omitempty"`
}

// ToolResult is the normalized outcome of one tool invocation. Success and
// failure share the same shape so the runner treats both uniformly.
type ToolResult struct {
	// ToolCallID matches the ID of the corresponding ToolCall.
	ToolCallID string `json:"toolCallId"`
	// ToolName names the tool that produced this result.
	ToolName string `json:"toolName,omitempty"`
	// Content is the ordered result content returned to the model.
	Content []ContentPart `json:"content"`
	// IsError indicates the result represents a failure.
	IsError bool `json:"isError,omitempty"`
	// Detail carries structured error information when IsError is set.
	Detail *ErrorDetail `json:"detail,omitempty"`
}

// Text returns the concatenated text parts of the result.
func (r ToolResult) Text() string {
	out := ""
	for _, p := range r.Content {
		if p.Kind == ContentText {
			out += p.Text
		}
	}
	return out
}
