package tool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	ai "github.com/spetersoncode/cadence"
)

// Invoker executes tool calls against a registry, normalizing every failure
// mode into a ToolResult the model can read and recover from. Execute never
// returns a Go error: an unregistered tool, invalid arguments, a handler
// error, a panic, and cancellation all become error results with a
// machine-readable kind.
type Invoker struct {
	registry *Registry
	log      zerolog.Logger
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithLogger sets the logger used for execution tracing.
func WithLogger(log zerolog.Logger) InvokerOption {
	return func(inv *Invoker) {
		inv.log = log
	}
}

// NewInvoker creates an invoker over the given registry.
func NewInvoker(registry *Registry, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		registry: registry,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Registry returns the registry this invoker executes against.
func (inv *Invoker) Registry() *Registry { return inv.registry }

// Execute runs a tool call end to end: lookup, argument validation, then the
// handler. Arguments are validated against the tool's parameter schema before
// the handler runs, so a handler never sees arguments that fail validation.
func (inv *Invoker) Execute(ctx context.Context, call ai.ToolCall, progress Progress) ai.ToolResult {
	start := time.Now()

	rt, ok := inv.registry.lookup(call.Name)
	if !ok {
		err := &ErrToolNotFound{Name: call.Name, Available: inv.registry.Names()}
		inv.log.Warn().Str("tool", call.Name).Str("call_id", call.ID).Msg("tool not found")
		return errorResult(call, ai.ToolErrorNotFound, err.Error(), "")
	}

	if issues := validateArguments(rt.schema, call.Arguments); len(issues) > 0 {
		err := &ErrInvalidArguments{Name: call.Name, Issues: issues}
		inv.log.Warn().Str("tool", call.Name).Str("call_id", call.ID).Strs("issues", issues).Msg("invalid tool arguments")
		return errorResult(call, ai.ToolErrorInvalidArguments, err.Error(), "")
	}

	if ctx.Err() != nil {
		return errorResult(call, ai.ToolErrorAborted, "tool execution aborted", "")
	}

	inv.log.Debug().Str("tool", call.Name).Str("call_id", call.ID).Msg("executing tool")

	if progress == nil {
		progress = func(string) {}
	}

	content, trace, err := inv.run(ctx, rt.handler, call, progress)
	if err != nil {
		kind := ai.ToolErrorExecution
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			kind = ai.ToolErrorAborted
		}
		inv.log.Warn().
			Str("tool", call.Name).
			Str("call_id", call.ID).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("tool execution failed")
		return errorResult(call, kind, (&ErrToolExecution{Name: call.Name, Err: err}).Error(), trace)
	}

	inv.log.Debug().
		Str("tool", call.Name).
		Str("call_id", call.ID).
		Dur("elapsed", time.Since(start)).
		Msg("tool executed")

	return ai.ToolResult{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Content:    []ai.ContentPart{ai.TextPart(content)},
	}
}

// run invokes the handler with panic recovery. A panicking handler is
// reported as an execution error carrying the stack trace.
func (inv *Invoker) run(ctx context.Context, handler Handler, call ai.ToolCall, progress Progress) (content, trace string, err error) {
	defer func() {
		if r := recover(); r != nil {
			trace = string(debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	content, err = handler(ctx, call, progress)
	return content, "", err
}

func validateArguments(schema *gojsonschema.Schema, arguments map[string]any) []string {
	if schema == nil {
		return nil
	}
	if arguments == nil {
		arguments = map[string]any{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(arguments))
	if err != nil {
		return []string{err.Error()}
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, issue := range result.Errors() {
		issues = append(issues, issue.String())
	}
	return issues
}

// errorResult builds a ToolResult whose content carries the error message so
// the model can read it and recover.
func errorResult(call ai.ToolCall, kind ai.ToolErrorKind, msg, trace string) ai.ToolResult {
	return ai.ToolResult{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Content:    []ai.ContentPart{ai.TextPart(msg)},
		IsError:    true,
		Detail: &ai.ErrorDetail{
			Message: msg,
			Kind:    kind,
			Trace:   trace,
		},
	}
}
