package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/accum"
	"github.com/spetersoncode/cadence/backend"
	"github.com/spetersoncode/cadence/internal/retry"
	"github.com/spetersoncode/cadence/model"
	"github.com/spetersoncode/cadence/stream"
	"github.com/spetersoncode/cadence/tool"
)

// runner drives the turn loop for one run. It holds a config snapshot and a
// working copy of history; new messages reach the conversation only through
// the append callback, never by direct mutation.
type runner struct {
	conv        *Conversation
	adapter     backend.Adapter
	invoker     *tool.Invoker
	model       model.ChatModel
	system      string
	tools       []ai.Tool
	budget      Budget
	retryCfg    retry.Config
	maxTokens   int
	temperature *float64
	log         zerolog.Logger

	events   *stream.Stream[Event, *Result]
	messages []ai.Message

	turn     int
	runCost  ai.Cost
	runUsage ai.Usage
	appended []ai.Message
}

func (r *runner) emit(ev Event) {
	r.events.Push(ev)
	r.conv.publish(ev)
}

// append records a message in the run's working copy and in the
// conversation's history, surfacing it as a message_start/message_end pair.
func (r *runner) append(msg ai.Message) {
	r.messages = append(r.messages, msg)
	r.appended = append(r.appended, msg)
	r.conv.append(msg)
	r.emit(Event{Type: MessageStart, Turn: r.turn, Message: &msg})
	r.emit(Event{Type: MessageEnd, Turn: r.turn, Message: &msg})
}

// run executes the turn loop to a terminal state. The conversation resolves
// the event stream's result after it has gone idle, so a caller observing the
// result can immediately start the next run.
func (r *runner) run(ctx context.Context) *Result {
	r.emit(Event{Type: AgentStart})

	result := r.loop(ctx)

	result.Messages = r.appended
	result.Usage = r.runUsage
	result.Usage.Cost = r.runCost
	result.Cost = r.runCost
	result.Turns = r.turn

	r.emit(Event{Type: AgentEnd, State: result.State, Err: result.Err})
	return result
}

func (r *runner) loop(ctx context.Context) *Result {
	for {
		r.turn++
		r.emit(Event{Type: TurnStart, Turn: r.turn})

		r.injectQueued()

		msg, err := r.modelTurn(ctx)
		if err != nil {
			r.emit(Event{Type: TurnEnd, Turn: r.turn})
			if ctx.Err() != nil {
				return &Result{State: RunAborted, Err: ctx.Err()}
			}
			return &Result{State: RunErrored, Err: err}
		}

		r.runUsage.InputTokens += msg.Usage.InputTokens
		r.runUsage.OutputTokens += msg.Usage.OutputTokens
		r.runUsage.CacheReadTokens += msg.Usage.CacheReadTokens
		r.runUsage.CacheWriteTokens += msg.Usage.CacheWriteTokens
		r.runCost = r.runCost.Add(r.model.Cost(msg.Usage))

		switch msg.StopReason {
		case ai.StopReasonAborted:
			r.emit(Event{Type: TurnEnd, Turn: r.turn})
			err := context.Cause(ctx)
			if err == nil && msg.ErrorMessage != "" {
				err = errors.New(msg.ErrorMessage)
			}
			return &Result{State: RunAborted, Err: err}
		case ai.StopReasonError:
			r.emit(Event{Type: TurnEnd, Turn: r.turn})
			return &Result{State: RunErrored, Err: fmt.Errorf("model stream failed: %s", msg.ErrorMessage)}
		}

		calls := msg.ToolCalls()
		pending := len(calls) > 0 || r.conv.queuedPending()

		// The budget gates continuation, not delivery: a final answer that
		// overruns the limit still completes the run.
		if pending {
			if err := r.budget.exceeded(r.runCost, msg.Usage); err != nil {
				r.log.Warn().Err(err).Int("turn", r.turn).Msg("budget exceeded with actions pending")
				r.emit(Event{Type: TurnEnd, Turn: r.turn})
				return &Result{State: RunErrored, Err: err}
			}
		}

		if len(calls) > 0 {
			aborted := r.dispatchTools(ctx, calls)
			r.emit(Event{Type: TurnEnd, Turn: r.turn})
			if aborted {
				return &Result{State: RunAborted, Err: context.Cause(ctx)}
			}
			continue
		}

		r.emit(Event{Type: TurnEnd, Turn: r.turn})

		if r.conv.queuedPending() {
			continue
		}
		return &Result{State: RunCompleted}
	}
}

// injectQueued flushes the conversation's queued-message buffer according to
// the queue mode. Every flushed entry is surfaced through message events;
// only entries with a transformed form reach model input.
func (r *runner) injectQueued() {
	for _, q := range r.conv.dequeue() {
		if q.Transformed == nil {
			original := q.Original
			r.emit(Event{Type: MessageStart, Turn: r.turn, Message: &original})
			r.emit(Event{Type: MessageEnd, Turn: r.turn, Message: &original})
			continue
		}
		r.append(*q.Transformed)
	}
}

// modelTurn invokes the backend, streams the response through the
// accumulator into the event stream, and appends the finalized assistant
// message. Opening the stream retries transient failures; an in-flight
// stream is never retried.
func (r *runner) modelTurn(ctx context.Context) (ai.Message, error) {
	req := backend.Request{
		Model:       r.model,
		System:      r.system,
		Messages:    r.messages,
		Tools:       r.tools,
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	}

	s, err := retry.Do(ctx, r.retryCfg, func() (*stream.Stream[accum.Delta, *ai.NativeMessage], error) {
		return r.adapter.Stream(ctx, req)
	})
	if err != nil {
		r.log.Error().Err(err).Int("turn", r.turn).Msg("model call failed")
		return ai.Message{}, err
	}

	acc := accum.New(r.adapter.Provider(), r.model.String())
	started := false
	msg := accum.Collect(ctx, s, acc, func(snapshot ai.Message) {
		if !started {
			started = true
			r.emit(Event{Type: MessageStart, Turn: r.turn, Message: &snapshot})
			return
		}
		r.emit(Event{Type: MessageUpdate, Turn: r.turn, Message: &snapshot})
	})
	if !started {
		r.emit(Event{Type: MessageStart, Turn: r.turn, Message: &msg})
	}

	r.messages = append(r.messages, msg)
	r.appended = append(r.appended, msg)
	r.conv.append(msg)
	r.emit(Event{Type: MessageEnd, Turn: r.turn, Message: &msg})

	r.log.Debug().
		Int("turn", r.turn).
		Str("stop_reason", string(msg.StopReason)).
		Int("input_tokens", msg.Usage.InputTokens).
		Int("output_tokens", msg.Usage.OutputTokens).
		Msg("model turn complete")

	return msg, nil
}

// dispatchTools executes one assistant message's tool calls sequentially,
// appending a toolResult message per call. A cancellation observed between
// calls skips the remainder of the batch; dispatchTools reports whether the
// batch was cut short.
func (r *runner) dispatchTools(ctx context.Context, calls []ai.ToolCall) (aborted bool) {
	for _, call := range calls {
		if ctx.Err() != nil {
			return true
		}

		r.conv.markPending(call.ID, true)
		r.emit(Event{Type: ToolExecutionStart, Turn: r.turn, ToolCall: &call})

		progress := func(update string) {
			r.emit(Event{Type: ToolExecutionUpdate, Turn: r.turn, ToolCall: &call, Update: update})
		}
		result := r.invoker.Execute(ctx, call, progress)

		r.conv.markPending(call.ID, false)
		r.emit(Event{Type: ToolExecutionEnd, Turn: r.turn, ToolCall: &call, ToolResult: &result})

		r.append(ai.NewToolResultMessage(result))
	}
	return ctx.Err() != nil
}
