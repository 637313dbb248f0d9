package agent

import (
	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/stream"
)

// RunState is the terminal state of a run.
type RunState string

const (
	// RunCompleted means the model produced a final answer.
	RunCompleted RunState = "completed"

	// RunAborted means the run was cancelled cooperatively.
	RunAborted RunState = "aborted"

	// RunErrored means the run failed: a model stream error, a backend
	// failure, or a budget overrun with actions still pending.
	RunErrored RunState = "errored"
)

// Run is the live handle for one run: iterate it for events, or await
// Result for the terminal outcome. The result always resolves, even when
// nothing iterates the events.
type Run = stream.Stream[Event, *Result]

// Result is the terminal outcome of a run.
type Result struct {
	// State is the terminal state.
	State RunState

	// Messages are the messages appended to history during this run, in
	// order.
	Messages []ai.Message

	// Usage is the summed token usage across all turns of the run.
	Usage ai.Usage

	// Cost is the summed cost across all turns of the run.
	Cost ai.Cost

	// Turns is the number of turns executed.
	Turns int

	// Err describes the failure for errored and aborted runs.
	Err error
}

// LastMessage returns the final message appended during the run.
func (r *Result) LastMessage() (ai.Message, bool) {
	if len(r.Messages) == 0 {
		return ai.Message{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}

// Text returns the text of the final assistant message of the run.
func (r *Result) Text() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == ai.RoleAssistant {
			return r.Messages[i].Text()
		}
	}
	return ""
}
