package agent

import (
	"fmt"

	ai "github.com/spetersoncode/cadence"
)

// ConcurrentRunError is returned when Prompt or Continue is called while
// another run is already in flight on the same conversation.
type ConcurrentRunError struct{}

func (e *ConcurrentRunError) Error() string {
	return "agent: a run is already in flight on this conversation"
}

// InvalidContinuationStateError is returned by Continue when the last history
// entry is not a user or toolResult message.
type InvalidContinuationStateError struct {
	// LastRole is the role of the trailing history entry, empty when the
	// history is empty.
	LastRole ai.Role
}

func (e *InvalidContinuationStateError) Error() string {
	if e.LastRole == "" {
		return "agent: cannot continue an empty conversation"
	}
	return fmt.Sprintf("agent: cannot continue from trailing %s message", e.LastRole)
}

// BudgetExceededError terminates a run whose accumulated cost or input-token
// count overran the configured budget while more actions were pending.
type BudgetExceededError struct {
	// CostLimit and Cost are set when the cost ceiling was overrun.
	CostLimit float64
	Cost      float64

	// ContextLimit and InputTokens are set when the context ceiling was
	// overrun.
	ContextLimit int
	InputTokens  int
}

func (e *BudgetExceededError) Error() string {
	if e.ContextLimit > 0 {
		return fmt.Sprintf("agent: context budget exceeded: %d input tokens > limit %d", e.InputTokens, e.ContextLimit)
	}
	return fmt.Sprintf("agent: cost budget exceeded: $%.4f > limit $%.4f", e.Cost, e.CostLimit)
}
