package agent

import ai "github.com/spetersoncode/cadence"

// Budget caps the cost and context size of a run. Zero values leave the
// corresponding limit unset.
//
// The runner accumulates cost strictly within the current run and compares
// CurrentCost plus the accumulated run cost against CostLimit after each
// turn. The comparison only fails the run when more actions are pending
// (tool calls to dispatch or queued messages to inject); a final answer that
// exceeds the budget is still delivered.
type Budget struct {
	// CostLimit is the maximum total cost in dollars. Zero means unlimited.
	CostLimit float64

	// ContextLimit caps the input-token count of a single turn.
	// Zero means unlimited.
	ContextLimit int

	// CurrentCost is the cost already spent before this run, supplied by
	// the conversation as the baseline for the limit comparison.
	CurrentCost float64
}

// exceeded reports whether the run has overrun the budget, given the cost
// accumulated so far and the latest turn's usage.
func (b Budget) exceeded(runCost ai.Cost, usage ai.Usage) error {
	if b.CostLimit > 0 && b.CurrentCost+runCost.Total > b.CostLimit {
		return &BudgetExceededError{
			CostLimit: b.CostLimit,
			Cost:      b.CurrentCost + runCost.Total,
		}
	}
	if b.ContextLimit > 0 && usage.InputTokens > b.ContextLimit {
		return &BudgetExceededError{
			ContextLimit: b.ContextLimit,
			InputTokens:  usage.InputTokens,
		}
	}
	return nil
}
