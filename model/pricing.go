package model

import ai "github.com/spetersoncode/cadence"

// Pricing contains pricing per million tokens (USD) for chat models.
// Fields are zero when a category does not apply to the model.
type Pricing struct {
	// InputPerMillion is the standard input token pricing (all providers).
	InputPerMillion float64
	// OutputPerMillion is the standard output token pricing (all providers).
	OutputPerMillion float64
	// CacheReadPerMillion is for cache-hit input tokens.
	CacheReadPerMillion float64
	// CacheWritePerMillion is for cache-creation input tokens (Anthropic).
	CacheWritePerMillion float64
}

// HasCachedPricing returns true if the model supports cached input pricing.
func (p Pricing) HasCachedPricing() bool {
	return p.CacheReadPerMillion > 0
}

// Cost converts a token usage report into dollar amounts per category.
// The returned Total is always the sum of the categories, and the result
// depends only on the usage passed in, so recomputing for the same usage
// always yields the same value.
func (p Pricing) Cost(usage ai.Usage) ai.Cost {
	c := ai.Cost{
		Input:      float64(usage.InputTokens) / 1_000_000 * p.InputPerMillion,
		Output:     float64(usage.OutputTokens) / 1_000_000 * p.OutputPerMillion,
		CacheRead:  float64(usage.CacheReadTokens) / 1_000_000 * p.CacheReadPerMillion,
		CacheWrite: float64(usage.CacheWriteTokens) / 1_000_000 * p.CacheWritePerMillion,
	}
	c.Total = c.Input + c.Output + c.CacheRead + c.CacheWrite
	return c
}
