package cadence

// Usage contains token counts and the derived cost for one model response.
type Usage struct {
	InputTokens      int `json:"inputTokens"`
	OutputTokens     int `json:"outputTokens"`
	CacheReadTokens  int `json:"cacheReadTokens,omitempty"`
	CacheWriteTokens int `json:"cacheWriteTokens,omitempty"`

	Cost Cost `json:"cost,omitzero"`
}

// Cost is a USD cost breakdown per token category. Total always equals the
// sum of the categories.
type Cost struct {
	Input      float64 `json:"input"`
	Output     float64 `json:"output"`
	CacheRead  float64 `json:"cacheRead"`
	CacheWrite float64 `json:"cacheWrite"`
	Total      float64 `json:"total"`
}

// Add returns the component-wise sum of two cost breakdowns.
func (c Cost) Add(o Cost) Cost {
	return Cost{
		Input:      c.Input + o.Input,
		Output:     c.Output + o.Output,
		CacheRead:  c.CacheRead + o.CacheRead,
		CacheWrite: c.CacheWrite + o.CacheWrite,
		Total:      c.Total + o.Total,
	}
}
