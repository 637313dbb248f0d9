package model

import ai "github.com/spetersoncode/cadence"

// ChatModel represents a chat/completion model from any provider.
type ChatModel struct {
	id            string
	provider      ai.Provider
	pricing       Pricing
	contextWindow int
	maxOutput     int
}

// String returns the API identifier for this model.
func (m ChatModel) String() string { return m.id }

// Provider returns which provider this model belongs to.
func (m ChatModel) Provider() ai.Provider { return m.provider }

// Pricing returns the pricing for this model.
func (m ChatModel) Pricing() Pricing { return m.pricing }

// ContextWindow returns the model's context window in tokens, or zero when
// unknown.
func (m ChatModel) ContextWindow() int { return m.contextWindow }

// MaxOutput returns the model's maximum output tokens, or zero when unknown.
func (m ChatModel) MaxOutput() int { return m.maxOutput }

// Cost computes the dollar cost of a usage report at this model's pricing.
func (m ChatModel) Cost(usage ai.Usage) ai.Cost { return m.pricing.Cost(usage) }

// Anthropic Claude Models
// Model pricing last verified: August 2026
var (
	ClaudeOpus4   = ChatModel{id: "claude-opus-4-0", provider: ai.ProviderAnthropic, pricing: Pricing{InputPerMillion: 15.00, OutputPerMillion: 75.00, CacheReadPerMillion: 1.50, CacheWritePerMillion: 18.75}, contextWindow: 200_000, maxOutput: 32_000}
	ClaudeSonnet4 = ChatModel{id: "claude-sonnet-4-0", provider: ai.ProviderAnthropic, pricing: Pricing{InputPerMillion: 3.00, OutputPerMillion: 15.00, CacheReadPerMillion: 0.30, CacheWritePerMillion: 3.75}, contextWindow: 200_000, maxOutput: 64_000}
	ClaudeHaiku35 = ChatModel{id: "claude-3-5-haiku-latest", provider: ai.ProviderAnthropic, pricing: Pricing{InputPerMillion: 0.80, OutputPerMillion: 4.00, CacheReadPerMillion: 0.08, CacheWritePerMillion: 1.00}, contextWindow: 200_000, maxOutput: 8_192}

	// DefaultClaudeModel is the recommended default Anthropic model.
	DefaultClaudeModel = ClaudeSonnet4
)

// OpenAI GPT and O-Series Models
// Model pricing last verified: August 2026
var (
	GPT5     = ChatModel{id: "gpt-5", provider: ai.ProviderOpenAI, pricing: Pricing{InputPerMillion: 1.25, OutputPerMillion: 10.00, CacheReadPerMillion: 0.125}, contextWindow: 400_000, maxOutput: 128_000}
	GPT5Mini = ChatModel{id: "gpt-5-mini", provider: ai.ProviderOpenAI, pricing: Pricing{InputPerMillion: 0.25, OutputPerMillion: 1.00, CacheReadPerMillion: 0.025}, contextWindow: 400_000, maxOutput: 128_000}
	GPT5Nano = ChatModel{id: "gpt-5-nano", provider: ai.ProviderOpenAI, pricing: Pricing{InputPerMillion: 0.10, OutputPerMillion: 0.40, CacheReadPerMillion: 0.01}, contextWindow: 400_000, maxOutput: 128_000}
	GPT41    = ChatModel{id: "gpt-4.1", provider: ai.ProviderOpenAI, pricing: Pricing{InputPerMillion: 2.00, OutputPerMillion: 8.00, CacheReadPerMillion: 0.50}, contextWindow: 1_047_576, maxOutput: 32_768}
	O4Mini   = ChatModel{id: "o4-mini", provider: ai.ProviderOpenAI, pricing: Pricing{InputPerMillion: 1.10, OutputPerMillion: 4.40, CacheReadPerMillion: 0.275}, contextWindow: 200_000, maxOutput: 100_000}

	// DefaultGPTModel is the recommended default OpenAI model.
	DefaultGPTModel = GPT5
)

// Google Gemini Models
// Model pricing last verified: August 2026
var (
	Gemini25Pro       = ChatModel{id: "gemini-2.5-pro", provider: ai.ProviderGoogle, pricing: Pricing{InputPerMillion: 1.25, OutputPerMillion: 10.00, CacheReadPerMillion: 0.31}, contextWindow: 1_048_576, maxOutput: 65_536}
	Gemini25Flash     = ChatModel{id: "gemini-2.5-flash", provider: ai.ProviderGoogle, pricing: Pricing{InputPerMillion: 0.30, OutputPerMillion: 2.50, CacheReadPerMillion: 0.075}, contextWindow: 1_048_576, maxOutput: 65_536}
	Gemini25FlashLite = ChatModel{id: "gemini-2.5-flash-lite", provider: ai.ProviderGoogle, pricing: Pricing{InputPerMillion: 0.10, OutputPerMillion: 0.40, CacheReadPerMillion: 0.025}, contextWindow: 1_048_576, maxOutput: 65_536}

	// DefaultGeminiModel is the recommended default Google model.
	DefaultGeminiModel = Gemini25Flash
)

var catalog = []ChatModel{
	ClaudeOpus4, ClaudeSonnet4, ClaudeHaiku35,
	GPT5, GPT5Mini, GPT5Nano, GPT41, O4Mini,
	Gemini25Pro, Gemini25Flash, Gemini25FlashLite,
}

// Lookup finds a catalog model by its API identifier. The second return is
// false for identifiers outside the catalog.
func Lookup(id string) (ChatModel, bool) {
	for _, m := range catalog {
		if m.id == id {
			return m, true
		}
	}
	return ChatModel{}, false
}

// Custom builds a ChatModel for an identifier outside the catalog, with
// caller-supplied pricing. Useful for fine-tuned or newly released models.
func Custom(id string, provider ai.Provider, pricing Pricing) ChatModel {
	return ChatModel{id: id, provider: provider, pricing: pricing}
}
