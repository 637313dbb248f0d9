package agent

import (
	"github.com/rs/zerolog"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/internal/retry"
	"github.com/spetersoncode/cadence/internal/store"
	"github.com/spetersoncode/cadence/model"
	"github.com/spetersoncode/cadence/tool"
)

// Option configures a Conversation.
type Option func(*Conversation)

// WithModel selects the model for every run of the conversation. The model's
// provider should match the adapter's.
func WithModel(m model.ChatModel) Option {
	return func(c *Conversation) {
		c.model = m
	}
}

// WithSystemPrompt sets the system prompt sent on every model call.
func WithSystemPrompt(system string) Option {
	return func(c *Conversation) {
		c.system = system
	}
}

// WithTools replaces the conversation's tool registry.
func WithTools(registry *tool.Registry) Option {
	return func(c *Conversation) {
		c.registry = registry
	}
}

// WithBudget sets the cost and context budget enforced across each run.
func WithBudget(b Budget) Option {
	return func(c *Conversation) {
		c.budget = b
	}
}

// WithQueueMode sets how queued messages are injected into a running turn
// loop. Default is QueueAll.
func WithQueueMode(mode QueueMode) Option {
	return func(c *Conversation) {
		c.queueMode = mode
	}
}

// WithLogger sets the structured logger. Default is a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Conversation) {
		c.log = log
	}
}

// WithMaxTokens caps the response length of each model call.
func WithMaxTokens(n int) Option {
	return func(c *Conversation) {
		c.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature for model calls.
func WithTemperature(t float64) Option {
	return func(c *Conversation) {
		c.temperature = &t
	}
}

// WithMaxRetries caps how many times opening a model stream is attempted for
// transient failures. Zero or negative disables retries.
func WithMaxRetries(n int) Option {
	return func(c *Conversation) {
		if n <= 0 {
			c.retryCfg = retry.Disabled()
			return
		}
		c.retryCfg.MaxAttempts = n
	}
}

// WithHistory preloads the conversation with existing messages.
func WithHistory(messages []ai.Message) Option {
	return func(c *Conversation) {
		c.history = store.NewFrom(messages, nil)
	}
}
