// Package backend defines the adapter contract between the agent loop and a
// provider SDK. An adapter turns one model request into an ordered stream of
// accumulator deltas and resolves the stream with the provider's native
// response payload, which the agent replays verbatim on later turns against
// the same provider.
package backend

import (
	"context"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/accum"
	"github.com/spetersoncode/cadence/model"
	"github.com/spetersoncode/cadence/stream"
)

// Request carries one model invocation: the full conversation history plus
// the tools to advertise.
type Request struct {
	// Model selects the model and, through it, the target provider.
	Model model.ChatModel

	// System is the system prompt, empty for none.
	System string

	// Messages is the conversation history in order.
	Messages []ai.Message

	// Tools are the tool definitions advertised to the model.
	Tools []ai.Tool

	// MaxTokens caps the response length. Zero means the adapter default.
	MaxTokens int

	// Temperature overrides sampling temperature when non-nil.
	Temperature *float64
}

// Adapter streams model responses for one provider.
//
// Stream returns an error for problems detected before the request is sent,
// such as replaying another provider's native payload. Failures after the
// stream opens arrive as a StreamError delta, so the accumulator can seal a
// partial message instead of losing it.
type Adapter interface {
	// Provider identifies which backend this adapter talks to.
	Provider() ai.Provider

	// Stream sends the request and returns a live delta stream. The stream's
	// result is the provider-native response payload, or nil when the stream
	// failed before a response was assembled.
	Stream(ctx context.Context, req Request) (*stream.Stream[accum.Delta, *ai.NativeMessage], error)
}

// ReplayCheck verifies that every native payload in the history belongs to
// the given provider. Adapters call this before converting messages.
func ReplayCheck(messages []ai.Message, to ai.Provider) error {
	for _, msg := range messages {
		if msg.Native != nil && msg.Native.Provider != to {
			return &ai.CrossProviderConversionError{From: msg.Native.Provider, To: to}
		}
	}
	return nil
}
