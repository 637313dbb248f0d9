// Package accum converts a backend's incremental stream output into a
// canonical assistant message. The accumulator produces a live partial-message
// snapshot after every increment and a sealed final message once the backend
// signals completion or failure.
package accum

import (
	ai "github.com/spetersoncode/cadence"
)

// Kind identifies the type of a provider increment.
type Kind string

const (
	// StreamStart opens the response stream. May carry initial usage.
	StreamStart Kind = "stream_start"

	// BlockStart opens a content block of the given block type.
	BlockStart Kind = "block_start"

	// BlockDelta appends a fragment to the open block: Text for text and
	// thinking blocks, Args (a partial JSON fragment) for tool calls.
	BlockDelta Kind = "block_delta"

	// BlockEnd closes the open block.
	BlockEnd Kind = "block_end"

	// StreamDone completes the stream with a provider status.
	StreamDone Kind = "stream_done"

	// StreamError fails the stream.
	StreamError Kind = "stream_error"
)

// Delta is one provider-shaped increment of a streamed response. Backends
// translate their SDK events into this vocabulary; the accumulator is the
// only consumer.
type Delta struct {
	Kind Kind

	// Block is the block type for BlockStart and BlockDelta.
	Block ai.BlockType

	// ToolID and ToolName identify a tool call on BlockStart.
	ToolID   string
	ToolName string

	// Text is the fragment for text and thinking deltas.
	Text string

	// Args is the partial JSON fragment for tool call deltas.
	Args string

	// Usage carries the latest usage payload. A later payload fully replaces
	// an earlier one.
	Usage *ai.Usage

	// Status is the provider's stop status on StreamDone.
	Status ai.StopReason

	// Err is the failure on StreamError.
	Err error
}
