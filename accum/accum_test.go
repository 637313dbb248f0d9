package accum

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/stream"
)

func newTestAccumulator() *Accumulator {
	return New(ai.ProviderAnthropic, "test-model")
}

func TestAccumulator_CoalescesSameKindFragments(t *testing.T) {
	a := newTestAccumulator()

	fragments := []string{"Hel", "lo, ", "wor", "ld"}
	for _, f := range fragments {
		a.Apply(Delta{Kind: BlockDelta, Block: ai.BlockText, Text: f})
	}
	msg := a.Apply(Delta{Kind: StreamDone, Status: ai.StopReasonStop})

	require.Len(t, msg.Blocks, 1)
	assert.Equal(t, ai.BlockText, msg.Blocks[0].Type)
	assert.Equal(t, "Hello, world", msg.Blocks[0].Text)
	assert.Equal(t, ai.StopReasonStop, msg.StopReason)
}

func TestAccumulator_KindChangeClosesBlock(t *testing.T) {
	a := newTestAccumulator()

	a.Apply(Delta{Kind: BlockDelta, Block: ai.BlockThinking, Text: "hmm "})
	a.Apply(Delta{Kind: BlockDelta, Block: ai.BlockThinking, Text: "ok"})
	a.Apply(Delta{Kind: BlockDelta, Block: ai.BlockText, Text: "answer"})
	a.Apply(Delta{Kind: BlockDelta, Block: ai.BlockThinking, Text: "more"})
	msg := a.Apply(Delta{Kind: StreamDone, Status: ai.StopReasonStop})

	// Block count equals the number of kind transitions.
	require.Len(t, msg.Blocks, 3)
	assert.Equal(t, "hmm ok", msg.Blocks[0].Thinking)
	assert.Equal(t, "answer", msg.Blocks[1].Text)
	assert.Equal(t, "more", msg.Blocks[2].Thinking)
}

func TestAccumulator_PartialSnapshots(t *testing.T) {
	a := newTestAccumulator()

	snap := a.Apply(Delta{Kind: BlockDelta, Block: ai.BlockText, Text: "par"})
	require.Len(t, snap.Blocks, 1)
	assert.Equal(t, "par", snap.Blocks[0].Text)

	snap2 := a.Apply(Delta{Kind: BlockDelta, Block: ai.BlockText, Text: "tial"})
	assert.Equal(t, "partial", snap2.Blocks[0].Text)

	// Earlier snapshots are unaffected by later deltas.
	assert.Equal(t, "par", snap.Blocks[0].Text)
}

func TestAccumulator_ToolCallArguments(t *testing.T) {
	t.Run("speculative parse while streaming", func(t *testing.T) {
		a := newTestAccumulator()

		a.Apply(Delta{Kind: BlockStart, Block: ai.BlockToolCall, ToolID: "call-1", ToolName: "calculator"})
		snap := a.Apply(Delta{Kind: BlockDelta, Block: ai.BlockToolCall, Args: `{"expression": "2+`})

		require.Len(t, snap.Blocks, 1)
		require.NotNil(t, snap.Blocks[0].Arguments)
		assert.Equal(t, "2+", snap.Blocks[0].Arguments["expression"])

		snap = a.Apply(Delta{Kind: BlockDelta, Block: ai.BlockToolCall, Args: `2"}`})
		a.Apply(Delta{Kind: BlockEnd})
		msg := a.Apply(Delta{Kind: StreamDone, Status: ai.StopReasonToolUse})

		assert.Equal(t, "2+2", msg.Blocks[0].Arguments["expression"])
		assert.Equal(t, ai.StopReasonToolUse, msg.StopReason)
	})

	t.Run("tool call upgrades stop reason", func(t *testing.T) {
		a := newTestAccumulator()

		a.Apply(Delta{Kind: BlockStart, Block: ai.BlockToolCall, ToolID: "call-1", ToolName: "search"})
		a.Apply(Delta{Kind: BlockDelta, Block: ai.BlockToolCall, Args: `{"q":"go"}`})
		a.Apply(Delta{Kind: BlockEnd})
		msg := a.Apply(Delta{Kind: StreamDone, Status: ai.StopReasonStop})

		assert.Equal(t, ai.StopReasonToolUse, msg.StopReason)
	})

	t.Run("duplicate call ids are synthesized", func(t *testing.T) {
		a := newTestAccumulator()

		a.Apply(Delta{Kind: BlockStart, Block: ai.BlockToolCall, ToolID: "dup", ToolName: "search"})
		a.Apply(Delta{Kind: BlockEnd})
		a.Apply(Delta{Kind: BlockStart, Block: ai.BlockToolCall, ToolID: "dup", ToolName: "search"})
		a.Apply(Delta{Kind: BlockEnd})
		msg := a.Apply(Delta{Kind: StreamDone, Status: ai.StopReasonToolUse})

		require.Len(t, msg.Blocks, 2)
		assert.Equal(t, "dup", msg.Blocks[0].ID)
		assert.NotEqual(t, "dup", msg.Blocks[1].ID)
		assert.Contains(t, msg.Blocks[1].ID, "search-")
	})
}

func TestAccumulator_UsageReplacement(t *testing.T) {
	a := newTestAccumulator()

	a.Apply(Delta{Kind: StreamStart, Usage: &ai.Usage{InputTokens: 120}})
	a.Apply(Delta{Kind: BlockDelta, Block: ai.BlockText, Text: "hi"})
	msg := a.Apply(Delta{Kind: StreamDone, Status: ai.StopReasonStop, Usage: &ai.Usage{OutputTokens: 7}})

	assert.Equal(t, 120, msg.Usage.InputTokens)
	assert.Equal(t, 7, msg.Usage.OutputTokens)
}

func TestAccumulator_StreamError(t *testing.T) {
	a := newTestAccumulator()

	a.Apply(Delta{Kind: BlockDelta, Block: ai.BlockText, Text: "half-finis"})
	msg := a.Apply(Delta{Kind: StreamError, Err: errors.New("connection reset")})

	assert.Equal(t, ai.StopReasonError, msg.StopReason)
	assert.Equal(t, "connection reset", msg.ErrorMessage)
	assert.Equal(t, "half-finis", msg.Blocks[0].Text)
	assert.True(t, a.Sealed())

	// Deltas after sealing are ignored.
	after := a.Apply(Delta{Kind: BlockDelta, Block: ai.BlockText, Text: "more"})
	assert.Equal(t, "half-finis", after.Blocks[0].Text)
}

func TestAccumulator_CancellationIsAborted(t *testing.T) {
	a := newTestAccumulator()
	msg := a.Apply(Delta{Kind: StreamError, Err: context.Canceled})
	assert.Equal(t, ai.StopReasonAborted, msg.StopReason)
}

func TestAccumulator_Abort(t *testing.T) {
	a := newTestAccumulator()
	a.Apply(Delta{Kind: BlockDelta, Block: ai.BlockText, Text: "working"})
	msg := a.Abort(context.Canceled)

	assert.Equal(t, ai.StopReasonAborted, msg.StopReason)
	assert.True(t, a.Sealed())
}

func TestCollect(t *testing.T) {
	t.Run("drains stream and attaches native payload", func(t *testing.T) {
		s := stream.New[Delta, *ai.NativeMessage]()
		s.Push(Delta{Kind: StreamStart})
		s.Push(Delta{Kind: BlockDelta, Block: ai.BlockText, Text: "4"})
		s.Push(Delta{Kind: StreamDone, Status: ai.StopReasonStop})
		s.End(&ai.NativeMessage{Provider: ai.ProviderAnthropic, Payload: "native"})

		var updates int
		msg := Collect(context.Background(), s, newTestAccumulator(), func(ai.Message) { updates++ })

		assert.Equal(t, 3, updates)
		assert.Equal(t, "4", msg.Text())
		require.NotNil(t, msg.Native)
		assert.Equal(t, ai.ProviderAnthropic, msg.Native.Provider)
	})

	t.Run("stream closing early seals as error", func(t *testing.T) {
		s := stream.New[Delta, *ai.NativeMessage]()
		s.Push(Delta{Kind: BlockDelta, Block: ai.BlockText, Text: "trunc"})
		s.End(nil)

		msg := Collect(context.Background(), s, newTestAccumulator(), nil)
		assert.Equal(t, ai.StopReasonError, msg.StopReason)
	})

	t.Run("cancelled context seals as aborted", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s := stream.New[Delta, *ai.NativeMessage]()
		s.End(nil)

		msg := Collect(ctx, s, newTestAccumulator(), nil)
		assert.Equal(t, ai.StopReasonAborted, msg.StopReason)
	})
}

func TestParsePartialJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     map[string]any
		complete bool
	}{
		{"complete object", `{"a": 1}`, map[string]any{"a": float64(1)}, true},
		{"empty", "", nil, false},
		{"open string value", `{"a": "hel`, map[string]any{"a": "hel"}, false},
		{"open nested", `{"a": {"b": [1, 2`, map[string]any{"a": map[string]any{"b": []any{float64(1), float64(2)}}}, false},
		{"trailing comma", `{"a": 1,`, map[string]any{"a": float64(1)}, false},
		{"dangling key", `{"a": 1, "b"`, map[string]any{"a": float64(1), "b": nil}, false},
		{"dangling colon", `{"a":`, map[string]any{"a": nil}, false},
		{"bare brace", `{`, map[string]any{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, complete := ParsePartialJSON(tt.raw)
			assert.Equal(t, tt.complete, complete)
			assert.Equal(t, tt.want, got)
		})
	}
}
