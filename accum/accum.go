package accum

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/stream"
)

// Accumulator folds an ordered sequence of deltas into an assistant message.
// Apply returns an updated partial-message snapshot after each delta; once a
// StreamDone or StreamError is applied (or Abort is called) the message is
// sealed and further deltas are ignored.
//
// At most one block is open at any time: consecutive text or thinking
// fragments of the same kind coalesce into one block, and a kind change or a
// tool call closes the current block before opening the next.
//
// An Accumulator is not safe for concurrent use.
type Accumulator struct {
	msg       ai.Message
	open      int // index of the open block, -1 when none
	rawArgs   string
	seenIDs   map[string]struct{}
	sealed    bool
	streamErr error
}

// New creates an accumulator for a response from the given provider and model.
func New(provider ai.Provider, model string) *Accumulator {
	return &Accumulator{
		msg: ai.Message{
			ID:        ai.NewMessageID(),
			Role:      ai.RoleAssistant,
			CreatedAt: time.Now(),
			Provider:  provider,
			Model:     model,
		},
		open:    -1,
		seenIDs: make(map[string]struct{}),
	}
}

// Apply folds one delta into the message and returns the updated snapshot.
func (a *Accumulator) Apply(d Delta) ai.Message {
	if a.sealed {
		return a.snapshot()
	}

	if d.Usage != nil {
		// Later usage payloads replace earlier ones wholesale, but preserve
		// any category the new payload omits (providers report input tokens
		// on stream start and output tokens at the end).
		u := *d.Usage
		if u.InputTokens == 0 {
			u.InputTokens = a.msg.Usage.InputTokens
		}
		if u.CacheReadTokens == 0 {
			u.CacheReadTokens = a.msg.Usage.CacheReadTokens
		}
		if u.CacheWriteTokens == 0 {
			u.CacheWriteTokens = a.msg.Usage.CacheWriteTokens
		}
		a.msg.Usage = u
	}

	switch d.Kind {
	case StreamStart:
		// Usage handled above; nothing else to do.

	case BlockStart:
		a.closeBlock()
		a.openBlock(d)

	case BlockDelta:
		a.applyDelta(d)

	case BlockEnd:
		a.closeBlock()

	case StreamDone:
		a.closeBlock()
		a.msg.StopReason = d.Status
		if a.msg.StopReason == "" {
			a.msg.StopReason = ai.StopReasonStop
		}
		if !a.msg.StopReason.Terminal() && a.hasToolCalls() {
			a.msg.StopReason = ai.StopReasonToolUse
		}
		a.sealed = true

	case StreamError:
		a.closeBlock()
		if errors.Is(d.Err, context.Canceled) {
			a.msg.StopReason = ai.StopReasonAborted
		} else {
			a.msg.StopReason = ai.StopReasonError
		}
		if d.Err != nil {
			a.msg.ErrorMessage = d.Err.Error()
			a.streamErr = d.Err
		}
		a.sealed = true
	}

	return a.snapshot()
}

// Abort seals the message with an aborted stop reason. It is a no-op on an
// already-sealed accumulator.
func (a *Accumulator) Abort(err error) ai.Message {
	if a.sealed {
		return a.snapshot()
	}
	a.closeBlock()
	a.msg.StopReason = ai.StopReasonAborted
	if err != nil {
		a.msg.ErrorMessage = err.Error()
		a.streamErr = err
	}
	a.sealed = true
	return a.snapshot()
}

// Sealed reports whether a terminal delta has been applied.
func (a *Accumulator) Sealed() bool { return a.sealed }

// Err returns the error that sealed the message, or nil for a clean finish.
func (a *Accumulator) Err() error { return a.streamErr }

// Message returns the current message snapshot.
func (a *Accumulator) Message() ai.Message { return a.snapshot() }

func (a *Accumulator) openBlock(d Delta) {
	block := ai.Block{Type: d.Block}
	if d.Block == ai.BlockToolCall {
		block.ID = a.uniqueCallID(d.ToolID, d.ToolName)
		block.Name = d.ToolName
		a.rawArgs = ""
		if d.Args != "" {
			a.rawArgs = d.Args
			if args, _ := ParsePartialJSON(a.rawArgs); args != nil {
				block.Arguments = args
			}
		}
	}
	a.msg.Blocks = append(a.msg.Blocks, block)
	a.open = len(a.msg.Blocks) - 1
}

func (a *Accumulator) applyDelta(d Delta) {
	// A fragment with no open block, or with a different kind than the open
	// block, implicitly closes the current block and opens a new one.
	if a.open < 0 || a.msg.Blocks[a.open].Type != d.Block {
		a.closeBlock()
		a.openBlock(Delta{Kind: BlockStart, Block: d.Block, ToolID: d.ToolID, ToolName: d.ToolName})
	}

	block := &a.msg.Blocks[a.open]
	switch d.Block {
	case ai.BlockText:
		block.Text += d.Text
	case ai.BlockThinking:
		block.Thinking += d.Text
	case ai.BlockToolCall:
		a.rawArgs += d.Args
		if args, _ := ParsePartialJSON(a.rawArgs); args != nil {
			block.Arguments = args
		}
	}
}

func (a *Accumulator) closeBlock() {
	if a.open < 0 {
		return
	}
	block := &a.msg.Blocks[a.open]
	if block.Type == ai.BlockToolCall {
		// Final arguments are parsed strictly; the speculative parse stands
		// in only when the raw fragments never became valid JSON.
		var args map[string]any
		if err := json.Unmarshal([]byte(a.rawArgs), &args); err == nil {
			block.Arguments = args
		} else if block.Arguments == nil {
			block.Arguments = map[string]any{}
		}
		a.rawArgs = ""
	}
	a.open = -1
}

func (a *Accumulator) hasToolCalls() bool {
	for _, b := range a.msg.Blocks {
		if b.Type == ai.BlockToolCall {
			return true
		}
	}
	return false
}

// uniqueCallID returns the provider-supplied id, or synthesizes one from the
// tool name when the id is missing or collides with an already-seen id.
func (a *Accumulator) uniqueCallID(id, name string) string {
	if id != "" {
		if _, dup := a.seenIDs[id]; !dup {
			a.seenIDs[id] = struct{}{}
			return id
		}
	}
	suffix, err := gonanoid.New(8)
	if err != nil {
		suffix = time.Now().Format("150405.000000000")
	}
	synth := name + "-" + suffix
	a.seenIDs[synth] = struct{}{}
	return synth
}

func (a *Accumulator) snapshot() ai.Message {
	snap := a.msg
	snap.Blocks = make([]ai.Block, len(a.msg.Blocks))
	copy(snap.Blocks, a.msg.Blocks)
	for i := range snap.Blocks {
		if snap.Blocks[i].Arguments != nil {
			args := make(map[string]any, len(snap.Blocks[i].Arguments))
			for k, v := range snap.Blocks[i].Arguments {
				args[k] = v
			}
			snap.Blocks[i].Arguments = args
		}
	}
	return snap
}

// Collect drains an adapter stream through the accumulator, invoking onUpdate
// with the partial snapshot after every delta. It returns the sealed final
// message with the backend's native payload attached.
//
// Collect never leaves a stream unresolved: if the stream ends without a
// terminal delta, the message is sealed as aborted (when ctx was cancelled)
// or as an error.
func Collect(ctx context.Context, s *stream.Stream[Delta, *ai.NativeMessage], a *Accumulator, onUpdate func(ai.Message)) ai.Message {
	for {
		d, ok := s.Next()
		if !ok {
			break
		}
		snap := a.Apply(d)
		if onUpdate != nil {
			onUpdate(snap)
		}
	}

	if !a.Sealed() {
		if ctx.Err() != nil {
			a.Abort(ctx.Err())
		} else {
			a.Apply(Delta{Kind: StreamError, Err: errors.New("stream closed before completion")})
		}
	}

	msg := a.Message()
	msg.Native = s.Result()
	return msg
}
