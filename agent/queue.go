package agent

import ai "github.com/spetersoncode/cadence"

// QueueMode controls how queued messages are injected into a running turn
// loop.
type QueueMode string

const (
	// QueueAll flushes the entire queue at the start of each turn.
	QueueAll QueueMode = "all"

	// QueueOne flushes exactly one queued message per turn, preserving
	// arrival order for the remainder.
	QueueOne QueueMode = "one-at-a-time"
)

// QueuedMessage is an entry in a conversation's queued-message buffer.
// Original is always surfaced through message events. Transformed is what the
// model actually sees; when nil the entry is UI-visible only and is dropped
// from model input.
type QueuedMessage struct {
	Original    ai.Message
	Transformed *ai.Message
}
