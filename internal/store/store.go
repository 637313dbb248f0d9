// Package store manages conversation history with pluggable persistence.
//
// History is append-only: messages are never mutated or removed once added,
// only superseded by later messages.
package store

import (
	"context"
	"encoding/json"
	"sync"

	ai "github.com/spetersoncode/cadence"
)

// Adapter persists serialized history under a key. Implementations must be
// safe for concurrent use.
type Adapter interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
}

// History manages an append-only message log with persistence support.
type History struct {
	mu       sync.RWMutex
	messages []ai.Message
	adapter  Adapter
}

// New creates an empty History with the given adapter.
// If adapter is nil, a default in-memory adapter is used.
func New(adapter Adapter) *History {
	if adapter == nil {
		adapter = NewMemoryAdapter()
	}
	return &History{
		messages: make([]ai.Message, 0),
		adapter:  adapter,
	}
}

// NewFrom creates a History initialized with existing messages.
func NewFrom(messages []ai.Message, adapter Adapter) *History {
	h := New(adapter)
	if len(messages) > 0 {
		h.messages = make([]ai.Message, len(messages))
		copy(h.messages, messages)
	}
	return h
}

// Messages returns a copy of all messages.
func (h *History) Messages() []ai.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]ai.Message, len(h.messages))
	copy(result, h.messages)
	return result
}

// Append adds messages to the history.
func (h *History) Append(msgs ...ai.Message) {
	if len(msgs) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msgs...)
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Last returns the last message and true, or a zero message and false when
// the history is empty.
func (h *History) Last() (ai.Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) == 0 {
		return ai.Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// Sync persists the history to the adapter under the given key. Native
// payloads are not serialized; a reloaded history replays from canonical
// blocks instead.
func (h *History) Sync(ctx context.Context, key string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	raw, err := json.Marshal(h.messages)
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return h.adapter.Set(ctx, key, raw)
}

// Reload loads history from the adapter using the given key.
func (h *History) Reload(ctx context.Context, key string) error {
	raw, ok, err := h.adapter.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyNotFound
	}

	var messages []ai.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return &SerializationError{Key: key, Err: err}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = messages
	return nil
}

// Adapter returns the underlying adapter.
func (h *History) Adapter() Adapter {
	return h.adapter
}
