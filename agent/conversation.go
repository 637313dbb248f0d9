package agent

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/backend"
	"github.com/spetersoncode/cadence/internal/retry"
	"github.com/spetersoncode/cadence/internal/store"
	"github.com/spetersoncode/cadence/model"
	"github.com/spetersoncode/cadence/stream"
	"github.com/spetersoncode/cadence/tool"
)

// Conversation owns a message history and drives runs of the turn loop
// against one backend adapter. At most one run is in flight at a time;
// Prompt and Continue reject concurrent calls with [ConcurrentRunError].
//
// History is append-only: messages are only ever appended, by the runner
// during a run or by AddCustomMessage between runs. Conversations are fully
// independent of one another and may run concurrently.
type Conversation struct {
	id          string
	adapter     backend.Adapter
	registry    *tool.Registry
	invoker     *tool.Invoker
	model       model.ChatModel
	system      string
	budget      Budget
	queueMode   QueueMode
	retryCfg    retry.Config
	maxTokens   int
	temperature *float64
	log         zerolog.Logger

	history *store.History

	mu      sync.Mutex
	running bool
	runDone chan struct{}
	cancel  context.CancelFunc
	spent   ai.Cost
	lastErr error

	queueMu sync.Mutex
	queued  []QueuedMessage

	pendingMu sync.Mutex
	pending   map[string]struct{}

	subMu   sync.RWMutex
	subs    map[int]chan Event
	nextSub int
}

// New creates a conversation bound to the given backend adapter. Without a
// WithModel option the provider's default model is used.
func New(adapter backend.Adapter, opts ...Option) *Conversation {
	c := &Conversation{
		id:        "conv-" + uuid.New().String(),
		adapter:   adapter,
		registry:  tool.NewRegistry(),
		queueMode: QueueAll,
		retryCfg:  retry.DefaultConfig(),
		log:       zerolog.Nop(),
		pending:   make(map[string]struct{}),
		subs:      make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.model.String() == "" {
		c.model = defaultModel(adapter.Provider())
	}
	if c.history == nil {
		c.history = store.New(store.NewMemoryAdapter())
	}
	c.invoker = tool.NewInvoker(c.registry, tool.WithLogger(c.log))
	return c
}

func defaultModel(p ai.Provider) model.ChatModel {
	switch p {
	case ai.ProviderOpenAI:
		return model.DefaultGPTModel
	case ai.ProviderGoogle:
		return model.DefaultGeminiModel
	default:
		return model.DefaultClaudeModel
	}
}

// ID returns the conversation's unique identifier.
func (c *Conversation) ID() string { return c.id }

// History returns a copy of the message history.
func (c *Conversation) History() []ai.Message { return c.history.Messages() }

// Registry returns the conversation's tool registry.
func (c *Conversation) Registry() *tool.Registry { return c.registry }

// Running reports whether a run is currently in flight.
func (c *Conversation) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// LastError returns the error of the most recently finished run, if any.
func (c *Conversation) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Cost returns the accumulated cost of all runs so far.
func (c *Conversation) Cost() ai.Cost {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spent
}

// PendingToolCalls returns the ids of tool calls currently executing.
func (c *Conversation) PendingToolCalls() []string {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	ids := make([]string, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	return ids
}

// Prompt appends a user text message and starts a run. The returned handle
// streams events and resolves to the run's terminal result.
func (c *Conversation) Prompt(ctx context.Context, text string) (*Run, error) {
	return c.PromptParts(ctx, ai.TextPart(text))
}

// PromptParts appends a user message built from content parts and starts a
// run.
func (c *Conversation) PromptParts(ctx context.Context, parts ...ai.ContentPart) (*Run, error) {
	msg := ai.NewUserMessage(parts...)
	return c.start(ctx, &QueuedMessage{Original: msg, Transformed: &msg})
}

// Continue starts a run from the existing history without a new prompt. The
// trailing history entry must be a user or toolResult message; anything else
// fails with [InvalidContinuationStateError].
func (c *Conversation) Continue(ctx context.Context) (*Run, error) {
	last, ok := c.history.Last()
	if !ok {
		return nil, &InvalidContinuationStateError{}
	}
	if last.Role != ai.RoleUser && last.Role != ai.RoleToolResult {
		return nil, &InvalidContinuationStateError{LastRole: last.Role}
	}
	return c.start(ctx, nil)
}

func (c *Conversation) start(ctx context.Context, prime *QueuedMessage) (*Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil, &ConcurrentRunError{}
	}

	if prime != nil {
		c.queueMu.Lock()
		c.queued = append(c.queued, *prime)
		c.queueMu.Unlock()
	}

	runCtx, cancel := context.WithCancel(ctx)
	events := stream.New[Event, *Result]()

	budget := c.budget
	budget.CurrentCost += c.spent.Total

	r := &runner{
		conv:        c,
		adapter:     c.adapter,
		invoker:     c.invoker,
		model:       c.model,
		system:      c.system,
		tools:       c.registry.Tools(),
		budget:      budget,
		retryCfg:    c.retryCfg,
		maxTokens:   c.maxTokens,
		temperature: c.temperature,
		log:         c.log.With().Str("conversation", c.id).Logger(),
		events:      events,
		messages:    c.history.Messages(),
	}

	c.running = true
	c.lastErr = nil
	c.cancel = cancel
	c.runDone = make(chan struct{})

	go func() {
		defer cancel()
		result := r.run(runCtx)
		c.finish(result)
		events.End(result)
	}()

	return events, nil
}

func (c *Conversation) finish(result *Result) {
	if err := c.history.Sync(context.Background(), c.id); err != nil {
		c.log.Debug().Err(err).Msg("history checkpoint failed")
	}
	c.mu.Lock()
	c.running = false
	c.cancel = nil
	c.spent = c.spent.Add(result.Cost)
	c.lastErr = result.Err
	close(c.runDone)
	c.mu.Unlock()
}

// Abort cancels the in-flight run, if any. Cancellation is cooperative: the
// runner observes it at the model-call and tool-call boundaries. Abort is
// idempotent and safe to call when no run is active.
func (c *Conversation) Abort() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// AddCustomMessage appends an application-injected message to history,
// waiting for the in-flight run (if any) to finish first so custom messages
// never interleave mid-run.
func (c *Conversation) AddCustomMessage(ctx context.Context, parts ...ai.ContentPart) (ai.Message, error) {
	msg := ai.NewCustomMessage(parts...)
	for {
		c.mu.Lock()
		if !c.running {
			c.history.Append(msg)
			c.mu.Unlock()
			return msg, nil
		}
		done := c.runDone
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ai.Message{}, ctx.Err()
		case <-done:
		}
	}
}

// Queue buffers a message for injection into a running turn loop. The
// original is always surfaced through message events; only entries with a
// transformed form reach model input.
func (c *Conversation) Queue(q QueuedMessage) {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	c.queued = append(c.queued, q)
}

// QueueText buffers a user text message for injection into a running turn
// loop.
func (c *Conversation) QueueText(text string) {
	msg := ai.NewUserTextMessage(text)
	c.Queue(QueuedMessage{Original: msg, Transformed: &msg})
}

// dequeue flushes the queued-message buffer per the queue mode: all entries,
// or exactly one in arrival order.
func (c *Conversation) dequeue() []QueuedMessage {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	if len(c.queued) == 0 {
		return nil
	}
	if c.queueMode == QueueOne {
		q := c.queued[0]
		c.queued = c.queued[1:]
		return []QueuedMessage{q}
	}
	out := c.queued
	c.queued = nil
	return out
}

func (c *Conversation) queuedPending() bool {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	return len(c.queued) > 0
}

func (c *Conversation) append(msg ai.Message) {
	c.history.Append(msg)
}

func (c *Conversation) markPending(id string, active bool) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if active {
		c.pending[id] = struct{}{}
	} else {
		delete(c.pending, id)
	}
}

// Subscribe registers an event channel fed by every run of this
// conversation. Events are dropped for subscribers that fall behind. The
// returned function removes the subscription and closes the channel.
func (c *Conversation) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)

	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	return ch, func() {
		c.subMu.Lock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
		c.subMu.Unlock()
	}
}

func (c *Conversation) publish(ev Event) {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
