package agent

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/accum"
	"github.com/spetersoncode/cadence/backend"
	"github.com/spetersoncode/cadence/model"
	"github.com/spetersoncode/cadence/stream"
	"github.com/spetersoncode/cadence/tool"
)

// mockTurn scripts one model response.
type mockTurn struct {
	text      string
	toolCalls []ai.ToolCall
	openErr   error
	streamErr error
	// gate, when non-nil, delays stream completion until closed.
	gate  chan struct{}
	usage ai.Usage
}

// mockAdapter implements backend.Adapter with scripted turns, one per model
// call in order.
type mockAdapter struct {
	mu       sync.Mutex
	turns    []mockTurn
	calls    int
	requests []backend.Request
}

func (m *mockAdapter) Provider() ai.Provider { return ai.ProviderAnthropic }

func (m *mockAdapter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockAdapter) request(i int) backend.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[i]
}

func (m *mockAdapter) Stream(ctx context.Context, req backend.Request) (*stream.Stream[accum.Delta, *ai.NativeMessage], error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.requests = append(m.requests, req)
	turn := mockTurn{text: "no more scripted turns"}
	if idx < len(m.turns) {
		turn = m.turns[idx]
	}
	m.mu.Unlock()

	if turn.openErr != nil {
		return nil, turn.openErr
	}

	s := stream.New[accum.Delta, *ai.NativeMessage]()
	go func() {
		usage := turn.usage
		if usage == (ai.Usage{}) {
			usage = ai.Usage{InputTokens: 10, OutputTokens: 20}
		}
		s.Push(accum.Delta{Kind: accum.StreamStart, Usage: &ai.Usage{InputTokens: usage.InputTokens}})

		if turn.text != "" {
			s.Push(accum.Delta{Kind: accum.BlockStart, Block: ai.BlockText})
			for _, r := range turn.text {
				s.Push(accum.Delta{Kind: accum.BlockDelta, Block: ai.BlockText, Text: string(r)})
			}
			s.Push(accum.Delta{Kind: accum.BlockEnd})
		}
		for _, tc := range turn.toolCalls {
			args, _ := json.Marshal(tc.Arguments)
			s.Push(accum.Delta{Kind: accum.BlockStart, Block: ai.BlockToolCall, ToolID: tc.ID, ToolName: tc.Name})
			s.Push(accum.Delta{Kind: accum.BlockDelta, Block: ai.BlockToolCall, Args: string(args)})
			s.Push(accum.Delta{Kind: accum.BlockEnd})
		}

		if turn.streamErr != nil {
			s.Push(accum.Delta{Kind: accum.StreamError, Err: turn.streamErr})
			s.End(nil)
			return
		}
		if turn.gate != nil {
			select {
			case <-turn.gate:
			case <-ctx.Done():
				s.Push(accum.Delta{Kind: accum.StreamError, Err: ctx.Err()})
				s.End(nil)
				return
			}
		}

		status := ai.StopReasonStop
		if len(turn.toolCalls) > 0 {
			status = ai.StopReasonToolUse
		}
		s.Push(accum.Delta{Kind: accum.StreamDone, Status: status, Usage: &ai.Usage{OutputTokens: usage.OutputTokens}})
		s.End(&ai.NativeMessage{Provider: ai.ProviderAnthropic, Payload: "mock"})
	}()
	return s, nil
}

type calcArgs struct {
	Expression string `json:"expression" desc:"Arithmetic expression" required:"true"`
}

func calculatorRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	registry := tool.NewRegistry()
	tool.MustRegisterFunc(registry, "calculator", "Evaluate an arithmetic expression",
		func(ctx context.Context, args calcArgs, progress tool.Progress) (string, error) {
			require.Equal(t, "2+2", args.Expression)
			return "4", nil
		},
	)
	return registry
}

func drain(run *Run) []Event {
	var events []Event
	for {
		ev, ok := run.Next()
		if !ok {
			return events
		}
		events = append(events, ev)
	}
}

func eventTypes(events []Event) []EventType {
	var types []EventType
	for _, ev := range events {
		if ev.Type == MessageUpdate || ev.Type == ToolExecutionUpdate {
			continue
		}
		types = append(types, ev.Type)
	}
	return types
}

func TestConversation_EndToEnd(t *testing.T) {
	adapter := &mockAdapter{turns: []mockTurn{
		{toolCalls: []ai.ToolCall{{
			ID:        "call-1",
			Name:      "calculator",
			Arguments: map[string]any{"expression": "2+2"},
		}}},
		{text: "4"},
	}}

	conv := New(adapter, WithTools(calculatorRegistry(t)), WithSystemPrompt("You are a calculator."))

	run, err := conv.Prompt(context.Background(), "Calculate 2+2")
	require.NoError(t, err)

	events := drain(run)
	result := run.Result()

	t.Run("completes with final answer", func(t *testing.T) {
		assert.Equal(t, RunCompleted, result.State)
		assert.NoError(t, result.Err)
		assert.Equal(t, "4", result.Text())
		assert.Equal(t, 2, result.Turns)
	})

	t.Run("event order", func(t *testing.T) {
		assert.Equal(t, []EventType{
			AgentStart,
			TurnStart,
			MessageStart, MessageEnd, // user prompt
			MessageStart, MessageEnd, // assistant, tool use
			ToolExecutionStart, ToolExecutionEnd,
			MessageStart, MessageEnd, // tool result
			TurnEnd,
			TurnStart,
			MessageStart, MessageEnd, // assistant, final answer
			TurnEnd,
			AgentEnd,
		}, eventTypes(events))
	})

	t.Run("history has four messages", func(t *testing.T) {
		history := conv.History()
		require.Len(t, history, 4)
		assert.Equal(t, ai.RoleUser, history[0].Role)
		assert.Equal(t, ai.RoleAssistant, history[1].Role)
		assert.Equal(t, ai.StopReasonToolUse, history[1].StopReason)
		assert.Equal(t, ai.RoleToolResult, history[2].Role)
		assert.Equal(t, "4", history[2].Results[0].Text())
		assert.Equal(t, ai.RoleAssistant, history[3].Role)
		assert.Equal(t, "4", history[3].Text())
	})

	t.Run("second call replays full history", func(t *testing.T) {
		require.Equal(t, 2, adapter.callCount())
		req := adapter.request(1)
		assert.Equal(t, "You are a calculator.", req.System)
		assert.Len(t, req.Messages, 3) // user, assistant, toolResult
		assert.Len(t, req.Tools, 1)
	})

	t.Run("usage sums across turns", func(t *testing.T) {
		assert.Equal(t, 20, result.Usage.InputTokens)
		assert.Equal(t, 40, result.Usage.OutputTokens)
	})
}

func TestConversation_SingleRunInFlight(t *testing.T) {
	gate := make(chan struct{})
	adapter := &mockAdapter{turns: []mockTurn{
		{text: "thinking...", gate: gate},
		{text: "done"},
	}}
	conv := New(adapter)

	run, err := conv.Prompt(context.Background(), "first")
	require.NoError(t, err)

	t.Run("concurrent prompt rejected", func(t *testing.T) {
		_, err := conv.Prompt(context.Background(), "second")
		var concurrent *ConcurrentRunError
		require.ErrorAs(t, err, &concurrent)
	})

	close(gate)
	result := run.Result()
	require.Equal(t, RunCompleted, result.State)

	t.Run("next prompt succeeds after the run resolves", func(t *testing.T) {
		run2, err := conv.Prompt(context.Background(), "second")
		require.NoError(t, err)
		assert.Equal(t, RunCompleted, run2.Result().State)
	})

	// A resolved result means the conversation is idle: prompting again
	// right after Result returns must never race the run teardown.
	t.Run("immediate re-prompt after result", func(t *testing.T) {
		turns := make([]mockTurn, 20)
		for i := range turns {
			turns[i] = mockTurn{text: "ok"}
		}
		conv := New(&mockAdapter{turns: turns})

		for i := 0; i < len(turns); i++ {
			run, err := conv.Prompt(context.Background(), "go")
			require.NoError(t, err, "prompt %d", i)
			require.Equal(t, RunCompleted, run.Result().State)
		}
	})
}

func TestConversation_BudgetGate(t *testing.T) {
	// 100k output tokens at $3/M output: each turn costs $0.30.
	pricing := model.Pricing{OutputPerMillion: 3}
	budgetModel := model.Custom("budget-test", ai.ProviderAnthropic, pricing)
	usage := ai.Usage{InputTokens: 100, OutputTokens: 100_000}

	t.Run("over budget with pending tool call fails", func(t *testing.T) {
		adapter := &mockAdapter{turns: []mockTurn{
			{
				toolCalls: []ai.ToolCall{{ID: "c1", Name: "calculator", Arguments: map[string]any{"expression": "2+2"}}},
				usage:     usage,
			},
		}}
		conv := New(adapter,
			WithModel(budgetModel),
			WithTools(calculatorRegistry(t)),
			WithBudget(Budget{CostLimit: 1.0, CurrentCost: 0.8}),
		)

		run, err := conv.Prompt(context.Background(), "Calculate 2+2")
		require.NoError(t, err)
		drain(run)
		result := run.Result()

		assert.Equal(t, RunErrored, result.State)
		var budgetErr *BudgetExceededError
		require.ErrorAs(t, result.Err, &budgetErr)
		assert.Equal(t, 1.0, budgetErr.CostLimit)
		assert.InDelta(t, 1.1, budgetErr.Cost, 1e-9)

		// The tool was never dispatched.
		assert.Len(t, conv.History(), 2)
	})

	t.Run("over budget final answer still delivers", func(t *testing.T) {
		adapter := &mockAdapter{turns: []mockTurn{
			{text: "the answer", usage: usage},
		}}
		conv := New(adapter,
			WithModel(budgetModel),
			WithBudget(Budget{CostLimit: 1.0, CurrentCost: 0.8}),
		)

		run, err := conv.Prompt(context.Background(), "question")
		require.NoError(t, err)
		drain(run)
		result := run.Result()

		assert.Equal(t, RunCompleted, result.State)
		assert.NoError(t, result.Err)
		assert.Equal(t, "the answer", result.Text())
	})

	t.Run("context limit gates pending actions", func(t *testing.T) {
		adapter := &mockAdapter{turns: []mockTurn{
			{
				toolCalls: []ai.ToolCall{{ID: "c1", Name: "calculator", Arguments: map[string]any{"expression": "2+2"}}},
				usage:     ai.Usage{InputTokens: 5000, OutputTokens: 10},
			},
		}}
		conv := New(adapter,
			WithModel(budgetModel),
			WithTools(calculatorRegistry(t)),
			WithBudget(Budget{ContextLimit: 4000}),
		)

		run, err := conv.Prompt(context.Background(), "Calculate 2+2")
		require.NoError(t, err)
		drain(run)
		result := run.Result()

		assert.Equal(t, RunErrored, result.State)
		var budgetErr *BudgetExceededError
		require.ErrorAs(t, result.Err, &budgetErr)
		assert.Equal(t, 4000, budgetErr.ContextLimit)
		assert.Equal(t, 5000, budgetErr.InputTokens)
	})
}

func TestConversation_QueueModes(t *testing.T) {
	t.Run("one-at-a-time flushes exactly one per turn", func(t *testing.T) {
		conv := New(&mockAdapter{}, WithQueueMode(QueueOne))
		conv.QueueText("first")
		conv.QueueText("second")

		flushed := conv.dequeue()
		require.Len(t, flushed, 1)
		assert.Equal(t, "first", flushed[0].Original.Text())

		flushed = conv.dequeue()
		require.Len(t, flushed, 1)
		assert.Equal(t, "second", flushed[0].Original.Text())

		assert.Empty(t, conv.dequeue())
	})

	t.Run("all flushes the whole queue in order", func(t *testing.T) {
		conv := New(&mockAdapter{}, WithQueueMode(QueueAll))
		conv.QueueText("first")
		conv.QueueText("second")

		flushed := conv.dequeue()
		require.Len(t, flushed, 2)
		assert.Equal(t, "first", flushed[0].Original.Text())
		assert.Equal(t, "second", flushed[1].Original.Text())
	})

	t.Run("queued messages extend the run", func(t *testing.T) {
		adapter := &mockAdapter{turns: []mockTurn{
			{text: "answer one"},
			{text: "answer two"},
		}}
		conv := New(adapter)
		conv.QueueText("follow-up")

		run, err := conv.Prompt(context.Background(), "initial")
		require.NoError(t, err)
		drain(run)
		result := run.Result()

		require.Equal(t, RunCompleted, result.State)
		assert.Equal(t, 2, adapter.callCount())
		// user, assistant, follow-up user, assistant
		assert.Len(t, conv.History(), 4)
	})

	t.Run("entry without transformed form is dropped from model input", func(t *testing.T) {
		adapter := &mockAdapter{turns: []mockTurn{{text: "ok"}}}
		conv := New(adapter)
		conv.Queue(QueuedMessage{Original: ai.NewUserTextMessage("ui only")})

		run, err := conv.Prompt(context.Background(), "real prompt")
		require.NoError(t, err)
		events := drain(run)
		require.Equal(t, RunCompleted, run.Result().State)

		// Both the dropped entry and the prompt produce message events.
		var started []string
		for _, ev := range events {
			if ev.Type == MessageStart && ev.Message.Role == ai.RoleUser {
				started = append(started, ev.Message.Text())
			}
		}
		assert.Equal(t, []string{"ui only", "real prompt"}, started)

		// Only the real prompt reached the model.
		req := adapter.request(0)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "real prompt", req.Messages[0].Text())
	})
}

func TestConversation_Abort(t *testing.T) {
	t.Run("abort during model call yields aborted state", func(t *testing.T) {
		gate := make(chan struct{})
		adapter := &mockAdapter{turns: []mockTurn{{text: "partial", gate: gate}}}
		conv := New(adapter)

		run, err := conv.Prompt(context.Background(), "go")
		require.NoError(t, err)

		go func() {
			time.Sleep(20 * time.Millisecond)
			conv.Abort()
		}()

		drain(run)
		result := run.Result()
		assert.Equal(t, RunAborted, result.State)
		assert.Error(t, result.Err)

		// The partial assistant message is sealed into history.
		history := conv.History()
		require.Len(t, history, 2)
		assert.Equal(t, ai.StopReasonAborted, history[1].StopReason)
	})

	t.Run("abort mid-batch skips remaining tool calls", func(t *testing.T) {
		var mu sync.Mutex
		var executed []string

		var conv *Conversation
		registry := tool.NewRegistry()
		tool.MustRegisterFunc(registry, "step", "Perform one step",
			func(ctx context.Context, args calcArgs, progress tool.Progress) (string, error) {
				mu.Lock()
				executed = append(executed, args.Expression)
				mu.Unlock()
				conv.Abort()
				<-ctx.Done()
				return "", ctx.Err()
			},
		)

		adapter := &mockAdapter{turns: []mockTurn{
			{toolCalls: []ai.ToolCall{
				{ID: "c1", Name: "step", Arguments: map[string]any{"expression": "one"}},
				{ID: "c2", Name: "step", Arguments: map[string]any{"expression": "two"}},
			}},
		}}
		conv = New(adapter, WithTools(registry))

		run, err := conv.Prompt(context.Background(), "go")
		require.NoError(t, err)
		drain(run)
		result := run.Result()

		assert.Equal(t, RunAborted, result.State)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"one"}, executed)

		// Only the first call produced a tool result.
		var results int
		for _, msg := range conv.History() {
			if msg.Role == ai.RoleToolResult {
				results++
				assert.True(t, msg.Results[0].IsError)
				assert.Equal(t, ai.ToolErrorAborted, msg.Results[0].Detail.Kind)
			}
		}
		assert.Equal(t, 1, results)
	})

	t.Run("abort with no run in flight is a no-op", func(t *testing.T) {
		conv := New(&mockAdapter{})
		conv.Abort()
	})
}

func TestConversation_ToolErrorContinuesRun(t *testing.T) {
	registry := tool.NewRegistry()
	tool.MustRegisterFunc(registry, "flaky", "Fails on purpose",
		func(ctx context.Context, args calcArgs, progress tool.Progress) (string, error) {
			return "", assert.AnError
		},
	)

	adapter := &mockAdapter{turns: []mockTurn{
		{toolCalls: []ai.ToolCall{{ID: "c1", Name: "flaky", Arguments: map[string]any{"expression": "x"}}}},
		{text: "recovered"},
	}}
	conv := New(adapter, WithTools(registry))

	run, err := conv.Prompt(context.Background(), "go")
	require.NoError(t, err)
	drain(run)
	result := run.Result()

	require.Equal(t, RunCompleted, result.State)
	assert.Equal(t, "recovered", result.Text())

	history := conv.History()
	require.Len(t, history, 4)
	require.Equal(t, ai.RoleToolResult, history[2].Role)
	assert.True(t, history[2].Results[0].IsError)
	assert.Equal(t, ai.ToolErrorExecution, history[2].Results[0].Detail.Kind)
}

func TestConversation_ModelFailure(t *testing.T) {
	t.Run("stream error terminates the run", func(t *testing.T) {
		adapter := &mockAdapter{turns: []mockTurn{{streamErr: assert.AnError}}}
		conv := New(adapter)

		run, err := conv.Prompt(context.Background(), "go")
		require.NoError(t, err)
		events := drain(run)
		result := run.Result()

		assert.Equal(t, RunErrored, result.State)
		assert.Error(t, result.Err)
		assert.Equal(t, result.Err, conv.LastError())

		last := events[len(events)-1]
		assert.Equal(t, AgentEnd, last.Type)
		assert.Equal(t, RunErrored, last.State)

		// The partial assistant message is sealed into history.
		history := conv.History()
		require.Len(t, history, 2)
		assert.Equal(t, ai.StopReasonError, history[1].StopReason)
	})

	t.Run("permanent open failure terminates without an assistant message", func(t *testing.T) {
		adapter := &mockAdapter{turns: []mockTurn{
			{openErr: ai.NewPermanentError("invalid api key", 401, nil)},
		}}
		conv := New(adapter)

		run, err := conv.Prompt(context.Background(), "go")
		require.NoError(t, err)
		drain(run)
		result := run.Result()

		assert.Equal(t, RunErrored, result.State)
		require.Error(t, result.Err)
		assert.Equal(t, 1, adapter.callCount())
		assert.Len(t, conv.History(), 1) // just the prompt
	})
}

func TestConversation_Continue(t *testing.T) {
	t.Run("rejects empty history", func(t *testing.T) {
		conv := New(&mockAdapter{})
		_, err := conv.Continue(context.Background())
		var invalid *InvalidContinuationStateError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("rejects trailing assistant message", func(t *testing.T) {
		adapter := &mockAdapter{turns: []mockTurn{{text: "done"}}}
		conv := New(adapter)
		run, err := conv.Prompt(context.Background(), "go")
		require.NoError(t, err)
		drain(run)
		require.Equal(t, RunCompleted, run.Result().State)

		_, err = conv.Continue(context.Background())
		var invalid *InvalidContinuationStateError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, ai.RoleAssistant, invalid.LastRole)
	})

	t.Run("continues from trailing user message", func(t *testing.T) {
		adapter := &mockAdapter{turns: []mockTurn{{text: "picked up"}}}
		conv := New(adapter, WithHistory([]ai.Message{ai.NewUserTextMessage("pending question")}))

		run, err := conv.Continue(context.Background())
		require.NoError(t, err)
		drain(run)
		result := run.Result()

		require.Equal(t, RunCompleted, result.State)
		assert.Equal(t, "picked up", result.Text())
		assert.Len(t, conv.History(), 2)
	})
}

func TestConversation_AddCustomMessage(t *testing.T) {
	t.Run("appends immediately when idle", func(t *testing.T) {
		conv := New(&mockAdapter{})
		msg, err := conv.AddCustomMessage(context.Background(), ai.TextPart("note"))
		require.NoError(t, err)
		assert.Equal(t, ai.RoleCustom, msg.Role)
		require.Len(t, conv.History(), 1)
		assert.Equal(t, "note", conv.History()[0].Text())
	})

	t.Run("waits for the in-flight run", func(t *testing.T) {
		gate := make(chan struct{})
		adapter := &mockAdapter{turns: []mockTurn{{text: "slow answer", gate: gate}}}
		conv := New(adapter)

		run, err := conv.Prompt(context.Background(), "go")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = conv.AddCustomMessage(ctx, ai.TextPart("too early"))
		require.ErrorIs(t, err, context.DeadlineExceeded)

		close(gate)
		drain(run)
		require.Equal(t, RunCompleted, run.Result().State)

		msg, err := conv.AddCustomMessage(context.Background(), ai.TextPart("post-run note"))
		require.NoError(t, err)

		history := conv.History()
		require.Len(t, history, 3)
		assert.Equal(t, msg.ID, history[2].ID)
	})
}

func TestConversation_Subscribe(t *testing.T) {
	adapter := &mockAdapter{turns: []mockTurn{{text: "hi"}}}
	conv := New(adapter)

	events, unsubscribe := conv.Subscribe(128)
	defer unsubscribe()

	run, err := conv.Prompt(context.Background(), "hello")
	require.NoError(t, err)
	drain(run)
	require.Equal(t, RunCompleted, run.Result().State)

	var types []EventType
loop:
	for {
		select {
		case ev := <-events:
			types = append(types, ev.Type)
			if ev.Type == AgentEnd {
				break loop
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not observe agent_end")
		}
	}

	assert.Equal(t, AgentStart, types[0])
	assert.Equal(t, AgentEnd, types[len(types)-1])
}

func TestConversation_ResultWithoutIteration(t *testing.T) {
	adapter := &mockAdapter{turns: []mockTurn{{text: "fine"}}}
	conv := New(adapter)

	run, err := conv.Prompt(context.Background(), "go")
	require.NoError(t, err)

	// Never iterate; the result must still resolve.
	result := run.Result()
	require.Equal(t, RunCompleted, result.State)
	assert.Equal(t, "fine", result.Text())
}

func TestConversation_Independent(t *testing.T) {
	a := New(&mockAdapter{turns: []mockTurn{{text: "a"}}})
	b := New(&mockAdapter{turns: []mockTurn{{text: "b"}}})

	runA, err := a.Prompt(context.Background(), "one")
	require.NoError(t, err)
	runB, err := b.Prompt(context.Background(), "two")
	require.NoError(t, err)

	drain(runA)
	drain(runB)
	assert.Equal(t, "a", runA.Result().Text())
	assert.Equal(t, "b", runB.Result().Text())
}
