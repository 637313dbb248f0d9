package agui

import (
	"errors"
	"testing"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/agent"
)

func TestNewMapper(t *testing.T) {
	t.Run("with provided IDs", func(t *testing.T) {
		m := NewMapper("thread-123", "run-456")
		if m.ThreadID() != "thread-123" {
			t.Errorf("expected thread ID 'thread-123', got %q", m.ThreadID())
		}
		if m.RunID() != "run-456" {
			t.Errorf("expected run ID 'run-456', got %q", m.RunID())
		}
	})

	t.Run("generates IDs when empty", func(t *testing.T) {
		m := NewMapper("", "")
		if m.ThreadID() == "" {
			t.Error("expected generated thread ID, got empty")
		}
		if m.RunID() == "" {
			t.Error("expected generated run ID, got empty")
		}
	})
}

func TestMapper_RunLifecycle(t *testing.T) {
	m := NewMapper("thread-1", "run-1")

	t.Run("agent_start maps to RUN_STARTED", func(t *testing.T) {
		out := m.MapEvent(agent.Event{Type: agent.AgentStart})
		if len(out) != 1 || out[0].Type() != events.EventTypeRunStarted {
			t.Fatalf("expected single RUN_STARTED, got %v", out)
		}
	})

	t.Run("completed agent_end maps to RUN_FINISHED", func(t *testing.T) {
		out := m.MapEvent(agent.Event{Type: agent.AgentEnd, State: agent.RunCompleted})
		if len(out) != 1 || out[0].Type() != events.EventTypeRunFinished {
			t.Fatalf("expected single RUN_FINISHED, got %v", out)
		}
	})

	t.Run("errored agent_end maps to RUN_ERROR", func(t *testing.T) {
		out := m.MapEvent(agent.Event{
			Type:  agent.AgentEnd,
			State: agent.RunErrored,
			Err:   errors.New("boom"),
		})
		if len(out) != 1 || out[0].Type() != events.EventTypeRunError {
			t.Fatalf("expected single RUN_ERROR, got %v", out)
		}
	})

	t.Run("turn boundaries map to step events", func(t *testing.T) {
		out := m.MapEvent(agent.Event{Type: agent.TurnStart, Turn: 1})
		if len(out) != 1 || out[0].Type() != events.EventTypeStepStarted {
			t.Fatalf("expected STEP_STARTED, got %v", out)
		}
		out = m.MapEvent(agent.Event{Type: agent.TurnEnd, Turn: 1})
		if len(out) != 1 || out[0].Type() != events.EventTypeStepFinished {
			t.Fatalf("expected STEP_FINISHED, got %v", out)
		}
	})
}

func TestMapper_MessageStreaming(t *testing.T) {
	m := NewMapper("thread-1", "run-1")

	snapshot := func(text string) *ai.Message {
		return &ai.Message{
			ID:     "msg-1",
			Role:   ai.RoleAssistant,
			Blocks: []ai.Block{{Type: ai.BlockText, Text: text}},
		}
	}

	out := m.MapEvent(agent.Event{Type: agent.MessageStart, Message: snapshot("")})
	if len(out) != 1 || out[0].Type() != events.EventTypeTextMessageStart {
		t.Fatalf("expected TEXT_MESSAGE_START, got %v", out)
	}

	t.Run("updates emit only the new text", func(t *testing.T) {
		out := m.MapEvent(agent.Event{Type: agent.MessageUpdate, Message: snapshot("Hel")})
		if len(out) != 1 {
			t.Fatalf("expected one content event, got %d", len(out))
		}
		content, ok := out[0].(*events.TextMessageContentEvent)
		if !ok {
			t.Fatalf("expected TextMessageContentEvent, got %T", out[0])
		}
		if content.Delta != "Hel" {
			t.Errorf("expected delta 'Hel', got %q", content.Delta)
		}

		out = m.MapEvent(agent.Event{Type: agent.MessageUpdate, Message: snapshot("Hello")})
		content = out[0].(*events.TextMessageContentEvent)
		if content.Delta != "lo" {
			t.Errorf("expected delta 'lo', got %q", content.Delta)
		}
	})

	t.Run("unchanged snapshot emits nothing", func(t *testing.T) {
		out := m.MapEvent(agent.Event{Type: agent.MessageUpdate, Message: snapshot("Hello")})
		if len(out) != 0 {
			t.Fatalf("expected no events, got %d", len(out))
		}
	})

	t.Run("message_end flushes the tail and closes", func(t *testing.T) {
		out := m.MapEvent(agent.Event{Type: agent.MessageEnd, Message: snapshot("Hello!")})
		if len(out) != 2 {
			t.Fatalf("expected content + end, got %d events", len(out))
		}
		content := out[0].(*events.TextMessageContentEvent)
		if content.Delta != "!" {
			t.Errorf("expected delta '!', got %q", content.Delta)
		}
		if out[1].Type() != events.EventTypeTextMessageEnd {
			t.Errorf("expected TEXT_MESSAGE_END, got %s", out[1].Type())
		}
	})
}

func TestMapper_ToolEvents(t *testing.T) {
	m := NewMapper("thread-1", "run-1")
	call := &ai.ToolCall{
		ID:        "call-1",
		Name:      "calculator",
		Arguments: map[string]any{"expression": "2+2"},
	}

	t.Run("tool_execution_start emits start and args", func(t *testing.T) {
		out := m.MapEvent(agent.Event{Type: agent.ToolExecutionStart, ToolCall: call})
		if len(out) != 2 {
			t.Fatalf("expected 2 events, got %d", len(out))
		}
		if out[0].Type() != events.EventTypeToolCallStart {
			t.Errorf("expected TOOL_CALL_START, got %s", out[0].Type())
		}
		if out[1].Type() != events.EventTypeToolCallArgs {
			t.Errorf("expected TOOL_CALL_ARGS, got %s", out[1].Type())
		}
	})

	t.Run("tool_execution_end emits end and result", func(t *testing.T) {
		result := &ai.ToolResult{
			ToolCallID: "call-1",
			Content:    []ai.ContentPart{ai.TextPart("4")},
		}
		out := m.MapEvent(agent.Event{Type: agent.ToolExecutionEnd, ToolCall: call, ToolResult: result})
		if len(out) != 2 {
			t.Fatalf("expected 2 events, got %d", len(out))
		}
		if out[0].Type() != events.EventTypeToolCallEnd {
			t.Errorf("expected TOOL_CALL_END, got %s", out[0].Type())
		}
		if out[1].Type() != events.EventTypeToolCallResult {
			t.Errorf("expected TOOL_CALL_RESULT, got %s", out[1].Type())
		}
	})

	t.Run("progress updates map to nothing", func(t *testing.T) {
		out := m.MapEvent(agent.Event{Type: agent.ToolExecutionUpdate, ToolCall: call, Update: "50%"})
		if len(out) != 0 {
			t.Fatalf("expected no events, got %d", len(out))
		}
	})
}

func TestMessageConversion(t *testing.T) {
	t.Run("round trips a user message", func(t *testing.T) {
		in := ai.NewUserTextMessage("hello")
		out := ToMessage(FromMessage(in))
		if out.Role != ai.RoleUser {
			t.Errorf("expected user role, got %s", out.Role)
		}
		if out.Text() != "hello" {
			t.Errorf("expected 'hello', got %q", out.Text())
		}
	})

	t.Run("assistant tool calls survive conversion", func(t *testing.T) {
		in := ai.Message{
			ID:   "msg-1",
			Role: ai.RoleAssistant,
			Blocks: []ai.Block{
				{Type: ai.BlockText, Text: "calling"},
				{Type: ai.BlockToolCall, ID: "c1", Name: "calculator", Arguments: map[string]any{"expression": "2+2"}},
			},
		}

		out := ToMessage(FromMessage(in))
		calls := out.ToolCalls()
		if len(calls) != 1 {
			t.Fatalf("expected 1 tool call, got %d", len(calls))
		}
		if calls[0].Name != "calculator" || calls[0].ID != "c1" {
			t.Errorf("unexpected call %+v", calls[0])
		}
		if calls[0].Arguments["expression"] != "2+2" {
			t.Errorf("arguments lost: %+v", calls[0].Arguments)
		}
	})

	t.Run("tool message becomes toolResult", func(t *testing.T) {
		content := "4"
		callID := "call-1"
		in := events.Message{ID: "m1", Role: RoleTool, Content: &content, ToolCallID: &callID}

		out := ToMessage(in)
		if out.Role != ai.RoleToolResult {
			t.Fatalf("expected toolResult role, got %s", out.Role)
		}
		if out.Results[0].ToolCallID != "call-1" || out.Results[0].Text() != "4" {
			t.Errorf("unexpected result %+v", out.Results[0])
		}
	})
}

func TestParseTools(t *testing.T) {
	raw := []any{
		map[string]any{
			"name":        "calculator",
			"description": "Evaluate arithmetic",
			"parameters":  map[string]any{"type": "object"},
		},
	}

	tools, err := ParseTools(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tools) != 1 || tools[0].Name != "calculator" {
		t.Fatalf("unexpected tools %+v", tools)
	}

	converted := ToTools(tools)
	if converted[0].Name != "calculator" {
		t.Errorf("conversion lost name")
	}
	if names := ToolNames(tools); len(names) != 1 || names[0] != "calculator" {
		t.Errorf("unexpected names %v", names)
	}
}
