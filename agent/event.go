package agent

import (
	ai "github.com/spetersoncode/cadence"
)

// EventType identifies the kind of event emitted during a run.
type EventType string

// Run lifecycle events
const (
	// AgentStart fires once when a run begins.
	AgentStart EventType = "agent_start"

	// AgentEnd fires once when a run reaches a terminal state.
	AgentEnd EventType = "agent_end"
)

// Turn lifecycle events
const (
	// TurnStart fires at the beginning of each turn.
	TurnStart EventType = "turn_start"

	// TurnEnd fires after a turn's model call and tool batch complete.
	TurnEnd EventType = "turn_end"
)

// Message lifecycle events
const (
	// MessageStart fires when a message enters the run: injected user or
	// custom messages, the opening of a streamed assistant message, and
	// tool-result messages.
	MessageStart EventType = "message_start"

	// MessageUpdate fires with a partial assistant message snapshot after
	// each streamed delta.
	MessageUpdate EventType = "message_update"

	// MessageEnd fires when a message is finalized and appended to history.
	MessageEnd EventType = "message_end"
)

// Tool execution events
const (
	// ToolExecutionStart fires before a tool call is dispatched.
	ToolExecutionStart EventType = "tool_execution_start"

	// ToolExecutionUpdate fires for each partial-progress report from a
	// running tool handler.
	ToolExecutionUpdate EventType = "tool_execution_update"

	// ToolExecutionEnd fires with the normalized result of a tool call.
	ToolExecutionEnd EventType = "tool_execution_end"
)

// Event is an observable occurrence during a run. Subscribers see events in
// the exact order the runner produced them:
//
//	agent_start, turn_start, [message events]*,
//	message_start, message_update*, message_end,
//	[tool_execution_start, tool_execution_update*, tool_execution_end,
//	 message_start, message_end]*,
//	turn_end, ..., agent_end
type Event struct {
	// Type identifies the kind of event.
	Type EventType

	// Turn is the 1-indexed turn number, zero for agent_start and agent_end.
	Turn int

	// Message carries the message for message events. For message_update it
	// is the current partial snapshot.
	Message *ai.Message

	// ToolCall carries the call for tool execution events.
	ToolCall *ai.ToolCall

	// Update carries the progress text for tool_execution_update events.
	Update string

	// ToolResult carries the outcome for tool_execution_end events.
	ToolResult *ai.ToolResult

	// State is the terminal run state, set on agent_end.
	State RunState

	// Err is the run error, set on agent_end when State is RunErrored or
	// RunAborted.
	Err error
}
