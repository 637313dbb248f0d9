package agui

import (
	"encoding/json"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/cadence"
)

// Role constants matching the AG-UI protocol.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// ToMessages converts AG-UI messages to cadence messages.
func ToMessages(msgs []events.Message) []ai.Message {
	result := make([]ai.Message, 0, len(msgs))
	for _, msg := range msgs {
		result = append(result, ToMessage(msg))
	}
	return result
}

// ToMessage converts a single AG-UI message to a cadence message. Tool
// messages become toolResult messages; every other role carries its content
// as a text part or text block.
func ToMessage(msg events.Message) ai.Message {
	m := ai.Message{
		ID:   msg.ID,
		Role: toRole(msg.Role),
	}
	if m.ID == "" {
		m.ID = ai.NewMessageID()
	}

	text := ""
	if msg.Content != nil {
		text = *msg.Content
	}

	switch m.Role {
	case ai.RoleAssistant:
		if text != "" {
			m.Blocks = append(m.Blocks, ai.Block{Type: ai.BlockText, Text: text})
		}
		for _, tc := range msg.ToolCalls {
			var args map[string]any
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
			m.Blocks = append(m.Blocks, ai.Block{
				Type:      ai.BlockToolCall,
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: args,
			})
		}

	case ai.RoleToolResult:
		result := ai.ToolResult{Content: []ai.ContentPart{ai.TextPart(text)}}
		if msg.ToolCallID != nil {
			result.ToolCallID = *msg.ToolCallID
		}
		m.Results = []ai.ToolResult{result}

	default:
		if text != "" {
			m.Content = []ai.ContentPart{ai.TextPart(text)}
		}
	}

	return m
}

// FromMessages converts cadence messages to AG-UI messages.
func FromMessages(msgs []ai.Message) []events.Message {
	result := make([]events.Message, 0, len(msgs))
	for _, msg := range msgs {
		result = append(result, FromMessage(msg))
	}
	return result
}

// FromMessage converts a single cadence message to an AG-UI message.
func FromMessage(msg ai.Message) events.Message {
	m := events.Message{
		ID:   msg.ID,
		Role: fromRole(msg.Role),
	}
	if m.ID == "" {
		m.ID = events.GenerateMessageID()
	}

	if text := msg.Text(); text != "" {
		m.Content = &text
	}

	if calls := msg.ToolCalls(); len(calls) > 0 {
		m.ToolCalls = make([]events.ToolCall, len(calls))
		for i, tc := range calls {
			args, _ := json.Marshal(tc.Arguments)
			m.ToolCalls[i] = events.ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: events.Function{
					Name:      tc.Name,
					Arguments: string(args),
				},
			}
		}
	}

	if msg.Role == ai.RoleToolResult && len(msg.Results) > 0 {
		id := msg.Results[0].ToolCallID
		text := msg.Results[0].Text()
		m.ToolCallID = &id
		m.Content = &text
	}

	return m
}

// toRole converts an AG-UI role string to a cadence Role. Unknown roles
// default to user; system messages are carried as user input since cadence
// keeps the system prompt in configuration, not history.
func toRole(role string) ai.Role {
	switch role {
	case RoleAssistant:
		return ai.RoleAssistant
	case RoleTool:
		return ai.RoleToolResult
	default:
		return ai.RoleUser
	}
}

// fromRole converts a cadence Role to an AG-UI role string.
func fromRole(role ai.Role) string {
	switch role {
	case ai.RoleAssistant:
		return RoleAssistant
	case ai.RoleToolResult:
		return RoleTool
	default:
		return RoleUser
	}
}
