package anthropic

import (
	"context"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/backend"
	"github.com/spetersoncode/cadence/model"
)

func TestConvertMessages(t *testing.T) {
	t.Run("user and custom messages become user params", func(t *testing.T) {
		msgs := convertMessages([]ai.Message{
			ai.NewUserTextMessage("hello"),
			ai.NewCustomMessage(ai.TextPart("operator note")),
		})

		require.Len(t, msgs, 2)
		assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
		assert.Equal(t, anthropic.MessageParamRoleUser, msgs[1].Role)
	})

	t.Run("empty user messages are dropped", func(t *testing.T) {
		msgs := convertMessages([]ai.Message{ai.NewUserTextMessage("")})
		assert.Empty(t, msgs)
	})

	t.Run("native payload is replayed verbatim", func(t *testing.T) {
		native := anthropic.MessageParam{
			Role:    anthropic.MessageParamRoleAssistant,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock("from native")},
		}
		msgs := convertMessages([]ai.Message{{
			Role:   ai.RoleAssistant,
			Native: &ai.NativeMessage{Provider: ai.ProviderAnthropic, Payload: native},
			Blocks: []ai.Block{{Type: ai.BlockText, Text: "from blocks"}},
		}})

		require.Len(t, msgs, 1)
		assert.Equal(t, "from native", msgs[0].Content[0].OfText.Text)
	})

	t.Run("assistant without native is rebuilt from blocks", func(t *testing.T) {
		msgs := convertMessages([]ai.Message{{
			Role: ai.RoleAssistant,
			Blocks: []ai.Block{
				{Type: ai.BlockText, Text: "let me check"},
				{Type: ai.BlockThinking, Thinking: "not replayable"},
				{Type: ai.BlockToolCall, ID: "call-1", Name: "search", Arguments: map[string]any{"q": "go"}},
			},
		}})

		require.Len(t, msgs, 1)
		assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[0].Role)
		// Thinking blocks are dropped on rebuild.
		require.Len(t, msgs[0].Content, 2)
		assert.NotNil(t, msgs[0].Content[0].OfText)
		assert.NotNil(t, msgs[0].Content[1].OfToolUse)
	})

	t.Run("tool results become user tool_result blocks", func(t *testing.T) {
		msgs := convertMessages([]ai.Message{ai.NewToolResultMessage(ai.ToolResult{
			ToolCallID: "call-1",
			ToolName:   "search",
			Content:    []ai.ContentPart{ai.TextPart("found it")},
		})})

		require.Len(t, msgs, 1)
		assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
		require.Len(t, msgs[0].Content, 1)
		assert.NotNil(t, msgs[0].Content[0].OfToolResult)
	})
}

func TestConvertTools(t *testing.T) {
	tools := convertTools([]ai.Tool{{
		Name:        "calculator",
		Description: "Evaluate arithmetic",
		Parameters:  []byte(`{"type":"object","properties":{"expression":{"type":"string"}},"required":["expression"]}`),
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "calculator", tools[0].OfTool.Name)
	assert.Equal(t, []string{"expression"}, tools[0].OfTool.InputSchema.Required)
}

func TestConvertStopReason(t *testing.T) {
	assert.Equal(t, ai.StopReasonStop, convertStopReason("end_turn"))
	assert.Equal(t, ai.StopReasonLength, convertStopReason("max_tokens"))
	assert.Equal(t, ai.StopReasonToolUse, convertStopReason("tool_use"))
	assert.Equal(t, ai.StopReasonStop, convertStopReason(""))
}

func TestStreamRejectsForeignNativePayloads(t *testing.T) {
	c := New("test-key")

	_, err := c.Stream(context.Background(), backend.Request{
		Model: model.ClaudeSonnet4,
		Messages: []ai.Message{{
			Role:   ai.RoleAssistant,
			Native: &ai.NativeMessage{Provider: ai.ProviderOpenAI, Payload: "opaque"},
		}},
	})

	var conv *ai.CrossProviderConversionError
	require.ErrorAs(t, err, &conv)
	assert.Equal(t, ai.ProviderOpenAI, conv.From)
	assert.Equal(t, ai.ProviderAnthropic, conv.To)
}
