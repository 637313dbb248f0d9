package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/tool"
)

func TestToMCPTool(t *testing.T) {
	schema := json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`)
	in := ai.Tool{Name: "weather", Description: "Get weather", Parameters: schema}

	out := ToMCPTool(in)

	assert.Equal(t, "weather", out.Name)
	assert.Equal(t, "Get weather", out.Description)
	assert.JSONEq(t, string(schema), string(out.RawInputSchema))
}

func TestFromMCPTool(t *testing.T) {
	raw := json.RawMessage(`{"type":"object","properties":{"q":{"type":"string"}}}`)
	in := mcp.Tool{Name: "search", Description: "Search", RawInputSchema: raw}

	out := FromMCPTool(in)

	assert.Equal(t, "search", out.Name)
	assert.Equal(t, "Search", out.Description)
	assert.JSONEq(t, string(raw), string(out.Parameters))
}

func TestToMCPCallToolRequest(t *testing.T) {
	call := ai.ToolCall{
		ID:        "call-1",
		Name:      "weather",
		Arguments: map[string]any{"city": "Portland"},
	}

	req := ToMCPCallToolRequest(call)

	assert.Equal(t, "weather", req.Params.Name)
	args, ok := req.Params.Arguments.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Portland", args["city"])
}

func TestFromMCPCallToolResult(t *testing.T) {
	call := ai.ToolCall{ID: "call-1", Name: "weather"}

	t.Run("text content", func(t *testing.T) {
		result := FromMCPCallToolResult(call, mcp.NewToolResultText("sunny, 72F"))

		assert.Equal(t, "call-1", result.ToolCallID)
		assert.Equal(t, "weather", result.ToolName)
		assert.False(t, result.IsError)
		assert.Equal(t, "sunny, 72F", result.Text())
	})

	t.Run("error result carries detail", func(t *testing.T) {
		result := FromMCPCallToolResult(call, mcp.NewToolResultError("city not found"))

		assert.True(t, result.IsError)
		require.NotNil(t, result.Detail)
		assert.Equal(t, ai.ToolErrorExecution, result.Detail.Kind)
		assert.Equal(t, "city not found", result.Detail.Message)
	})

	t.Run("nil result is an error", func(t *testing.T) {
		result := FromMCPCallToolResult(call, nil)

		assert.True(t, result.IsError)
		require.NotNil(t, result.Detail)
	})
}

func TestToMCPCallToolResult(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		out := ToMCPCallToolResult(ai.ToolResult{
			ToolCallID: "c1",
			Content:    []ai.ContentPart{ai.TextPart("done")},
		})
		require.Len(t, out.Content, 1)
		assert.False(t, out.IsError)
	})

	t.Run("error", func(t *testing.T) {
		out := ToMCPCallToolResult(ai.ToolResult{
			ToolCallID: "c1",
			Content:    []ai.ContentPart{ai.TextPart("boom")},
			IsError:    true,
		})
		assert.True(t, out.IsError)
	})
}

func TestNewServer(t *testing.T) {
	registry := tool.NewRegistry()
	registry.MustRegister(
		ai.Tool{
			Name:        "echo",
			Description: "Echo the input",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}}}`),
		},
		func(ctx context.Context, call ai.ToolCall, progress tool.Progress) (string, error) {
			return call.Arguments["text"].(string), nil
		},
	)

	s := NewServer(registry, WithName("test-server"), WithVersion("0.1.0"))
	assert.NotNil(t, s)
}
