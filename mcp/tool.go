// Package mcp integrates the Model Context Protocol with cadence.
//
// The package is bidirectional:
//
//   - Server: expose a cadence [tool.Registry] as an MCP server so MCP
//     clients can discover and call your tools.
//   - Client: connect to MCP servers through [RemoteToolset] and register
//     their tools into a cadence registry, where the invoker dispatches them
//     like any local tool.
//
// # Consuming MCP Servers
//
//	remote, err := mcp.NewRemoteToolset(ctx, "./my-mcp-server", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer remote.Close()
//
//	registry := tool.NewRegistry()
//	remote.RegisterAll(registry)
//
//	conv := agent.New(adapter, agent.WithTools(registry))
//
// # Exposing Tools as an MCP Server
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("weather", "Get weather", weatherHandler),
//	)
//	if err := mcp.ServeStdio(registry); err != nil {
//	    log.Fatal(err)
//	}
package mcp

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	ai "github.com/spetersoncode/cadence"
)

// ToMCPTool converts a cadence Tool to an MCP Tool, passing the JSON schema
// through unchanged.
func ToMCPTool(t ai.Tool) mcp.Tool {
	return mcp.NewToolWithRawSchema(t.Name, t.Description, t.Parameters)
}

// FromMCPTool converts an MCP Tool to a cadence Tool. The schema comes from
// RawInputSchema when present, otherwise from the structured InputSchema.
func FromMCPTool(t mcp.Tool) ai.Tool {
	var schema json.RawMessage
	if len(t.RawInputSchema) > 0 {
		schema = t.RawInputSchema
	} else if data, err := json.Marshal(t.InputSchema); err == nil {
		schema = data
	}

	return ai.Tool{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  schema,
	}
}

// FromMCPTools converts a slice of MCP Tools to cadence Tools.
func FromMCPTools(tools []mcp.Tool) []ai.Tool {
	result := make([]ai.Tool, len(tools))
	for i, t := range tools {
		result[i] = FromMCPTool(t)
	}
	return result
}

// ToMCPCallToolRequest converts a cadence ToolCall to an MCP CallToolRequest.
func ToMCPCallToolRequest(call ai.ToolCall) mcp.CallToolRequest {
	var args any
	if call.Arguments != nil {
		args = call.Arguments
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      call.Name,
			Arguments: args,
		},
	}
}

// FromMCPCallToolResult converts an MCP CallToolResult to a cadence
// ToolResult. Text content maps to text parts; non-text content is carried
// as marshaled JSON.
func FromMCPCallToolResult(call ai.ToolCall, result *mcp.CallToolResult) ai.ToolResult {
	out := ai.ToolResult{
		ToolCallID: call.ID,
		ToolName:   call.Name,
	}
	if result == nil {
		out.IsError = true
		out.Detail = &ai.ErrorDetail{
			Message: "empty MCP tool result",
			Kind:    ai.ToolErrorExecution,
		}
		return out
	}

	for _, c := range result.Content {
		switch content := c.(type) {
		case mcp.TextContent:
			out.Content = append(out.Content, ai.TextPart(content.Text))
		case *mcp.TextContent:
			out.Content = append(out.Content, ai.TextPart(content.Text))
		default:
			if data, err := json.Marshal(content); err == nil {
				out.Content = append(out.Content, ai.TextPart(string(data)))
			}
		}
	}
	if result.StructuredContent != nil {
		if data, err := json.Marshal(result.StructuredContent); err == nil {
			out.Content = append(out.Content, ai.TextPart(string(data)))
		}
	}

	if result.IsError {
		out.IsError = true
		out.Detail = &ai.ErrorDetail{
			Message: out.Text(),
			Kind:    ai.ToolErrorExecution,
		}
	}
	return out
}

// ToMCPCallToolResult converts a cadence ToolResult to an MCP CallToolResult.
func ToMCPCallToolResult(result ai.ToolResult) *mcp.CallToolResult {
	if result.IsError {
		return mcp.NewToolResultError(result.Text())
	}
	return mcp.NewToolResultText(result.Text())
}
