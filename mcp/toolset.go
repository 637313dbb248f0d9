package mcp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/tool"
)

// RemoteToolset provides access to the tools of one MCP server. The tool
// list is cached locally and can be refreshed with [RemoteToolset.Refresh].
//
// RemoteToolset is safe for concurrent use.
type RemoteToolset struct {
	client *client.Client
	mu     sync.RWMutex
	tools  map[string]ai.Tool
}

// NewRemoteToolset connects to an MCP server over stdio. The command is the
// path to the server executable; args are passed to it.
func NewRemoteToolset(ctx context.Context, command string, env []string, args ...string) (*RemoteToolset, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("create MCP client: %w", err)
	}
	return newRemoteToolset(ctx, c)
}

// NewRemoteToolsetSSE connects to an MCP server over SSE.
func NewRemoteToolsetSSE(ctx context.Context, baseURL string) (*RemoteToolset, error) {
	c, err := client.NewSSEMCPClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("create SSE MCP client: %w", err)
	}
	return newRemoteToolset(ctx, c)
}

// NewRemoteToolsetFromClient wraps an existing MCP client. The client is
// started, initialized, and its tool list fetched.
func NewRemoteToolsetFromClient(ctx context.Context, c *client.Client) (*RemoteToolset, error) {
	return newRemoteToolset(ctx, c)
}

func newRemoteToolset(ctx context.Context, c *client.Client) (*RemoteToolset, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("start MCP client: %w", err)
	}

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "cadence-mcp-client",
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize MCP session: %w", err)
	}

	ts := &RemoteToolset{
		client: c,
		tools:  make(map[string]ai.Tool),
	}
	if err := ts.Refresh(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("list MCP tools: %w", err)
	}
	return ts, nil
}

// Close closes the connection to the MCP server.
func (ts *RemoteToolset) Close() error {
	return ts.client.Close()
}

// Refresh fetches the current tool list from the MCP server.
func (ts *RemoteToolset) Refresh(ctx context.Context) error {
	result, err := ts.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return err
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tools = make(map[string]ai.Tool, len(result.Tools))
	for _, t := range result.Tools {
		ts.tools[t.Name] = FromMCPTool(t)
	}
	return nil
}

// Tools returns all tools available from the MCP server.
func (ts *RemoteToolset) Tools() []ai.Tool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	tools := make([]ai.Tool, 0, len(ts.tools))
	for _, t := range ts.tools {
		tools = append(tools, t)
	}
	return tools
}

// GetTool retrieves a tool definition by name.
func (ts *RemoteToolset) GetTool(name string) (ai.Tool, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	t, ok := ts.tools[name]
	return t, ok
}

// Len returns the number of available tools.
func (ts *RemoteToolset) Len() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return len(ts.tools)
}

// Call invokes a tool on the remote MCP server and normalizes the outcome.
func (ts *RemoteToolset) Call(ctx context.Context, call ai.ToolCall) ai.ToolResult {
	result, err := ts.client.CallTool(ctx, ToMCPCallToolRequest(call))
	if err != nil {
		return ai.ToolResult{
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Content:    []ai.ContentPart{ai.TextPart(err.Error())},
			IsError:    true,
			Detail: &ai.ErrorDetail{
				Message: err.Error(),
				Kind:    ai.ToolErrorExecution,
			},
		}
	}
	return FromMCPCallToolResult(call, result)
}

// RegisterAll registers every remote tool into a local registry, proxying
// execution to the MCP server. Remote tools then dispatch through the
// invoker like local ones.
func (ts *RemoteToolset) RegisterAll(registry *tool.Registry) error {
	for _, t := range ts.Tools() {
		if err := registry.Register(t, ts.handler()); err != nil {
			return err
		}
	}
	return nil
}

// handler proxies one tool call to the remote server as a tool.Handler.
func (ts *RemoteToolset) handler() tool.Handler {
	return func(ctx context.Context, call ai.ToolCall, progress tool.Progress) (string, error) {
		result := ts.Call(ctx, call)
		if result.IsError {
			return "", errors.New(result.Detail.Message)
		}
		return result.Text(), nil
	}
}
