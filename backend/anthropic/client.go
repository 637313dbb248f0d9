// Package anthropic adapts the Anthropic Messages API to the backend
// adapter contract.
package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/accum"
	"github.com/spetersoncode/cadence/backend"
	"github.com/spetersoncode/cadence/stream"
)

const defaultMaxTokens = 4096

// Client wraps the Anthropic SDK to implement backend.Adapter.
type Client struct {
	client *anthropic.Client
}

// New creates a new Anthropic adapter with the given API key.
func New(apiKey string) *Client {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{client: &client}
}

// Provider identifies this adapter's backend.
func (c *Client) Provider() ai.Provider { return ai.ProviderAnthropic }

// Stream sends the request and translates Anthropic SSE events into
// accumulator deltas. The stream resolves with the SDK's accumulated
// message converted to its replayable param form.
func (c *Client) Stream(ctx context.Context, req backend.Request) (*stream.Stream[accum.Delta, *ai.NativeMessage], error) {
	if err := backend.ReplayCheck(req.Messages, ai.ProviderAnthropic); err != nil {
		return nil, err
	}

	maxTokens := int64(defaultMaxTokens)
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model.String()),
		MaxTokens: maxTokens,
		Messages:  convertMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if len(req.Tools) > 0 {
		params.Tools = convertTools(req.Tools)
	}

	out := stream.New[accum.Delta, *ai.NativeMessage]()

	go func() {
		sse := c.client.Messages.NewStreaming(ctx, params)
		var acc anthropic.Message

		for sse.Next() {
			event := sse.Current()
			acc.Accumulate(event)

			switch event.Type {
			case "message_start":
				start := event.AsMessageStart()
				out.Push(accum.Delta{
					Kind: accum.StreamStart,
					Usage: &ai.Usage{
						InputTokens:      int(start.Message.Usage.InputTokens),
						CacheReadTokens:  int(start.Message.Usage.CacheReadInputTokens),
						CacheWriteTokens: int(start.Message.Usage.CacheCreationInputTokens),
					},
				})

			case "content_block_start":
				blockStart := event.AsContentBlockStart()
				switch blockStart.ContentBlock.Type {
				case "text":
					out.Push(accum.Delta{Kind: accum.BlockStart, Block: ai.BlockText})
				case "thinking":
					out.Push(accum.Delta{Kind: accum.BlockStart, Block: ai.BlockThinking})
				case "tool_use":
					out.Push(accum.Delta{
						Kind:     accum.BlockStart,
						Block:    ai.BlockToolCall,
						ToolID:   blockStart.ContentBlock.ID,
						ToolName: blockStart.ContentBlock.Name,
					})
				}

			case "content_block_delta":
				delta := event.AsContentBlockDelta()
				switch delta.Delta.Type {
				case "text_delta":
					out.Push(accum.Delta{Kind: accum.BlockDelta, Block: ai.BlockText, Text: delta.Delta.Text})
				case "thinking_delta":
					out.Push(accum.Delta{Kind: accum.BlockDelta, Block: ai.BlockThinking, Text: delta.Delta.Thinking})
				case "input_json_delta":
					out.Push(accum.Delta{Kind: accum.BlockDelta, Block: ai.BlockToolCall, Args: delta.Delta.PartialJSON})
				}

			case "content_block_stop":
				out.Push(accum.Delta{Kind: accum.BlockEnd})

			case "message_delta":
				messageDelta := event.AsMessageDelta()
				out.Push(accum.Delta{
					Kind:   accum.StreamDone,
					Status: convertStopReason(string(messageDelta.Delta.StopReason)),
					Usage:  &ai.Usage{OutputTokens: int(messageDelta.Usage.OutputTokens)},
				})
			}
		}

		if err := sse.Err(); err != nil {
			out.Push(accum.Delta{Kind: accum.StreamError, Err: wrapError(err)})
			out.End(nil)
			return
		}

		out.End(&ai.NativeMessage{Provider: ai.ProviderAnthropic, Payload: acc.ToParam()})
	}()

	return out, nil
}

func convertStopReason(reason string) ai.StopReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return ai.StopReasonStop
	case "max_tokens":
		return ai.StopReasonLength
	case "tool_use":
		return ai.StopReasonToolUse
	default:
		return ai.StopReasonStop
	}
}

var _ backend.Adapter = (*Client)(nil)
