// Package openai adapts the OpenAI Chat Completions API to the backend
// adapter contract.
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/accum"
	"github.com/spetersoncode/cadence/backend"
	"github.com/spetersoncode/cadence/stream"
)

// Client wraps the OpenAI SDK to implement backend.Adapter.
type Client struct {
	client *openai.Client
}

// New creates a new OpenAI adapter with the given API key.
func New(apiKey string) *Client {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{client: &client}
}

// Provider identifies this adapter's backend.
func (c *Client) Provider() ai.Provider { return ai.ProviderOpenAI }

// Stream sends the request and translates completion chunks into accumulator
// deltas. OpenAI keys tool-call fragments by index within the response, so
// the translation opens a new tool block each time the index advances.
func (c *Client) Stream(ctx context.Context, req backend.Request) (*stream.Stream[accum.Delta, *ai.NativeMessage], error) {
	if err := backend.ReplayCheck(req.Messages, ai.ProviderOpenAI); err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    req.Model.String(),
		Messages: convertMessages(req.System, req.Messages),
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if len(req.Tools) > 0 {
		params.Tools = convertTools(req.Tools)
	}

	out := stream.New[accum.Delta, *ai.NativeMessage]()

	go func() {
		sse := c.client.Chat.Completions.NewStreaming(ctx, params)
		var acc openai.ChatCompletionAccumulator

		out.Push(accum.Delta{Kind: accum.StreamStart})

		finishReason := ""
		openToolIndex := int64(-1)

		for sse.Next() {
			chunk := sse.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]

			if choice.Delta.Content != "" {
				out.Push(accum.Delta{Kind: accum.BlockDelta, Block: ai.BlockText, Text: choice.Delta.Content})
			}

			for _, tc := range choice.Delta.ToolCalls {
				if tc.Index != openToolIndex {
					openToolIndex = tc.Index
					out.Push(accum.Delta{
						Kind:     accum.BlockStart,
						Block:    ai.BlockToolCall,
						ToolID:   tc.ID,
						ToolName: tc.Function.Name,
					})
				}
				if tc.Function.Arguments != "" {
					out.Push(accum.Delta{Kind: accum.BlockDelta, Block: ai.BlockToolCall, Args: tc.Function.Arguments})
				}
			}

			if choice.FinishReason != "" {
				finishReason = choice.FinishReason
			}
		}

		if err := sse.Err(); err != nil {
			out.Push(accum.Delta{Kind: accum.StreamError, Err: wrapError(err)})
			out.End(nil)
			return
		}

		// Usage arrives in a trailing chunk after the finish reason.
		out.Push(accum.Delta{
			Kind:   accum.StreamDone,
			Status: convertStopReason(finishReason),
			Usage: &ai.Usage{
				InputTokens:     int(acc.Usage.PromptTokens),
				OutputTokens:    int(acc.Usage.CompletionTokens),
				CacheReadTokens: int(acc.Usage.PromptTokensDetails.CachedTokens),
			},
		})

		native := nativePayload(acc)
		out.End(native)
	}()

	return out, nil
}

// nativePayload converts the accumulated completion into its replayable
// param form. Returns nil when the stream produced no choices.
func nativePayload(acc openai.ChatCompletionAccumulator) *ai.NativeMessage {
	if len(acc.Choices) == 0 {
		return nil
	}
	return &ai.NativeMessage{
		Provider: ai.ProviderOpenAI,
		Payload:  acc.Choices[0].Message.ToParam(),
	}
}

func convertStopReason(reason string) ai.StopReason {
	switch reason {
	case "stop":
		return ai.StopReasonStop
	case "length":
		return ai.StopReasonLength
	case "tool_calls", "function_call":
		return ai.StopReasonToolUse
	default:
		return ai.StopReasonStop
	}
}

var _ backend.Adapter = (*Client)(nil)
