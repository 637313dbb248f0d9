// Package google adapts the Google GenAI API to the backend adapter
// contract.
package google

import (
	"context"
	"encoding/json"

	"google.golang.org/genai"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/accum"
	"github.com/spetersoncode/cadence/backend"
	"github.com/spetersoncode/cadence/stream"
)

// Client wraps the Google GenAI SDK to implement backend.Adapter.
type Client struct {
	client *genai.Client
}

// New creates a new Google adapter with the given API key.
func New(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &ai.ModelAdapterError{Provider: ai.ProviderGoogle, Err: err}
	}
	return &Client{client: client}, nil
}

// Provider identifies this adapter's backend.
func (c *Client) Provider() ai.Provider { return ai.ProviderGoogle }

// Stream sends the request and translates GenAI responses into accumulator
// deltas. GenAI delivers whole parts per iteration rather than sub-part
// fragments: text arrives as chunked text parts, while each function call
// arrives complete, so tool blocks open with their full arguments and close
// immediately.
func (c *Client) Stream(ctx context.Context, req backend.Request) (*stream.Stream[accum.Delta, *ai.NativeMessage], error) {
	if err := backend.ReplayCheck(req.Messages, ai.ProviderGoogle); err != nil {
		return nil, err
	}

	contents := convertMessages(req.Messages)
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}
	if len(req.Tools) > 0 {
		config.Tools = convertTools(req.Tools)
	}

	out := stream.New[accum.Delta, *ai.NativeMessage]()

	go func() {
		out.Push(accum.Delta{Kind: accum.StreamStart})

		var allParts []*genai.Part
		var usage ai.Usage
		finishReason := ""

		for resp, err := range c.client.Models.GenerateContentStream(ctx, req.Model.String(), contents, config) {
			if err != nil {
				out.Push(accum.Delta{Kind: accum.StreamError, Err: wrapError(err)})
				out.End(nil)
				return
			}

			if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
				out.Push(accum.Delta{
					Kind: accum.StreamError,
					Err:  wrapError(&BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}),
				})
				out.End(nil)
				return
			}

			if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
				for _, part := range resp.Candidates[0].Content.Parts {
					allParts = append(allParts, part)
					pushPart(out, part)
				}
				if resp.Candidates[0].FinishReason != "" {
					finishReason = string(resp.Candidates[0].FinishReason)
				}
			}

			if resp.UsageMetadata != nil {
				usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
				usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
				usage.CacheReadTokens = int(resp.UsageMetadata.CachedContentTokenCount)
			}
		}

		if ctx.Err() != nil {
			out.Push(accum.Delta{Kind: accum.StreamError, Err: ctx.Err()})
			out.End(nil)
			return
		}

		out.Push(accum.Delta{
			Kind:   accum.StreamDone,
			Status: convertFinishReason(finishReason),
			Usage:  &usage,
		})

		out.End(&ai.NativeMessage{
			Provider: ai.ProviderGoogle,
			Payload:  &genai.Content{Role: "model", Parts: allParts},
		})
	}()

	return out, nil
}

// pushPart translates one response part into deltas.
func pushPart(out *stream.Stream[accum.Delta, *ai.NativeMessage], part *genai.Part) {
	switch {
	case part.FunctionCall != nil:
		args, _ := json.Marshal(part.FunctionCall.Args)
		out.Push(accum.Delta{
			Kind:     accum.BlockStart,
			Block:    ai.BlockToolCall,
			ToolID:   part.FunctionCall.ID,
			ToolName: part.FunctionCall.Name,
			Args:     string(args),
		})
		out.Push(accum.Delta{Kind: accum.BlockEnd})
	case part.Thought && part.Text != "":
		out.Push(accum.Delta{Kind: accum.BlockDelta, Block: ai.BlockThinking, Text: part.Text})
	case part.Text != "":
		out.Push(accum.Delta{Kind: accum.BlockDelta, Block: ai.BlockText, Text: part.Text})
	}
}

func convertFinishReason(reason string) ai.StopReason {
	switch reason {
	case "STOP", "":
		return ai.StopReasonStop
	case "MAX_TOKENS":
		return ai.StopReasonLength
	default:
		return ai.StopReasonStop
	}
}

var _ backend.Adapter = (*Client)(nil)
