package openai

import (
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	ai "github.com/spetersoncode/cadence"
)

func convertMessages(system string, messages []ai.Message) []openai.ChatCompletionMessageParamUnion {
	var result []openai.ChatCompletionMessageParamUnion
	if system != "" {
		result = append(result, openai.SystemMessage(system))
	}

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleUser, ai.RoleCustom:
			if parts := convertParts(msg.Content); len(parts) > 0 {
				result = append(result, openai.ChatCompletionMessageParamUnion{
					OfUser: &openai.ChatCompletionUserMessageParam{
						Content: openai.ChatCompletionUserMessageParamContentUnion{
							OfArrayOfContentParts: parts,
						},
					},
				})
			}

		case ai.RoleAssistant:
			// Replay the provider's own payload verbatim when we have it.
			if msg.Native != nil {
				if param, ok := msg.Native.Payload.(openai.ChatCompletionMessageParamUnion); ok {
					result = append(result, param)
					continue
				}
			}
			if param, ok := rebuildAssistant(msg); ok {
				result = append(result, param)
			}

		case ai.RoleToolResult:
			// One tool message per result.
			for _, tr := range msg.Results {
				result = append(result, openai.ToolMessage(tr.Text(), tr.ToolCallID))
			}
		}
	}

	return result
}

// rebuildAssistant reconstructs an assistant turn from canonical blocks for
// histories without a native payload.
func rebuildAssistant(msg ai.Message) (openai.ChatCompletionMessageParamUnion, bool) {
	var toolCalls []openai.ChatCompletionMessageToolCallParam
	text := ""
	for _, b := range msg.Blocks {
		switch b.Type {
		case ai.BlockText:
			text += b.Text
		case ai.BlockToolCall:
			args, err := json.Marshal(b.Arguments)
			if err != nil || b.Arguments == nil {
				args = []byte("{}")
			}
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
				ID: b.ID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      b.Name,
					Arguments: string(args),
				},
			})
		}
	}

	if len(toolCalls) == 0 && text == "" {
		return openai.ChatCompletionMessageParamUnion{}, false
	}
	if len(toolCalls) == 0 {
		return openai.AssistantMessage(text), true
	}

	assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
	if text != "" {
		assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(text),
		}
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}, true
}

func convertParts(parts []ai.ContentPart) []openai.ChatCompletionContentPartUnionParam {
	var result []openai.ChatCompletionContentPartUnionParam
	for _, part := range parts {
		switch part.Kind {
		case ai.ContentText:
			if part.Text != "" {
				result = append(result, openai.TextContentPart(part.Text))
			}
		case ai.ContentImage:
			if part.Data != "" {
				mimeType := part.MimeType
				if mimeType == "" {
					mimeType = "image/jpeg"
				}
				result = append(result, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: fmt.Sprintf("data:%s;base64,%s", mimeType, part.Data),
				}))
			}
		}
	}
	return result
}

func convertTools(tools []ai.Tool) []openai.ChatCompletionToolParam {
	result := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		var params shared.FunctionParameters
		if len(t.Parameters) > 0 {
			json.Unmarshal(t.Parameters, &params)
		}
		result[i] = openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  params,
			},
		}
	}
	return result
}
