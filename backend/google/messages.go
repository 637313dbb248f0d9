package google

import (
	"encoding/base64"
	"encoding/json"

	"google.golang.org/genai"

	ai "github.com/spetersoncode/cadence"
)

func convertMessages(messages []ai.Message) []*genai.Content {
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleUser, ai.RoleCustom:
			if parts := convertParts(msg.Content); len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "user", Parts: parts})
			}

		case ai.RoleAssistant:
			// Replay the provider's own payload verbatim when we have it.
			if msg.Native != nil {
				if content, ok := msg.Native.Payload.(*genai.Content); ok {
					contents = append(contents, content)
					continue
				}
			}
			if content, ok := rebuildAssistant(msg); ok {
				contents = append(contents, content)
			}

		case ai.RoleToolResult:
			// Tool results are sent as user content with FunctionResponse parts.
			var parts []*genai.Part
			for _, tr := range msg.Results {
				text := tr.Text()
				var response map[string]any
				if err := json.Unmarshal([]byte(text), &response); err != nil {
					response = map[string]any{"result": text}
				}
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:       tr.ToolCallID,
						Name:     tr.ToolName,
						Response: response,
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "user", Parts: parts})
			}
		}
	}

	return contents
}

// rebuildAssistant reconstructs a model turn from canonical blocks for
// histories without a native payload. Thinking blocks are dropped.
func rebuildAssistant(msg ai.Message) (*genai.Content, bool) {
	var parts []*genai.Part
	for _, b := range msg.Blocks {
		switch b.Type {
		case ai.BlockText:
			if b.Text != "" {
				parts = append(parts, &genai.Part{Text: b.Text})
			}
		case ai.BlockToolCall:
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   b.ID,
					Name: b.Name,
					Args: b.Arguments,
				},
			})
		}
	}
	if len(parts) == 0 {
		return nil, false
	}
	return &genai.Content{Role: "model", Parts: parts}, true
}

func convertParts(parts []ai.ContentPart) []*genai.Part {
	var result []*genai.Part
	for _, part := range parts {
		switch part.Kind {
		case ai.ContentText:
			if part.Text != "" {
				result = append(result, &genai.Part{Text: part.Text})
			}
		case ai.ContentImage, ai.ContentFile:
			if part.Data != "" {
				data, err := base64.StdEncoding.DecodeString(part.Data)
				if err != nil {
					continue
				}
				mimeType := part.MimeType
				if mimeType == "" {
					mimeType = "image/jpeg"
				}
				result = append(result, &genai.Part{
					InlineData: &genai.Blob{
						Data:     data,
						MIMEType: mimeType,
					},
				})
			}
		}
	}
	return result
}

func convertTools(tools []ai.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	funcs := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		funcs[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertJSONSchema(t.Parameters),
		}
	}

	return []*genai.Tool{{FunctionDeclarations: funcs}}
}
