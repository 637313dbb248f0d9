package cadence

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the sender of a message in a conversation.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "toolResult"
	// RoleCustom marks application-injected messages (notes, annotations).
	// Custom messages are appended between runs, never mid-run.
	RoleCustom Role = "custom"
)

// ContentKind identifies the type of a content part.
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentImage ContentKind = "image"
	ContentFile  ContentKind = "file"
)

// ContentPart is a single piece of user, custom, or tool-result content.
// Image and file parts carry base64-encoded bytes plus a MIME type.
type ContentPart struct {
	Kind ContentKind `json:"kind"`
	// Text holds the text for text parts.
	Text string `json:"text,omitempty"`
	// Data holds base64-encoded bytes for image and file parts.
	Data string `json:"data,omitempty"`
	// MimeType describes Data (e.g. "image/png", "application/pdf").
	MimeType string `json:"mimeType,omitempty"`
}

// TextPart creates a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Kind: ContentText, Text: text}
}

// ImagePart creates an image content part from base64 data.
func ImagePart(base64Data, mimeType string) ContentPart {
	return ContentPart{Kind: ContentImage, Data: base64Data, MimeType: mimeType}
}

// FilePart creates a file content part from base64 data.
func FilePart(base64Data, mimeType string) ContentPart {
	return ContentPart{Kind: ContentFile, Data: base64Data, MimeType: mimeType}
}

// StopReason indicates why the model stopped generating.
type StopReason string

const (
	StopReasonStop    StopReason = "stop"
	StopReasonLength  StopReason = "length"
	StopReasonToolUse StopReason = "toolUse"
	StopReasonError   StopReason = "error"
	StopReasonAborted StopReason = "aborted"
)

// Terminal reports whether the stop reason ends the run rather than the turn.
func (s StopReason) Terminal() bool {
	return s == StopReasonError || s == StopReasonAborted
}

// BlockType identifies the kind of an assistant content block.
type BlockType string

const (
	BlockText     BlockType = "text"
	BlockThinking BlockType = "thinking"
	BlockToolCall BlockType = "toolCall"
)

// Block is a structured piece of assistant output. Blocks are produced in
// emission order; during accumulation at most one block is open at a time.
type Block struct {
	Type BlockType `json:"type"`
	// Text holds accumulated text for text blocks.
	Text string `json:"text,omitempty"`
	// Thinking holds accumulated model-internal reasoning for thinking blocks.
	Thinking string `json:"thinking,omitempty"`
	// ID, Name, and Arguments describe a tool call for toolCall blocks.
	// While the block is open, Arguments reflects a lenient parse of the
	// fragments received so far and may be incomplete.
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// NativeMessage preserves a backend's opaque response payload so the same
// backend can replay it verbatim on a later call. Payload is the SDK-specific
// accumulated response, tagged by the provider that produced it. Replaying a
// native payload into a different backend fails with
// [CrossProviderConversionError].
type NativeMessage struct {
	Provider Provider
	Payload  any
}

// Message is a single entry in conversation history. History is append-only:
// once appended, a message is never mutated, only superseded.
//
// The populated fields depend on Role: user and custom messages carry Content;
// toolResult messages carry Results; assistant messages carry Model, Provider,
// StopReason, Usage, and Blocks.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt,omitzero"`

	// Content holds ordered content parts for user, custom, and toolResult roles.
	Content []ContentPart `json:"content,omitempty"`

	// Results holds tool execution results for toolResult messages.
	Results []ToolResult `json:"results,omitempty"`

	// Assistant fields.
	Model      string     `json:"model,omitempty"`
	Provider   Provider   `json:"provider,omitempty"`
	StopReason StopReason `json:"stopReason,omitempty"`
	Usage      Usage      `json:"usage,omitzero"`
	Blocks     []Block    `json:"blocks,omitempty"`
	// ErrorMessage describes the failure for error and aborted stop reasons.
	ErrorMessage string `json:"errorMessage,omitempty"`

	// Native is the backend-specific payload this message was built from.
	// Never serialized; only meaningful for same-backend replay.
	Native *NativeMessage `json:"-"`
}

// NewMessageID creates a unique message identifier.
func NewMessageID() string {
	return "msg-" + uuid.New().String()
}

// NewUserMessage creates a user message from content parts.
func NewUserMessage(parts ...ContentPart) Message {
	return Message{
		ID:        NewMessageID(),
		Role:      RoleUser,
		CreatedAt: time.Now(),
		Content:   parts,
	}
}

// NewUserTextMessage creates a user message with a single text part.
func NewUserTextMessage(text string) Message {
	return NewUserMessage(TextPart(text))
}

// NewCustomMessage creates a custom (application-injected) message.
func NewCustomMessage(parts ...ContentPart) Message {
	return Message{
		ID:        NewMessageID(),
		Role:      RoleCustom,
		CreatedAt: time.Now(),
		Content:   parts,
	}
}

// NewToolResultMessage creates a toolResult message wrapping a single result.
func NewToolResultMessage(result ToolResult) Message {
	return Message{
		ID:        NewMessageID(),
		Role:      RoleToolResult,
		CreatedAt: time.Now(),
		Results:   []ToolResult{result},
	}
}

// ToolCalls returns the tool-call blocks of an assistant message, in order.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, b := range m.Blocks {
		if b.Type == BlockToolCall {
			calls = append(calls, ToolCall{ID: b.ID, Name: b.Name, Arguments: b.Arguments})
		}
	}
	return calls
}

// Text returns the concatenated text blocks of an assistant message, or the
// concatenated text parts of any other role.
func (m Message) Text() string {
	out := ""
	if m.Role == RoleAssistant {
		for _, b := range m.Blocks {
			if b.Type == BlockText {
				out += b.Text
			}
		}
		return out
	}
	for _, p := range m.Content {
		if p.Kind == ContentText {
			out += p.Text
		}
	}
	return out
}
