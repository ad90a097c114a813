package llm

import (
	"encoding/json"
	"strings"
)

func NewTextPart(text string) Part {
	return Part{TextPart: &TextPart{Text: text}}
}

func NewToolCallPart(toolCallID, toolName string, args json.RawMessage) Part {
	return Part{ToolCallPart: &ToolCallPart{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Args:       args,
	}}
}

func NewToolResultPart(toolCallID, toolName string, content []Part, isError bool) Part {
	return Part{ToolResultPart: &ToolResultPart{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Content:    content,
		IsError:    isError,
	}}
}

// NewUserMessage creates a new user message
func NewUserMessage(parts ...Part) Message {
	return Message{UserMessage: &UserMessage{Content: parts}}
}

// NewAssistantMessage creates a new assistant message
func NewAssistantMessage(parts ...Part) Message {
	return Message{AssistantMessage: &AssistantMessage{Content: parts}}
}

// NewToolMessage creates a new tool message
func NewToolMessage(parts ...Part) Message {
	return Message{ToolMessage: &ToolMessage{Content: parts}}
}

func NewResponseFormatText() *ResponseFormatOption {
	return &ResponseFormatOption{Text: &ResponseFormatText{}}
}

func NewResponseFormatJSON(name string, description *string, schema *JSONSchema) *ResponseFormatOption {
	return &ResponseFormatOption{JSON: &ResponseFormatJSON{
		Name:        name,
		Description: description,
		Schema:      schema,
	}}
}

// Text concatenates the text parts of parts, ignoring everything else.
func Text(parts []Part) string {
	var b strings.Builder
	for _, part := range parts {
		if part.TextPart != nil {
			b.WriteString(part.TextPart.Text)
		}
	}
	return b.String()
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
