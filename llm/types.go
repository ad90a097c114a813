package llm

import (
	"encoding/json"
	"fmt"
)

// Part represents a part of the message.
type Part struct {
	TextPart       *TextPart       `json:"-"`
	ToolCallPart   *ToolCallPart   `json:"-"`
	ToolResultPart *ToolResultPart `json:"-"`
}

type PartType string

const (
	PartTypeText       PartType = "text"
	PartTypeToolCall   PartType = "tool-call"
	PartTypeToolResult PartType = "tool-result"
)

func (p Part) Type() PartType {
	switch {
	case p.TextPart != nil:
		return PartTypeText
	case p.ToolCallPart != nil:
		return PartTypeToolCall
	case p.ToolResultPart != nil:
		return PartTypeToolResult
	default:
		return ""
	}
}

// TextPart represents a part of the message that contains text.
type TextPart struct {
	Text string `json:"text"`
}

// ToolCallPart represents a call to a tool the model wants to use.
type ToolCallPart struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	// Args is the JSON object the model produced for the tool parameters.
	Args json.RawMessage `json:"args"`
}

// ToolResultPart represents the result of a tool call.
type ToolResultPart struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	Content    []Part `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// MarshalJSON implements custom JSON marshaling for Part
func (p Part) MarshalJSON() ([]byte, error) {
	switch {
	case p.TextPart != nil:
		return json.Marshal(struct {
			Type PartType `json:"type"`
			*TextPart
		}{
			Type:     PartTypeText,
			TextPart: p.TextPart,
		})
	case p.ToolCallPart != nil:
		return json.Marshal(struct {
			Type PartType `json:"type"`
			*ToolCallPart
		}{
			Type:         PartTypeToolCall,
			ToolCallPart: p.ToolCallPart,
		})
	case p.ToolResultPart != nil:
		return json.Marshal(struct {
			Type PartType `json:"type"`
			*ToolResultPart
		}{
			Type:           PartTypeToolResult,
			ToolResultPart: p.ToolResultPart,
		})
	}
	return nil, fmt.Errorf("part has no content")
}

// UnmarshalJSON implements custom JSON unmarshaling for Part
func (p *Part) UnmarshalJSON(data []byte) error {
	var temp struct {
		Type PartType `json:"type"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	switch temp.Type {
	case PartTypeText:
		var textPart TextPart
		if err := json.Unmarshal(data, &textPart); err != nil {
			return err
		}
		p.TextPart = &textPart
	case PartTypeToolCall:
		var toolCallPart ToolCallPart
		if err := json.Unmarshal(data, &toolCallPart); err != nil {
			return err
		}
		p.ToolCallPart = &toolCallPart
	case PartTypeToolResult:
		var toolResultPart ToolResultPart
		if err := json.Unmarshal(data, &toolResultPart); err != nil {
			return err
		}
		p.ToolResultPart = &toolResultPart
	default:
		return fmt.Errorf("unknown part type: %s", temp.Type)
	}
	return nil
}

// Message represents a message in an LLM conversation history.
type Message struct {
	UserMessage      *UserMessage      `json:"-"`
	AssistantMessage *AssistantMessage `json:"-"`
	ToolMessage      *ToolMessage      `json:"-"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

func (m Message) Role() Role {
	switch {
	case m.UserMessage != nil:
		return RoleUser
	case m.AssistantMessage != nil:
		return RoleAssistant
	case m.ToolMessage != nil:
		return RoleTool
	}
	return ""
}

// Content returns the parts of whichever message variant is set.
func (m Message) Content() []Part {
	switch {
	case m.UserMessage != nil:
		return m.UserMessage.Content
	case m.AssistantMessage != nil:
		return m.AssistantMessage.Content
	case m.ToolMessage != nil:
		return m.ToolMessage.Content
	}
	return nil
}

// UserMessage represents a message sent by the user.
type UserMessage struct {
	Content []Part `json:"content"`
}

// AssistantMessage represents a message generated by the model.
type AssistantMessage struct {
	Content []Part `json:"content"`
}

// ToolMessage represents tool result in the message history.
// Only ToolResultPart should be included in the content.
type ToolMessage struct {
	Content []Part `json:"content"`
}

// MarshalJSON implements custom JSON marshaling for Message
func (m Message) MarshalJSON() ([]byte, error) {
	role := m.Role()
	if role == "" {
		return nil, fmt.Errorf("message has no content")
	}
	return json.Marshal(struct {
		Role    Role   `json:"role"`
		Content []Part `json:"content"`
	}{
		Role:    role,
		Content: m.Content(),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Message
func (m *Message) UnmarshalJSON(data []byte) error {
	var temp struct {
		Role    Role   `json:"role"`
		Content []Part `json:"content"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	switch temp.Role {
	case RoleUser:
		m.UserMessage = &UserMessage{Content: temp.Content}
	case RoleAssistant:
		m.AssistantMessage = &AssistantMessage{Content: temp.Content}
	case RoleTool:
		m.ToolMessage = &ToolMessage{Content: temp.Content}
	default:
		return fmt.Errorf("unknown message role: %s", temp.Role)
	}
	return nil
}

// ResponseFormatOption is the expected format of the response: text or JSON.
type ResponseFormatOption struct {
	Text *ResponseFormatText `json:"-"`
	JSON *ResponseFormatJSON `json:"-"`
}

type ResponseFormatText struct{}

// ResponseFormatJSON asks the model for JSON output, optionally following a schema.
type ResponseFormatJSON struct {
	Name        string      `json:"name"`
	Description *string     `json:"description,omitempty"`
	Schema      *JSONSchema `json:"schema,omitempty"`
}

// JSONSchema represents a JSON schema.
type JSONSchema map[string]any

// Tool represents a tool that can be used by the model.
type Tool struct {
	// The name of the tool.
	Name string `json:"name"`
	// A description of the tool.
	Description string `json:"description"`
	// The JSON schema of the parameters that the tool accepts. The type must be "object".
	Parameters JSONSchema `json:"parameters"`
}

// ModelUsage represents the token usage of the model.
type ModelUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates other into u.
func (u *ModelUsage) Add(other *ModelUsage) {
	if other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// ModelResponse represents the response generated by the model.
type ModelResponse struct {
	Content []Part      `json:"content"`
	Usage   *ModelUsage `json:"usage,omitempty"`
}

// LanguageModelInput defines the input parameters for the language model completion.
type LanguageModelInput struct {
	// A system prompt is a way of providing context and instructions to the model
	SystemPrompt *string `json:"system_prompt,omitempty"`
	// A list of messages comprising the conversation so far.
	Messages []Message `json:"messages"`
	// Definitions of tools that the model may use.
	Tools          []Tool                `json:"tools,omitempty"`
	ResponseFormat *ResponseFormatOption `json:"response_format,omitempty"`
	// The maximum number of tokens that can be generated in the chat completion.
	MaxTokens *int64 `json:"max_tokens,omitempty"`
	// Amount of randomness injected into the response. Ranges from 0.0 to 1.0
	Temperature *float64 `json:"temperature,omitempty"`
	// An alternative to sampling with temperature, called nucleus sampling, where the model considers the results of the tokens with top_p probability mass. Ranges from 0.0 to 1.0
	TopP *float64 `json:"top_p,omitempty"`
	// The seed (integer), if set and supported by the model, to enable deterministic results.
	Seed *int64 `json:"seed,omitempty"`
	// A set of key/value pairs that store additional information about the request. This is forwarded to the model provider if supported.
	Metadata map[string]string `json:"metadata,omitempty"`
}
