package openai

import "encoding/json"

// Wire types for the subset of the chat completions API this adapter uses.

type chatCompletionCreateParams struct {
	Model               string                  `json:"model"`
	Messages            []chatCompletionMessage `json:"messages"`
	Tools               []chatCompletionTool    `json:"tools,omitempty"`
	ResponseFormat      *responseFormat         `json:"response_format,omitempty"`
	MaxCompletionTokens *int64                  `json:"max_completion_tokens,omitempty"`
	Temperature         *float64                `json:"temperature,omitempty"`
	TopP                *float64                `json:"top_p,omitempty"`
	Seed                *int64                  `json:"seed,omitempty"`
	Metadata            map[string]string       `json:"metadata,omitempty"`
}

type chatCompletionMessage struct {
	Role       string                   `json:"role"`
	Content    *string                  `json:"content,omitempty"`
	ToolCalls  []chatCompletionToolCall `json:"tool_calls,omitempty"`
	ToolCallID string                   `json:"tool_call_id,omitempty"`
	Refusal    *string                  `json:"refusal,omitempty"`
}

type chatCompletionToolCall struct {
	ID       string                     `json:"id"`
	Type     string                     `json:"type"`
	Function chatCompletionFunctionCall `json:"function"`
}

type chatCompletionFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatCompletionTool struct {
	Type     string             `json:"type"`
	Function functionDefinition `json:"function"`
}

type functionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Strict      bool           `json:"strict"`
}

type responseFormat struct {
	Type       string                    `json:"type"`
	JSONSchema *responseFormatJSONSchema `json:"json_schema,omitempty"`
}

type responseFormatJSONSchema struct {
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Schema      map[string]any `json:"schema,omitempty"`
	Strict      bool           `json:"strict"`
}

type chatCompletion struct {
	ID      string                 `json:"id"`
	Choices []chatCompletionChoice `json:"choices"`
	Usage   *completionUsage       `json:"usage,omitempty"`
}

type chatCompletionChoice struct {
	Index        int                   `json:"index"`
	Message      chatCompletionMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

type completionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

func rawArgs(arguments string) json.RawMessage {
	if arguments == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(arguments)
}
