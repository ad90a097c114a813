// Package openai implements llm.LanguageModel over the OpenAI chat
// completions API and compatible servers.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hoangvvo/guide-agent/llm"
	"github.com/hoangvvo/guide-agent/llm/internal/clientutils"
	"github.com/hoangvvo/guide-agent/llm/internal/tracing"
)

const (
	Provider       = "openai"
	DefaultBaseURL = "https://api.openai.com/v1"
)

// ChatModel implements the LanguageModel interface for OpenAI
type ChatModel struct {
	modelID string
	apiKey  string
	baseURL string
	client  *http.Client
}

type ChatModelOptions struct {
	BaseURL string
	APIKey  string
	// Client defaults to a new http.Client.
	Client *http.Client
}

// NewChatModel creates a new OpenAI chat model instance
func NewChatModel(modelID string, options ChatModelOptions) *ChatModel {
	baseURL := strings.TrimRight(options.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := options.Client
	if client == nil {
		client = &http.Client{}
	}

	return &ChatModel{
		modelID: modelID,
		apiKey:  options.APIKey,
		baseURL: baseURL,
		client:  client,
	}
}

func (m *ChatModel) Provider() string {
	return Provider
}

func (m *ChatModel) ModelID() string {
	return m.modelID
}

// Generate implements synchronous generation
func (m *ChatModel) Generate(ctx context.Context, input *llm.LanguageModelInput) (*llm.ModelResponse, error) {
	return tracing.TraceGenerate(ctx, Provider, m.modelID, input, func(ctx context.Context) (*llm.ModelResponse, error) {
		params, err := convertToCreateParams(input, m.modelID)
		if err != nil {
			return nil, err
		}

		headers := map[string]string{}
		if m.apiKey != "" {
			headers["Authorization"] = fmt.Sprintf("Bearer %s", m.apiKey)
		}

		completion, err := clientutils.DoJSON[chatCompletion](ctx, m.client, clientutils.JSONRequestConfig{
			URL:     fmt.Sprintf("%s/chat/completions", m.baseURL),
			Body:    params,
			Headers: headers,
		})
		if err != nil {
			return nil, err
		}

		if len(completion.Choices) == 0 {
			return nil, llm.NewInvariantError(Provider, "no choices in response")
		}

		choice := completion.Choices[0]
		if choice.Message.Refusal != nil && *choice.Message.Refusal != "" {
			return nil, llm.NewRefusalError(*choice.Message.Refusal)
		}

		var usage *llm.ModelUsage
		if completion.Usage != nil {
			usage = &llm.ModelUsage{
				InputTokens:  completion.Usage.PromptTokens,
				OutputTokens: completion.Usage.CompletionTokens,
			}
		}

		return &llm.ModelResponse{
			Content: mapMessage(choice.Message),
			Usage:   usage,
		}, nil
	})
}

// MARK: - To Provider

func convertToCreateParams(input *llm.LanguageModelInput, modelID string) (*chatCompletionCreateParams, error) {
	if input == nil {
		return nil, llm.NewInvalidInputError("input is required")
	}

	messages, err := convertToMessages(input.Messages, input.SystemPrompt)
	if err != nil {
		return nil, err
	}

	params := &chatCompletionCreateParams{
		Model:               modelID,
		Messages:            messages,
		MaxCompletionTokens: input.MaxTokens,
		Temperature:         input.Temperature,
		TopP:                input.TopP,
		Seed:                input.Seed,
		Metadata:            input.Metadata,
	}

	for _, tool := range input.Tools {
		params.Tools = append(params.Tools, chatCompletionTool{
			Type: "function",
			Function: functionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
				Strict:      true,
			},
		})
	}

	if input.ResponseFormat != nil {
		params.ResponseFormat = convertToResponseFormat(*input.ResponseFormat)
	}

	return params, nil
}

func convertToMessages(messages []llm.Message, systemPrompt *string) ([]chatCompletionMessage, error) {
	var out []chatCompletionMessage

	if systemPrompt != nil && *systemPrompt != "" {
		out = append(out, chatCompletionMessage{Role: "system", Content: systemPrompt})
	}

	for _, message := range messages {
		switch {
		case message.UserMessage != nil:
			text := llm.Text(message.UserMessage.Content)
			out = append(out, chatCompletionMessage{Role: "user", Content: &text})

		case message.AssistantMessage != nil:
			msg := chatCompletionMessage{Role: "assistant"}
			if text := llm.Text(message.AssistantMessage.Content); text != "" {
				msg.Content = &text
			}
			for _, part := range message.AssistantMessage.Content {
				if part.ToolCallPart == nil {
					continue
				}
				args := string(part.ToolCallPart.Args)
				if args == "" {
					args = "{}"
				}
				msg.ToolCalls = append(msg.ToolCalls, chatCompletionToolCall{
					ID:   part.ToolCallPart.ToolCallID,
					Type: "function",
					Function: chatCompletionFunctionCall{
						Name:      part.ToolCallPart.ToolName,
						Arguments: args,
					},
				})
			}
			out = append(out, msg)

		case message.ToolMessage != nil:
			for _, part := range message.ToolMessage.Content {
				if part.ToolResultPart == nil {
					return nil, llm.NewInvalidInputError("tool message must only contain tool result parts")
				}
				text := llm.Text(part.ToolResultPart.Content)
				out = append(out, chatCompletionMessage{
					Role:       "tool",
					ToolCallID: part.ToolResultPart.ToolCallID,
					Content:    &text,
				})
			}

		default:
			return nil, llm.NewInvalidInputError("message has no content")
		}
	}

	return out, nil
}

func convertToResponseFormat(format llm.ResponseFormatOption) *responseFormat {
	if format.JSON != nil {
		if format.JSON.Schema != nil {
			return &responseFormat{
				Type: "json_schema",
				JSONSchema: &responseFormatJSONSchema{
					Name:        format.JSON.Name,
					Description: format.JSON.Description,
					Schema:      *format.JSON.Schema,
					Strict:      true,
				},
			}
		}
		return &responseFormat{Type: "json_object"}
	}
	if format.Text != nil {
		return &responseFormat{Type: "text"}
	}
	return nil
}

// MARK: - From Provider

func mapMessage(message chatCompletionMessage) []llm.Part {
	var parts []llm.Part

	if message.Content != nil && *message.Content != "" {
		parts = append(parts, llm.NewTextPart(*message.Content))
	}

	for _, toolCall := range message.ToolCalls {
		parts = append(parts, llm.NewToolCallPart(
			toolCall.ID,
			toolCall.Function.Name,
			rawArgs(toolCall.Function.Arguments),
		))
	}

	return parts
}

var _ llm.LanguageModel = (*ChatModel)(nil)
