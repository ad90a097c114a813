// Package llm defines a provider-neutral model of language model requests,
// responses and tool calls used by the guide agent.
package llm

import "context"

type LanguageModel interface {
	Provider() string
	ModelID() string
	Generate(ctx context.Context, input *LanguageModelInput) (*ModelResponse, error)
}
