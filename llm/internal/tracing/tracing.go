package tracing

import (
	"context"

	"github.com/hoangvvo/guide-agent/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/hoangvvo/guide-agent/llm")

type lmSpan struct {
	provider    string
	modelID     string
	usage       *llm.ModelUsage
	maxTokens   *int64
	temperature *float64
	topP        *float64
	seed        *int64

	span trace.Span
}

// TraceGenerate wraps a provider generate call in an llm.generate span
// annotated with gen_ai semantic convention attributes.
func TraceGenerate(
	ctx context.Context,
	provider string,
	modelID string,
	input *llm.LanguageModelInput,
	fn func(context.Context) (*llm.ModelResponse, error),
) (*llm.ModelResponse, error) {
	ctx, span := newLMSpan(ctx, provider, modelID, input)
	defer span.OnEnd()

	response, err := fn(ctx)
	if err != nil {
		span.OnError(err)
		return nil, err
	}

	if response != nil {
		span.usage = response.Usage
	}

	return response, nil
}

func newLMSpan(ctx context.Context, provider, modelID string, input *llm.LanguageModelInput) (context.Context, *lmSpan) {
	spanCtx, otelSpan := tracer.Start(ctx, "llm.generate")

	s := &lmSpan{
		provider: provider,
		modelID:  modelID,
		span:     otelSpan,
	}
	if input != nil {
		s.maxTokens = input.MaxTokens
		s.temperature = input.Temperature
		s.topP = input.TopP
		s.seed = input.Seed
	}
	return spanCtx, s
}

func (s *lmSpan) OnError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *lmSpan) OnEnd() {
	s.span.SetAttributes(
		attribute.String("gen_ai.operation.name", "generate_content"),
		attribute.String("gen_ai.provider.name", s.provider),
		attribute.String("gen_ai.request.model", s.modelID),
	)

	if s.usage != nil {
		s.span.SetAttributes(
			attribute.Int("gen_ai.usage.input_tokens", s.usage.InputTokens),
			attribute.Int("gen_ai.usage.output_tokens", s.usage.OutputTokens),
		)
	}
	if s.maxTokens != nil {
		s.span.SetAttributes(attribute.Int64("gen_ai.request.max_tokens", *s.maxTokens))
	}
	if s.temperature != nil {
		s.span.SetAttributes(attribute.Float64("gen_ai.request.temperature", *s.temperature))
	}
	if s.topP != nil {
		s.span.SetAttributes(attribute.Float64("gen_ai.request.top_p", *s.topP))
	}
	if s.seed != nil {
		s.span.SetAttributes(attribute.Int64("gen_ai.request.seed", *s.seed))
	}

	s.span.End()
}
