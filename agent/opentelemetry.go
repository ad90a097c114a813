package agent

import (
	"context"

	"github.com/hoangvvo/guide-agent/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Resolved at first use so callers can install a tracer provider first.
var tracer = otel.Tracer("github.com/hoangvvo/guide-agent/agent")

// traceRun wraps a run in a guide_agent.run span carrying the agent name and
// summed token usage.
func traceRun(ctx context.Context, agentName string, fn func(context.Context) (*AgentResponse, error)) (*AgentResponse, error) {
	spanCtx, span := tracer.Start(ctx, "guide_agent.run")
	defer span.End()

	span.SetAttributes(
		attribute.String("gen_ai.operation.name", "invoke_agent"),
		attribute.String("gen_ai.agent.name", agentName),
	)

	response, err := fn(spanCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var usage llm.ModelUsage
	for _, item := range response.Output {
		if item.Model != nil {
			usage.Add(item.Model.Usage)
		}
	}
	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", int64(usage.InputTokens)),
		attribute.Int64("gen_ai.usage.output_tokens", int64(usage.OutputTokens)),
	)

	return response, nil
}

// startActiveToolSpan creates a span for tool execution
func startActiveToolSpan(
	ctx context.Context,
	toolCallID string,
	toolName string,
	toolDescription string,
	fn func(context.Context) (AgentToolResult, error),
) (AgentToolResult, error) {
	spanCtx, span := tracer.Start(ctx, "guide_agent.tool")
	defer func() {
		span.SetAttributes(
			attribute.String("gen_ai.operation.name", "execute_tool"),
			attribute.String("gen_ai.tool.call.id", toolCallID),
			attribute.String("gen_ai.tool.description", toolDescription),
			attribute.String("gen_ai.tool.name", toolName),
			attribute.String("gen_ai.tool.type", "function"),
		)
		span.End()
	}()

	res, err := fn(spanCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AgentToolResult{}, err
	}

	if res.IsError {
		span.SetAttributes(attribute.Bool("guide_agent.tool.is_error", true))
	}
	return res, nil
}
