package agent_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hoangvvo/guide-agent/agent"
	"github.com/hoangvvo/guide-agent/llm"
	"github.com/hoangvvo/guide-agent/llm/llmtest"
)

type testContext struct {
	User string
}

// MockAgentTool implements agent.AgentTool for testing
type MockAgentTool[C any] struct {
	name        string
	executeFunc func(ctx context.Context, params json.RawMessage, contextVal C, runState *agent.RunState) (agent.AgentToolResult, error)
	LastArgs    json.RawMessage
	LastContext C
	AllCalls    []json.RawMessage
}

func NewMockTool[C any](name string, result agent.AgentToolResult, executeFunc func(ctx context.Context, params json.RawMessage, contextVal C, runState *agent.RunState) (agent.AgentToolResult, error)) *MockAgentTool[C] {
	if executeFunc == nil {
		executeFunc = func(context.Context, json.RawMessage, C, *agent.RunState) (agent.AgentToolResult, error) {
			return result, nil
		}
	}
	return &MockAgentTool[C]{name: name, executeFunc: executeFunc}
}

func (t *MockAgentTool[C]) Name() string        { return t.name }
func (t *MockAgentTool[C]) Description() string { return "Mock tool " + t.name }
func (t *MockAgentTool[C]) Parameters() llm.JSONSchema {
	return llm.JSONSchema{"type": "object", "properties": map[string]any{}}
}

func (t *MockAgentTool[C]) Execute(ctx context.Context, params json.RawMessage, contextVal C, runState *agent.RunState) (agent.AgentToolResult, error) {
	t.LastArgs = params
	t.LastContext = contextVal
	t.AllCalls = append(t.AllCalls, params)
	return t.executeFunc(ctx, params, contextVal, runState)
}

func userInput(text string) []agent.AgentItem {
	return []agent.AgentItem{agent.NewAgentItemMessage(llm.NewUserMessage(llm.NewTextPart(text)))}
}

func TestRun_ReturnsResponse_NoToolCall(t *testing.T) {
	model := llmtest.NewMockLanguageModel()
	model.EnqueueGenerateResult(llmtest.NewMockGenerateResultText("Hi!"))

	a := agent.NewAgent[testContext]("test_agent", model)
	response, err := a.Run(context.Background(), agent.AgentRequest[testContext]{
		Input: userInput("Hello!"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	expected := &agent.AgentResponse{
		Content: []llm.Part{llm.NewTextPart("Hi!")},
		Output: []agent.AgentItem{
			agent.NewAgentItemModelResponse(llm.ModelResponse{Content: []llm.Part{llm.NewTextPart("Hi!")}}),
		},
	}
	if diff := cmp.Diff(expected, response); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ExecutesSingleToolCallAndReturnsResponse(t *testing.T) {
	tool := NewMockTool[testContext]("test_tool", agent.NewTextToolResult("Tool result", false), nil)

	model := llmtest.NewMockLanguageModel()
	model.EnqueueGenerateResult(
		llmtest.NewMockGenerateResultResponse(llm.ModelResponse{
			Content: []llm.Part{llm.NewToolCallPart("call_1", "test_tool", json.RawMessage(`{"param":"value"}`))},
			Usage:   &llm.ModelUsage{InputTokens: 1000, OutputTokens: 50},
		}),
		llmtest.NewMockGenerateResultResponse(llm.ModelResponse{
			Content: []llm.Part{llm.NewTextPart("Final response")},
			Usage:   &llm.ModelUsage{InputTokens: 1100, OutputTokens: 20},
		}),
	)

	a := agent.NewAgent("test_agent", model, agent.WithTools[testContext](tool))
	response, err := a.Run(context.Background(), agent.AgentRequest[testContext]{
		Context: testContext{User: "ada"},
		Input:   userInput("Use the tool"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if string(tool.LastArgs) != `{"param":"value"}` {
		t.Errorf("unexpected tool args %s", tool.LastArgs)
	}
	if tool.LastContext.User != "ada" {
		t.Errorf("expected context to be passed to tool, got %+v", tool.LastContext)
	}

	expected := &agent.AgentResponse{
		Content: []llm.Part{llm.NewTextPart("Final response")},
		Output: []agent.AgentItem{
			agent.NewAgentItemModelResponse(llm.ModelResponse{
				Content: []llm.Part{llm.NewToolCallPart("call_1", "test_tool", json.RawMessage(`{"param":"value"}`))},
				Usage:   &llm.ModelUsage{InputTokens: 1000, OutputTokens: 50},
			}),
			agent.NewAgentItemTool("call_1", "test_tool", json.RawMessage(`{"param":"value"}`), []llm.Part{llm.NewTextPart("Tool result")}, false),
			agent.NewAgentItemModelResponse(llm.ModelResponse{
				Content: []llm.Part{llm.NewTextPart("Final response")},
				Usage:   &llm.ModelUsage{InputTokens: 1100, OutputTokens: 20},
			}),
		},
	}
	if diff := cmp.Diff(expected, response); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}

	if usage := response.Usage(); usage.InputTokens != 2100 || usage.OutputTokens != 70 {
		t.Errorf("unexpected summed usage %+v", usage)
	}

	inputs := model.TrackedGenerateInputs()
	if len(inputs) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(inputs))
	}
	second := inputs[1].Messages
	if len(second) != 3 || second[1].AssistantMessage == nil || second[2].ToolMessage == nil {
		t.Fatalf("expected user, assistant, tool messages in second turn, got %+v", second)
	}
	if len(inputs[0].Tools) != 1 || inputs[0].Tools[0].Name != "test_tool" {
		t.Errorf("expected tool definition in model input, got %+v", inputs[0].Tools)
	}
}

func TestRun_MultipleToolCallsInOneTurn(t *testing.T) {
	tool := NewMockTool[testContext]("lookup", agent.NewTextToolResult("ok", false), nil)

	model := llmtest.NewMockLanguageModel()
	model.EnqueueGenerateResult(
		llmtest.NewMockGenerateResultResponse(llm.ModelResponse{
			Content: []llm.Part{
				llm.NewToolCallPart("call_1", "lookup", json.RawMessage(`{"q":"a"}`)),
				llm.NewToolCallPart("call_2", "lookup", json.RawMessage(`{"q":"b"}`)),
			},
		}),
		llmtest.NewMockGenerateResultText("done"),
	)

	a := agent.NewAgent("test_agent", model, agent.WithTools[testContext](tool))
	response, err := a.Run(context.Background(), agent.AgentRequest[testContext]{Input: userInput("go")})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(tool.AllCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(tool.AllCalls))
	}
	if response.Text() != "done" {
		t.Errorf("unexpected text %q", response.Text())
	}

	second := model.TrackedGenerateInputs()[1].Messages
	last := second[len(second)-1]
	if last.ToolMessage == nil || len(last.ToolMessage.Content) != 2 {
		t.Errorf("expected both tool results folded into one tool message, got %+v", last)
	}
}

func TestRun_ToolErrorResultDoesNotInterrupt(t *testing.T) {
	tool := NewMockTool[testContext]("flaky", agent.NewTextToolResult("bad input", true), nil)

	model := llmtest.NewMockLanguageModel()
	model.EnqueueGenerateResult(
		llmtest.NewMockGenerateResultResponse(llm.ModelResponse{
			Content: []llm.Part{llm.NewToolCallPart("call_1", "flaky", json.RawMessage(`{}`))},
		}),
		llmtest.NewMockGenerateResultText("recovered"),
	)

	a := agent.NewAgent("test_agent", model, agent.WithTools[testContext](tool))
	response, err := a.Run(context.Background(), agent.AgentRequest[testContext]{Input: userInput("go")})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !response.Output[1].Tool.IsError {
		t.Error("expected tool item to be flagged as error")
	}
	if response.Text() != "recovered" {
		t.Errorf("unexpected text %q", response.Text())
	}
}

func TestRun_ToolExecutionError(t *testing.T) {
	toolErr := errors.New("boom")
	tool := NewMockTool("broken", agent.AgentToolResult{}, func(context.Context, json.RawMessage, testContext, *agent.RunState) (agent.AgentToolResult, error) {
		return agent.AgentToolResult{}, toolErr
	})

	model := llmtest.NewMockLanguageModel()
	model.EnqueueGenerateResult(llmtest.NewMockGenerateResultResponse(llm.ModelResponse{
		Content: []llm.Part{llm.NewToolCallPart("call_1", "broken", json.RawMessage(`{}`))},
	}))

	a := agent.NewAgent("test_agent", model, agent.WithTools[testContext](tool))
	_, err := a.Run(context.Background(), agent.AgentRequest[testContext]{Input: userInput("go")})

	var agentErr *agent.AgentError
	if !errors.As(err, &agentErr) || agentErr.Kind != agent.ToolExecutionErrorKind {
		t.Fatalf("expected tool execution error, got %v", err)
	}
	if !errors.Is(err, toolErr) {
		t.Error("expected the tool error to be wrapped")
	}
}

func TestRun_UnknownTool(t *testing.T) {
	model := llmtest.NewMockLanguageModel()
	model.EnqueueGenerateResult(llmtest.NewMockGenerateResultResponse(llm.ModelResponse{
		Content: []llm.Part{llm.NewToolCallPart("call_1", "missing", json.RawMessage(`{}`))},
	}))

	a := agent.NewAgent[testContext]("test_agent", model)
	_, err := a.Run(context.Background(), agent.AgentRequest[testContext]{Input: userInput("go")})

	var agentErr *agent.AgentError
	if !errors.As(err, &agentErr) || agentErr.Kind != agent.InvariantErrorKind {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestRun_LanguageModelError(t *testing.T) {
	modelErr := llm.NewStatusCodeError(500, "upstream")
	model := llmtest.NewMockLanguageModel()
	model.EnqueueGenerateResult(llmtest.NewMockGenerateResultError(modelErr))

	a := agent.NewAgent[testContext]("test_agent", model)
	_, err := a.Run(context.Background(), agent.AgentRequest[testContext]{Input: userInput("go")})

	var agentErr *agent.AgentError
	if !errors.As(err, &agentErr) || agentErr.Kind != agent.LanguageModelErrorKind {
		t.Fatalf("expected language model error, got %v", err)
	}
	var lmErr *llm.LanguageModelError
	if !errors.As(err, &lmErr) || lmErr.Status != 500 {
		t.Errorf("expected wrapped status error, got %v", err)
	}
}

func TestRun_MaxTurnsExceeded(t *testing.T) {
	tool := NewMockTool[testContext]("loop", agent.NewTextToolResult("again", false), nil)

	model := llmtest.NewMockLanguageModel()
	for i := range 3 {
		id := string(rune('a' + i))
		model.EnqueueGenerateResult(llmtest.NewMockGenerateResultResponse(llm.ModelResponse{
			Content: []llm.Part{llm.NewToolCallPart("call_"+id, "loop", json.RawMessage(`{}`))},
		}))
	}

	a := agent.NewAgent("test_agent", model,
		agent.WithTools[testContext](tool),
		agent.WithMaxTurns[testContext](2),
	)
	_, err := a.Run(context.Background(), agent.AgentRequest[testContext]{Input: userInput("go")})

	var agentErr *agent.AgentError
	if !errors.As(err, &agentErr) || agentErr.Kind != agent.AgentErrorKindMaxTurnsExceeded {
		t.Fatalf("expected max turns error, got %v", err)
	}
	if got := len(model.TrackedGenerateInputs()); got != 2 {
		t.Errorf("expected 2 model calls before giving up, got %d", got)
	}
}

func TestRun_Instructions(t *testing.T) {
	model := llmtest.NewMockLanguageModel()
	model.EnqueueGenerateResult(llmtest.NewMockGenerateResultText("ok"))

	a := agent.NewAgent("test_agent", model,
		agent.WithInstructions(
			agent.InstructionString[testContext]("You are helpful."),
			agent.InstructionFunc(func(_ context.Context, c testContext) (string, error) {
				return "The user is " + c.User + ".", nil
			}),
		),
		agent.WithTemperature[testContext](0.3),
	)
	_, err := a.Run(context.Background(), agent.AgentRequest[testContext]{
		Context: testContext{User: "ada"},
		Input:   userInput("hi"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	input := model.TrackedGenerateInputs()[0]
	if input.SystemPrompt == nil || *input.SystemPrompt != "You are helpful.\nThe user is ada." {
		t.Errorf("unexpected system prompt %v", input.SystemPrompt)
	}
	if input.Temperature == nil || *input.Temperature != 0.3 {
		t.Errorf("unexpected temperature %v", input.Temperature)
	}
}

func TestRun_InstructionErrorFailsInit(t *testing.T) {
	model := llmtest.NewMockLanguageModel()
	a := agent.NewAgent("test_agent", model,
		agent.WithInstructions(agent.InstructionFunc(func(context.Context, testContext) (string, error) {
			return "", errors.New("no profile")
		})),
	)
	_, err := a.Run(context.Background(), agent.AgentRequest[testContext]{Input: userInput("hi")})

	var agentErr *agent.AgentError
	if !errors.As(err, &agentErr) || agentErr.Kind != agent.InitErrorKind {
		t.Fatalf("expected init error, got %v", err)
	}
}

func TestRun_ResumesFromToolMessage(t *testing.T) {
	model := llmtest.NewMockLanguageModel()
	model.EnqueueGenerateResult(llmtest.NewMockGenerateResultText("resumed"))

	tool := NewMockTool[testContext]("lookup", agent.NewTextToolResult("unused", false), nil)
	a := agent.NewAgent("test_agent", model, agent.WithTools[testContext](tool))

	input := []agent.AgentItem{
		agent.NewAgentItemMessage(llm.NewUserMessage(llm.NewTextPart("go"))),
		agent.NewAgentItemMessage(llm.NewAssistantMessage(llm.NewToolCallPart("call_1", "lookup", json.RawMessage(`{}`)))),
		agent.NewAgentItemMessage(llm.NewToolMessage(llm.NewToolResultPart("call_1", "lookup", []llm.Part{llm.NewTextPart("cached")}, false))),
	}
	response, err := a.Run(context.Background(), agent.AgentRequest[testContext]{Input: input})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(tool.AllCalls) != 0 {
		t.Error("expected processed tool call not to be executed again")
	}
	if response.Text() != "resumed" {
		t.Errorf("unexpected text %q", response.Text())
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	model := llmtest.NewMockLanguageModel()
	a := agent.NewAgent[testContext]("test_agent", model)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Run(ctx, agent.AgentRequest[testContext]{Input: userInput("hi")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_SamplingParams(t *testing.T) {
	model := llmtest.NewMockLanguageModel()
	model.EnqueueGenerateResult(llmtest.NewMockGenerateResultText("ok"))

	a := agent.NewAgent("test_agent", model,
		agent.WithTopP[testContext](0.5),
		agent.WithMaxTokens[testContext](128),
	)
	if _, err := a.Run(context.Background(), agent.AgentRequest[testContext]{Input: userInput("hi")}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	input := model.TrackedGenerateInputs()[0]
	if input.TopP == nil || *input.TopP != 0.5 {
		t.Errorf("unexpected top_p %v", input.TopP)
	}
	if input.MaxTokens == nil || *input.MaxTokens != 128 {
		t.Errorf("unexpected max tokens %v", input.MaxTokens)
	}
}

func TestAgent_ToolsReturnsCopy(t *testing.T) {
	tool := NewMockTool[testContext]("lookup", agent.AgentToolResult{}, nil)
	a := agent.NewAgent("test_agent", llmtest.NewMockLanguageModel(), agent.WithTools[testContext](tool))

	tools := a.Tools()
	if len(tools) != 1 || tools[0].Name() != "lookup" {
		t.Fatalf("unexpected tools %v", tools)
	}
	tools[0] = nil
	if a.Tools()[0] == nil {
		t.Error("expected Tools to return a copy")
	}
}
