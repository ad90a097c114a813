package agent

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/hoangvvo/guide-agent/llm"
)

// RunSession manages the run session for an agent.
// It resolves the instructions once and binds a context value that is used
// when invoking tools, while input items remain per run and are supplied to
// each invocation.
type RunSession[C any] struct {
	params       *AgentParams[C] // params stores the agent configuration used during the run.
	contextVal   C               // contextVal is the bound context value used for instructions and tool executions.
	systemPrompt *string         // systemPrompt caches the resolved instructions.
	tools        []AgentTool[C]  // tools holds the tools provided in the agent params.
	initialized  bool            // initialized ensures the session is ready before running.
}

// NewRunSession creates a new run session and resolves instructions.
func NewRunSession[C any](
	ctx context.Context,
	params *AgentParams[C],
	contextVal C,
) (*RunSession[C], error) {
	session := &RunSession[C]{
		params:     params,
		contextVal: contextVal,
		tools:      append([]AgentTool[C]{}, params.Tools...),
	}

	if len(params.Instructions) > 0 {
		prompt, err := getPrompt(ctx, params.Instructions, contextVal)
		if err != nil {
			return nil, NewInitError(err)
		}
		session.systemPrompt = &prompt
	}

	session.initialized = true
	return session, nil
}

// processResult is the outcome of inspecting the tail of the run state.
// Exactly one of response or next is set; items holds tool results produced
// along the way.
type processResult struct {
	items    []AgentItem
	response []llm.Part
	next     bool
}

// process flow:
//
//  1. Peek latest run item to locate assistant content.
//     1a. Tail is user message: ask for the next model turn.
//     1b. Tail is tool result: collect processed ids and backtrack to the
//     assistant content that requested them.
//     1c. Tail is model response: use its content.
//  2. Scan the content for tool calls.
//     2a. Unprocessed tool calls: execute them, then ask for the next turn.
//     2b. No tool calls: the content is the final response.
func (s *RunSession[C]) process(ctx context.Context, runState *RunState) (processResult, error) {
	allItems := runState.Items()
	if len(allItems) == 0 {
		return processResult{}, NewInvariantError("no items in the run state")
	}

	lastItem := allItems[len(allItems)-1]

	var content []llm.Part
	processedToolCallIDs := make(map[string]struct{})

	switch {
	case lastItem.Model != nil:
		content = lastItem.Model.Content
	case lastItem.Message != nil:
		switch {
		case lastItem.Message.AssistantMessage != nil:
			content = lastItem.Message.AssistantMessage.Content
		case lastItem.Message.UserMessage != nil:
			return processResult{next: true}, nil
		case lastItem.Message.ToolMessage != nil:
			for _, part := range lastItem.Message.ToolMessage.Content {
				if part.ToolResultPart != nil {
					processedToolCallIDs[part.ToolResultPart.ToolCallID] = struct{}{}
				}
			}
			if len(allItems) < 2 {
				return processResult{}, NewInvariantError("no preceding assistant content found before tool results")
			}
			previousItem := allItems[len(allItems)-2]
			switch {
			case previousItem.Model != nil:
				content = previousItem.Model.Content
			case previousItem.Message != nil && previousItem.Message.AssistantMessage != nil:
				content = previousItem.Message.AssistantMessage.Content
			default:
				return processResult{}, NewInvariantError("expected a model item or assistant message before tool results")
			}
		default:
			return processResult{}, NewInvariantError("unsupported message role in run state")
		}
	case lastItem.Tool != nil:
		// Tool results are individual items, so walk back past all of them
		// to the model response that requested them.
	loop:
		for i := len(allItems) - 1; i >= 0; i-- {
			item := allItems[i]
			switch {
			case item.Tool != nil:
				processedToolCallIDs[item.Tool.ToolCallID] = struct{}{}
			case item.Model != nil:
				content = item.Model.Content
				break loop
			case item.Message != nil && item.Message.AssistantMessage != nil:
				content = item.Message.AssistantMessage.Content
				break loop
			default:
				return processResult{}, NewInvariantError("expected a model item or assistant message before tool results")
			}
		}
		if content == nil {
			return processResult{}, NewInvariantError("no model or assistant message found before tool results")
		}
	default:
		return processResult{}, NewInvariantError("unsupported item type in run state")
	}

	if len(content) == 0 {
		return processResult{}, NewInvariantError("no assistant content found to process")
	}

	var toolCallParts []*llm.ToolCallPart
	for _, part := range content {
		if part.ToolCallPart != nil {
			toolCallParts = append(toolCallParts, part.ToolCallPart)
		}
	}

	if len(toolCallParts) == 0 {
		return processResult{response: content}, nil
	}

	result := processResult{next: true}
	for _, toolCallPart := range toolCallParts {
		if _, exists := processedToolCallIDs[toolCallPart.ToolCallID]; exists {
			continue
		}

		agentTool := s.findTool(toolCallPart.ToolName)
		if agentTool == nil {
			return processResult{}, NewInvariantError(fmt.Sprintf("tool %s not found for tool call", toolCallPart.ToolName))
		}

		toolRes, err := startActiveToolSpan(
			ctx,
			toolCallPart.ToolCallID,
			toolCallPart.ToolName,
			agentTool.Description(),
			func(ctx context.Context) (AgentToolResult, error) {
				res, err := agentTool.Execute(ctx, toolCallPart.Args, s.contextVal, runState)
				if err != nil {
					return AgentToolResult{}, NewToolExecutionError(err)
				}
				return res, nil
			},
		)
		if err != nil {
			return processResult{}, err
		}

		result.items = append(result.items, NewAgentItemTool(
			toolCallPart.ToolCallID,
			toolCallPart.ToolName,
			toolCallPart.Args,
			toolRes.Content,
			toolRes.IsError,
		))
	}

	return result, nil
}

// Run runs a non-streaming execution of the agent.
func (s *RunSession[C]) Run(ctx context.Context, request RunSessionRequest) (*AgentResponse, error) {
	if !s.initialized {
		return nil, NewInvariantError("run session not initialized")
	}

	return traceRun(ctx, s.params.Name, func(ctx context.Context) (*AgentResponse, error) {
		state := NewRunState(request.Input, s.params.MaxTurns)

		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			result, err := s.process(ctx, state)
			if err != nil {
				return nil, err
			}
			for _, item := range result.items {
				state.appendItem(item)
			}
			if result.response != nil {
				return state.createResponse(result.response), nil
			}

			if err := state.turn(); err != nil {
				return nil, err
			}

			modelResponse, err := s.params.Model.Generate(ctx, s.getTurnParams(state))
			if err != nil {
				return nil, NewLanguageModelError(err)
			}

			state.appendModelResponse(*modelResponse)
		}
	})
}

// Close releases the resolved session state. Closing twice is a no-op.
func (s *RunSession[C]) Close() {
	s.systemPrompt = nil
	s.tools = nil
	s.initialized = false
}

func (s *RunSession[C]) findTool(name string) AgentTool[C] {
	for _, tool := range s.tools {
		if tool.Name() == name {
			return tool
		}
	}
	return nil
}

func (s *RunSession[C]) getTurnParams(state *RunState) *llm.LanguageModelInput {
	input := &llm.LanguageModelInput{
		Messages:       state.getTurnMessages(),
		SystemPrompt:   s.systemPrompt,
		ResponseFormat: s.params.ResponseFormat,
		Temperature:    s.params.Temperature,
		TopP:           s.params.TopP,
		MaxTokens:      s.params.MaxTokens,
	}

	if len(s.tools) > 0 {
		tools := make([]llm.Tool, 0, len(s.tools))
		for _, tool := range s.tools {
			tools = append(tools, llm.Tool{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Parameters(),
			})
		}
		input.Tools = tools
	}

	return input
}

// RunSessionRequest contains the input used for a run.
type RunSessionRequest struct {
	// Input holds the items to seed the run, such as LLM messages.
	Input []AgentItem
}

type RunState struct {
	maxTurns uint
	input    []AgentItem

	// CurrentTurn is the current turn number in the run.
	CurrentTurn uint
	// output contains all items generated during the run
	output []AgentItem

	mu sync.RWMutex
}

func NewRunState(input []AgentItem, maxTurns uint) *RunState {
	return &RunState{
		maxTurns:    maxTurns,
		input:       input,
		CurrentTurn: 0,
		output:      []AgentItem{},
	}
}

// turn marks a new turn in the conversation and returns an error if max
// turns is exceeded.
func (s *RunState) turn() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CurrentTurn++
	if s.CurrentTurn > s.maxTurns {
		return NewMaxTurnsExceededError(int(s.maxTurns))
	}
	return nil
}

func (s *RunState) appendItem(item AgentItem) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = append(s.output, item)
	return len(s.output) - 1
}

func (s *RunState) appendModelResponse(resp llm.ModelResponse) (AgentItem, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := NewAgentItemModelResponse(resp)
	s.output = append(s.output, item)
	return item, len(s.output) - 1
}

// Items returns the input followed by everything generated so far.
func (s *RunState) Items() []AgentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Concat(s.input, s.output)
}

// getTurnMessages gets LLM messages to use in the LanguageModelInput for the turn
func (s *RunState) getTurnMessages() []llm.Message {
	return itemsToMessages(s.Items())
}

func (s *RunState) createResponse(finalContent []llm.Part) *AgentResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &AgentResponse{
		Content: finalContent,
		Output:  slices.Clone(s.output),
	}
}
