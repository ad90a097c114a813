// Package agent runs a language model in a tool-calling loop until it
// produces a final answer.
package agent

import (
	"context"

	"github.com/hoangvvo/guide-agent/llm"
)

type Agent[C any] struct {
	Name   string
	params *AgentParams[C]
}

// NewAgent creates a new agent with given name, language model, and options.
//
// Defaults:
// - instructions: empty
// - tools: empty
// - responseFormat: llm.NewResponseFormatText()
// - maxTurns: 10
func NewAgent[C any](name string, model llm.LanguageModel, options ...AgentParamsOption[C]) *Agent[C] {
	params := &AgentParams[C]{
		Name:           name,
		Model:          model,
		Instructions:   []InstructionParam[C]{},
		Tools:          []AgentTool[C]{},
		ResponseFormat: llm.NewResponseFormatText(),
		MaxTurns:       10,
	}

	for _, option := range options {
		option(params)
	}

	return &Agent[C]{Name: name, params: params}
}

// Run creates a one-time run of the agent and generates a response.
// A session is created for the run and cleaned up afterwards.
func (a *Agent[C]) Run(ctx context.Context, request AgentRequest[C]) (*AgentResponse, error) {
	session, err := a.CreateSession(ctx, request.Context)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	return session.Run(ctx, RunSessionRequest{Input: request.Input})
}

// CreateSession binds contextVal and resolves instructions for one or more runs.
func (a *Agent[C]) CreateSession(ctx context.Context, contextVal C) (*RunSession[C], error) {
	return NewRunSession(ctx, a.params, contextVal)
}

// Tools returns the static tools the agent was created with.
func (a *Agent[C]) Tools() []AgentTool[C] {
	return append([]AgentTool[C](nil), a.params.Tools...)
}

// Model returns the language model used by the agent.
func (a *Agent[C]) Model() llm.LanguageModel {
	return a.params.Model
}
