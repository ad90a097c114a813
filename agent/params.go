package agent

import "github.com/hoangvvo/guide-agent/llm"

// Parameters required to create a new agent.
type AgentParams[C any] struct {
	Name string
	// The language model to use for the agent.
	Model llm.LanguageModel
	// Instructions to be added to system messages when executing the agent.
	Instructions []InstructionParam[C]
	// The tools that the agent can use to perform tasks.
	Tools []AgentTool[C]
	// The expected format of the response. Either text or structured output.
	ResponseFormat *llm.ResponseFormatOption
	// Max number of turns for agent to run to protect against infinite loops.
	MaxTurns uint
	// Amount of randomness injected into the response.
	Temperature *float64
	// Nucleus sampling probability mass.
	TopP *float64
	// Upper bound on generated tokens per model call.
	MaxTokens *int64
}

type AgentParamsOption[C any] func(*AgentParams[C])

// WithInstructions sets the instructions to be added to system messages when executing the agent.
func WithInstructions[C any](instructions ...InstructionParam[C]) AgentParamsOption[C] {
	return func(p *AgentParams[C]) {
		p.Instructions = instructions
	}
}

// WithTools sets the tools that the agent can use to perform tasks.
func WithTools[C any](tools ...AgentTool[C]) AgentParamsOption[C] {
	return func(p *AgentParams[C]) {
		p.Tools = tools
	}
}

// WithMaxTurns sets the max number of turns for agent to run to protect against infinite loops.
func WithMaxTurns[C any](maxTurns uint) AgentParamsOption[C] {
	return func(p *AgentParams[C]) {
		p.MaxTurns = maxTurns
	}
}

// WithTemperature sets the sampling temperature for the model.
func WithTemperature[C any](temperature float64) AgentParamsOption[C] {
	return func(p *AgentParams[C]) {
		p.Temperature = &temperature
	}
}

// WithTopP sets nucleus sampling for the model.
func WithTopP[C any](topP float64) AgentParamsOption[C] {
	return func(p *AgentParams[C]) {
		p.TopP = &topP
	}
}

// WithMaxTokens caps the tokens generated per model call.
func WithMaxTokens[C any](maxTokens int64) AgentParamsOption[C] {
	return func(p *AgentParams[C]) {
		p.MaxTokens = &maxTokens
	}
}
