// Package docsagent assembles the documentation guide agent: its
// instructions and the tools that expose the guide dispatcher to the model.
package docsagent

import (
	"context"
	"fmt"

	"github.com/hoangvvo/guide-agent/agent"
	"github.com/hoangvvo/guide-agent/guide"
	"github.com/hoangvvo/guide-agent/llm"
	"github.com/hoangvvo/guide-agent/workflow"
)

const AgentID = "guideAgent"

const AgentName = "Guide Agent"

const baseInstructions = `You are a documentation guide for developers building A2A agents.
Always call get_guide with the developer's question before answering, and base your answer on the guide it returns.
When the developer wants an end-to-end walkthrough from framework setup to Agentverse integration, call run_guide_workflow instead.
Answer in markdown. Keep code blocks and resource links from the guide intact. Do not invent commands or URLs.`

var instructions = []agent.InstructionParam[*SessionContext]{
	agent.InstructionString[*SessionContext](baseInstructions),
	agent.InstructionFunc(func(_ context.Context, sc *SessionContext) (string, error) {
		if sc == nil || sc.Language == "" {
			return "The developer has not said which programming language they use.", nil
		}
		return fmt.Sprintf("The developer prefers %s. Pass it as the language argument of get_guide.", sc.Language), nil
	}),
}

type Options struct {
	Dispatcher  *guide.Dispatcher
	MaxTurns    uint
	Temperature *float64
	TopP        *float64
	// MaxTokens caps each model call. Zero leaves it to the provider.
	MaxTokens int64
}

// Tools returns the guide tools bound to d. A nil dispatcher uses the
// embedded content table.
func Tools(d *guide.Dispatcher) []agent.AgentTool[*SessionContext] {
	d = dispatcher(d)
	return []agent.AgentTool[*SessionContext]{
		&GetGuideTool{Dispatcher: d},
		&RunGuideWorkflowTool{Workflow: workflow.NewGuideWorkflow(d)},
	}
}

// NewAgent creates the guide agent over model.
func NewAgent(model llm.LanguageModel, opts Options) *agent.Agent[*SessionContext] {
	options := []agent.AgentParamsOption[*SessionContext]{
		agent.WithInstructions(instructions...),
		agent.WithTools(Tools(opts.Dispatcher)...),
	}
	if opts.MaxTurns > 0 {
		options = append(options, agent.WithMaxTurns[*SessionContext](opts.MaxTurns))
	}
	if opts.Temperature != nil {
		options = append(options, agent.WithTemperature[*SessionContext](*opts.Temperature))
	}
	if opts.TopP != nil {
		options = append(options, agent.WithTopP[*SessionContext](*opts.TopP))
	}
	if opts.MaxTokens > 0 {
		options = append(options, agent.WithMaxTokens[*SessionContext](opts.MaxTokens))
	}
	return agent.NewAgent(AgentName, model, options...)
}
