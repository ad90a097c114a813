package docsagent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hoangvvo/guide-agent/agent"
	"github.com/hoangvvo/guide-agent/guide"
	"github.com/hoangvvo/guide-agent/llm"
	"github.com/hoangvvo/guide-agent/workflow"
)

type GetGuideParams struct {
	Query    string `json:"query"`
	Language string `json:"language"`
}

// GetGuideTool looks up the canned guide for a developer question.
type GetGuideTool struct {
	Dispatcher *guide.Dispatcher
}

func (t *GetGuideTool) Name() string {
	return "get_guide"
}

func (t *GetGuideTool) Description() string {
	return "Look up the documentation guide for a developer question about A2A agents, Mastra, Python, other languages, workflows or Agentverse integration"
}

func (t *GetGuideTool) Parameters() llm.JSONSchema {
	return llm.JSONSchema{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The developer's question, verbatim",
			},
			"language": map[string]any{
				"type":        "string",
				"description": "Programming language the developer uses, or an empty string if unknown",
			},
		},
		"required":             []string{"query", "language"},
		"additionalProperties": false,
	}
}

func (t *GetGuideTool) Execute(_ context.Context, paramsJSON json.RawMessage, sc *SessionContext, _ *agent.RunState) (agent.AgentToolResult, error) {
	var params GetGuideParams
	if err := json.Unmarshal(paramsJSON, &params); err != nil {
		return agent.NewTextToolResult(fmt.Sprintf("invalid parameters: %v", err), true), nil
	}

	language := strings.TrimSpace(params.Language)
	if language == "" && sc != nil {
		language = sc.Language
	}

	g := dispatcher(t.Dispatcher).Dispatch(guide.Query{Text: params.Query, Language: language})
	return jsonResult(g)
}

type RunGuideWorkflowParams struct {
	Query string `json:"query"`
}

// RunGuideWorkflowTool returns the framework setup guide and the integration
// guide for the same question.
type RunGuideWorkflowTool struct {
	Workflow *workflow.Workflow
}

func (t *RunGuideWorkflowTool) Name() string {
	return "run_guide_workflow"
}

func (t *RunGuideWorkflowTool) Description() string {
	return "Get both the Mastra setup guide and the Agentverse integration guide for an end-to-end walkthrough"
}

func (t *RunGuideWorkflowTool) Parameters() llm.JSONSchema {
	return llm.JSONSchema{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The developer's question, verbatim",
			},
		},
		"required":             []string{"query"},
		"additionalProperties": false,
	}
}

func (t *RunGuideWorkflowTool) Execute(ctx context.Context, paramsJSON json.RawMessage, _ *SessionContext, _ *agent.RunState) (agent.AgentToolResult, error) {
	var params RunGuideWorkflowParams
	if err := json.Unmarshal(paramsJSON, &params); err != nil {
		return agent.NewTextToolResult(fmt.Sprintf("invalid parameters: %v", err), true), nil
	}

	w := t.Workflow
	if w == nil {
		w = workflow.NewGuideWorkflow(nil)
	}
	out, err := w.Run(ctx, workflow.Input{Query: params.Query})
	if err != nil {
		return agent.AgentToolResult{}, err
	}
	return jsonResult(out)
}

func jsonResult(v any) (agent.AgentToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return agent.AgentToolResult{}, err
	}
	return agent.NewTextToolResult(string(data), false), nil
}

func dispatcher(d *guide.Dispatcher) *guide.Dispatcher {
	if d == nil {
		return guide.Default()
	}
	return d
}
