package agent

import (
	"encoding/json"
	"slices"

	"github.com/hoangvvo/guide-agent/llm"
)

// AgentItem is one entry in a run's history: an LLM message, a model
// response, or a tool invocation.
type AgentItem struct {
	Message *llm.Message       `json:"message,omitempty"`
	Model   *llm.ModelResponse `json:"model,omitempty"`
	Tool    *AgentItemTool     `json:"tool,omitempty"`
}

// AgentItemTool records a tool call and the output it produced.
type AgentItemTool struct {
	ToolCallID string          `json:"tool_call_id"`
	ToolName   string          `json:"tool_name"`
	Input      json.RawMessage `json:"input"`
	Output     []llm.Part      `json:"output"`
	IsError    bool            `json:"is_error"`
}

// AgentRequest is the input of a one-off agent run.
type AgentRequest[C any] struct {
	// Context is passed to instructions and tools.
	Context C
	Input   []AgentItem
}

// AgentResponse is the result of a run.
type AgentResponse struct {
	// Content is the final assistant content.
	Content []llm.Part `json:"content"`
	// Output lists the items generated during the run, in order.
	Output []AgentItem `json:"output"`
}

// Text returns the text parts of the final content.
func (r *AgentResponse) Text() string {
	return llm.Text(r.Content)
}

// Usage sums the usage reported by every model response in the run.
func (r *AgentResponse) Usage() llm.ModelUsage {
	var usage llm.ModelUsage
	for _, item := range r.Output {
		if item.Model != nil {
			usage.Add(item.Model.Usage)
		}
	}
	return usage
}

// Messages converts the generated items into LLM messages, which is the
// shape memory stores persist.
func (r *AgentResponse) Messages() []llm.Message {
	return itemsToMessages(r.Output)
}

func NewAgentItemMessage(message llm.Message) AgentItem {
	return AgentItem{Message: &message}
}

func NewAgentItemModelResponse(response llm.ModelResponse) AgentItem {
	return AgentItem{Model: &response}
}

func NewAgentItemTool(toolCallID, toolName string, input json.RawMessage, output []llm.Part, isError bool) AgentItem {
	return AgentItem{Tool: &AgentItemTool{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Input:      input,
		Output:     output,
		IsError:    isError,
	}}
}

// itemsToMessages flattens items into messages. Consecutive tool items are
// folded into a single tool message.
func itemsToMessages(items []AgentItem) []llm.Message {
	messages := []llm.Message{}

	for _, it := range items {
		if msg := it.Message; msg != nil {
			messages = append(messages, *msg)
		}
		if modelResponse := it.Model; modelResponse != nil {
			messages = append(messages, llm.NewAssistantMessage(modelResponse.Content...))
		}
		if tool := it.Tool; tool != nil {
			toolResultPart := llm.NewToolResultPart(
				tool.ToolCallID,
				tool.ToolName,
				tool.Output,
				tool.IsError,
			)

			if len(messages) == 0 || messages[len(messages)-1].ToolMessage == nil {
				messages = append(messages, llm.NewToolMessage(toolResultPart))
			} else {
				last := messages[len(messages)-1].ToolMessage
				content := append(slices.Clone(last.Content), toolResultPart)
				messages[len(messages)-1] = llm.NewToolMessage(content...)
			}
		}
	}

	return messages
}
