package docsagent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hoangvvo/guide-agent/agent"
	"github.com/hoangvvo/guide-agent/llm"
	"github.com/hoangvvo/guide-agent/memory"
)

// ErrInvalidRequest marks requests rejected before the agent runs.
var ErrInvalidRequest = errors.New("invalid request")

// DefaultResourceID owns threads created without an explicit resource.
const DefaultResourceID = "guide-agent"

type GenerateRequest struct {
	Text     string
	Language string
	// ThreadID continues a stored conversation. The thread is created on first
	// use. Empty runs the turn without history.
	ThreadID   string
	ResourceID string
}

type GenerateResult struct {
	Text     string
	ThreadID string
	Usage    llm.ModelUsage
	Response *agent.AgentResponse
}

// Runner runs single user turns of the guide agent, replaying and saving
// thread history through an optional memory store.
type Runner struct {
	Agent *agent.Agent[*SessionContext]
	Store *memory.Store
	// HistorySize caps the messages replayed from the thread. Zero replays all.
	HistorySize int
}

func (r *Runner) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}

	var history []llm.Message
	if req.ThreadID != "" && r.Store != nil {
		resourceID := req.ResourceID
		if resourceID == "" {
			resourceID = DefaultResourceID
		}
		if _, err := r.Store.EnsureThread(ctx, req.ThreadID, resourceID); err != nil {
			return nil, fmt.Errorf("open thread: %w", err)
		}
		msgs, err := r.Store.ListMessages(ctx, req.ThreadID, r.HistorySize)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		history = msgs
	}

	userMessage := llm.NewUserMessage(llm.NewTextPart(req.Text))
	input := make([]agent.AgentItem, 0, len(history)+1)
	for _, msg := range history {
		input = append(input, agent.NewAgentItemMessage(msg))
	}
	input = append(input, agent.NewAgentItemMessage(userMessage))

	resp, err := r.Agent.Run(ctx, agent.AgentRequest[*SessionContext]{
		Context: &SessionContext{Language: req.Language, ThreadID: req.ThreadID},
		Input:   input,
	})
	if err != nil {
		return nil, err
	}

	if req.ThreadID != "" && r.Store != nil {
		toSave := append([]llm.Message{userMessage}, resp.Messages()...)
		if err := r.Store.AppendMessages(ctx, req.ThreadID, toSave...); err != nil {
			return nil, fmt.Errorf("save history: %w", err)
		}
	}

	return &GenerateResult{
		Text:     resp.Text(),
		ThreadID: req.ThreadID,
		Usage:    resp.Usage(),
		Response: resp,
	}, nil
}
