package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hoangvvo/guide-agent/agent"
	"github.com/hoangvvo/guide-agent/docsagent"
	"github.com/hoangvvo/guide-agent/guide"
	"github.com/hoangvvo/guide-agent/internal/log"
	"github.com/hoangvvo/guide-agent/llm"
	"github.com/hoangvvo/guide-agent/memory"
	"github.com/hoangvvo/guide-agent/scorer"
	"github.com/hoangvvo/guide-agent/workflow"
)

const maxBodyBytes = 1 << 20

var (
	errNoModel      = errors.New("no language model is configured; set OPENAI_API_KEY")
	errUnknownAgent = errors.New("agent not found")
)

type errorBody struct {
	Error string `json:"error"`
}

type GenerateBody struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	ThreadID string `json:"threadId,omitempty"`
	// ResourceID groups threads, for example per user.
	ResourceID string `json:"resourceId,omitempty"`
}

type GenerateResponse struct {
	Text     string         `json:"text"`
	ThreadID string         `json:"threadId,omitempty"`
	Usage    llm.ModelUsage `json:"usage"`
}

type ScoresResponse struct {
	Scores []scorer.Score `json:"scores"`
}

type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  llm.JSONSchema `json:"parameters"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, docsagent.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, memory.ErrNotFound), errors.Is(err, errUnknownAgent):
		return http.StatusNotFound
	case errors.Is(err, errNoModel):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", docsagent.ErrInvalidRequest, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", docsagent.ErrInvalidRequest, err)
	}
	return nil
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, `Welcome to the %s server!
Ask for a guide: GET /api/guides?q=how+do+I+set+up+mastra
Agent card: GET /.well-known/agent.json
`, docsagent.AgentName)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.opts.Version,
		"model":   s.opts.Runner != nil,
		"memory":  s.opts.Store != nil,
	})
}

func (s *Server) handleGetGuide(w http.ResponseWriter, r *http.Request) {
	q := guide.Query{
		Text:     r.URL.Query().Get("q"),
		Language: r.URL.Query().Get("language"),
	}
	g := s.opts.Dispatcher.Dispatch(q)

	if strings.Contains(r.Header.Get("Accept"), "text/markdown") {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, g.Markdown())
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"routes": s.opts.Dispatcher.Routes()})
}

// handleListTools lists the tools of the running agent, or the guide tools it
// would have when no model is configured.
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	var tools []agent.AgentTool[*docsagent.SessionContext]
	if s.opts.Runner != nil {
		tools = s.opts.Runner.Agent.Tools()
	} else {
		tools = docsagent.Tools(s.opts.Dispatcher)
	}
	infos := make([]ToolInfo, 0, len(tools))
	for _, tool := range tools {
		infos = append(infos, ToolInfo{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("agentId") != docsagent.AgentID {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", errUnknownAgent, r.PathValue("agentId")))
		return
	}

	var body GenerateBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.generate(r, docsagent.GenerateRequest{
		Text:       body.Text,
		Language:   body.Language,
		ThreadID:   body.ThreadID,
		ResourceID: body.ResourceID,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		Text:     res.Text,
		ThreadID: res.ThreadID,
		Usage:    res.Usage,
	})
}

func (s *Server) generate(r *http.Request, req docsagent.GenerateRequest) (*docsagent.GenerateResult, error) {
	if s.opts.Runner == nil {
		return nil, errNoModel
	}
	res, err := s.opts.Runner.Generate(r.Context(), req)
	if err != nil {
		log.Error("agent run failed", "thread", req.ThreadID, "error", err)
		return nil, err
	}
	log.Debug("agent run finished",
		"thread", req.ThreadID,
		"input_tokens", res.Usage.InputTokens,
		"output_tokens", res.Usage.OutputTokens,
	)
	return res, nil
}

func (s *Server) handleRunWorkflow(w http.ResponseWriter, r *http.Request) {
	if id := r.PathValue("workflowId"); id != s.workflow.ID {
		writeError(w, http.StatusNotFound, fmt.Errorf("workflow not found: %s", id))
		return
	}

	var in workflow.Input
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	out, err := s.workflow.Run(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var in scorer.Input
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(in.Output) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: output is required", docsagent.ErrInvalidRequest))
		return
	}

	scores, err := s.opts.Suite.Run(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ScoresResponse{Scores: scores})
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeJSON(w, http.StatusOK, []*memory.Thread{})
		return
	}
	resourceID := r.URL.Query().Get("resourceId")
	if resourceID == "" {
		resourceID = docsagent.DefaultResourceID
	}
	threads, err := s.opts.Store.ListThreads(r.Context(), resourceID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if threads == nil {
		threads = []*memory.Thread{}
	}
	writeJSON(w, http.StatusOK, threads)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeError(w, http.StatusNotFound, memory.ErrNotFound)
		return
	}
	msgs, err := s.opts.Store.ListMessages(r.Context(), r.PathValue("threadId"), 0)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Server) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeError(w, http.StatusNotFound, memory.ErrNotFound)
		return
	}
	if err := s.opts.Store.DeleteThread(r.Context(), r.PathValue("threadId")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
