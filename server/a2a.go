package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/hoangvvo/guide-agent/docsagent"
	"github.com/hoangvvo/guide-agent/guide"
	"github.com/hoangvvo/guide-agent/internal/log"
	"github.com/hoangvvo/guide-agent/memory"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// A2A protocol version advertised in the agent card.
const a2aProtocolVersion = "0.2.6"

// a2aResourceID owns the threads opened through A2A context ids.
const a2aResourceID = "a2a"

type AgentCard struct {
	ProtocolVersion    string            `json:"protocolVersion"`
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	URL                string            `json:"url"`
	Version            string            `json:"version"`
	Capabilities       AgentCapabilities `json:"capabilities"`
	DefaultInputModes  []string          `json:"defaultInputModes"`
	DefaultOutputModes []string          `json:"defaultOutputModes"`
	Skills             []AgentSkill      `json:"skills"`
}

type AgentCapabilities struct {
	Streaming         bool `json:"streaming"`
	PushNotifications bool `json:"pushNotifications"`
}

type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Examples    []string `json:"examples,omitempty"`
}

// A2AMessage is the A2A message object. Only text parts are understood.
type A2AMessage struct {
	Kind      string         `json:"kind"`
	Role      string         `json:"role"`
	Parts     []A2APart      `json:"parts"`
	MessageID string         `json:"messageId"`
	ContextID string         `json:"contextId,omitempty"`
	TaskID    string         `json:"taskId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type A2APart struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
}

type messageSendParams struct {
	Message  *A2AMessage    `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (s *Server) agentCard(r *http.Request) AgentCard {
	base := s.opts.PublicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}

	skills := make([]AgentSkill, 0, len(s.opts.Dispatcher.Routes()))
	for _, route := range s.opts.Dispatcher.Routes() {
		skills = append(skills, AgentSkill{
			ID:          route + "-guide",
			Name:        strings.ToUpper(route[:1]) + route[1:] + " guide",
			Description: routeDescriptions[route],
			Tags:        []string{"documentation", route},
		})
	}
	if len(skills) > 0 {
		skills[0].Examples = []string{"What is the A2A protocol?"}
	}

	return AgentCard{
		ProtocolVersion:    a2aProtocolVersion,
		Name:               docsagent.AgentName,
		Description:        "Answers developer questions about building, setting up and integrating A2A agents with guides and examples",
		URL:                strings.TrimRight(base, "/") + "/a2a/" + docsagent.AgentID,
		Version:            s.opts.Version,
		Capabilities:       AgentCapabilities{},
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
		Skills:             skills,
	}
}

var routeDescriptions = map[string]string{
	guide.RouteProtocol:    "Explains the A2A protocol, agent cards and JSON-RPC messaging",
	guide.RoutePython:      "Sets up and builds A2A agents in Python",
	guide.RouteMastra:      "Sets up Mastra and builds agents in TypeScript",
	guide.RouteLanguage:    "Builds A2A agents in other programming languages",
	guide.RouteWorkflow:    "Shows a worked JSON workflow example",
	guide.RouteIntegration: "Connects and registers agents with Agentverse",
	guide.RouteGeneral:     "Gets started with the guide agent",
}

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agentCard(r))
}

func rpcError(code int64, format string, args ...any) error {
	return &jsonrpc.Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// writeRPC answers id with either result or err.
func writeRPC(w http.ResponseWriter, id jsonrpc.ID, result any, err error) {
	resp := &jsonrpc.Response{ID: id, Error: err}
	if err == nil {
		raw, merr := json.Marshal(result)
		if merr != nil {
			resp.Error = rpcError(jsonrpc.CodeInternalError, "encode result: %v", merr)
		} else {
			resp.Result = raw
		}
	}

	data, err := jsonrpc.EncodeMessage(resp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Warn("failed to write response", "error", err)
	}
}

// peekID recovers the id of a message that failed to decode so the error
// can still be correlated.
func peekID(data []byte) jsonrpc.ID {
	var msg struct {
		ID any `json:"id"`
	}
	if json.Unmarshal(data, &msg) != nil {
		return jsonrpc.ID{}
	}
	id, err := jsonrpc.MakeID(msg.ID)
	if err != nil {
		return jsonrpc.ID{}
	}
	return id
}

// decodeRPC reads a single JSON-RPC request. Batches are not supported.
func decodeRPC(data []byte) (*jsonrpc.Request, error) {
	if !json.Valid(data) {
		return nil, rpcError(jsonrpc.CodeParseError, "parse error")
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return nil, rpcError(jsonrpc.CodeInvalidRequest, "batch requests are not supported")
	}
	msg, err := jsonrpc.DecodeMessage(data)
	if err != nil {
		return nil, rpcError(jsonrpc.CodeInvalidRequest, "invalid request: %v", err)
	}
	req, ok := msg.(*jsonrpc.Request)
	if !ok {
		return nil, rpcError(jsonrpc.CodeInvalidRequest, "invalid request: expected a request")
	}
	return req, nil
}

func (s *Server) handleA2A(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("agentId") != docsagent.AgentID {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", errUnknownAgent, r.PathValue("agentId")))
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeRPC(w, jsonrpc.ID{}, nil, rpcError(jsonrpc.CodeParseError, "%v", err))
		return
	}
	req, err := decodeRPC(data)
	if err != nil {
		writeRPC(w, peekID(data), nil, err)
		return
	}

	var result any
	switch req.Method {
	case "message/send":
		result, err = s.sendMessage(r, req.Params)
	default:
		err = rpcError(jsonrpc.CodeMethodNotFound, "method not found: %s", req.Method)
	}

	// notifications get no response
	if !req.IsCall() {
		if err != nil {
			log.Warn("a2a notification failed", "method", req.Method, "error", err)
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeRPC(w, req.ID, result, err)
}

func (s *Server) sendMessage(r *http.Request, raw json.RawMessage) (*A2AMessage, error) {
	var params messageSendParams
	if len(raw) == 0 {
		return nil, rpcError(jsonrpc.CodeInvalidParams, "params are required")
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, rpcError(jsonrpc.CodeInvalidParams, "invalid params: %v", err)
	}
	if params.Message == nil {
		return nil, rpcError(jsonrpc.CodeInvalidParams, "params.message is required")
	}

	var texts []string
	for _, part := range params.Message.Parts {
		if part.Kind == "text" && strings.TrimSpace(part.Text) != "" {
			texts = append(texts, part.Text)
		}
	}
	if len(texts) == 0 {
		return nil, rpcError(jsonrpc.CodeInvalidParams, "message has no text parts")
	}

	contextID := params.Message.ContextID
	if contextID == "" {
		contextID = uuid.NewString()
	}

	res, err := s.generate(r, docsagent.GenerateRequest{
		Text:       strings.Join(texts, "\n"),
		Language:   metadataString("language", params.Message.Metadata, params.Metadata),
		ThreadID:   contextID,
		ResourceID: a2aResourceID,
	})
	switch {
	case errors.Is(err, docsagent.ErrInvalidRequest), errors.Is(err, memory.ErrNotFound):
		return nil, rpcError(jsonrpc.CodeInvalidParams, "%v", err)
	case err != nil:
		return nil, rpcError(jsonrpc.CodeInternalError, "%v", err)
	}

	return &A2AMessage{
		Kind:      "message",
		Role:      "agent",
		Parts:     []A2APart{{Kind: "text", Text: res.Text}},
		MessageID: uuid.NewString(),
		ContextID: contextID,
		TaskID:    params.Message.TaskID,
	}, nil
}

// metadataString returns the first string value of key across the metadata maps.
func metadataString(key string, maps ...map[string]any) string {
	for _, m := range maps {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
