package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/hoangvvo/guide-agent/docsagent"
	"github.com/hoangvvo/guide-agent/llm/llmtest"
	"github.com/hoangvvo/guide-agent/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcResponse struct {
	JSONRPC string             `json:"jsonrpc"`
	ID      json.RawMessage    `json:"id"`
	Result  *server.A2AMessage `json:"result"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func sendMessage(text, contextID string) map[string]any {
	message := map[string]any{
		"kind":      "message",
		"role":      "user",
		"messageId": "m-1",
		"parts":     []map[string]string{{"kind": "text", "text": text}},
	}
	if contextID != "" {
		message["contextId"] = contextID
	}
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "message/send",
		"params":  map[string]any{"message": message},
	}
}

func TestAgentCard(t *testing.T) {
	f := newFixture(t, false)

	for _, path := range []string{"/.well-known/agent.json", "/.well-known/agent-card.json"} {
		t.Run(path, func(t *testing.T) {
			resp := f.do(t, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			card := decode[server.AgentCard](t, resp)
			assert.Equal(t, "Guide Agent", card.Name)
			assert.Equal(t, f.srv.URL+"/a2a/guideAgent", card.URL)
			assert.Equal(t, "test", card.Version)
			require.Len(t, card.Skills, 7)
			assert.Equal(t, "protocol-guide", card.Skills[0].ID)
			for _, skill := range card.Skills {
				assert.NotEmpty(t, skill.Description, skill.ID)
			}
		})
	}
}

func TestA2A_MessageSend(t *testing.T) {
	f := newFixture(t, true)
	f.model.EnqueueGenerateResult(
		llmtest.NewMockGenerateResultText("first"),
		llmtest.NewMockGenerateResultText("second"),
	)

	resp := f.do(t, http.MethodPost, "/a2a/guideAgent", sendMessage("what is a2a", "ctx-1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[rpcResponse](t, resp)
	require.Nil(t, out.Error)
	require.NotNil(t, out.Result)
	assert.Equal(t, "2.0", out.JSONRPC)
	assert.JSONEq(t, "1", string(out.ID))
	assert.Equal(t, "agent", out.Result.Role)
	assert.Equal(t, "ctx-1", out.Result.ContextID)
	assert.NotEmpty(t, out.Result.MessageID)
	require.Len(t, out.Result.Parts, 1)
	assert.Equal(t, "first", out.Result.Parts[0].Text)

	// the same context continues the stored thread
	resp = f.do(t, http.MethodPost, "/a2a/guideAgent", sendMessage("tell me more", "ctx-1"))
	out = decode[rpcResponse](t, resp)
	require.Nil(t, out.Error)
	assert.Equal(t, "second", out.Result.Parts[0].Text)

	inputs := f.model.TrackedGenerateInputs()
	require.Len(t, inputs, 2)
	assert.Len(t, inputs[1].Messages, 3)
}

func TestA2A_NewContext(t *testing.T) {
	f := newFixture(t, true)
	f.model.EnqueueGenerateResult(llmtest.NewMockGenerateResultText("hello"))

	resp := f.do(t, http.MethodPost, "/a2a/guideAgent", sendMessage("hi", ""))
	out := decode[rpcResponse](t, resp)
	require.Nil(t, out.Error)
	assert.NotEmpty(t, out.Result.ContextID)
}

func TestA2A_Errors(t *testing.T) {
	tests := []struct {
		name         string
		withModel    bool
		body         any
		expectedCode int
	}{
		{
			name:         "parse error",
			withModel:    true,
			body:         "{",
			expectedCode: -32700,
		},
		{
			name:         "missing version",
			withModel:    true,
			body:         map[string]any{"id": 1, "method": "message/send"},
			expectedCode: -32600,
		},
		{
			name:         "batch",
			withModel:    true,
			body:         []any{sendMessage("hi", "ctx")},
			expectedCode: -32600,
		},
		{
			name:         "unknown method",
			withModel:    true,
			body:         map[string]any{"jsonrpc": "2.0", "id": 1, "method": "tasks/cancel"},
			expectedCode: -32601,
		},
		{
			name:         "missing params",
			withModel:    true,
			body:         map[string]any{"jsonrpc": "2.0", "id": 1, "method": "message/send"},
			expectedCode: -32602,
		},
		{
			name:         "no text parts",
			withModel:    true,
			body:         sendMessage("   ", "ctx"),
			expectedCode: -32602,
		},
		{
			name:         "no model",
			withModel:    false,
			body:         sendMessage("hi", "ctx"),
			expectedCode: -32603,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.withModel)

			resp := f.do(t, http.MethodPost, "/a2a/guideAgent", tt.body)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var raw map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
			_, hasResult := raw["result"]
			assert.False(t, hasResult, "error responses carry no result")

			var rpcErr struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(raw["error"], &rpcErr))
			assert.Equal(t, tt.expectedCode, rpcErr.Code)
			assert.NotEmpty(t, strings.TrimSpace(rpcErr.Message))
		})
	}
}

func TestA2A_InvalidRequestKeepsID(t *testing.T) {
	f := newFixture(t, true)

	resp := f.do(t, http.MethodPost, "/a2a/guideAgent", map[string]any{"jsonrpc": "1.0", "id": "req-7", "method": "message/send"})
	out := decode[rpcResponse](t, resp)
	require.NotNil(t, out.Error)
	assert.Equal(t, -32600, out.Error.Code)
	assert.JSONEq(t, `"req-7"`, string(out.ID))
}

func TestA2A_Notification(t *testing.T) {
	f := newFixture(t, true)
	f.model.EnqueueGenerateResult(llmtest.NewMockGenerateResultText("hello"))

	body := sendMessage("hi", "ctx-n")
	delete(body, "id")
	resp := f.do(t, http.MethodPost, "/a2a/guideAgent", body)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Len(t, f.model.TrackedGenerateInputs(), 1)
}

func TestA2A_ContextOfAnotherResource(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.store.EnsureThread(context.Background(), "shared", docsagent.DefaultResourceID)
	require.NoError(t, err)

	resp := f.do(t, http.MethodPost, "/a2a/guideAgent", sendMessage("hi", "shared"))
	out := decode[rpcResponse](t, resp)
	require.NotNil(t, out.Error)
	assert.Nil(t, out.Result)
	assert.Equal(t, -32602, out.Error.Code)
	assert.Empty(t, f.model.TrackedGenerateInputs())

	msgs, err := f.store.ListMessages(context.Background(), "shared", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestA2A_UnknownAgent(t *testing.T) {
	f := newFixture(t, true)

	resp := f.do(t, http.MethodPost, "/a2a/other", sendMessage("hi", ""))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
