// Package server serves the guide agent over HTTP: REST routes for guides,
// the agent, the workflow and scoring, an A2A JSON-RPC endpoint and an MCP
// endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hoangvvo/guide-agent/docsagent"
	"github.com/hoangvvo/guide-agent/guide"
	"github.com/hoangvvo/guide-agent/internal/log"
	"github.com/hoangvvo/guide-agent/memory"
	"github.com/hoangvvo/guide-agent/scorer"
	"github.com/hoangvvo/guide-agent/workflow"
)

type Options struct {
	Dispatcher *guide.Dispatcher
	// Runner is nil when no language model is configured; agent routes then
	// answer 503.
	Runner *docsagent.Runner
	Store  *memory.Store
	Suite  *scorer.Suite
	// MCP is mounted at /mcp when set.
	MCP http.Handler
	// PublicURL is advertised in the agent card. Derived from the request
	// when empty.
	PublicURL string
	Version   string
	// AllowedOrigin is sent as Access-Control-Allow-Origin. Defaults to "*".
	AllowedOrigin string
}

type Server struct {
	opts     Options
	workflow *workflow.Workflow
	mux      *http.ServeMux
}

func New(opts Options) *Server {
	if opts.Dispatcher == nil {
		opts.Dispatcher = guide.Default()
	}
	if opts.Suite == nil {
		opts.Suite = scorer.NewDefaultSuite(nil)
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		opts:     opts,
		workflow: workflow.NewGuideWorkflow(opts.Dispatcher),
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	s.mux.HandleFunc("GET /{$}", s.handleWelcome)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/guides", s.handleGetGuide)
	s.mux.HandleFunc("GET /api/guides/routes", s.handleListRoutes)
	s.mux.HandleFunc("GET /api/tools", s.handleListTools)
	s.mux.HandleFunc("POST /api/agents/{agentId}/generate", s.handleGenerate)
	s.mux.HandleFunc("POST /api/workflows/{workflowId}/run", s.handleRunWorkflow)
	s.mux.HandleFunc("POST /api/scores", s.handleScore)

	s.mux.HandleFunc("GET /api/threads", s.handleListThreads)
	s.mux.HandleFunc("GET /api/threads/{threadId}/messages", s.handleListMessages)
	s.mux.HandleFunc("DELETE /api/threads/{threadId}", s.handleDeleteThread)

	s.mux.HandleFunc("GET /.well-known/agent.json", s.handleAgentCard)
	s.mux.HandleFunc("GET /.well-known/agent-card.json", s.handleAgentCard)
	s.mux.HandleFunc("POST /a2a/{agentId}", s.handleA2A)

	if s.opts.MCP != nil {
		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
			s.mux.Handle(method+" /mcp", s.opts.MCP)
		}
	}
}

// Handler returns the root handler with CORS headers applied.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.setCORSHeaders(w)
		s.mux.ServeHTTP(w, r)
	})
}

func (s *Server) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", s.opts.AllowedOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Mcp-Session-Id")
}

// ListenAndServe serves on addr until ctx is canceled, then drains open
// requests for up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener, shutdownTimeout)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// agent runs call the model several times
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", listener.Addr().String())
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
