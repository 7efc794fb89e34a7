// Package server provides the HTTP API for the investment agent.
//
// The surface follows the OpenAI Chat Completions shape so existing chat
// clients can point at it unchanged: GET /health, GET /models, and
// POST /chat/completions with bearer authentication. Responses carry an
// extra session_id field identifying the server-side conversation.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/inverlab/finagent/logging"
	"github.com/inverlab/finagent/runner"
)

// DefaultModelID is the model name advertised on /models and echoed in
// completions when the client names none.
const DefaultModelID = "investment-agent"

// Options configure a Server.
type Options struct {
	// APIKey guards POST /chat/completions when non-empty.
	APIKey string
	// ModelID overrides the advertised model name.
	ModelID string
	// HealthCheck reports readiness of the backing stores. Nil means
	// always healthy.
	HealthCheck func(ctx context.Context) error
	// Logger receives request diagnostics.
	Logger logging.Logger
}

// Server serves the chat API over a Runner.
type Server struct {
	runner      *runner.Runner
	apiKey      string
	modelID     string
	healthCheck func(ctx context.Context) error
	logger      logging.Logger
	httpServer  *http.Server
}

// New creates a Server over the given runner.
func New(r *runner.Runner, optFns ...func(o *Options)) *Server {
	opts := Options{ModelID: DefaultModelID}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{
		runner:      r,
		apiKey:      opts.APIKey,
		modelID:     opts.ModelID,
		healthCheck: opts.HealthCheck,
		logger:      logging.OrNoOp(opts.Logger),
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/models", s.handleListModels)
	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/chat/completions", s.handleChatCompletions)
	})
	return r
}

// Start starts the HTTP server on addr and blocks until it stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("server.listen", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
