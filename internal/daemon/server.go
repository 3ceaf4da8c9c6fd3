package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/exemplar/internal/config"
	"github.com/felixgeelhaar/exemplar/internal/extract"
	"github.com/felixgeelhaar/exemplar/internal/fixture"
	"github.com/felixgeelhaar/exemplar/internal/generator"
	"github.com/felixgeelhaar/exemplar/internal/llm"
	"github.com/felixgeelhaar/exemplar/internal/queue"
)

// Version is reported by /v1/status and the CLI
const Version = "0.3.0"

// Server represents the Exemplar daemon HTTP server
type Server struct {
	cfg     *config.LocalConfig
	server  *http.Server
	router  *http.ServeMux
	started time.Time

	// Services
	engine      *extract.Engine
	llmRegistry llm.LLMRegistry
	fixtures    fixture.FixtureService
	generator   generator.GeneratorService

	// nil when generation is not rate limited
	limiter *RateLimiter

	// Queue, nil when disabled
	jobs    jobPublisher
	tracker *queue.Tracker

	closers []func() error
}

// jobPublisher is the queue surface the job handlers need
type jobPublisher interface {
	PublishExtractJob(ctx context.Context, job *queue.ExtractJob) error
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config  *config.LocalConfig
	DataDir string // default: ~/.exemplar
}

// NewServer creates a new daemon server with its storage, providers and
// optional queue worker
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	services, err := OpenServices(ctx, cfg.Config, cfg.DataDir)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:         cfg.Config,
		router:      http.NewServeMux(),
		started:     time.Now(),
		engine:      services.Engine,
		llmRegistry: services.Registry,
		fixtures:    services.Fixtures,
		generator:   services.Generator,
		tracker:     queue.NewTracker(),
		closers:     []func() error{services.Close},
	}

	if n := cfg.Config.Daemon.GenerateRateLimit; n > 0 {
		s.limiter = NewRateLimiter(n, time.Minute, n)
		s.closers = append(s.closers, s.limiter.Close)
	}

	if cfg.Config.Queue.Enabled {
		if err := s.setupQueue(ctx, services.Fixtures); err != nil {
			slog.Warn("extraction queue not available, async jobs disabled", "error", err)
		}
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 240 * time.Second, // generation waits on the LLM
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	return correlationIDMiddleware(recoveryMiddleware(loggingMiddleware(s.router)))
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Config
	s.router.HandleFunc("GET /v1/config", s.handleGetConfig)
	s.router.HandleFunc("GET /v1/config/providers", s.handleListProviders)

	// Extraction
	s.router.HandleFunc("POST /v1/extract", s.handleExtract)

	// Generation
	s.router.HandleFunc("POST /v1/generate", s.rateLimited(s.handleGenerate))
	s.router.HandleFunc("POST /v1/validate", s.rateLimited(s.handleValidate))

	// Fixture sets
	s.router.HandleFunc("POST /v1/fixtures", s.handleCreateFixture)
	s.router.HandleFunc("GET /v1/fixtures", s.handleListFixtures)
	s.router.HandleFunc("GET /v1/fixtures/{id}", s.handleGetFixture)
	s.router.HandleFunc("DELETE /v1/fixtures/{id}", s.handleDeleteFixture)
	s.router.HandleFunc("PUT /v1/fixtures/{id}/cases/{index}", s.handleUpdateCase)
	s.router.HandleFunc("GET /v1/fixtures/{id}/export", s.handleExportFixture)

	// Async jobs
	s.router.HandleFunc("POST /v1/jobs/extract", s.handleEnqueueExtract)
	s.router.HandleFunc("GET /v1/jobs/{id}", s.handleGetJob)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting exemplar daemon",
		"addr", s.server.Addr,
		"llm_providers", s.llmRegistry.List(),
		"storage", s.cfg.Storage.Backend,
		"queue", s.jobs != nil,
	)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, then releases the queue, providers
// and store
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")
	err := s.server.Shutdown(ctx)
	s.close()
	return err
}

// close runs the closers in reverse order of acquisition
func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Warn("failed to release resource", "error", err)
		}
	}
	s.closers = nil
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":        "running",
		"version":       Version,
		"uptime":        time.Since(s.started).Round(time.Second).String(),
		"llm_providers": s.llmRegistry.List(),
		"storage":       s.cfg.Storage.Backend,
		"queue":         s.jobs != nil,
		"strategies":    s.engine.Strategies(),
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	// no secrets and no connection strings
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"daemon":           s.cfg.Daemon,
		"default_provider": s.cfg.LLM.DefaultProvider,
		"generator":        s.cfg.Generator,
		"storage":          s.cfg.Storage.Backend,
		"queue": map[string]any{
			"enabled": s.cfg.Queue.Enabled,
			"workers": s.cfg.Queue.Workers,
		},
		"strategies": s.engine.Strategies(),
	})
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	registered := make(map[string]bool)
	for _, name := range s.llmRegistry.List() {
		registered[name] = true
	}

	providers := make([]map[string]any, 0, len(s.cfg.LLM.Providers))
	for name, cfg := range s.cfg.LLM.Providers {
		providers = append(providers, map[string]any{
			"name":       name,
			"enabled":    cfg.Enabled,
			"model":      cfg.Model,
			"registered": registered[name],
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"default":   s.cfg.LLM.DefaultProvider,
		"providers": providers,
	})
}

// Helper methods

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}
