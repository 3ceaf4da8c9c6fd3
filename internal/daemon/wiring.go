package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/felixgeelhaar/exemplar/internal/config"
	"github.com/felixgeelhaar/exemplar/internal/domain"
	"github.com/felixgeelhaar/exemplar/internal/extract"
	"github.com/felixgeelhaar/exemplar/internal/fixture"
	"github.com/felixgeelhaar/exemplar/internal/generator"
	"github.com/felixgeelhaar/exemplar/internal/llm"
	"github.com/felixgeelhaar/exemplar/internal/queue"
	"github.com/felixgeelhaar/exemplar/internal/storage/local"
	"github.com/felixgeelhaar/exemplar/internal/storage/postgres"
	"github.com/felixgeelhaar/exemplar/internal/storage/sqlite"
)

// Services is the service graph shared by the HTTP daemon and the MCP
// server
type Services struct {
	Engine    *extract.Engine
	Registry  *llm.Registry
	Fixtures  *fixture.Service
	Generator *generator.Service

	closers []func() error
}

// OpenServices validates cfg and builds the engine, providers, store and
// services. dataDir defaults to ~/.exemplar.
func OpenServices(ctx context.Context, cfg *config.LocalConfig, dataDir string) (*Services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if dataDir == "" {
		dir, err := config.Dir()
		if err != nil {
			return nil, fmt.Errorf("get data dir: %w", err)
		}
		dataDir = dir
	}

	strategies, err := extract.StrategiesByName(cfg.Extraction.Strategies)
	if err != nil {
		return nil, err
	}
	svc := &Services{Engine: extract.NewEngine(strategies...)}

	registry, closeProviders := setupLLMProviders(cfg.LLM)
	svc.Registry = registry
	svc.closers = append(svc.closers, closeProviders)

	store, closeStore, err := openStore(ctx, cfg, dataDir)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	svc.closers = append(svc.closers, closeStore)

	svc.Fixtures = fixture.NewService(store, svc.Engine, slog.Default())
	svc.Generator = generator.NewService(registry, svc.Engine, slog.Default(), generator.Config{
		MaxTokens:   cfg.Generator.MaxTokens,
		Temperature: cfg.Generator.Temperature,
	})
	return svc, nil
}

// Close releases the store and providers in reverse order of acquisition
func (s *Services) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// setupLLMProviders registers every enabled provider that has what it
// needs to run, each wrapped in the resilience layer. Providers are
// registered in name order so "auto" resolves the same way every start.
func setupLLMProviders(cfg config.LLMConfig) (*llm.Registry, func() error) {
	registry := llm.NewRegistry()
	var wrapped []*llm.ResilientProvider

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := cfg.Providers[name]
		if !p.Enabled {
			continue
		}
		provider := newProvider(name, p)
		if provider == nil {
			slog.Debug("LLM provider enabled but not configured", "name", name)
			continue
		}

		rcfg := llm.DefaultResilientConfig()
		rcfg.Logger = slog.Default()
		resilient := llm.NewResilientProvider(provider, rcfg)
		wrapped = append(wrapped, resilient)

		registry.Register(name, resilient)
		slog.Info("registered LLM provider", "name", name, "model", p.Model)
	}

	if cfg.DefaultProvider != "" {
		if err := registry.SetDefault(cfg.DefaultProvider); err != nil {
			slog.Warn("default LLM provider not registered, using first available",
				"provider", cfg.DefaultProvider, "error", err)
		}
	}

	closeAll := func() error {
		for _, p := range wrapped {
			if err := p.Close(); err != nil {
				return err
			}
		}
		return nil
	}
	return registry, closeAll
}

// newProvider builds the client for a provider entry, or nil when a
// required API key is missing. Unknown names are treated as
// OpenAI-compatible endpoints and need a URL.
func newProvider(name string, p *config.ProviderConfig) llm.Provider {
	switch name {
	case "ollama":
		return llm.NewOllamaProvider(llm.OllamaConfig{BaseURL: p.URL, Model: p.Model})
	case "claude":
		if p.APIKey == "" {
			return nil
		}
		return llm.NewClaudeProvider(llm.ClaudeConfig{APIKey: p.APIKey, BaseURL: p.URL, Model: p.Model})
	case "deepseek":
		if p.APIKey == "" {
			return nil
		}
		cfg := llm.DeepSeekConfig(p.APIKey, p.Model)
		if p.URL != "" {
			cfg.BaseURL = p.URL
		}
		return llm.NewOpenAIProvider(cfg)
	case "openai":
		if p.APIKey == "" {
			return nil
		}
		return llm.NewOpenAIProvider(llm.OpenAIConfig{APIKey: p.APIKey, BaseURL: p.URL, Model: p.Model})
	default:
		if p.APIKey == "" || p.URL == "" {
			return nil
		}
		return llm.NewOpenAIProvider(llm.OpenAIConfig{Name: name, APIKey: p.APIKey, BaseURL: p.URL, Model: p.Model})
	}
}

// openStore opens the configured fixture store and returns its closer
func openStore(ctx context.Context, cfg *config.LocalConfig, dataDir string) (fixture.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return fixture.NewMemoryStore(), noop, nil

	case config.BackendFile:
		store, err := local.NewFixtureStore(cfg.StoragePath(dataDir))
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil

	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.NewFixtureStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, func() error { pool.Close(); return nil }, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.StoragePath(dataDir))
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sqlite.NewFixtureStore(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// setupQueue connects to RabbitMQ, starts the extraction workers and
// feeds every result into the tracker
func (s *Server) setupQueue(ctx context.Context, fixtures fixture.FixtureService) error {
	conn, err := queue.NewConnection(s.cfg.Queue.URL)
	if err != nil {
		return err
	}

	consumer := queue.NewConsumer(conn, extractJobHandler(fixtures), queue.ConsumerConfig{
		Workers:  s.cfg.Queue.Workers,
		Prefetch: s.cfg.Queue.Prefetch,
	})
	if err := consumer.Start(ctx); err != nil {
		conn.Close()
		return err
	}

	results := queue.NewResultConsumer(conn)
	results.OnAny(s.tracker.Record)
	if err := results.Start(ctx); err != nil {
		consumer.Stop()
		conn.Close()
		return err
	}

	s.jobs = queue.NewProducer(conn)
	s.closers = append(s.closers, func() error {
		consumer.Stop()
		results.Stop()
		return conn.Close()
	})
	return nil
}

// extractJobHandler runs a queued job through the fixture service
func extractJobHandler(fixtures fixture.FixtureService) queue.JobHandler {
	return func(ctx context.Context, job *queue.ExtractJob) (*queue.ExtractResult, error) {
		set, err := fixtures.Extract(ctx, fixture.ExtractRequest{
			Title:          job.Title,
			CasesText:      job.CasesText,
			ExpectedOutput: job.ExpectedOutput,
		})
		if err != nil {
			return nil, err
		}
		return resultFor(set), nil
	}
}

func resultFor(set *domain.FixtureSet) *queue.ExtractResult {
	return &queue.ExtractResult{
		Status:      queue.StatusCompleted,
		FixtureID:   set.ID,
		Strategy:    set.Strategy,
		Cases:       len(set.Cases),
		NeedsReview: set.Cases.ReviewCount(),
	}
}
