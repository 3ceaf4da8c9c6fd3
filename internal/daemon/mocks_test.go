package daemon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/exemplar/internal/config"
	"github.com/felixgeelhaar/exemplar/internal/domain"
	"github.com/felixgeelhaar/exemplar/internal/extract"
	"github.com/felixgeelhaar/exemplar/internal/fixture"
	"github.com/felixgeelhaar/exemplar/internal/generator"
	"github.com/felixgeelhaar/exemplar/internal/llm"
	"github.com/felixgeelhaar/exemplar/internal/queue"
)

var errNotImplemented = errors.New("mock: not implemented")

// mockFixtureService implements fixture.FixtureService for testing
type mockFixtureService struct {
	extractFn    func(ctx context.Context, req fixture.ExtractRequest) (*domain.FixtureSet, error)
	getFn        func(ctx context.Context, id uuid.UUID) (*domain.FixtureSet, error)
	listFn       func(ctx context.Context, limit int) ([]*domain.FixtureSet, error)
	deleteFn     func(ctx context.Context, id uuid.UUID) error
	updateCaseFn func(ctx context.Context, id uuid.UUID, index int, input, output string) (*domain.FixtureSet, error)
	exportFn     func(ctx context.Context, id uuid.UUID) ([]byte, error)
}

func (m *mockFixtureService) Extract(ctx context.Context, req fixture.ExtractRequest) (*domain.FixtureSet, error) {
	if m.extractFn != nil {
		return m.extractFn(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockFixtureService) Get(ctx context.Context, id uuid.UUID) (*domain.FixtureSet, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *mockFixtureService) List(ctx context.Context, limit int) ([]*domain.FixtureSet, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, errNotImplemented
}

func (m *mockFixtureService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return errNotImplemented
}

func (m *mockFixtureService) UpdateCase(ctx context.Context, id uuid.UUID, index int, input, output string) (*domain.FixtureSet, error) {
	if m.updateCaseFn != nil {
		return m.updateCaseFn(ctx, id, index, input, output)
	}
	return nil, errNotImplemented
}

func (m *mockFixtureService) Export(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if m.exportFn != nil {
		return m.exportFn(ctx, id)
	}
	return nil, errNotImplemented
}

// mockGeneratorService implements generator.GeneratorService for testing
type mockGeneratorService struct {
	generateFn func(ctx context.Context, requirements string) (*generator.Generation, error)
	validateFn func(ctx context.Context, draft domain.ProblemDraft) (*domain.ValidationReport, error)
}

func (m *mockGeneratorService) Generate(ctx context.Context, requirements string) (*generator.Generation, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, requirements)
	}
	return nil, errNotImplemented
}

func (m *mockGeneratorService) Validate(ctx context.Context, draft domain.ProblemDraft) (*domain.ValidationReport, error) {
	if m.validateFn != nil {
		return m.validateFn(ctx, draft)
	}
	return nil, errNotImplemented
}

// mockLLMRegistry implements llm.LLMRegistry for testing
type mockLLMRegistry struct {
	names []string
}

func (m *mockLLMRegistry) List() []string { return m.names }

func (m *mockLLMRegistry) Default() (llm.Provider, error) { return nil, llm.ErrNoDefaultProvider }

func (m *mockLLMRegistry) Get(string) (llm.Provider, error) { return nil, llm.ErrProviderNotFound }

// mockJobPublisher records published jobs
type mockJobPublisher struct {
	jobs []*queue.ExtractJob
	err  error
}

func (m *mockJobPublisher) PublishExtractJob(_ context.Context, job *queue.ExtractJob) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

var (
	_ fixture.FixtureService     = (*mockFixtureService)(nil)
	_ generator.GeneratorService = (*mockGeneratorService)(nil)
	_ llm.LLMRegistry            = (*mockLLMRegistry)(nil)
	_ jobPublisher               = (*mockJobPublisher)(nil)
)

type serverWithMocks struct {
	server    *Server
	fixtures  *mockFixtureService
	generator *mockGeneratorService
	jobs      *mockJobPublisher
}

// newServerWithMocks creates a Server with mock services and the real
// engine, without storage or network
func newServerWithMocks() *serverWithMocks {
	fixtures := &mockFixtureService{}
	gen := &mockGeneratorService{}
	jobs := &mockJobPublisher{}

	srv := &Server{
		cfg:         config.DefaultLocalConfig(),
		router:      http.NewServeMux(),
		engine:      extract.NewEngine(),
		llmRegistry: &mockLLMRegistry{names: []string{"deepseek"}},
		fixtures:    fixtures,
		generator:   gen,
		jobs:        jobs,
		tracker:     queue.NewTracker(),
	}
	srv.setupRoutes()

	return &serverWithMocks{
		server:    srv,
		fixtures:  fixtures,
		generator: gen,
		jobs:      jobs,
	}
}

func (m *serverWithMocks) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	m.server.router.ServeHTTP(rec, req)
	return rec
}
