package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/exemplar/internal/domain"
	"github.com/felixgeelhaar/exemplar/internal/extract"
	"github.com/felixgeelhaar/exemplar/internal/fixture"
	"github.com/felixgeelhaar/exemplar/internal/generator"
)

// Server wraps the MCP server with Exemplar functionality
type Server struct {
	mcpServer *server.Server
	engine    *extract.Engine
	fixtures  fixture.FixtureService
	generator generator.GeneratorService
}

// Config contains configuration for the MCP server
type Config struct {
	Engine    *extract.Engine
	Fixtures  fixture.FixtureService
	Generator generator.GeneratorService // nil when no LLM provider is configured
	Version   string
}

// ErrGeneratorUnavailable is returned by generation tools when no LLM
// provider is configured
var ErrGeneratorUnavailable = errors.New("no LLM provider configured")

// NewServer creates a new MCP server for Exemplar
func NewServer(cfg Config) *Server {
	s := &Server{
		engine:    cfg.Engine,
		fixtures:  cfg.Fixtures,
		generator: cfg.Generator,
	}
	if s.engine == nil {
		s.engine = extract.NewEngine()
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s.mcpServer = server.New(server.Info{
		Name:    "exemplar",
		Version: version,
	}, server.WithInstructions(`
Exemplar turns free-form programming problem text into judge test cases.

Available tools:
- exemplar_extract: Extract input/output cases from raw text without saving
- exemplar_save: Extract and save the cases as a fixture set
- exemplar_list: List saved fixture sets
- exemplar_show: Show a fixture set with its review notices
- exemplar_update_case: Replace one case of a fixture set
- exemplar_export: Export a fixture set as submission JSON
- exemplar_generate: Generate a problem draft from requirements
- exemplar_validate: Review a problem draft for consistency

Cases flagged needs_manual_review were guessed and should be checked
before submission.
`))

	s.registerTools()

	return s
}

// registerTools registers all Exemplar MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("exemplar_extract").
		Description("Extract test cases from problem text. Returns the strategy used and flagged cases.").
		Handler(s.handleExtract)

	s.mcpServer.Tool("exemplar_save").
		Description("Extract test cases and save them as a fixture set.").
		Handler(s.handleSave)

	s.mcpServer.Tool("exemplar_list").
		Description("List saved fixture sets, most recent first.").
		Handler(s.handleList)

	s.mcpServer.Tool("exemplar_show").
		Description("Show a fixture set with its review notices.").
		Handler(s.handleShow)

	s.mcpServer.Tool("exemplar_update_case").
		Description("Replace the input and output of one case in a fixture set.").
		Handler(s.handleUpdateCase)

	s.mcpServer.Tool("exemplar_export").
		Description("Export a fixture set as a JSON array of {input, output}.").
		Handler(s.handleExport)

	s.mcpServer.Tool("exemplar_generate").
		Description("Generate a problem draft with test cases from requirements.").
		Handler(s.handleGenerate)

	s.mcpServer.Tool("exemplar_validate").
		Description("Ask the LLM to review a problem draft for consistency.").
		Handler(s.handleValidate)
}

// Input/Output types for tools

type ExtractInput struct {
	CasesText      string `json:"cases_text" jsonschema:"description=Raw test case text"`
	ExpectedOutput string `json:"expected_output,omitempty" jsonschema:"description=Separate expected output text"`
}

type ExtractOutput struct {
	Strategy    string                `json:"strategy"`
	Cases       domain.TestCaseList   `json:"cases"`
	NeedsReview int                   `json:"needs_review"`
	Reviews     []domain.ReviewNotice `json:"reviews,omitempty"`
}

type SaveInput struct {
	Title          string `json:"title,omitempty" jsonschema:"description=Fixture set title"`
	CasesText      string `json:"cases_text" jsonschema:"description=Raw test case text"`
	ExpectedOutput string `json:"expected_output,omitempty" jsonschema:"description=Separate expected output text"`
}

type FixtureOutput struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Strategy    string                `json:"strategy"`
	Cases       domain.TestCaseList   `json:"cases"`
	NeedsReview int                   `json:"needs_review"`
	Reviews     []domain.ReviewNotice `json:"reviews,omitempty"`
}

type ListInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"description=Maximum number of sets (default: 50)"`
}

type FixtureSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Strategy    string `json:"strategy"`
	Cases       int    `json:"cases"`
	NeedsReview int    `json:"needs_review"`
}

type ListOutput struct {
	Fixtures []FixtureSummary `json:"fixtures"`
}

type FixtureInput struct {
	FixtureID string `json:"fixture_id" jsonschema:"description=Fixture set ID"`
}

type UpdateCaseInput struct {
	FixtureID string `json:"fixture_id" jsonschema:"description=Fixture set ID"`
	Index     int    `json:"index" jsonschema:"description=Zero-based case index"`
	Input     string `json:"input" jsonschema:"description=Corrected input"`
	Output    string `json:"output" jsonschema:"description=Corrected output"`
}

type ExportOutput struct {
	FixtureID  string `json:"fixture_id"`
	Submission string `json:"submission"`
}

type GenerateInput struct {
	Requirements string `json:"requirements" jsonschema:"description=What the problem should test"`
	Save         bool   `json:"save,omitempty" jsonschema:"description=Save the generated cases as a fixture set"`
}

type GenerateOutput struct {
	Generation *generator.Generation `json:"generation"`
	FixtureID  string                `json:"fixture_id,omitempty"`
}

// Tool handlers

func (s *Server) handleExtract(ctx context.Context, input ExtractInput) (ExtractOutput, error) {
	result := s.engine.Extract(input.CasesText, input.ExpectedOutput)
	return ExtractOutput{
		Strategy:    result.Strategy,
		Cases:       result.Cases,
		NeedsReview: result.Cases.ReviewCount(),
		Reviews:     result.Cases.ReviewNotices(),
	}, nil
}

func (s *Server) handleSave(ctx context.Context, input SaveInput) (FixtureOutput, error) {
	set, err := s.fixtures.Extract(ctx, fixture.ExtractRequest{
		Title:          input.Title,
		CasesText:      input.CasesText,
		ExpectedOutput: input.ExpectedOutput,
	})
	if err != nil {
		return FixtureOutput{}, fmt.Errorf("failed to save fixture set: %w", err)
	}
	return fixtureOutput(set), nil
}

func (s *Server) handleList(ctx context.Context, input ListInput) (ListOutput, error) {
	sets, err := s.fixtures.List(ctx, input.Limit)
	if err != nil {
		return ListOutput{}, fmt.Errorf("failed to list fixture sets: %w", err)
	}

	out := ListOutput{Fixtures: make([]FixtureSummary, 0, len(sets))}
	for _, set := range sets {
		out.Fixtures = append(out.Fixtures, FixtureSummary{
			ID:          set.ID.String(),
			Title:       set.Title,
			Strategy:    set.Strategy,
			Cases:       len(set.Cases),
			NeedsReview: set.Cases.ReviewCount(),
		})
	}
	return out, nil
}

func (s *Server) handleShow(ctx context.Context, input FixtureInput) (FixtureOutput, error) {
	id, err := parseID(input.FixtureID)
	if err != nil {
		return FixtureOutput{}, err
	}
	set, err := s.fixtures.Get(ctx, id)
	if err != nil {
		return FixtureOutput{}, fmt.Errorf("fixture set not found: %w", err)
	}
	return fixtureOutput(set), nil
}

func (s *Server) handleUpdateCase(ctx context.Context, input UpdateCaseInput) (FixtureOutput, error) {
	id, err := parseID(input.FixtureID)
	if err != nil {
		return FixtureOutput{}, err
	}
	set, err := s.fixtures.UpdateCase(ctx, id, input.Index, input.Input, input.Output)
	if err != nil {
		return FixtureOutput{}, fmt.Errorf("failed to update case: %w", err)
	}
	return fixtureOutput(set), nil
}

func (s *Server) handleExport(ctx context.Context, input FixtureInput) (ExportOutput, error) {
	id, err := parseID(input.FixtureID)
	if err != nil {
		return ExportOutput{}, err
	}
	data, err := s.fixtures.Export(ctx, id)
	if err != nil {
		return ExportOutput{}, fmt.Errorf("failed to export fixture set: %w", err)
	}
	return ExportOutput{FixtureID: id.String(), Submission: string(data)}, nil
}

func (s *Server) handleGenerate(ctx context.Context, input GenerateInput) (GenerateOutput, error) {
	if s.generator == nil {
		return GenerateOutput{}, ErrGeneratorUnavailable
	}

	gen, err := s.generator.Generate(ctx, input.Requirements)
	if err != nil {
		return GenerateOutput{}, fmt.Errorf("generation failed: %w", err)
	}

	out := GenerateOutput{Generation: gen}
	if input.Save {
		set, err := s.fixtures.Extract(ctx, fixture.ExtractRequest{
			Title:          gen.Draft.Title,
			CasesText:      gen.Draft.CasesText,
			ExpectedOutput: gen.Draft.ExpectedOutput,
		})
		if err != nil {
			return GenerateOutput{}, fmt.Errorf("failed to save fixture set: %w", err)
		}
		out.FixtureID = set.ID.String()
	}
	return out, nil
}

func (s *Server) handleValidate(ctx context.Context, input domain.ProblemDraft) (domain.ValidationReport, error) {
	if s.generator == nil {
		return domain.ValidationReport{}, ErrGeneratorUnavailable
	}

	report, err := s.generator.Validate(ctx, input)
	if err != nil {
		return domain.ValidationReport{}, fmt.Errorf("validation failed: %w", err)
	}
	return *report, nil
}

func fixtureOutput(set *domain.FixtureSet) FixtureOutput {
	return FixtureOutput{
		ID:          set.ID.String(),
		Title:       set.Title,
		Strategy:    set.Strategy,
		Cases:       set.Cases,
		NeedsReview: set.Cases.ReviewCount(),
		Reviews:     set.Cases.ReviewNotices(),
	}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: fixture_id %q is not a UUID", domain.ErrInvalidInput, raw)
	}
	return id, nil
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
