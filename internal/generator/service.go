// Package generator asks an LLM for a programming problem with worked
// examples and turns the answer into reviewable test cases.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/exemplar/internal/domain"
	"github.com/felixgeelhaar/exemplar/internal/extract"
	"github.com/felixgeelhaar/exemplar/internal/llm"
)

// Config tunes generation requests
type Config struct {
	Provider    string // empty uses the registry default
	MaxTokens   int
	Temperature float64
}

// DefaultConfig mirrors the settings the problem generator has always used
func DefaultConfig() Config {
	return Config{
		MaxTokens:   2000,
		Temperature: 0.7,
	}
}

// Generation is a parsed generator answer with its extracted cases
type Generation struct {
	Draft    domain.ProblemDraft   `json:"draft"`
	Cases    domain.TestCaseList   `json:"cases"`
	Strategy string                `json:"strategy"`
	Provider string                `json:"provider"`
	Reviews  []domain.ReviewNotice `json:"reviews,omitempty"`
}

// Service generates problem drafts
type Service struct {
	registry llm.LLMRegistry
	engine   *extract.Engine
	logger   *slog.Logger
	cfg      Config
}

// NewService creates a generator service
func NewService(registry llm.LLMRegistry, engine *extract.Engine, logger *slog.Logger, cfg Config) *Service {
	if engine == nil {
		engine = extract.NewEngine()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	return &Service{
		registry: registry,
		engine:   engine,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate requests a problem for the requirements and extracts its cases
func (s *Service) Generate(ctx context.Context, requirements string) (*Generation, error) {
	if strings.TrimSpace(requirements) == "" {
		return nil, domain.ErrEmptyRequirements
	}

	provider, content, err := s.complete(ctx, BuildPrompt(requirements), s.cfg.MaxTokens)
	if err != nil {
		return nil, err
	}

	draft := ParseDraft(content)
	result := s.engine.Extract(draft.CasesText, draft.ExpectedOutput)

	s.logger.Info("problem generated",
		"provider", provider,
		"title", draft.Title,
		"strategy", result.Strategy,
		"cases", len(result.Cases),
		"needs_review", result.Cases.ReviewCount())

	return &Generation{
		Draft:    draft,
		Cases:    result.Cases,
		Strategy: result.Strategy,
		Provider: provider,
		Reviews:  result.Cases.ReviewNotices(),
	}, nil
}

// Validate asks the generator to review a draft for gaps and contradictions
func (s *Service) Validate(ctx context.Context, draft domain.ProblemDraft) (*domain.ValidationReport, error) {
	_, content, err := s.complete(ctx, BuildValidationPrompt(draft), 1000)
	if err != nil {
		return nil, err
	}
	return &domain.ValidationReport{
		Passed: strings.Contains(content, passMarker),
		Notes:  strings.TrimSpace(content),
	}, nil
}

func (s *Service) complete(ctx context.Context, prompt string, maxTokens int) (string, string, error) {
	provider, err := s.provider()
	if err != nil {
		return "", "", fmt.Errorf("select provider: %w", err)
	}

	resp, err := provider.Generate(ctx, &llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", "", fmt.Errorf("generate with %s: %w", provider.Name(), err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", "", fmt.Errorf("generate with %s: %w", provider.Name(), domain.ErrEmptyGeneration)
	}
	return provider.Name(), resp.Content, nil
}

func (s *Service) provider() (llm.Provider, error) {
	if s.cfg.Provider != "" && s.cfg.Provider != "auto" {
		return s.registry.Get(s.cfg.Provider)
	}
	return s.registry.Default()
}
