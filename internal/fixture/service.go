// Package fixture stores extracted test cases as editable fixture sets
// and exports them in the submission format graders consume.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/exemplar/internal/domain"
	"github.com/felixgeelhaar/exemplar/internal/extract"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ExtractRequest is the input of Service.Extract
type ExtractRequest struct {
	Title          string `json:"title"`
	CasesText      string `json:"cases_text"`
	ExpectedOutput string `json:"expected_output"`
}

// Service manages fixture sets
type Service struct {
	store  Store
	engine *extract.Engine
	logger *slog.Logger
}

// NewService creates a fixture service
func NewService(store Store, engine *extract.Engine, logger *slog.Logger) *Service {
	if engine == nil {
		engine = extract.NewEngine()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, engine: engine, logger: logger}
}

// Extract runs the engine over the request and persists the result
func (s *Service) Extract(ctx context.Context, req ExtractRequest) (*domain.FixtureSet, error) {
	result := s.engine.Extract(req.CasesText, req.ExpectedOutput)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "untitled"
	}
	set := domain.NewFixtureSet(title, result.Strategy, domain.FixtureSource{
		CasesText:      req.CasesText,
		ExpectedOutput: req.ExpectedOutput,
	}, result.Cases)

	if err := s.store.Save(ctx, set); err != nil {
		return nil, fmt.Errorf("save fixture set: %w", err)
	}

	s.logger.Info("fixture set extracted",
		"id", set.ID,
		"strategy", result.Strategy,
		"cases", len(set.Cases),
		"needs_review", set.Cases.ReviewCount())
	return set, nil
}

// Get returns a fixture set by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.FixtureSet, error) {
	set, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get fixture set: %w", err)
	}
	return set, nil
}

// List returns the most recent fixture sets
func (s *Service) List(ctx context.Context, limit int) ([]*domain.FixtureSet, error) {
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	sets, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list fixture sets: %w", err)
	}
	return sets, nil
}

// Delete removes a fixture set
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete fixture set: %w", err)
	}
	s.logger.Info("fixture set deleted", "id", id)
	return nil
}

// UpdateCase replaces one case with a reviewer's edit. The stored list
// is never mutated in place; a new version of the set is saved.
func (s *Service) UpdateCase(ctx context.Context, id uuid.UUID, index int, input, output string) (*domain.FixtureSet, error) {
	set, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := set.WithCase(index, input, output)
	if err != nil {
		return nil, fmt.Errorf("update case %d: %w", index, err)
	}
	if err := s.store.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("save fixture set: %w", err)
	}

	s.logger.Info("fixture case updated",
		"id", id,
		"index", index,
		"needs_review", updated.Cases[index].NeedsManualReview)
	return updated, nil
}

// Export returns the submission JSON of a set: an array of
// {input, output} with normalized text and no review state.
func (s *Service) Export(ctx context.Context, id uuid.UUID) ([]byte, error) {
	set, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(ExportCases(set.Cases))
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}
	return data, nil
}

// ExportCases converts cases to their normalized submission form
func ExportCases(cases domain.TestCaseList) []domain.SubmissionCase {
	out := cases.Submission()
	for i := range out {
		out[i].Input = Normalize(out[i].Input)
		out[i].Output = Normalize(out[i].Output)
	}
	return out
}
