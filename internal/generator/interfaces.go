package generator

import (
	"context"

	"github.com/felixgeelhaar/exemplar/internal/domain"
)

// GeneratorService defines the generator operations used by the daemon
// handlers and the MCP server
type GeneratorService interface {
	// Generate asks the provider for a problem and extracts its cases
	Generate(ctx context.Context, requirements string) (*Generation, error)

	// Validate asks the provider to review a draft
	Validate(ctx context.Context, draft domain.ProblemDraft) (*domain.ValidationReport, error)
}

var _ GeneratorService = (*Service)(nil)
