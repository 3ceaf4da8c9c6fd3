package fixture

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/exemplar/internal/domain"
)

// FixtureService defines the fixture operations used by the daemon handlers
// and the MCP server
type FixtureService interface {
	// Extract runs the engine and persists the result as a new set
	Extract(ctx context.Context, req ExtractRequest) (*domain.FixtureSet, error)

	// Get retrieves a set by ID
	Get(ctx context.Context, id uuid.UUID) (*domain.FixtureSet, error)

	// List returns the most recent sets
	List(ctx context.Context, limit int) ([]*domain.FixtureSet, error)

	// Delete removes a set
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateCase stores a reviewer's edit of one case
	UpdateCase(ctx context.Context, id uuid.UUID, index int, input, output string) (*domain.FixtureSet, error)

	// Export returns the submission JSON of a set
	Export(ctx context.Context, id uuid.UUID) ([]byte, error)
}

var _ FixtureService = (*Service)(nil)
