package fixture

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/exemplar/internal/domain"
)

// Store persists fixture sets. Get and Delete return
// domain.ErrFixtureSetNotFound for unknown IDs.
type Store interface {
	Save(ctx context.Context, set *domain.FixtureSet) error
	Get(ctx context.Context, id uuid.UUID) (*domain.FixtureSet, error)
	List(ctx context.Context, limit int) ([]*domain.FixtureSet, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
