package fixture

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/exemplar/internal/domain"
)

// MemoryStore is an in-process Store, used by tests and the stateless
// extract paths
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[uuid.UUID]*domain.FixtureSet
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[uuid.UUID]*domain.FixtureSet)}
}

func (m *MemoryStore) Save(_ context.Context, set *domain.FixtureSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *set
	cp.Cases = set.Cases.Clone()
	m.sets[set.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*domain.FixtureSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.sets[id]
	if !ok {
		return nil, domain.ErrFixtureSetNotFound
	}
	cp := *set
	cp.Cases = set.Cases.Clone()
	return &cp, nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]*domain.FixtureSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.FixtureSet, 0, len(m.sets))
	for _, set := range m.sets {
		cp := *set
		cp.Cases = set.Cases.Clone()
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sets[id]; !ok {
		return domain.ErrFixtureSetNotFound
	}
	delete(m.sets, id)
	return nil
}
