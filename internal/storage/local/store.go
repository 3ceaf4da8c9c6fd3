// Package local stores fixture sets as JSON files, one file per set.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/exemplar/internal/domain"
)

// FixtureStore keeps each fixture set in <basePath>/<id>.json
type FixtureStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFixtureStore creates the directory if needed
func NewFixtureStore(basePath string) (*FixtureStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FixtureStore{basePath: basePath}, nil
}

func (s *FixtureStore) path(id uuid.UUID) string {
	return filepath.Join(s.basePath, id.String()+".json")
}

// Save writes the set atomically: a temp file is renamed over the old one
func (s *FixtureStore) Save(_ context.Context, set *domain.FixtureSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	tmp, err := os.CreateTemp(s.basePath, ".fixture-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(set.ID)); err != nil {
		return fmt.Errorf("rename fixture file: %w", err)
	}
	return nil
}

// Get reads a fixture set
func (s *FixtureStore) Get(_ context.Context, id uuid.UUID) (*domain.FixtureSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(s.path(id))
}

func (s *FixtureStore) load(path string) (*domain.FixtureSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrFixtureSetNotFound
		}
		return nil, fmt.Errorf("read file: %w", err)
	}

	var set domain.FixtureSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return &set, nil
}

// List returns up to limit sets, newest first
func (s *FixtureStore) List(_ context.Context, limit int) ([]*domain.FixtureSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*domain.FixtureSet{}, nil
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}

	sets := make([]*domain.FixtureSet, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		set, err := s.load(filepath.Join(s.basePath, name))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		sets = append(sets, set)
	}

	sort.Slice(sets, func(i, j int) bool {
		return sets[i].CreatedAt.After(sets[j].CreatedAt)
	})
	if limit > 0 && len(sets) > limit {
		sets = sets[:limit]
	}
	return sets, nil
}

// Delete removes a fixture set file
func (s *FixtureStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ErrFixtureSetNotFound
		}
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}
