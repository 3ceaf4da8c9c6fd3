// Package postgres stores fixture sets in PostgreSQL for the shared
// server deployment.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/exemplar/internal/domain"
	"github.com/felixgeelhaar/exemplar/internal/fixture"
)

const schema = `
CREATE TABLE IF NOT EXISTS fixture_sets (
	id              UUID PRIMARY KEY,
	title           TEXT NOT NULL,
	strategy        TEXT NOT NULL,
	cases_text      TEXT NOT NULL DEFAULT '',
	expected_output TEXT NOT NULL DEFAULT '',
	cases           JSONB NOT NULL DEFAULT '[]',
	needs_review    INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fixture_sets_created ON fixture_sets (created_at DESC);
`

// Connect opens a pool and verifies the server is reachable
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// FixtureStore implements fixture.Store using PostgreSQL
type FixtureStore struct {
	pool *pgxpool.Pool
}

var _ fixture.Store = (*FixtureStore)(nil)

// NewFixtureStore creates a new PostgreSQL fixture store
func NewFixtureStore(pool *pgxpool.Pool) *FixtureStore {
	return &FixtureStore{pool: pool}
}

// EnsureSchema creates the tables if they do not exist
func (s *FixtureStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Save upserts a fixture set
func (s *FixtureStore) Save(ctx context.Context, set *domain.FixtureSet) error {
	query := `
		INSERT INTO fixture_sets (id, title, strategy, cases_text, expected_output, cases, needs_review, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			strategy = EXCLUDED.strategy,
			cases_text = EXCLUDED.cases_text,
			expected_output = EXCLUDED.expected_output,
			cases = EXCLUDED.cases,
			needs_review = EXCLUDED.needs_review,
			updated_at = EXCLUDED.updated_at
	`
	cases := set.Cases
	if cases == nil {
		cases = domain.TestCaseList{}
	}
	_, err := s.pool.Exec(ctx, query,
		set.ID, set.Title, set.Strategy,
		set.Source.CasesText, set.Source.ExpectedOutput,
		cases, cases.ReviewCount(),
		set.CreatedAt, set.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert fixture set: %w", err)
	}
	return nil
}

// Get retrieves a fixture set by ID
func (s *FixtureStore) Get(ctx context.Context, id uuid.UUID) (*domain.FixtureSet, error) {
	query := `
		SELECT id, title, strategy, cases_text, expected_output, cases, created_at, updated_at
		FROM fixture_sets WHERE id = $1
	`
	set, err := scanFixtureSet(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFixtureSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get fixture set: %w", err)
	}
	return set, nil
}

// List returns up to limit sets, newest first
func (s *FixtureStore) List(ctx context.Context, limit int) ([]*domain.FixtureSet, error) {
	query := `
		SELECT id, title, strategy, cases_text, expected_output, cases, created_at, updated_at
		FROM fixture_sets ORDER BY created_at DESC LIMIT $1
	`
	var arg any = limit
	if limit <= 0 {
		arg = nil // LIMIT NULL is no limit
	}
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list fixture sets: %w", err)
	}
	defer rows.Close()

	var sets []*domain.FixtureSet
	for rows.Next() {
		set, err := scanFixtureSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fixture set: %w", err)
		}
		sets = append(sets, set)
	}
	return sets, rows.Err()
}

// Delete removes a fixture set
func (s *FixtureStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM fixture_sets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete fixture set: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFixtureSetNotFound
	}
	return nil
}

func scanFixtureSet(row pgx.Row) (*domain.FixtureSet, error) {
	set := &domain.FixtureSet{}
	err := row.Scan(
		&set.ID, &set.Title, &set.Strategy,
		&set.Source.CasesText, &set.Source.ExpectedOutput,
		&set.Cases, &set.CreatedAt, &set.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return set, nil
}
