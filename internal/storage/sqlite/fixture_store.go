package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/exemplar/internal/domain"
	"github.com/felixgeelhaar/exemplar/internal/fixture"
)

// FixtureStore implements fixture persistence backed by SQLite.
type FixtureStore struct {
	db *DB
}

var _ fixture.Store = (*FixtureStore)(nil)

// NewFixtureStore creates a new SQLite-backed fixture store.
func NewFixtureStore(db *DB) *FixtureStore {
	return &FixtureStore{db: db}
}

// Save upserts the set and replaces its cases in one transaction.
func (s *FixtureStore) Save(ctx context.Context, set *domain.FixtureSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fixture_sets (id, title, strategy, cases_text, expected_output, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, strategy=excluded.strategy,
			cases_text=excluded.cases_text, expected_output=excluded.expected_output,
			updated_at=excluded.updated_at`,
		set.ID.String(), set.Title, set.Strategy,
		set.Source.CasesText, set.Source.ExpectedOutput,
		set.CreatedAt, set.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert fixture set: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM fixture_cases WHERE set_id = ?", set.ID.String()); err != nil {
		return fmt.Errorf("clear cases: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fixture_cases (set_id, position, input, output, needs_manual_review)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare case insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range set.Cases {
		if _, err := stmt.ExecContext(ctx, set.ID.String(), i, c.Input, c.Output, boolToInt(c.NeedsManualReview)); err != nil {
			return fmt.Errorf("insert case %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get retrieves a fixture set with its cases.
func (s *FixtureStore) Get(ctx context.Context, id uuid.UUID) (*domain.FixtureSet, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, strategy, cases_text, expected_output, created_at, updated_at
		FROM fixture_sets WHERE id = ?`, id.String())

	set, err := scanFixtureSet(row)
	if err != nil {
		return nil, err
	}
	if set.Cases, err = s.cases(ctx, set.ID); err != nil {
		return nil, err
	}
	return set, nil
}

// List returns up to limit sets, newest first.
func (s *FixtureStore) List(ctx context.Context, limit int) ([]*domain.FixtureSet, error) {
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, strategy, cases_text, expected_output, created_at, updated_at
		FROM fixture_sets ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list fixture sets: %w", err)
	}

	var sets []*domain.FixtureSet
	for rows.Next() {
		set, err := scanFixtureSet(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		sets = append(sets, set)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixture sets: %w", err)
	}

	// cases are loaded after the cursor is closed; the pool has one connection
	for _, set := range sets {
		if set.Cases, err = s.cases(ctx, set.ID); err != nil {
			return nil, err
		}
	}
	return sets, nil
}

// Delete removes a fixture set; its cases cascade.
func (s *FixtureStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM fixture_sets WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("delete fixture set: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrFixtureSetNotFound
	}
	return nil
}

func (s *FixtureStore) cases(ctx context.Context, id uuid.UUID) (domain.TestCaseList, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT input, output, needs_manual_review
		FROM fixture_cases WHERE set_id = ? ORDER BY position`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	cases := domain.TestCaseList{}
	for rows.Next() {
		var (
			c      domain.TestCase
			review int
		)
		if err := rows.Scan(&c.Input, &c.Output, &review); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		c.NeedsManualReview = review != 0
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFixtureSet(row scanner) (*domain.FixtureSet, error) {
	var (
		set domain.FixtureSet
		id  string
	)
	err := row.Scan(&id, &set.Title, &set.Strategy,
		&set.Source.CasesText, &set.Source.ExpectedOutput,
		&set.CreatedAt, &set.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFixtureSetNotFound
		}
		return nil, fmt.Errorf("scan fixture set: %w", err)
	}
	if set.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse fixture id: %w", err)
	}
	return &set, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
