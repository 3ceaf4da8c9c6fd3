package domain

import (
	"time"

	"github.com/google/uuid"
)

// FixtureSet is a persisted, editable list of recovered test cases
type FixtureSet struct {
	ID        uuid.UUID     `json:"id"`
	Title     string        `json:"title"`
	Strategy  string        `json:"strategy"` // extraction strategy that produced the cases
	Source    FixtureSource `json:"source"`
	Cases     TestCaseList  `json:"cases"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// FixtureSource keeps the raw text the cases were extracted from
type FixtureSource struct {
	CasesText      string `json:"cases_text"`
	ExpectedOutput string `json:"expected_output"`
}

// NewFixtureSet creates a fixture set with a fresh ID
func NewFixtureSet(title, strategy string, source FixtureSource, cases TestCaseList) *FixtureSet {
	now := time.Now()
	return &FixtureSet{
		ID:        uuid.New(),
		Title:     title,
		Strategy:  strategy,
		Source:    source,
		Cases:     cases.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithCase returns a copy of the set with the case at index replaced.
// The edited case is re-assessed, so a human fix clears the flag only
// once the pair is complete.
func (f *FixtureSet) WithCase(index int, input, output string) (*FixtureSet, error) {
	if index < 0 || index >= len(f.Cases) {
		return nil, ErrCaseIndexOutOfRange
	}
	updated := *f
	updated.Cases = f.Cases.Clone()
	updated.Cases[index] = AssessCase(input, output)
	updated.UpdatedAt = time.Now()
	return &updated, nil
}
