package domain

import "strings"

// ProblemDraft is a generator response split into its labeled sections
type ProblemDraft struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	CasesText      string     `json:"test_cases"`
	ExpectedOutput string     `json:"expected_output"`
	Difficulty     Difficulty `json:"difficulty"`
}

// Difficulty is the problem difficulty requested from the generator
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps free text such as "Medium（中等）" to a
// difficulty, defaulting to easy
func ParseDifficulty(s string) Difficulty {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "hard"), strings.Contains(s, "困难"):
		return DifficultyHard
	case strings.Contains(s, "medium"), strings.Contains(s, "中等"):
		return DifficultyMedium
	default:
		return DifficultyEasy
	}
}

// ValidationReport is the generator's review of a draft
type ValidationReport struct {
	Passed bool   `json:"passed"`
	Notes  string `json:"notes"`
}
