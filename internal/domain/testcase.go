package domain

import (
	"encoding/json"
	"regexp"
)

// TestCase is one recovered (input, output) example
type TestCase struct {
	Input             string `json:"input"`
	Output            string `json:"output"`
	NeedsManualReview bool   `json:"needs_manual_review"`
}

// TestCaseList is an ordered list of test cases. Position is the identity:
// the first entry is example 1, the second example 2, and so on.
type TestCaseList []TestCase

// SubmissionCase is the persisted shape of a test case, without review state
type SubmissionCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

var (
	inputMarker  = regexp.MustCompile(`输入\d*\s*[:：]`)
	outputMarker = regexp.MustCompile(`输出\d*\s*[:：]`)
)

// AssessCase builds a test case and flags it when the pair looks unreliable:
// either side empty, or one side carrying the other side's section marker.
func AssessCase(input, output string) TestCase {
	tc := TestCase{Input: input, Output: output}
	tc.NeedsManualReview = tc.incomplete() || tc.contaminated()
	return tc
}

// EmptyTestCaseList returns the defined empty state: one blank, unflagged case.
func EmptyTestCaseList() TestCaseList {
	return TestCaseList{{}}
}

func (c TestCase) incomplete() bool {
	return c.Input == "" || c.Output == ""
}

func (c TestCase) contaminated() bool {
	return outputMarker.MatchString(c.Input) || inputMarker.MatchString(c.Output)
}

// IsEmpty reports whether both sides are empty
func (c TestCase) IsEmpty() bool {
	return c.Input == "" && c.Output == ""
}

// Clone returns an independent copy of the list
func (l TestCaseList) Clone() TestCaseList {
	if l == nil {
		return nil
	}
	out := make(TestCaseList, len(l))
	copy(out, l)
	return out
}

// NeedsReview reports whether any case is flagged
func (l TestCaseList) NeedsReview() bool {
	for _, c := range l {
		if c.NeedsManualReview {
			return true
		}
	}
	return false
}

// ReviewCount returns the number of flagged cases
func (l TestCaseList) ReviewCount() int {
	n := 0
	for _, c := range l {
		if c.NeedsManualReview {
			n++
		}
	}
	return n
}

// Submission drops review state for persistence
func (l TestCaseList) Submission() []SubmissionCase {
	out := make([]SubmissionCase, len(l))
	for i, c := range l {
		out[i] = SubmissionCase{Input: c.Input, Output: c.Output}
	}
	return out
}

// MarshalSubmission encodes the list as a JSON array of {input, output}
func (l TestCaseList) MarshalSubmission() ([]byte, error) {
	return json.Marshal(l.Submission())
}
