package extract

import "github.com/felixgeelhaar/exemplar/internal/domain"

// FallbackSplit bisects the non-blank lines: the first ceil(n/2) become
// input, the rest output. The result is always flagged.
func FallbackSplit(lines []string) []domain.TestCase {
	content := nonBlank(lines)
	mid := (len(content) + 1) / 2
	return []domain.TestCase{{
		Input:             joinLines(content[:mid]),
		Output:            joinLines(content[mid:]),
		NeedsManualReview: true,
	}}
}
