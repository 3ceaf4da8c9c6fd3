package extract

import "github.com/felixgeelhaar/exemplar/internal/domain"

// SplitByFeatures splits unlabeled lines into an input region and an
// output region using content features. It always returns at least one
// case, falling back to FallbackSplit when no split point exists.
func SplitByFeatures(lines []string) []domain.TestCase {
	if cases := splitOnFeatures(lines); cases != nil {
		return cases
	}
	return FallbackSplit(lines)
}

// splitOnFeatures is SplitByFeatures without the fallback
func splitOnFeatures(lines []string) []domain.TestCase {
	in, out, ok := findSplitPoint(lines)
	if !ok {
		return nil
	}
	return subdivide(in, out)
}

// findSplitPoint tries, in order: a separator or blank line between two
// non-blank lines, then a bare integer directly after a bare integer.
func findSplitPoint(lines []string) (in, out []string, ok bool) {
	for i := 1; i < len(lines)-1; i++ {
		if (isSeparator(lines[i]) || isBlank(lines[i])) && !isBlank(lines[i-1]) && !isBlank(lines[i+1]) {
			return lines[:i], lines[i+1:], true
		}
	}
	for i := 1; i < len(lines); i++ {
		if isBareInteger(lines[i]) && isBareInteger(lines[i-1]) {
			return lines[:i], lines[i:], true
		}
	}
	return nil, nil, false
}

// subdivide pairs numbered segments of both regions when they line up,
// otherwise it keeps the regions as a single case.
func subdivide(in, out []string) []domain.TestCase {
	inSegs := markerSegments(in)
	outSegs := markerSegments(out)

	if len(inSegs) > 1 && len(inSegs) == len(outSegs) && segmentsFilled(inSegs, outSegs) {
		cases := make([]domain.TestCase, len(inSegs))
		for i := range inSegs {
			cases[i] = domain.AssessCase(joinLines(inSegs[i]), joinLines(outSegs[i]))
		}
		return cases
	}
	return []domain.TestCase{domain.AssessCase(joinLines(nonBlank(in)), joinLines(nonBlank(out)))}
}

// markerSegments cuts a region at bare-integer marker lines. Marker lines
// are dropped; content before the first marker joins the first segment.
func markerSegments(lines []string) [][]string {
	var (
		segs    [][]string
		preface []string
	)
	for _, l := range nonBlank(lines) {
		switch {
		case isBareInteger(l):
			segs = append(segs, nil)
		case len(segs) == 0:
			preface = append(preface, l)
		default:
			segs[len(segs)-1] = append(segs[len(segs)-1], l)
		}
	}
	if len(segs) > 0 && len(preface) > 0 {
		segs[0] = append(preface, segs[0]...)
	}
	return segs
}

func segmentsFilled(a, b [][]string) bool {
	for i := range a {
		if len(a[i]) == 0 || len(b[i]) == 0 {
			return false
		}
	}
	return true
}
