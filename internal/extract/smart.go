package extract

import (
	"regexp"
	"strings"

	"github.com/felixgeelhaar/exemplar/internal/domain"
)

type section int

const (
	inputSection section = iota
	outputSection
)

// sectionLabel matches 输入：, 输出2：, 输入样例：, 样例输出1： and similar
var (
	sectionLabel  = regexp.MustCompile(`^(?:样例|示例)?(输入|输出)(?:样例|示例)?\s*\d*\s*[:：]\s*(.*)$`)
	embeddedLabel = regexp.MustCompile(`(?:样例|示例)?(?:输入|输出)(?:样例|示例)?\s*\d*\s*[:：]`)
)

// splitState is the fold accumulator of the smart splitter. It is passed
// and returned by value; step never mutates the slices it was given.
type splitState struct {
	section section
	input   []string
	output  []string
	cases   []domain.TestCase
	open    bool // a section label opened the current case
	cues    int  // structural cues seen so far
}

func (s splitState) appendLine(line string) splitState {
	if s.section == inputSection {
		s.input = append(s.input[:len(s.input):len(s.input)], line)
	} else {
		s.output = append(s.output[:len(s.output):len(s.output)], line)
	}
	return s
}

func (s splitState) pending() bool {
	return s.open || len(s.input) > 0 || len(s.output) > 0
}

// flush closes the current case, if any
func (s splitState) flush() splitState {
	if !s.pending() {
		return s
	}
	tc := domain.AssessCase(joinLines(s.input), joinLines(s.output))
	s.cases = append(s.cases[:len(s.cases):len(s.cases)], tc)
	s.input, s.output, s.open = nil, nil, false
	return s
}

func parseSectionLabel(line string) (section, string, bool) {
	m := sectionLabel.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, "", false
	}
	if m[1] == "输出" {
		return outputSection, m[2], true
	}
	return inputSection, m[2], true
}

// step advances the splitter by one line
func step(s splitState, line string, b Boundary) splitState {
	if kind, rest, ok := parseSectionLabel(line); ok {
		s.cues++
		switch kind {
		case inputSection:
			if len(s.input) > 0 || len(s.output) > 0 || (s.open && s.section == outputSection) {
				s = s.flush()
			}
		case outputSection:
			// a boundary may already have moved an open input section to
			// output; only buffered output closes the case
			if len(s.output) > 0 {
				s = s.flush()
			}
		}
		s.section = kind
		s.open = true

		// "输入：1 2 输出：3" carries both sections on one line
		if loc := embeddedLabel.FindStringIndex(rest); loc != nil {
			if head := strings.TrimSpace(rest[:loc[0]]); head != "" {
				s = s.appendLine(head)
			}
			return step(s, rest[loc[0]:], NoBoundary)
		}
		if rest != "" {
			s = s.appendLine(rest)
		}
		return s
	}

	switch b {
	case EnumerationBoundary:
		s.cues++
		s = s.flush()
		s.section = inputSection
		rest := strings.TrimSpace(enumerationLine.ReplaceAllString(strings.TrimSpace(line), ""))
		if rest != "" {
			s = s.appendLine(rest)
		}
		return s
	case SeparatorBoundary, LabelBoundary, BlankBeforeLabel, DoubleBlank:
		s.cues++
		switch {
		case s.section == inputSection && len(s.input) > 0:
			s.section = outputSection
		case s.section == outputSection && len(s.output) > 0:
			s = s.flush()
			s.section = inputSection
		}
		return s
	}

	if isBlank(line) {
		return s
	}
	return s.appendLine(line)
}

// TrySmartSplit folds lines into cases by walking section boundaries.
// It returns nil when no line mentions 输入 or 输出. When the vocabulary
// is present but no structural cue is found it defers to SplitByFeatures.
func TrySmartSplit(lines []string) []domain.TestCase {
	if !hasVocabulary(lines) {
		return nil
	}

	s := splitState{section: inputSection}
	for i, line := range lines {
		s = step(s, line, Classify(lines, i))
	}
	if s.cues == 0 {
		return SplitByFeatures(lines)
	}

	s = s.flush()
	if len(s.cases) == 0 {
		return []domain.TestCase{domain.AssessCase("", "")}
	}
	return s.cases
}
