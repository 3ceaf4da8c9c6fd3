package extract

import "strings"

// Boundary classifies a line that marks a transition between input and
// output sections
type Boundary int

const (
	NoBoundary          Boundary = iota
	SeparatorBoundary            // ---, ===, ***
	EnumerationBoundary          // "1." starts a new record
	LabelBoundary                // 输入N： / 输出N：
	BlankBeforeLabel             // blank line just before a labeled section
	DoubleBlank                  // blank line inside a run of blanks
)

func (b Boundary) String() string {
	switch b {
	case SeparatorBoundary:
		return "separator"
	case EnumerationBoundary:
		return "enumeration"
	case LabelBoundary:
		return "label"
	case BlankBeforeLabel:
		return "blank_before_label"
	case DoubleBlank:
		return "double_blank"
	default:
		return "none"
	}
}

// IsBoundary reports whether lines[i] marks a section transition
func IsBoundary(lines []string, i int) bool {
	return Classify(lines, i) != NoBoundary
}

// Classify applies the boundary rules in order; the first match wins
func Classify(lines []string, i int) Boundary {
	if i < 0 || i >= len(lines) {
		return NoBoundary
	}

	line := strings.TrimSpace(lines[i])
	switch {
	case separatorLine.MatchString(line):
		return SeparatorBoundary
	case enumerationLine.MatchString(line):
		return EnumerationBoundary
	case numberedLabel.MatchString(line):
		return LabelBoundary
	case line != "":
		return NoBoundary
	}

	if i > 0 && !isBlank(lines[i-1]) && labelAhead(lines, i) {
		return BlankBeforeLabel
	}
	if i > 0 && i < len(lines)-1 && isBlank(lines[i-1]) && isBlank(lines[i+1]) {
		return DoubleBlank
	}
	return NoBoundary
}

// labelAhead looks at the two lines after i for section vocabulary
func labelAhead(lines []string, i int) bool {
	for j := i + 1; j <= i+2 && j < len(lines); j++ {
		if mentionsSection(lines[j]) {
			return true
		}
	}
	return false
}
