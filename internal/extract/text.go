package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	separatorLine = regexp.MustCompile(`^(?:-{3,}|={3,}|\*{3,})$`)
	// "N." needs whitespace or end of line after it so decimals such as
	// 3.14 stay data lines
	enumerationLine = regexp.MustCompile(`^\d+\.(?:\s|$)`)
	numberedLabel   = regexp.MustCompile(`^(?:输入|输出)\d+\s*[:：]`)
	bareInteger     = regexp.MustCompile(`^-?\d+$`)
)

// normalizeNewlines converts CRLF and lone CR line endings to LF
func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// splitLines breaks text into lines with trailing whitespace removed and
// leading/trailing blank lines dropped. Inner blank lines are kept because
// several boundary rules depend on them.
func splitLines(text string) []string {
	raw := strings.Split(normalizeNewlines(text), "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimRightFunc(l, unicode.IsSpace)
	}

	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	return lines[start:end]
}

// trimBlock tidies a captured text block: outer whitespace and blank
// lines go, inner line structure stays.
func trimBlock(s string) string {
	return joinLines(splitLines(strings.TrimSpace(s)))
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func isSeparator(line string) bool {
	return separatorLine.MatchString(strings.TrimSpace(line))
}

func isBareInteger(line string) bool {
	return bareInteger.MatchString(strings.TrimSpace(line))
}

func nonBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if !isBlank(l) {
			out = append(out, l)
		}
	}
	return out
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// mentionsSection reports whether a line carries input/output vocabulary
func mentionsSection(line string) bool {
	return strings.Contains(line, "输入") || strings.Contains(line, "输出")
}

func hasVocabulary(lines []string) bool {
	for _, l := range lines {
		if mentionsSection(l) {
			return true
		}
	}
	return false
}
