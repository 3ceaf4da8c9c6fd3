package fixture

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize prepares a case field for comparison by the judge: line
// endings unified, trailing whitespace stripped per line, outer blank
// lines dropped, Unicode composed (NFC) so full-width punctuation and
// accented text compare byte for byte.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRightFunc(l, unicode.IsSpace)
	}

	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	return norm.NFC.String(strings.Join(lines[start:end], "\n"))
}
