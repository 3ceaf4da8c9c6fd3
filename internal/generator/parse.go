package generator

import (
	"regexp"
	"strings"

	"github.com/felixgeelhaar/exemplar/internal/domain"
)

var (
	titleSection       = regexp.MustCompile(`题目名称[：:]\s*(.+)`)
	descriptionSection = regexp.MustCompile(`(?s)题目描述[：:]\s*(.*?)(?:测试用例[：:]|$)`)
	casesSection       = regexp.MustCompile(`(?s)测试用例[：:]\s*(.*?)(?:预期输出[：:]|$)`)
	expectedSection    = regexp.MustCompile(`(?s)预期输出[：:]\s*(.*?)(?:难度[：:]|$)`)
	difficultySection  = regexp.MustCompile(`难度[：:]\s*(.+)`)
)

// ParseDraft splits a generator response into its labeled sections.
// Missing sections stay empty; a missing difficulty defaults to easy.
func ParseDraft(response string) domain.ProblemDraft {
	response = strings.ReplaceAll(response, "\r\n", "\n")
	return domain.ProblemDraft{
		Title:          firstGroup(titleSection, response),
		Description:    firstGroup(descriptionSection, response),
		CasesText:      firstGroup(casesSection, response),
		ExpectedOutput: firstGroup(expectedSection, response),
		Difficulty:     domain.ParseDifficulty(firstGroup(difficultySection, response)),
	}
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
