package extract

import (
	"regexp"
	"strconv"

	"github.com/felixgeelhaar/exemplar/internal/domain"
)

// maxInlineIndex bounds the case count a legacy label can create, so a
// stray "输入2024：" cannot expand into thousands of empty cases.
const maxInlineIndex = 500

var (
	blockHeader = regexp.MustCompile(`测试用例\s*(\d+)\s*[:：]`)
	blockInput  = regexp.MustCompile(`输入\d*\s*[:：]`)
	blockOutput = regexp.MustCompile(`输出\d*\s*[:：]`)
	inlineLabel = regexp.MustCompile(`(输入|输出)\s*(\d+)\s*[:：]`)
)

// TryStructured recognizes the two labeled formats. The block format
// ("测试用例N:" headers with 输入：/输出： sections) is tried first; the
// legacy inline format (输入N：/输出N：) second. Nil when neither applies.
func TryStructured(text string) []domain.TestCase {
	text = normalizeNewlines(text)
	if cases := parseBlocks(text); len(cases) > 0 {
		return cases
	}
	return parseInlineLabels(text)
}

func parseBlocks(text string) []domain.TestCase {
	headers := blockHeader.FindAllStringIndex(text, -1)
	if len(headers) == 0 {
		return nil
	}

	var cases []domain.TestCase
	for i, h := range headers {
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		segment := text[h[1]:end]

		in := blockInput.FindStringIndex(segment)
		if in == nil {
			continue
		}
		rest := segment[in[1]:]
		out := blockOutput.FindStringIndex(rest)
		if out == nil {
			continue
		}
		cases = append(cases, domain.TestCase{
			Input:  trimBlock(rest[:out[0]]),
			Output: trimBlock(rest[out[1]:]),
		})
	}
	return cases
}

func parseInlineLabels(text string) []domain.TestCase {
	labels := inlineLabel.FindAllStringSubmatchIndex(text, -1)
	if len(labels) == 0 {
		return nil
	}

	inputs := make(map[int]string)
	outputs := make(map[int]string)
	last := 0
	for i, loc := range labels {
		n, err := strconv.Atoi(text[loc[4]:loc[5]])
		if err != nil || n < 1 || n > maxInlineIndex {
			continue
		}
		end := len(text)
		if i+1 < len(labels) {
			end = labels[i+1][0]
		}

		target := inputs
		if text[loc[2]:loc[3]] == "输出" {
			target = outputs
		}
		// first occurrence of an index wins
		if _, seen := target[n]; !seen {
			target[n] = trimBlock(text[loc[1]:end])
		}
		if n > last {
			last = n
		}
	}
	if last == 0 {
		return nil
	}

	cases := make([]domain.TestCase, 0, last)
	for n := 1; n <= last; n++ {
		in, hasIn := inputs[n]
		out, hasOut := outputs[n]
		cases = append(cases, domain.TestCase{
			Input:             in,
			Output:            out,
			NeedsManualReview: !hasIn || !hasOut,
		})
	}
	return cases
}
