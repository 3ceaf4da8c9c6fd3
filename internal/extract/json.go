package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/felixgeelhaar/exemplar/internal/domain"
)

// TryJSON decodes text as a JSON array of {input, output} objects.
// It returns nil when the text is not a JSON array. Missing or null fields
// become "" and so do non-object elements. Non-string scalars keep their
// JSON text; nested values are re-encoded compactly. JSON cases are never
// flagged.
func TryJSON(text string) []domain.TestCase {
	body := strings.TrimSpace(strings.TrimPrefix(normalizeNewlines(text), "\ufeff"))
	body = stripCodeFence(body)
	if !strings.HasPrefix(body, "[") {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		return nil
	}

	cases := make([]domain.TestCase, 0, len(items))
	for _, item := range items {
		// non-object elements carry no fields and become an empty case
		var fields map[string]json.RawMessage
		_ = json.Unmarshal(item, &fields)
		cases = append(cases, domain.TestCase{
			Input:  coerceField(fields["input"]),
			Output: coerceField(fields["output"]),
		})
	}
	return cases
}

func coerceField(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// stripCodeFence removes a surrounding markdown fence such as ```json
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return s
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
