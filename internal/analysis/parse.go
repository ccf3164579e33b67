package analysis

import (
	"bytes"
	"encoding/json"
	"strings"

	"video-factcheck-go/internal/types"
)

// stripFences removes a surrounding markdown code fence from model output.
func stripFences(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
	for _, p := range []string{"```json", "```JSON", "```"} {
		if strings.HasPrefix(s, p) {
			s = strings.TrimPrefix(s, p)
			break
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractJSON returns the first balanced {...} or [...] block in s that is
// valid JSON, kept whole, and the text after it. block is "" when none is
// found.
func extractJSON(s string) (block, rest string) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' && s[start] != '[' {
			continue
		}
		if end := balancedEnd(s, start); end > 0 && json.Valid([]byte(s[start:end])) {
			return s[start:end], s[end:]
		}
	}
	return "", ""
}

// balancedEnd returns the index just past the bracket closing s[start], or
// -1 when brackets do not balance. Brackets inside strings are ignored.
func balancedEnd(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// parseDocument decodes a model reply into a non-empty JSON document.
// ok is false for unparseable replies and for null, {} and [].
func parseDocument(raw string) (doc json.RawMessage, ok bool) {
	text := stripFences(raw)
	if !json.Valid([]byte(text)) {
		block, rest := extractJSON(text)
		if block == "" {
			return nil, false
		}
		// a second block means the reply is ambiguous
		if more, _ := extractJSON(rest); more != "" {
			return nil, false
		}
		text = block
	}

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, false
	}
	switch v := decoded.(type) {
	case nil:
		return nil, false
	case map[string]any:
		if len(v) == 0 {
			return nil, false
		}
	case []any:
		if len(v) == 0 {
			return nil, false
		}
	}
	return json.RawMessage(text), true
}

// parseVerdicts decodes a fact-check reply. Entries that are null or do not
// decode as a verdict are dropped. ok is false when the reply is not JSON or
// has no "results" array.
func parseVerdicts(raw string) (verdicts []types.Verdict, dropped int, ok bool) {
	doc, ok := parseDocument(raw)
	if !ok {
		return nil, 0, false
	}

	var env struct {
		Results *[]json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(doc, &env); err != nil || env.Results == nil {
		return nil, 0, false
	}

	verdicts = make([]types.Verdict, 0, len(*env.Results))
	for _, item := range *env.Results {
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			dropped++
			continue
		}
		var v types.Verdict
		if err := json.Unmarshal(item, &v); err != nil {
			dropped++
			continue
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, dropped, true
}
