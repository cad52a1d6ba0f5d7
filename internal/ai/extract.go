package ai

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoJSON is returned when no JSON value can be recovered from model output.
var ErrNoJSON = errors.New("no json value found in model output")

// ExtractJSON recovers the first JSON object or array from model output that may be
// wrapped in markdown fences or surrounded by prose.
func ExtractJSON(raw string) (string, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return "", ErrNoJSON
	}

	if gjson.Valid(cleaned) && (cleaned[0] == '{' || cleaned[0] == '[') {
		return cleaned, nil
	}

	for start := 0; start < len(cleaned); start++ {
		if cleaned[start] != '{' && cleaned[start] != '[' {
			continue
		}
		end := matchingClose(cleaned, start)
		if end == -1 {
			continue
		}
		candidate := cleaned[start : end+1]
		if gjson.Valid(candidate) {
			return candidate, nil
		}
	}

	return "", ErrNoJSON
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// matchingClose returns the index of the bracket closing the one at start,
// skipping over string literals, or -1 when it is never closed.
func matchingClose(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

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
				return i
			}
		}
	}

	return -1
}
