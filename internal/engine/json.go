package engine

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSONObject = errors.New("no JSON object in completion")

// ExtractFirstJSONObject returns the substring spanning the first balanced
// JSON object in s, honoring braces inside string literals. The second
// return is false when no complete object exists.
func ExtractFirstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// stripCodeFences removes a leading/trailing markdown code fence, with or
// without a language tag. Engines often wrap JSON output this way despite
// being told not to.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// drop the language tag line (e.g. "json")
		first := strings.TrimSpace(s[:idx])
		if first == "" || !strings.ContainsAny(first, "{}") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeStructured extracts and unmarshals the first JSON object in raw.
func decodeStructured(raw string) (map[string]any, error) {
	cleaned := stripCodeFences(raw)
	obj, ok := ExtractFirstJSONObject(cleaned)
	if !ok {
		return nil, &ParseError{Raw: raw, Err: errNoJSONObject}
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return out, nil
}
