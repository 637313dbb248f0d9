package accum

import (
	"encoding/json"
	"strings"
)

// ParsePartialJSON leniently parses a possibly-incomplete JSON object, as
// produced by concatenating streamed tool-argument fragments. The second
// return reports whether the input was complete, valid JSON; when false the
// returned map is a best-effort view of the fragments received so far and may
// be nil if nothing useful could be recovered.
func ParsePartialJSON(raw string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
		return out, true
	}

	repaired := completeJSON(trimmed)
	if err := json.Unmarshal([]byte(repaired), &out); err == nil {
		return out, false
	}
	return nil, false
}

// completeJSON closes open strings, strips dangling separators, and balances
// brackets so a truncated JSON prefix becomes parseable.
func completeJSON(s string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if escaped {
		s = s[:len(s)-1]
	}
	if inString {
		s += `"`
	}

	s = strings.TrimRight(s, " \t\n\r")
	if strings.HasSuffix(s, ",") {
		s = s[:len(s)-1]
	} else if strings.HasSuffix(s, ":") {
		s += "null"
	} else if strings.HasSuffix(s, `"`) && len(stack) > 0 && stack[len(stack)-1] == '{' {
		// A bare string at object depth may be a dangling key.
		if danglingKey(s) {
			s += ":null"
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}

// danglingKey reports whether the trailing string in s sits in key position
// of the innermost object (i.e. is preceded by '{' or ',').
func danglingKey(s string) bool {
	// Find the start of the trailing string.
	end := len(s) - 1
	i := end - 1
	for i >= 0 {
		if s[i] == '"' && (i == 0 || s[i-1] != '\\') {
			break
		}
		i--
	}
	if i < 0 {
		return false
	}
	for j := i - 1; j >= 0; j-- {
		switch s[j] {
		case ' ', '\t', '\n', '\r':
			continue
		case '{', ',':
			return true
		default:
			return false
		}
	}
	return false
}
