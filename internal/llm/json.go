package llm

import (
	"fmt"
	"strings"
)

// ExtractJSON pulls the first JSON value out of a model completion. Models
// often wrap JSON in markdown code fences or surround it with prose; this
// strips fences and returns the substring from the first opening brace or
// bracket to its matching close.
func ExtractJSON(text string) (string, error) {
	s := strings.TrimSpace(text)

	// Strip a leading markdown fence, with or without a language tag.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			// Drop the rest of the fence line (e.g. "json").
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", fmt.Errorf("no JSON value found in completion")
	}

	open := s[start]
	var closing byte = '}'
	if open == '[' {
		closing = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == closing:
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unterminated JSON value in completion")
}
