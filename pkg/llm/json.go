package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSONObject is returned when a reply contains no balanced {...} span.
var ErrNoJSONObject = errors.New("no JSON object found in response")

// ExtractJSONObject returns the first balanced {...} span in text. Braces inside
// string literals do not count. The span is not checked for validity; callers
// decode it and treat a decode error as an analysis failure.
func ExtractJSONObject(text string) (string, error) {
	if span, ok := extractBalancedJSON(text, '{', '}'); ok {
		return span, nil
	}
	return "", ErrNoJSONObject
}

// extractBalancedJSON finds the first balanced structure starting with openChar.
// It handles nested structures by counting bracket depth.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case openChar:
			depth++
		case closeChar:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// ParseJSONObject extracts the first JSON object from a reply and unmarshals it into T.
func ParseJSONObject[T any](text string) (T, error) {
	var result T

	span, err := ExtractJSONObject(text)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(span), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return result, nil
}
