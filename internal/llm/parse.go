package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var reCodeFence = regexp.MustCompile("```(?:json|JSON)?")

// StripCodeFences removes markdown code-fence markers, keeping their content.
func StripCodeFences(s string) string {
	return strings.TrimSpace(reCodeFence.ReplaceAllString(s, ""))
}

// FirstJSONObject returns the first balanced {...} span in s. Braces inside
// JSON string literals are ignored.
func FirstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	for start >= 0 {
		if end := matchBrace(s, start); end > 0 {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBrace(s string, start int) int {
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
				return i
			}
		}
	}
	return -1
}

// ParseObject recovers a JSON object from a raw provider response.
func ParseObject(raw string) (map[string]any, []byte, error) {
	cleaned := StripCodeFences(raw)
	span, ok := FirstJSONObject(cleaned)
	if !ok {
		return nil, nil, &FormatError{Reason: "no JSON object found", Raw: raw}
	}
	// numbers stay json.Number so long ids keep every digit
	dec := json.NewDecoder(strings.NewReader(span))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, nil, &FormatError{Reason: "malformed JSON", Raw: raw, Cause: err}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, nil, &FormatError{Reason: "response JSON is not an object", Raw: raw}
	}
	return obj, []byte(span), nil
}
