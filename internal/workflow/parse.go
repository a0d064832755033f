package workflow

import (
	"encoding/json"
	"strings"
)

// Model responses are asked for strict JSON but rarely guaranteed to be. The
// recovery runs in tiers: strip code fences, try a direct parse, then parse
// the first balanced brace-delimited substring. Callers apply their own
// terminal fallback when both tiers fail.

// stripCodeFences removes markdown ``` fences (with optional language tag)
// wrapping a response.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	// Drop the opening fence line (``` or ```json)
	if strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
	}
	// Drop a closing fence line
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// decodeModelJSON unmarshals a model response into v: direct parse first,
// then the first balanced JSON object found in the text. Returns false when
// no tier produced valid JSON.
func decodeModelJSON(text string, v any) bool {
	if json.Unmarshal([]byte(text), v) == nil {
		return true
	}
	if obj, ok := firstJSONObject(text); ok {
		if json.Unmarshal([]byte(obj), v) == nil {
			return true
		}
	}
	return false
}

// firstJSONObject scans for the first balanced {...} substring, tracking
// string literals and escapes so braces inside values don't break the scan.
func firstJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}
	return "", false
}
