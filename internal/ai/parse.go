package ai

import "strings"

// cleanJSONResponse strips markdown code fences and isolates the first
// balanced JSON object. Models occasionally wrap their JSON even in JSON
// mode.
func cleanJSONResponse(resp string) string {
	cleaned := strings.TrimSpace(resp)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	if jsonStr, ok := extractFirstJSONObject(cleaned); ok {
		return jsonStr
	}
	return cleaned
}

// extractFirstJSONObject finds the first outermost balanced {...}.
func extractFirstJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		char := s[i]

		if escaped {
			escaped = false
			continue
		}

		if char == '\\' {
			escaped = true
			continue
		}

		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			if char == '{' {
				depth++
			} else if char == '}' {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}

	return "", false
}

// clip bounds a grounding field to maxLen bytes without splitting a UTF-8
// rune. Truncation only bounds prompt size; it never changes meaning.
func clip(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
