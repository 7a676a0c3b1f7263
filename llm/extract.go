package llm

import (
	"strings"
)

// ExtractJSON locates the first balanced JSON object or array inside raw
// model text. Code-fence artifacts are stripped first, so both fenced and
// bare responses work. Returns a malformed-output error when no balanced
// JSON value is present.
func ExtractJSON(text string) (string, error) {
	cleaned := stripCodeFences(text)

	start := -1
	for i, r := range cleaned {
		if r == '{' || r == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", NewMalformedError("no JSON object or array in model output", nil)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(cleaned); i++ {
		c := cleaned[i]
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
				return cleaned[start : i+1], nil
			}
		}
	}

	return "", NewMalformedError("unbalanced JSON in model output", nil)
}

// stripCodeFences removes markdown code-fence lines (``` and ```json) that
// models commonly wrap structured output in.
func stripCodeFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
