package generator

import (
	"regexp"
	"strings"

	"github.com/courseforge/courseforge/course"
)

// Key terms are marked in theory text as ==term==. Definitions are looked for
// on the marking line using two fixed patterns; anything else gets the
// generic placeholder.
var (
	termPattern       = regexp.MustCompile(`==([^=\n]+)==`)
	dashDefPattern    = regexp.MustCompile(`==[^=\n]+==\s*[—–-]+\s*(.+)`)
	copulaDefPattern  = regexp.MustCompile(`==[^=\n]+==\s+(?:is|are|represents)\s+(.+)`)
	placeholderSuffix = "is introduced in this lesson."
)

// ExtractKeyTerms scans text for ==term== spans and pairs each with a
// same-line definition when one of the known patterns matches. Terms are
// deduplicated case-insensitively by first occurrence.
func ExtractKeyTerms(text string) []course.KeyTerm {
	var terms []course.KeyTerm
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		matches := termPattern.FindAllStringSubmatch(line, -1)
		if matches == nil {
			continue
		}
		for _, m := range matches {
			term := strings.TrimSpace(m[1])
			if term == "" {
				continue
			}
			key := strings.ToLower(term)
			if seen[key] {
				continue
			}
			seen[key] = true
			terms = append(terms, course.KeyTerm{
				Term:       term,
				Definition: findDefinition(line, term),
			})
		}
	}
	return terms
}

// findDefinition tries the "term — definition" pattern, then the
// "term is/represents definition" pattern, then falls back to a placeholder.
func findDefinition(line, term string) string {
	if m := dashDefPattern.FindStringSubmatch(line); m != nil {
		return trimDefinition(m[1])
	}
	if m := copulaDefPattern.FindStringSubmatch(line); m != nil {
		return trimDefinition(m[1])
	}
	return term + " " + placeholderSuffix
}

// trimDefinition cuts a captured definition at the end of its sentence and
// strips any term markers left inside it.
func trimDefinition(def string) string {
	if idx := strings.IndexAny(def, ".!?"); idx >= 0 {
		def = def[:idx+1]
	}
	def = termPattern.ReplaceAllString(def, "$1")
	return strings.TrimSpace(def)
}
