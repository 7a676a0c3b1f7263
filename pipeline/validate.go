package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

// Query length bounds enforced before the pipeline runs.
const (
	MinQueryLength = 3
	MaxQueryLength = 500
)

// denylistPattern rejects queries carrying markup or prompt-injection
// attempts before they reach any provider.
var denylistPattern = regexp.MustCompile(`(?i)(<\s*script|javascript:|ignore\s+(all\s+)?previous\s+instructions|system\s+prompt)`)

// InvalidQueryError is returned by boundary validation. Validation failures
// never reach the orchestrator, so they have no pipeline side effects.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s", e.Reason)
}

// ValidateQuery guards the pipeline entry point. It rejects empty queries,
// queries outside the length bounds, and denylisted content.
func ValidateQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	switch {
	case trimmed == "":
		return &InvalidQueryError{Reason: "query is empty"}
	case len(trimmed) < MinQueryLength:
		return &InvalidQueryError{Reason: fmt.Sprintf("query shorter than %d characters", MinQueryLength)}
	case len(trimmed) > MaxQueryLength:
		return &InvalidQueryError{Reason: fmt.Sprintf("query longer than %d characters", MaxQueryLength)}
	case denylistPattern.MatchString(trimmed):
		return &InvalidQueryError{Reason: "query matches denied pattern"}
	}
	return nil
}
