// Package cache persists completed pipeline results keyed by a normalized
// query hash with a time-to-live, making the expensive generation pipeline
// idempotent per query.
package cache

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// NormalizeQuery canonicalizes a query for cache keying: lowercase with all
// whitespace runs collapsed to single spaces. The function is idempotent.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// QueryHash returns the stable cache key for a query: FNV-1a over the
// normalized form, hex encoded. Non-cryptographic on purpose; the key only
// needs stability, not collision resistance against an adversary.
func QueryHash(query string) string {
	h := fnv.New64a()
	h.Write([]byte(NormalizeQuery(query))) //nolint:errcheck // never fails
	return fmt.Sprintf("%016x", h.Sum64())
}
