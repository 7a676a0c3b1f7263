// Package search retrieves and ranks external knowledge for a topic query.
//
// A Retriever consults a primary aggregated knowledge backend and, when that
// yields nothing, fans out to an encyclopedic lookup and a general web search
// concurrently. Every backend is independently fault-tolerant: a failing
// backend contributes an empty result set, and retrieval as a whole never
// returns an error.
package search

import (
	"context"

	"github.com/courseforge/courseforge/course"
)

// Result is one raw item from a flat search backend, before domain weighting.
// Score is the backend's own relevance estimate in [0,1].
type Result struct {
	Title   string
	Snippet string
	URL     string
	Score   float64
}

// Backend is a flat search capability. Implementations must be safe for
// concurrent use.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// BundleBackend is an aggregated knowledge capability that returns course
// outlines and key facts in addition to ranked articles.
type BundleBackend interface {
	Name() string
	Fetch(ctx context.Context, topic string, topicType course.TopicType, limit int) (*course.ContextBundle, error)
}
