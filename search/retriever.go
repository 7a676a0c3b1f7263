package search

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/courseforge/courseforge/course"
)

// Article and outline scores blend domain authority with the backend's own
// relevance. Outlines favor authority more heavily. The weights are fixed
// policy values.
const (
	articleDomainWeight    = 0.5
	articleRelevanceWeight = 0.5
	outlineDomainWeight    = 0.6
	outlineRelevanceWeight = 0.4
)

// DefaultResultLimit bounds each ranked list in a bundle.
const DefaultResultLimit = 8

// Retriever merges external knowledge sources into a single ranked
// ContextBundle per topic.
type Retriever struct {
	primary      BundleBackend
	encyclopedia Backend
	web          Backend
	limit        int
	logger       zerolog.Logger
}

// NewRetriever creates a Retriever. Any backend may be nil; a nil backend
// simply contributes nothing.
func NewRetriever(primary BundleBackend, encyclopedia, web Backend, limit int, logger zerolog.Logger) *Retriever {
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	return &Retriever{
		primary:      primary,
		encyclopedia: encyclopedia,
		web:          web,
		limit:        limit,
		logger:       logger.With().Str("component", "retriever").Logger(),
	}
}

// Retrieve builds the context bundle for a topic. It never fails: the worst
// case, with every backend down, is an empty bundle.
func (r *Retriever) Retrieve(ctx context.Context, topic string, topicType course.TopicType) *course.ContextBundle {
	bundle := r.fetchPrimary(ctx, topic, topicType)

	if len(bundle.Outlines) == 0 && len(bundle.Articles) == 0 {
		r.logger.Debug().Str("topic", topic).Msg("Primary backend empty, falling back to encyclopedia + web")
		bundle.Articles = r.fallbackArticles(ctx, topic)
	}

	r.rank(bundle)
	r.logger.Info().
		Str("topic", topic).
		Str("topic_type", string(topicType)).
		Int("outlines", len(bundle.Outlines)).
		Int("articles", len(bundle.Articles)).
		Int("key_facts", len(bundle.KeyFacts)).
		Msg("Context retrieval complete")
	return bundle
}

func (r *Retriever) fetchPrimary(ctx context.Context, topic string, topicType course.TopicType) *course.ContextBundle {
	if r.primary == nil {
		return &course.ContextBundle{}
	}
	bundle, err := r.primary.Fetch(ctx, topic, topicType, r.limit)
	if err != nil {
		r.logger.Warn().Err(err).Str("backend", r.primary.Name()).Msg("Primary knowledge backend failed")
		return &course.ContextBundle{}
	}
	if bundle == nil {
		return &course.ContextBundle{}
	}
	return bundle
}

// fallbackArticles queries the encyclopedia and web backends concurrently and
// merges their outputs. Each backend failure degrades to an empty slice.
func (r *Retriever) fallbackArticles(ctx context.Context, topic string) []course.Article {
	backends := []Backend{r.encyclopedia, r.web}
	results := make([][]Result, len(backends))

	var wg sync.WaitGroup
	for i, b := range backends {
		if b == nil {
			continue
		}
		wg.Add(1)
		go func(i int, b Backend) {
			defer wg.Done()
			items, err := b.Search(ctx, topic, r.limit)
			if err != nil {
				r.logger.Warn().Err(err).Str("backend", b.Name()).Msg("Fallback backend failed")
				return
			}
			results[i] = items
		}(i, b)
	}
	wg.Wait()

	merged := lo.Flatten(results)
	articles := lo.Map(merged, func(item Result, _ int) course.Article {
		return course.Article{
			Title:     item.Title,
			Snippet:   item.Snippet,
			URL:       item.URL,
			Relevance: item.Score,
		}
	})
	return lo.UniqBy(articles, func(a course.Article) string { return a.URL })
}

// rank applies domain-weighted scoring, sorts descending, and truncates each
// list to the retriever's limit.
func (r *Retriever) rank(bundle *course.ContextBundle) {
	for i := range bundle.Articles {
		a := &bundle.Articles[i]
		a.Relevance = articleDomainWeight*DomainWeight(a.URL) + articleRelevanceWeight*clamp01(a.Relevance)
	}
	sort.SliceStable(bundle.Articles, func(i, j int) bool {
		return bundle.Articles[i].Relevance > bundle.Articles[j].Relevance
	})
	if len(bundle.Articles) > r.limit {
		bundle.Articles = bundle.Articles[:r.limit]
	}

	// Outlines carry no per-item relevance from the backend, so ordering is
	// by source authority alone, blended with list position.
	if len(bundle.Outlines) > 1 {
		n := len(bundle.Outlines)
		type scored struct {
			outline course.Outline
			score   float64
		}
		scoredOutlines := lo.Map(bundle.Outlines, func(o course.Outline, i int) scored {
			positional := 1.0 - float64(i)/float64(n)
			return scored{
				outline: o,
				score:   outlineDomainWeight*DomainWeight(o.Source) + outlineRelevanceWeight*positional,
			}
		})
		sort.SliceStable(scoredOutlines, func(i, j int) bool {
			return scoredOutlines[i].score > scoredOutlines[j].score
		})
		bundle.Outlines = lo.Map(scoredOutlines, func(s scored, _ int) course.Outline { return s.outline })
	}
	if len(bundle.Outlines) > r.limit {
		bundle.Outlines = bundle.Outlines[:r.limit]
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
