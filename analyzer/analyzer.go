// Package analyzer implements the first pipeline stage: classifying a
// free-text query into a topic taxonomy and pairing it with retrieved
// context. The stage degrades but never fails: a gateway failure substitutes
// the deterministic keyword classification, a retrieval failure substitutes
// an empty bundle.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/courseforge/courseforge/course"
	"github.com/courseforge/courseforge/llm"
)

// Confidence scoring: a base value plus a fixed bonus per signal of bundle
// and classification richness, clamped to [0,1]. Policy values.
const (
	confidenceBase  = 0.5
	confidenceBonus = 0.1

	minKeyConceptsForBonus = 5
	minArticlesForBonus    = 3
	maxRecommendedSources  = 5
)

const classifyTimeoutRetries = 2

// ContextRetriever is the retrieval collaborator. Satisfied by
// *search.Retriever.
type ContextRetriever interface {
	Retrieve(ctx context.Context, topic string, topicType course.TopicType) *course.ContextBundle
}

// Analyzer classifies queries into TopicAnalysis values.
type Analyzer struct {
	gateway   *llm.Gateway
	retriever ContextRetriever
	logger    zerolog.Logger
}

// New creates an Analyzer.
func New(gateway *llm.Gateway, retriever ContextRetriever, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		gateway:   gateway,
		retriever: retriever,
		logger:    logger.With().Str("component", "analyzer").Logger(),
	}
}

// classification is the structured shape requested from the model.
type classification struct {
	NormalizedTopic          string   `json:"normalized_topic"`
	Type                     string   `json:"type"`
	Difficulty               string   `json:"difficulty"`
	KeyConcepts              []string `json:"key_concepts"`
	Prerequisites            []string `json:"prerequisites"`
	EstimatedDurationMinutes int      `json:"estimated_duration_minutes"`
}

// Analyze runs the keyword classifier, fans out to the model and the context
// retriever concurrently, and merges the results into a TopicAnalysis.
func (a *Analyzer) Analyze(ctx context.Context, query string) (*course.TopicAnalysis, error) {
	query = strings.TrimSpace(query)
	provisional := course.ClassifyByKeywords(query)

	var (
		classified *classification
		bundle     *course.ContextBundle
	)

	classifyDone := make(chan struct{})
	retrieveDone := make(chan struct{})

	go func() {
		defer close(classifyDone)
		c, err := a.classify(ctx, query)
		if err != nil {
			a.logger.Warn().Err(err).Str("query", query).Msg("Model classification failed, using keyword fallback")
			return
		}
		classified = c
	}()

	go func() {
		defer close(retrieveDone)
		bundle = a.retriever.Retrieve(ctx, query, provisional)
	}()

	<-classifyDone
	<-retrieveDone

	if bundle == nil {
		bundle = &course.ContextBundle{}
	}

	analysis := a.merge(query, provisional, classified, bundle)
	a.logger.Info().
		Str("query", query).
		Str("topic_type", string(analysis.Type)).
		Str("difficulty", string(analysis.Difficulty)).
		Float64("confidence", analysis.Confidence).
		Msg("Topic analysis complete")
	return analysis, nil
}

// classify asks the gateway for a deep classification of the query.
func (a *Analyzer) classify(ctx context.Context, query string) (*classification, error) {
	req := &llm.GenerationRequest{
		System: "You are a curriculum planner. Classify learning queries. " +
			"Respond with a single JSON object and nothing else.",
		Prompt: fmt.Sprintf(`Classify this learning request: %q

Return JSON with fields:
  normalized_topic: short canonical topic name
  type: one of programming, language, science, mathematics, business, creative, practical, general
  difficulty: one of beginner, intermediate, advanced
  key_concepts: 5-10 concepts the course must cover
  prerequisites: prior knowledge required, possibly empty
  estimated_duration_minutes: total course length in minutes`, query),
		Temperature: 0.2,
		MaxTokens:   1024,
		ExpectJSON:  true,
		Retries:     classifyTimeoutRetries,
		Timeout:     30 * time.Second,
	}

	result, err := llm.GenerateStructured(ctx, a.gateway, req, func(c *classification) error {
		if c.NormalizedTopic == "" {
			return fmt.Errorf("normalized_topic is empty")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result.Data, nil
}

// merge combines the model classification (when present), the keyword
// fallback, and the retrieved bundle. Practice formats always come from the
// static table so the vocabulary stays bounded.
func (a *Analyzer) merge(query string, provisional course.TopicType, c *classification, bundle *course.ContextBundle) *course.TopicAnalysis {
	analysis := &course.TopicAnalysis{
		Query:           query,
		NormalizedTopic: query,
		Type:            provisional,
		Difficulty:      course.DifficultyIntermediate,
		Context:         *bundle,
	}

	if c != nil {
		if c.NormalizedTopic != "" {
			analysis.NormalizedTopic = c.NormalizedTopic
		}
		// The model's type wins over the keyword type when it names a known
		// member of the taxonomy.
		if lo.Contains(course.AllTopicTypes, course.TopicType(c.Type)) {
			analysis.Type = course.TopicType(c.Type)
		}
		switch course.Difficulty(c.Difficulty) {
		case course.DifficultyBeginner, course.DifficultyIntermediate, course.DifficultyAdvanced:
			analysis.Difficulty = course.Difficulty(c.Difficulty)
		}
		analysis.KeyConcepts = c.KeyConcepts
		analysis.Prerequisites = c.Prerequisites
		analysis.EstimatedDurationMinutes = c.EstimatedDurationMinutes
	}

	if analysis.EstimatedDurationMinutes <= 0 {
		analysis.EstimatedDurationMinutes = course.DefaultDurationMinutes(analysis.Type)
	}

	analysis.PracticeFormats = course.PracticeFormatsFor(analysis.Type, analysis.Difficulty)

	sources := lo.Map(bundle.Articles, func(art course.Article, _ int) string { return art.URL })
	sources = lo.Compact(sources)
	if len(sources) > maxRecommendedSources {
		sources = sources[:maxRecommendedSources]
	}
	analysis.RecommendedSources = sources

	analysis.Confidence = computeConfidence(analysis, bundle)
	return analysis
}

// computeConfidence derives confidence deterministically from bundle and
// classification richness.
func computeConfidence(analysis *course.TopicAnalysis, bundle *course.ContextBundle) float64 {
	confidence := confidenceBase
	if len(analysis.KeyConcepts) >= minKeyConceptsForBonus {
		confidence += confidenceBonus
	}
	if len(bundle.Outlines) > 0 {
		confidence += confidenceBonus
	}
	if len(bundle.Articles) >= minArticlesForBonus {
		confidence += confidenceBonus
	}
	if len(bundle.KeyFacts) > 0 {
		confidence += confidenceBonus
	}
	if len(analysis.Prerequisites) > 0 {
		confidence += confidenceBonus
	}
	if len(analysis.RecommendedSources) > 0 {
		confidence += confidenceBonus
	}
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}
