// Package course defines the domain model shared by the generation pipeline:
// topic analysis, course structures, generated content, and the taxonomy
// tables that keep topic types, practice formats, and module archetypes in a
// closed, known vocabulary.
package course

import (
	"time"
)

// TopicType classifies a query into one of a closed set of course domains.
// The set is closed on purpose: practice formats, module archetypes, and
// style guidance are all keyed by it.
type TopicType string

const (
	TopicProgramming TopicType = "programming"
	TopicLanguage    TopicType = "language"
	TopicScience     TopicType = "science"
	TopicMathematics TopicType = "mathematics"
	TopicBusiness    TopicType = "business"
	TopicCreative    TopicType = "creative"
	TopicPractical   TopicType = "practical"
	TopicGeneral     TopicType = "general"
)

// AllTopicTypes lists every known topic type. Table lookups fall back to
// TopicGeneral for anything outside this list.
var AllTopicTypes = []TopicType{
	TopicProgramming,
	TopicLanguage,
	TopicScience,
	TopicMathematics,
	TopicBusiness,
	TopicCreative,
	TopicPractical,
	TopicGeneral,
}

// Difficulty is the target audience level of a course or module.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ContentKind describes the pedagogical shape of a module.
type ContentKind string

const (
	KindFoundation ContentKind = "foundation"
	KindConcept    ContentKind = "concept"
	KindHandsOn    ContentKind = "hands_on"
	KindDeepDive   ContentKind = "deep_dive"
	KindCaseStudy  ContentKind = "case_study"
	KindSynthesis  ContentKind = "synthesis"
)

// Outline is a course outline retrieved from an external knowledge source.
type Outline struct {
	Source  string   `json:"source"`
	Title   string   `json:"title"`
	Modules []string `json:"modules"`
}

// Article is a single ranked search/knowledge result.
// Relevance is the combined score in [0,1] after domain weighting.
type Article struct {
	Title     string  `json:"title"`
	Snippet   string  `json:"snippet"`
	URL       string  `json:"url"`
	Relevance float64 `json:"relevance"`
}

// ContextBundle is the merged, ranked output of external retrieval for one
// topic. Built once per query and read-only afterward.
type ContextBundle struct {
	Outlines           []Outline `json:"outlines"`
	Articles           []Article `json:"articles"`
	KeyFacts           []string  `json:"key_facts"`
	SuggestedStructure []string  `json:"suggested_structure"`
}

// Empty reports whether retrieval produced nothing usable.
func (b *ContextBundle) Empty() bool {
	return b == nil || (len(b.Outlines) == 0 && len(b.Articles) == 0 && len(b.KeyFacts) == 0)
}

// TopicAnalysis is the output of the first pipeline stage.
type TopicAnalysis struct {
	Query                    string        `json:"query"`
	NormalizedTopic          string        `json:"normalized_topic"`
	Type                     TopicType     `json:"type"`
	Difficulty               Difficulty    `json:"difficulty"`
	KeyConcepts              []string      `json:"key_concepts"`
	Prerequisites            []string      `json:"prerequisites"`
	PracticeFormats          []string      `json:"practice_formats"`
	RecommendedSources       []string      `json:"recommended_sources"`
	EstimatedDurationMinutes int           `json:"estimated_duration_minutes"`
	Context                  ContextBundle `json:"context"`
	Confidence               float64       `json:"confidence"`
}

// ModuleSpec is one planned unit of a curriculum, including the generation
// instructions the content stage will execute.
type ModuleSpec struct {
	ID                  string      `json:"id"`
	Order               int         `json:"order"` // 1-based, contiguous
	Name                string      `json:"name"`
	Description         string      `json:"description"`
	KeyTerms            []string    `json:"key_terms"`
	DurationMinutes     int         `json:"duration_minutes"`
	Difficulty          Difficulty  `json:"difficulty"`
	ContentKind         ContentKind `json:"content_kind"`
	TheoryInstruction   string      `json:"theory_instruction"`
	PracticeInstruction string      `json:"practice_instruction"`
}

// CourseStructure is an ordered curriculum produced by the structure stage.
//
// Invariants: 3 <= len(Modules) <= 15 and TotalDurationMinutes equals the sum
// of the module durations.
type CourseStructure struct {
	Title                string       `json:"title"`
	Subtitle             string       `json:"subtitle"`
	Description          string       `json:"description"`
	Objectives           []string     `json:"objectives"`
	Modules              []ModuleSpec `json:"modules"`
	TotalDurationMinutes int          `json:"total_duration_minutes"`
	TopicType            TopicType    `json:"topic_type"`
}

// KeyTerm is a term extracted from theory text together with a definition
// found on the same line, or a placeholder when no definition pattern matched.
type KeyTerm struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Lesson is a bounded-size subdivision of a module's theory content.
// IDs are derived from (ModuleID, Order) so regenerating the same module
// yields the same lesson identifiers.
type Lesson struct {
	ID                   string    `json:"id"`
	ModuleID             string    `json:"module_id"`
	Order                int       `json:"order"`
	Title                string    `json:"title"`
	TheoryBody           string    `json:"theory_body"`
	KeyTerms             []KeyTerm `json:"key_terms"`
	EstimatedReadMinutes int       `json:"estimated_read_minutes"` // clamped to [5,15]
	WordCount            int       `json:"word_count"`
}

// PracticeTask is one exercise within a module's practice block.
type PracticeTask struct {
	Title       string `json:"title"`
	Format      string `json:"format"`
	Instruction string `json:"instruction"`
	Solution    string `json:"solution,omitempty"`
}

// TheoryContent is the free-text theory of one module plus its word count.
type TheoryContent struct {
	Body      string `json:"body"`
	WordCount int    `json:"word_count"`
}

// PracticeContent is the structured practice block of one module.
type PracticeContent struct {
	Tasks []PracticeTask `json:"tasks"`
}

// GeneratedModule is the fully generated content for one ModuleSpec.
type GeneratedModule struct {
	ModuleID    string          `json:"module_id"`
	Theory      TheoryContent   `json:"theory"`
	Practice    PracticeContent `json:"practice"`
	Lessons     []Lesson        `json:"lessons"`
	GeneratedAt time.Time       `json:"generated_at"`
	TokensUsed  int             `json:"tokens_used"`
	ProviderID  string          `json:"provider_id"`
}

// Course is the assembled result of a full pipeline run.
type Course struct {
	Analysis  *TopicAnalysis    `json:"analysis"`
	Structure *CourseStructure  `json:"structure"`
	Modules   []GeneratedModule `json:"modules"`
}

// CachedCourse wraps a Course with cache bookkeeping. Once persisted it is
// immutable except for AccessCount and LastAccessedAt.
type CachedCourse struct {
	ID             string    `json:"id"`
	QueryHash      string    `json:"query_hash"`
	Query          string    `json:"query"`
	Course         Course    `json:"course"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	AccessCount    int       `json:"access_count"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}
