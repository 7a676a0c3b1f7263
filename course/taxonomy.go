package course

import (
	"strings"
)

// ModuleArchetype is one entry of the template fallback table. The structure
// stage cycles through a topic type's archetypes by module position to assign
// content kinds and duration weighting, whether the skeleton came from the
// model or from the template.
type ModuleArchetype struct {
	Name               string
	DescriptionPattern string // %s is replaced with the normalized topic
	ContentKind        ContentKind
	DurationMultiplier float64
}

// topicKeywords drives the fast provisional classifier. First matching type
// wins, in table order; anything unmatched is TopicGeneral.
var topicKeywords = map[TopicType][]string{
	TopicProgramming: {
		"programming", "coding", "code", "python", "javascript", "typescript",
		"golang", "java", "rust", "sql", "api", "framework", "algorithm",
		"backend", "frontend", "devops", "software", "oop", "git", "docker",
	},
	TopicLanguage: {
		"english", "spanish", "french", "german", "japanese", "chinese",
		"italian", "grammar", "vocabulary", "language", "speaking", "fluency",
	},
	TopicScience: {
		"physics", "chemistry", "biology", "astronomy", "geology", "anatomy",
		"genetics", "quantum", "neuroscience", "ecology", "science",
	},
	TopicMathematics: {
		"math", "mathematics", "algebra", "calculus", "geometry", "statistics",
		"probability", "linear algebra", "number theory", "trigonometry",
	},
	TopicBusiness: {
		"business", "marketing", "management", "finance", "accounting",
		"startup", "sales", "entrepreneurship", "negotiation", "economics",
	},
	TopicCreative: {
		"drawing", "painting", "music", "guitar", "piano", "photography",
		"writing", "design", "illustration", "sculpture", "poetry",
	},
	TopicPractical: {
		"cooking", "gardening", "carpentry", "repair", "fitness", "yoga",
		"first aid", "diy", "knitting", "chess",
	},
}

// classifierOrder fixes the iteration order for the keyword classifier so the
// provisional type is deterministic.
var classifierOrder = []TopicType{
	TopicProgramming,
	TopicMathematics,
	TopicScience,
	TopicLanguage,
	TopicBusiness,
	TopicCreative,
	TopicPractical,
}

// ClassifyByKeywords runs the deterministic keyword classifier over a query.
// It is used as the provisional type for retrieval and as the fallback when
// the model classification is unavailable.
func ClassifyByKeywords(query string) TopicType {
	q := strings.ToLower(query)
	for _, tt := range classifierOrder {
		for _, kw := range topicKeywords[tt] {
			if strings.Contains(q, kw) {
				return tt
			}
		}
	}
	return TopicGeneral
}

// practiceFormats maps topic type and difficulty to a bounded task-format
// vocabulary. Formats are never produced by the model; they are always looked
// up here so downstream consumers see a known set.
var practiceFormats = map[TopicType]map[Difficulty][]string{
	TopicProgramming: {
		DifficultyBeginner:     {"code_reading", "fill_in_blank", "quiz"},
		DifficultyIntermediate: {"coding_exercise", "debugging", "quiz"},
		DifficultyAdvanced:     {"coding_exercise", "design_task", "code_review"},
	},
	TopicLanguage: {
		DifficultyBeginner:     {"flashcards", "matching", "quiz"},
		DifficultyIntermediate: {"translation", "dialogue_completion", "quiz"},
		DifficultyAdvanced:     {"composition", "translation", "comprehension"},
	},
	TopicScience: {
		DifficultyBeginner:     {"quiz", "matching", "diagram_labeling"},
		DifficultyIntermediate: {"problem_solving", "quiz", "experiment_design"},
		DifficultyAdvanced:     {"problem_solving", "data_analysis", "essay"},
	},
	TopicMathematics: {
		DifficultyBeginner:     {"worked_examples", "drill", "quiz"},
		DifficultyIntermediate: {"problem_set", "proof_sketch", "quiz"},
		DifficultyAdvanced:     {"problem_set", "proof", "modeling_task"},
	},
	TopicBusiness: {
		DifficultyBeginner:     {"quiz", "scenario_choice", "matching"},
		DifficultyIntermediate: {"case_analysis", "quiz", "role_play"},
		DifficultyAdvanced:     {"case_analysis", "strategy_memo", "simulation"},
	},
	TopicCreative: {
		DifficultyBeginner:     {"guided_practice", "copy_work", "quiz"},
		DifficultyIntermediate: {"open_assignment", "critique", "guided_practice"},
		DifficultyAdvanced:     {"open_assignment", "portfolio_piece", "critique"},
	},
	TopicPractical: {
		DifficultyBeginner:     {"checklist_task", "quiz", "matching"},
		DifficultyIntermediate: {"hands_on_task", "troubleshooting", "quiz"},
		DifficultyAdvanced:     {"hands_on_task", "project", "troubleshooting"},
	},
	TopicGeneral: {
		DifficultyBeginner:     {"quiz", "matching", "summary"},
		DifficultyIntermediate: {"quiz", "essay", "application_task"},
		DifficultyAdvanced:     {"essay", "application_task", "research_task"},
	},
}

// PracticeFormatsFor returns the task-format vocabulary for a topic type and
// difficulty. Unknown values degrade to the general/intermediate entry.
func PracticeFormatsFor(tt TopicType, d Difficulty) []string {
	byDifficulty, ok := practiceFormats[tt]
	if !ok {
		byDifficulty = practiceFormats[TopicGeneral]
	}
	formats, ok := byDifficulty[d]
	if !ok {
		formats = byDifficulty[DifficultyIntermediate]
	}
	out := make([]string, len(formats))
	copy(out, formats)
	return out
}

// moduleArchetypes is the template fallback table. The multipliers deliberately
// weigh hands-on and deep-dive modules heavier than orientation ones.
var moduleArchetypes = map[TopicType][]ModuleArchetype{
	TopicProgramming: {
		{Name: "Getting Oriented", DescriptionPattern: "Tooling, setup, and the mental model behind %s.", ContentKind: KindFoundation, DurationMultiplier: 0.8},
		{Name: "Core Concepts", DescriptionPattern: "The fundamental building blocks of %s.", ContentKind: KindConcept, DurationMultiplier: 1.0},
		{Name: "Writing Code", DescriptionPattern: "Hands-on practice applying %s in small programs.", ContentKind: KindHandsOn, DurationMultiplier: 1.3},
		{Name: "Under the Hood", DescriptionPattern: "How %s works beneath the surface.", ContentKind: KindDeepDive, DurationMultiplier: 1.2},
		{Name: "Building Something Real", DescriptionPattern: "A guided project that exercises %s end to end.", ContentKind: KindCaseStudy, DurationMultiplier: 1.2},
		{Name: "Putting It Together", DescriptionPattern: "Review, idioms, and next steps in %s.", ContentKind: KindSynthesis, DurationMultiplier: 0.9},
	},
	TopicLanguage: {
		{Name: "First Words", DescriptionPattern: "Essential vocabulary and sounds of %s.", ContentKind: KindFoundation, DurationMultiplier: 0.9},
		{Name: "Grammar Foundations", DescriptionPattern: "The grammatical core of %s.", ContentKind: KindConcept, DurationMultiplier: 1.1},
		{Name: "Everyday Conversation", DescriptionPattern: "Practical dialogues in %s.", ContentKind: KindHandsOn, DurationMultiplier: 1.2},
		{Name: "Reading and Listening", DescriptionPattern: "Comprehension work with real %s material.", ContentKind: KindDeepDive, DurationMultiplier: 1.1},
		{Name: "Expressing Yourself", DescriptionPattern: "Speaking and writing freely in %s.", ContentKind: KindSynthesis, DurationMultiplier: 1.0},
	},
	TopicScience: {
		{Name: "The Big Picture", DescriptionPattern: "Why %s matters and where it sits in science.", ContentKind: KindFoundation, DurationMultiplier: 0.8},
		{Name: "Key Principles", DescriptionPattern: "The laws and models at the heart of %s.", ContentKind: KindConcept, DurationMultiplier: 1.1},
		{Name: "Seeing It in Action", DescriptionPattern: "Experiments and observations that reveal %s.", ContentKind: KindHandsOn, DurationMultiplier: 1.2},
		{Name: "Going Deeper", DescriptionPattern: "Advanced treatment of the mechanisms behind %s.", ContentKind: KindDeepDive, DurationMultiplier: 1.2},
		{Name: "Connections and Frontiers", DescriptionPattern: "Open questions and applications of %s.", ContentKind: KindSynthesis, DurationMultiplier: 0.9},
	},
	TopicMathematics: {
		{Name: "Foundations", DescriptionPattern: "Definitions and notation used throughout %s.", ContentKind: KindFoundation, DurationMultiplier: 0.9},
		{Name: "Core Techniques", DescriptionPattern: "The central methods of %s.", ContentKind: KindConcept, DurationMultiplier: 1.1},
		{Name: "Worked Problems", DescriptionPattern: "Problem-solving practice in %s.", ContentKind: KindHandsOn, DurationMultiplier: 1.3},
		{Name: "Theory and Proof", DescriptionPattern: "Why the techniques of %s work.", ContentKind: KindDeepDive, DurationMultiplier: 1.1},
		{Name: "Applications", DescriptionPattern: "Using %s on real problems.", ContentKind: KindCaseStudy, DurationMultiplier: 1.0},
	},
	TopicBusiness: {
		{Name: "Landscape", DescriptionPattern: "The context and vocabulary of %s.", ContentKind: KindFoundation, DurationMultiplier: 0.8},
		{Name: "Frameworks", DescriptionPattern: "The analytical frameworks of %s.", ContentKind: KindConcept, DurationMultiplier: 1.0},
		{Name: "Case Studies", DescriptionPattern: "Real organizations applying %s.", ContentKind: KindCaseStudy, DurationMultiplier: 1.3},
		{Name: "Practice", DescriptionPattern: "Applying %s to your own scenario.", ContentKind: KindHandsOn, DurationMultiplier: 1.2},
		{Name: "Strategy", DescriptionPattern: "Integrating %s into a coherent strategy.", ContentKind: KindSynthesis, DurationMultiplier: 1.0},
	},
	TopicCreative: {
		{Name: "Materials and Basics", DescriptionPattern: "Tools and first exercises in %s.", ContentKind: KindFoundation, DurationMultiplier: 0.9},
		{Name: "Technique", DescriptionPattern: "The core techniques of %s.", ContentKind: KindConcept, DurationMultiplier: 1.1},
		{Name: "Studio Practice", DescriptionPattern: "Structured practice sessions in %s.", ContentKind: KindHandsOn, DurationMultiplier: 1.3},
		{Name: "Studying the Masters", DescriptionPattern: "Learning %s by analyzing strong work.", ContentKind: KindCaseStudy, DurationMultiplier: 1.0},
		{Name: "Your Own Voice", DescriptionPattern: "Developing a personal approach to %s.", ContentKind: KindSynthesis, DurationMultiplier: 1.0},
	},
	TopicPractical: {
		{Name: "Before You Start", DescriptionPattern: "Safety, tools, and preparation for %s.", ContentKind: KindFoundation, DurationMultiplier: 0.8},
		{Name: "Core Skills", DescriptionPattern: "The essential skills of %s.", ContentKind: KindConcept, DurationMultiplier: 1.1},
		{Name: "Step by Step", DescriptionPattern: "Guided practice in %s.", ContentKind: KindHandsOn, DurationMultiplier: 1.3},
		{Name: "When Things Go Wrong", DescriptionPattern: "Troubleshooting common problems in %s.", ContentKind: KindDeepDive, DurationMultiplier: 1.0},
		{Name: "Leveling Up", DescriptionPattern: "Advanced projects in %s.", ContentKind: KindSynthesis, DurationMultiplier: 1.0},
	},
	TopicGeneral: {
		{Name: "Introduction", DescriptionPattern: "An overview of %s.", ContentKind: KindFoundation, DurationMultiplier: 0.8},
		{Name: "Key Ideas", DescriptionPattern: "The main ideas of %s.", ContentKind: KindConcept, DurationMultiplier: 1.1},
		{Name: "In Practice", DescriptionPattern: "Applying %s.", ContentKind: KindHandsOn, DurationMultiplier: 1.2},
		{Name: "Deeper Questions", DescriptionPattern: "The harder questions within %s.", ContentKind: KindDeepDive, DurationMultiplier: 1.1},
		{Name: "Summary and Next Steps", DescriptionPattern: "Consolidating what you learned about %s.", ContentKind: KindSynthesis, DurationMultiplier: 0.8},
	},
}

// ArchetypesFor returns the ordered archetype list for a topic type.
// Every known type has a non-empty list; unknown types use the general list.
func ArchetypesFor(tt TopicType) []ModuleArchetype {
	if a, ok := moduleArchetypes[tt]; ok {
		return a
	}
	return moduleArchetypes[TopicGeneral]
}

// styleGuidance is prepended to generation instructions so theory text lands
// in a register appropriate for the domain.
var styleGuidance = map[TopicType]string{
	TopicProgramming: "Use concrete code examples and precise terminology. Prefer short runnable snippets over pseudocode.",
	TopicLanguage:    "Use bilingual examples with pronunciation hints. Introduce vocabulary in context, not as bare lists.",
	TopicScience:     "Ground every concept in an observable phenomenon before formalizing it. Use analogies sparingly and label them as such.",
	TopicMathematics: "State definitions precisely, then build intuition with worked examples. Show every step in derivations.",
	TopicBusiness:    "Anchor frameworks in named real-world cases. Prefer numbers and outcomes over abstractions.",
	TopicCreative:    "Describe techniques in terms of physical actions and observable results. Encourage experimentation.",
	TopicPractical:   "Give numbered, actionable steps. Call out safety concerns and common mistakes explicitly.",
	TopicGeneral:     "Explain plainly, define terms on first use, and summarize each section in one sentence.",
}

// StyleGuidanceFor returns the writing guidance for a topic type.
func StyleGuidanceFor(tt TopicType) string {
	if g, ok := styleGuidance[tt]; ok {
		return g
	}
	return styleGuidance[TopicGeneral]
}

// defaultDurations is the per-type course length assumed when the analysis
// stage cannot get one from the model.
var defaultDurations = map[TopicType]int{
	TopicProgramming: 720,
	TopicLanguage:    900,
	TopicScience:     600,
	TopicMathematics: 660,
	TopicBusiness:    480,
	TopicCreative:    540,
	TopicPractical:   420,
	TopicGeneral:     480,
}

// DefaultDurationMinutes returns the fallback course duration for a type.
func DefaultDurationMinutes(tt TopicType) int {
	if d, ok := defaultDurations[tt]; ok {
		return d
	}
	return defaultDurations[TopicGeneral]
}
