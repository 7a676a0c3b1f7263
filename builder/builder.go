// Package builder implements the second pipeline stage: turning a topic
// analysis into an ordered curriculum. The model proposes the skeleton; a
// static per-topic-type template guarantees a structure is always produced
// when the model cannot.
package builder

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/courseforge/courseforge/course"
	"github.com/courseforge/courseforge/llm"
)

const (
	// MinModules and MaxModules bound every structure, generated or templated.
	MinModules = 3
	MaxModules = 15

	// minInstructionLength rejects degenerate generation instructions.
	minInstructionLength = 40

	skeletonRetries = 2
)

// Builder constructs course structures from topic analyses.
type Builder struct {
	gateway *llm.Gateway
	logger  zerolog.Logger
}

// New creates a Builder.
func New(gateway *llm.Gateway, logger zerolog.Logger) *Builder {
	return &Builder{
		gateway: gateway,
		logger:  logger.With().Str("component", "builder").Logger(),
	}
}

// skeleton is the structured shape requested from the model.
type skeleton struct {
	Title       string           `json:"title"`
	Subtitle    string           `json:"subtitle"`
	Description string           `json:"description"`
	Objectives  []string         `json:"objectives"`
	Modules     []skeletonModule `json:"modules"`
}

type skeletonModule struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	KeyTerms    []string `json:"key_terms"`
}

// Build produces a validated CourseStructure. Gateway failure, malformed
// output, and validation failure all fall back to the topic-type template, so
// Build only errors when the context is cancelled.
func (b *Builder) Build(ctx context.Context, analysis *course.TopicAnalysis) (*course.CourseStructure, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sk, err := b.requestSkeleton(ctx, analysis)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.logger.Warn().Err(err).Str("topic", analysis.NormalizedTopic).Msg("Skeleton generation failed, using template")
		sk = templateSkeleton(analysis)
	}

	structure := b.assemble(sk, analysis)
	if err := Validate(structure); err != nil {
		b.logger.Warn().Err(err).Str("topic", analysis.NormalizedTopic).Msg("Generated structure invalid, using template")
		structure = b.assemble(templateSkeleton(analysis), analysis)
	}

	b.logger.Info().
		Str("title", structure.Title).
		Int("modules", len(structure.Modules)).
		Int("total_minutes", structure.TotalDurationMinutes).
		Msg("Course structure built")
	return structure, nil
}

// requestSkeleton asks the gateway for a title/objectives/module skeleton.
func (b *Builder) requestSkeleton(ctx context.Context, analysis *course.TopicAnalysis) (*skeleton, error) {
	outlineHint := ""
	if len(analysis.Context.Outlines) > 0 {
		o := analysis.Context.Outlines[0]
		outlineHint = fmt.Sprintf("\nA published outline for reference (%s): %s", o.Title, strings.Join(o.Modules, "; "))
	}

	req := &llm.GenerationRequest{
		System: "You are a curriculum designer. Respond with a single JSON object and nothing else.",
		Prompt: fmt.Sprintf(`Design a course skeleton for %q (%s, %s level).
Key concepts: %s.%s

Return JSON with fields:
  title, subtitle, description
  objectives: 3-5 learning objectives
  modules: %d-%d entries, each {name, description, key_terms}`,
			analysis.NormalizedTopic, analysis.Type, analysis.Difficulty,
			strings.Join(analysis.KeyConcepts, ", "), outlineHint,
			MinModules, 8),
		Temperature: 0.4,
		MaxTokens:   2048,
		ExpectJSON:  true,
		Retries:     skeletonRetries,
		Timeout:     45 * time.Second,
	}

	result, err := llm.GenerateStructured(ctx, b.gateway, req, func(s *skeleton) error {
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("title is empty")
		}
		if len(s.Modules) < MinModules || len(s.Modules) > MaxModules {
			return fmt.Errorf("module count %d outside [%d,%d]", len(s.Modules), MinModules, MaxModules)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result.Data, nil
}

// templateSkeleton builds the deterministic fallback skeleton by walking the
// topic type's archetype list.
func templateSkeleton(analysis *course.TopicAnalysis) *skeleton {
	topic := analysis.NormalizedTopic
	archetypes := course.ArchetypesFor(analysis.Type)

	modules := lo.Map(archetypes, func(a course.ModuleArchetype, i int) skeletonModule {
		var terms []string
		// Spread the analysis key concepts over the template modules.
		for j := i; j < len(analysis.KeyConcepts); j += len(archetypes) {
			terms = append(terms, analysis.KeyConcepts[j])
		}
		return skeletonModule{
			Name:        a.Name,
			Description: fmt.Sprintf(a.DescriptionPattern, topic),
			KeyTerms:    terms,
		}
	})

	return &skeleton{
		Title:       fmt.Sprintf("%s: A Structured Course", titleCase(topic)),
		Subtitle:    fmt.Sprintf("From first principles to confident practice in %s", topic),
		Description: fmt.Sprintf("A %s-level course on %s, organized as %d progressive modules.", analysis.Difficulty, topic, len(modules)),
		Objectives: []string{
			fmt.Sprintf("Understand the core concepts of %s", topic),
			fmt.Sprintf("Apply %s in practical exercises", topic),
			fmt.Sprintf("Build the confidence to keep learning %s independently", topic),
		},
		Modules: modules,
	}
}

// assemble pairs every skeleton module with its archetype (by position modulo
// the archetype list) and computes durations and generation instructions.
func (b *Builder) assemble(sk *skeleton, analysis *course.TopicAnalysis) *course.CourseStructure {
	archetypes := course.ArchetypesFor(analysis.Type)
	moduleCount := len(sk.Modules)

	structure := &course.CourseStructure{
		Title:       strings.TrimSpace(sk.Title),
		Subtitle:    strings.TrimSpace(sk.Subtitle),
		Description: strings.TrimSpace(sk.Description),
		Objectives:  sk.Objectives,
		TopicType:   analysis.Type,
		Modules:     make([]course.ModuleSpec, 0, moduleCount),
	}

	base := float64(analysis.EstimatedDurationMinutes) / float64(moduleCount)
	for i, m := range sk.Modules {
		archetype := archetypes[i%len(archetypes)]
		order := i + 1
		spec := course.ModuleSpec{
			ID:              fmt.Sprintf("module-%02d", order),
			Order:           order,
			Name:            m.Name,
			Description:     m.Description,
			KeyTerms:        m.KeyTerms,
			DurationMinutes: int(math.Round(base * archetype.DurationMultiplier)),
			Difficulty:      analysis.Difficulty,
			ContentKind:     archetype.ContentKind,
		}
		spec.TheoryInstruction = theoryInstruction(&spec, analysis, order, moduleCount)
		spec.PracticeInstruction = practiceInstruction(&spec, analysis)
		structure.Modules = append(structure.Modules, spec)
	}

	structure.TotalDurationMinutes = lo.SumBy(structure.Modules, func(m course.ModuleSpec) int {
		return m.DurationMinutes
	})
	return structure
}

// theoryInstruction synthesizes the generation instruction for a module's
// theory content from style guidance, key terms, and position.
func theoryInstruction(spec *course.ModuleSpec, analysis *course.TopicAnalysis, order, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write the theory for module %d of %d (%q) in a %s-level course on %s. ",
		order, total, spec.Name, analysis.Difficulty, analysis.NormalizedTopic)

	switch {
	case order == 1:
		sb.WriteString("This is the opening module: assume no prior exposure and motivate the topic before explaining it. ")
	case order == total:
		sb.WriteString("This is the final module: consolidate earlier material and point at next steps. ")
	default:
		fmt.Fprintf(&sb, "Build on the previous %d modules without repeating them. ", order-1)
	}

	if len(spec.KeyTerms) > 0 {
		fmt.Fprintf(&sb, "Cover these terms, marking each as ==term== on first use: %s. ", strings.Join(spec.KeyTerms, ", "))
	}
	sb.WriteString("Structure the text with markdown headers per section. ")
	sb.WriteString(course.StyleGuidanceFor(analysis.Type))
	return sb.String()
}

// practiceInstruction synthesizes the generation instruction for a module's
// practice content using the bounded task-format vocabulary.
func practiceInstruction(spec *course.ModuleSpec, analysis *course.TopicAnalysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create 3-5 practice tasks for the module %q (%s level, %s). ",
		spec.Name, analysis.Difficulty, spec.ContentKind)
	fmt.Fprintf(&sb, "Use only these task formats: %s. ", strings.Join(analysis.PracticeFormats, ", "))
	if len(spec.KeyTerms) > 0 {
		fmt.Fprintf(&sb, "Exercise these terms: %s. ", strings.Join(spec.KeyTerms, ", "))
	}
	sb.WriteString(`Return JSON: {"tasks": [{"title", "format", "instruction", "solution"}]}.`)
	return sb.String()
}

// titleCase uppercases the first letter of every word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			r[0] = unicode.ToUpper(r[0])
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Validate checks the structural invariants of a CourseStructure.
func Validate(s *course.CourseStructure) error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("structure title is empty")
	}
	if len(s.Modules) < MinModules || len(s.Modules) > MaxModules {
		return fmt.Errorf("module count %d outside [%d,%d]", len(s.Modules), MinModules, MaxModules)
	}
	for _, m := range s.Modules {
		if len(m.TheoryInstruction) < minInstructionLength || len(m.PracticeInstruction) < minInstructionLength {
			return fmt.Errorf("module %s has degenerate instructions", m.ID)
		}
	}
	return nil
}
