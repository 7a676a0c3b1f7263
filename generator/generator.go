// Package generator implements the third pipeline stage: producing theory and
// practice content for every module of a course structure, then splitting
// theory into bounded-size lessons. Modules are generated sequentially on
// purpose: every gateway call shares one process-wide admission throttle, so
// parallel generation would buy nothing and complicate backoff accounting.
package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/courseforge/courseforge/course"
	"github.com/courseforge/courseforge/llm"
)

const (
	theoryRetries   = 3
	practiceRetries = 2
	theoryTimeout   = 90 * time.Second
	practiceTimeout = 60 * time.Second
)

// ProgressFunc reports completed module count after each module.
type ProgressFunc func(completed, total int)

// Generator produces module content through the gateway.
type Generator struct {
	gateway *llm.Gateway
	logger  zerolog.Logger
}

// New creates a Generator.
func New(gateway *llm.Gateway, logger zerolog.Logger) *Generator {
	return &Generator{
		gateway: gateway,
		logger:  logger.With().Str("component", "generator").Logger(),
	}
}

// GenerateModule produces one module's theory and practice content.
// There is no safe fallback for content: gateway exhaustion and malformed
// practice output both propagate to the caller.
func (g *Generator) GenerateModule(ctx context.Context, spec *course.ModuleSpec, analysis *course.TopicAnalysis) (*course.GeneratedModule, error) {
	theory, err := g.gateway.Generate(ctx, &llm.GenerationRequest{
		System:      "You are a technical course author. Write thorough, well-structured lesson text in markdown.",
		Prompt:      spec.TheoryInstruction,
		Temperature: 0.7,
		MaxTokens:   4096,
		Retries:     theoryRetries,
		Timeout:     theoryTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("theory generation for %s: %w", spec.ID, err)
	}

	practice, err := llm.GenerateStructured(ctx, g.gateway, &llm.GenerationRequest{
		System:      "You are a course exercise author. Respond with a single JSON object and nothing else.",
		Prompt:      spec.PracticeInstruction,
		Temperature: 0.5,
		MaxTokens:   2048,
		ExpectJSON:  true,
		Retries:     practiceRetries,
		Timeout:     practiceTimeout,
	}, func(p *course.PracticeContent) error {
		if len(p.Tasks) == 0 {
			return fmt.Errorf("no practice tasks")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("practice generation for %s: %w", spec.ID, err)
	}

	lessons := SplitLessons(spec.ID, spec.Name, theory.Text)

	mod := &course.GeneratedModule{
		ModuleID: spec.ID,
		Theory: course.TheoryContent{
			Body:      theory.Text,
			WordCount: WordCount(theory.Text),
		},
		Practice:    practice.Data,
		Lessons:     lessons,
		GeneratedAt: time.Now().UTC(),
		TokensUsed:  theory.TokensUsed + practice.Meta.TokensUsed,
		ProviderID:  theory.ProviderID,
	}

	g.logger.Info().
		Str("module_id", spec.ID).
		Int("words", mod.Theory.WordCount).
		Int("lessons", len(lessons)).
		Int("tasks", len(mod.Practice.Tasks)).
		Int("tokens", mod.TokensUsed).
		Msg("Module generated")
	return mod, nil
}

// GenerateAll generates every module of a structure sequentially, invoking
// onProgress after each completed module.
func (g *Generator) GenerateAll(ctx context.Context, structure *course.CourseStructure, analysis *course.TopicAnalysis, onProgress ProgressFunc) ([]course.GeneratedModule, error) {
	total := len(structure.Modules)
	modules := make([]course.GeneratedModule, 0, total)

	for i := range structure.Modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		spec := &structure.Modules[i]
		mod, err := g.GenerateModule(ctx, spec, analysis)
		if err != nil {
			return nil, err
		}
		modules = append(modules, *mod)
		if onProgress != nil {
			onProgress(i+1, total)
		}
	}

	return modules, nil
}
