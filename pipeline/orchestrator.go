// Package pipeline drives the three generation stages in sequence, reports
// progress, and merges cache lookups. Transitions are strictly forward; each
// stage owns its own resilience (gateway retries, template fallbacks), so the
// orchestrator never retries a stage.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/courseforge/courseforge/course"
	"github.com/courseforge/courseforge/generator"
)

// Stage names surfaced through progress events and failures.
type Stage string

const (
	StageAnalyzing   Stage = "analyzing"
	StageStructuring Stage = "structuring"
	StageGenerating  Stage = "generating"
	StageComplete    Stage = "complete"
	StageError       Stage = "error"
)

// Progress percentages at stage boundaries. Module generation interpolates
// between generatingStart and generatingEnd.
const (
	analyzingPercent   = 10
	structuringPercent = 25
	generatingStart    = 30
	generatingEnd      = 95
)

// state is the orchestrator's internal run state.
type state int

const (
	stateIdle state = iota
	stateAnalyzing
	stateStructuring
	stateGenerating
	stateComplete
	stateFailed
)

// Progress is one progress event delivered to the caller.
type Progress struct {
	Stage         Stage
	Percent       int
	Message       string
	CurrentModule string
}

// ProgressFunc receives progress events. May be nil.
type ProgressFunc func(Progress)

// Result is the terminal outcome of a pipeline run: either a complete course
// or a structured error, never a partially populated course.
type Result struct {
	Success        bool
	Course         *course.Course
	Cached         bool
	Err            error
	GenerationTime time.Duration
}

// StageFailure wraps the originating stage and cause of an unrecovered
// pipeline error.
type StageFailure struct {
	Stage Stage
	Cause error
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("pipeline stage %s failed: %v", e.Stage, e.Cause)
}

func (e *StageFailure) Unwrap() error {
	return e.Cause
}

// TopicAnalyzer is the first stage. Satisfied by *analyzer.Analyzer.
type TopicAnalyzer interface {
	Analyze(ctx context.Context, query string) (*course.TopicAnalysis, error)
}

// StructureBuilder is the second stage. Satisfied by *builder.Builder.
type StructureBuilder interface {
	Build(ctx context.Context, analysis *course.TopicAnalysis) (*course.CourseStructure, error)
}

// ContentGenerator is the third stage. Satisfied by *generator.Generator.
type ContentGenerator interface {
	GenerateAll(ctx context.Context, structure *course.CourseStructure, analysis *course.TopicAnalysis, onProgress generator.ProgressFunc) ([]course.GeneratedModule, error)
}

// CourseCache is the persistence collaborator. Satisfied by *cache.Store.
type CourseCache interface {
	Lookup(ctx context.Context, query string) (*course.CachedCourse, error)
	Save(ctx context.Context, query string, result *course.Course) (*course.CachedCourse, error)
}

// Orchestrator owns a pipeline run's in-flight state.
type Orchestrator struct {
	analyzer  TopicAnalyzer
	builder   StructureBuilder
	generator ContentGenerator
	cache     CourseCache
	logger    zerolog.Logger
}

// New creates an Orchestrator. cache may be nil to disable caching.
func New(a TopicAnalyzer, b StructureBuilder, g ContentGenerator, c CourseCache, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		analyzer:  a,
		builder:   b,
		generator: g,
		cache:     c,
		logger:    logger.With().Str("component", "orchestrator").Logger(),
	}
}

// GenerateCourse runs the full pipeline for a validated query. A cache hit
// short-circuits directly to completion. Cancellation is honored at stage
// boundaries; in-flight gateway calls run to their own timeout.
func (o *Orchestrator) GenerateCourse(ctx context.Context, query string, onProgress ProgressFunc) *Result {
	started := time.Now()

	if err := ValidateQuery(query); err != nil {
		return &Result{Err: err, GenerationTime: time.Since(started)}
	}

	run := &runState{orchestrator: o, onProgress: onProgress}

	if cached := o.lookupCache(ctx, query); cached != nil {
		run.transition(stateComplete)
		run.report(StageComplete, 100, "Served from cache", "")
		return &Result{
			Success:        true,
			Course:         &cached.Course,
			Cached:         true,
			GenerationTime: time.Since(started),
		}
	}

	// Stage 1: topic analysis.
	run.transition(stateAnalyzing)
	run.report(StageAnalyzing, analyzingPercent, "Analyzing topic", "")
	analysis, err := o.analyzer.Analyze(ctx, query)
	if err != nil {
		return run.fail(StageAnalyzing, err, started)
	}

	// Stage 2: structure construction.
	if err := ctx.Err(); err != nil {
		return run.fail(StageStructuring, err, started)
	}
	run.transition(stateStructuring)
	run.report(StageStructuring, structuringPercent, "Building course structure", "")
	structure, err := o.builder.Build(ctx, analysis)
	if err != nil {
		return run.fail(StageStructuring, err, started)
	}

	// Stage 3: content generation.
	if err := ctx.Err(); err != nil {
		return run.fail(StageGenerating, err, started)
	}
	run.transition(stateGenerating)
	total := len(structure.Modules)
	modules, err := o.generator.GenerateAll(ctx, structure, analysis, func(completed, totalModules int) {
		percent := generatingStart + (generatingEnd-generatingStart)*completed/totalModules
		name := ""
		if completed < totalModules {
			name = structure.Modules[completed].Name
		}
		run.report(StageGenerating, percent,
			fmt.Sprintf("Generated module %d of %d", completed, totalModules), name)
	})
	if err != nil {
		return run.fail(StageGenerating, err, started)
	}

	result := &course.Course{
		Analysis:  analysis,
		Structure: structure,
		Modules:   modules,
	}

	// Persist only the complete result. A cache write failure degrades to a
	// log line; the run itself still succeeded.
	if o.cache != nil {
		if _, err := o.cache.Save(ctx, query, result); err != nil {
			o.logger.Warn().Err(err).Str("query", query).Msg("Failed to cache course")
		}
	}

	run.transition(stateComplete)
	run.report(StageComplete, 100, fmt.Sprintf("Course complete: %d modules", total), "")
	o.logger.Info().
		Str("query", query).
		Int("modules", total).
		Dur("elapsed", time.Since(started)).
		Msg("Pipeline complete")

	return &Result{
		Success:        true,
		Course:         result,
		GenerationTime: time.Since(started),
	}
}

func (o *Orchestrator) lookupCache(ctx context.Context, query string) *course.CachedCourse {
	if o.cache == nil {
		return nil
	}
	cached, err := o.cache.Lookup(ctx, query)
	if err != nil {
		// A broken cache is a miss, not a failure.
		o.logger.Warn().Err(err).Str("query", query).Msg("Cache lookup failed")
		return nil
	}
	return cached
}

// runState tracks one run's forward-only state machine and progress fan-out.
type runState struct {
	orchestrator *Orchestrator
	state        state
	onProgress   ProgressFunc
}

// transition moves the run forward. Backward transitions indicate a
// programming error and are refused.
func (r *runState) transition(next state) {
	if next <= r.state && next != stateFailed {
		r.orchestrator.logger.Error().
			Int("from", int(r.state)).
			Int("to", int(next)).
			Msg("Refusing backward state transition")
		return
	}
	r.state = next
}

func (r *runState) report(stage Stage, percent int, message, currentModule string) {
	if r.onProgress == nil {
		return
	}
	r.onProgress(Progress{
		Stage:         stage,
		Percent:       percent,
		Message:       message,
		CurrentModule: currentModule,
	})
}

// fail moves the run to the terminal failed state and discards partial
// progress; nothing partial is ever persisted.
func (r *runState) fail(stage Stage, cause error, started time.Time) *Result {
	r.state = stateFailed
	r.orchestrator.logger.Error().
		Err(cause).
		Str("stage", string(stage)).
		Msg("Pipeline stage failed")
	r.report(StageError, 0, fmt.Sprintf("Stage %s failed: %v", stage, cause), "")
	return &Result{
		Err:            &StageFailure{Stage: stage, Cause: cause},
		GenerationTime: time.Since(started),
	}
}
