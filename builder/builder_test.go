package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/courseforge/courseforge/course"
	"github.com/courseforge/courseforge/llm"
)

type cannedProvider struct {
	text  string
	err   error
	calls int
}

func (p *cannedProvider) ID() string { return "canned" }

func (p *cannedProvider) Complete(ctx context.Context, model string, req *llm.GenerationRequest) (*llm.GenerationResult, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &llm.GenerationResult{Text: p.text, TokensUsed: 10}, nil
}

func gatewayFor(p llm.Provider) *llm.Gateway {
	return llm.NewGateway(
		[]llm.ProviderModels{{Provider: p, Models: []string{"test-model"}}},
		llm.GatewayOptions{ThrottleInterval: -1, BaseDelay: time.Millisecond},
		zerolog.Nop(),
	)
}

func testAnalysis() *course.TopicAnalysis {
	return &course.TopicAnalysis{
		Query:                    "learn OOP in Python",
		NormalizedTopic:          "Python object-oriented programming",
		Type:                     course.TopicProgramming,
		Difficulty:               course.DifficultyBeginner,
		KeyConcepts:              []string{"classes", "objects", "inheritance", "polymorphism", "encapsulation", "composition", "interfaces"},
		PracticeFormats:          course.PracticeFormatsFor(course.TopicProgramming, course.DifficultyBeginner),
		EstimatedDurationMinutes: 600,
	}
}

func skeletonJSON(moduleCount int) string {
	var modules []string
	for i := 0; i < moduleCount; i++ {
		modules = append(modules, fmt.Sprintf(
			`{"name": "Module %d", "description": "Covers part %d of the topic.", "key_terms": ["term%d"]}`, i+1, i+1, i+1))
	}
	return fmt.Sprintf(`{
		"title": "Python OOP from Scratch",
		"subtitle": "A beginner course",
		"description": "Learn OOP step by step.",
		"objectives": ["understand classes", "write programs", "read code"],
		"modules": [%s]
	}`, strings.Join(modules, ","))
}

func TestBuildFromModelSkeleton(t *testing.T) {
	provider := &cannedProvider{text: skeletonJSON(5)}
	b := New(gatewayFor(provider), zerolog.Nop())

	structure, err := b.Build(context.Background(), testAnalysis())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if structure.Title != "Python OOP from Scratch" {
		t.Errorf("Expected model title, got %q", structure.Title)
	}
	if len(structure.Modules) != 5 {
		t.Fatalf("Expected 5 modules, got %d", len(structure.Modules))
	}
	for i, m := range structure.Modules {
		if m.Order != i+1 {
			t.Errorf("Expected contiguous 1-based order, module %d has order %d", i, m.Order)
		}
		if m.ID != fmt.Sprintf("module-%02d", i+1) {
			t.Errorf("Unexpected module ID %q", m.ID)
		}
		if m.ContentKind == "" {
			t.Errorf("Module %s missing content kind", m.ID)
		}
	}
}

func TestBuildTemplateFallbackOnGatewayFailure(t *testing.T) {
	provider := &cannedProvider{err: errors.New("provider down")}
	b := New(gatewayFor(provider), zerolog.Nop())

	structure, err := b.Build(context.Background(), testAnalysis())
	if err != nil {
		t.Fatalf("Build must fall back, not fail; got %v", err)
	}
	if err := Validate(structure); err != nil {
		t.Errorf("Template structure must validate: %v", err)
	}
	archetypes := course.ArchetypesFor(course.TopicProgramming)
	if len(structure.Modules) != len(archetypes) {
		t.Errorf("Expected %d template modules, got %d", len(archetypes), len(structure.Modules))
	}
	if structure.Modules[0].Name != archetypes[0].Name {
		t.Errorf("Expected archetype names in template, got %q", structure.Modules[0].Name)
	}
}

func TestBuildTemplateFallbackOnMalformedOutput(t *testing.T) {
	provider := &cannedProvider{text: "I cannot produce JSON today."}
	b := New(gatewayFor(provider), zerolog.Nop())

	structure, err := b.Build(context.Background(), testAnalysis())
	if err != nil {
		t.Fatalf("Build must fall back, not fail; got %v", err)
	}
	if err := Validate(structure); err != nil {
		t.Errorf("Template structure must validate: %v", err)
	}
}

func TestBuildTemplateFallbackOnBadModuleCount(t *testing.T) {
	// Two modules is below the minimum, so the skeleton validator rejects it.
	provider := &cannedProvider{text: skeletonJSON(2)}
	b := New(gatewayFor(provider), zerolog.Nop())

	structure, err := b.Build(context.Background(), testAnalysis())
	if err != nil {
		t.Fatalf("Expected fallback, got %v", err)
	}
	if len(structure.Modules) < MinModules || len(structure.Modules) > MaxModules {
		t.Errorf("Expected module count within [%d,%d], got %d", MinModules, MaxModules, len(structure.Modules))
	}
}

func TestBuildTotalDurationIsSumOfModules(t *testing.T) {
	provider := &cannedProvider{text: skeletonJSON(6)}
	b := New(gatewayFor(provider), zerolog.Nop())

	structure, err := b.Build(context.Background(), testAnalysis())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	sum := 0
	for _, m := range structure.Modules {
		if m.DurationMinutes <= 0 {
			t.Errorf("Module %s has non-positive duration %d", m.ID, m.DurationMinutes)
		}
		sum += m.DurationMinutes
	}
	if structure.TotalDurationMinutes != sum {
		t.Errorf("TotalDurationMinutes %d != sum of modules %d", structure.TotalDurationMinutes, sum)
	}
}

func TestBuildInstructionsCarryTermsAndFormats(t *testing.T) {
	provider := &cannedProvider{text: skeletonJSON(4)}
	b := New(gatewayFor(provider), zerolog.Nop())

	structure, err := b.Build(context.Background(), testAnalysis())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	first := structure.Modules[0]
	if !strings.Contains(first.TheoryInstruction, "term1") {
		t.Errorf("Theory instruction missing key terms: %q", first.TheoryInstruction)
	}
	if !strings.Contains(first.TheoryInstruction, "==term==") {
		t.Errorf("Theory instruction missing term-marking directive: %q", first.TheoryInstruction)
	}
	if !strings.Contains(first.TheoryInstruction, "opening module") {
		t.Errorf("First module instruction missing positional framing: %q", first.TheoryInstruction)
	}
	last := structure.Modules[len(structure.Modules)-1]
	if !strings.Contains(last.TheoryInstruction, "final module") {
		t.Errorf("Last module instruction missing positional framing: %q", last.TheoryInstruction)
	}
	if !strings.Contains(first.PracticeInstruction, "code_reading") {
		t.Errorf("Practice instruction missing format vocabulary: %q", first.PracticeInstruction)
	}
}

func TestBuildHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &cannedProvider{text: skeletonJSON(4)}
	b := New(gatewayFor(provider), zerolog.Nop())

	_, err := b.Build(ctx, testAnalysis())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	good := &course.CourseStructure{
		Title: "A Course",
		Modules: []course.ModuleSpec{
			{ID: "module-01", TheoryInstruction: strings.Repeat("x", 50), PracticeInstruction: strings.Repeat("y", 50)},
			{ID: "module-02", TheoryInstruction: strings.Repeat("x", 50), PracticeInstruction: strings.Repeat("y", 50)},
			{ID: "module-03", TheoryInstruction: strings.Repeat("x", 50), PracticeInstruction: strings.Repeat("y", 50)},
		},
	}
	if err := Validate(good); err != nil {
		t.Errorf("Expected valid structure, got %v", err)
	}

	noTitle := *good
	noTitle.Title = "  "
	if err := Validate(&noTitle); err == nil {
		t.Error("Expected error for empty title")
	}

	tooFew := *good
	tooFew.Modules = good.Modules[:2]
	if err := Validate(&tooFew); err == nil {
		t.Error("Expected error for too few modules")
	}

	shortInstruction := *good
	shortInstruction.Modules = append([]course.ModuleSpec{}, good.Modules...)
	shortInstruction.Modules[1].TheoryInstruction = "too short"
	if err := Validate(&shortInstruction); err == nil {
		t.Error("Expected error for degenerate instruction")
	}
}

func TestTemplateSkeletonSpreadsKeyConcepts(t *testing.T) {
	analysis := testAnalysis()
	sk := templateSkeleton(analysis)

	var collected []string
	for _, m := range sk.Modules {
		collected = append(collected, m.KeyTerms...)
	}
	if len(collected) != len(analysis.KeyConcepts) {
		t.Errorf("Expected all %d key concepts distributed, got %d", len(analysis.KeyConcepts), len(collected))
	}
}
