package generator

import (
	"fmt"
	"strings"
	"testing"
)

// sectionedBody builds a markdown body with the given number of header
// sections, each containing wordsPerSection words of filler.
func sectionedBody(sections, wordsPerSection int) string {
	var sb strings.Builder
	for i := 0; i < sections; i++ {
		fmt.Fprintf(&sb, "## Section %d\n", i+1)
		for w := 0; w < wordsPerSection; w++ {
			fmt.Fprintf(&sb, "word%d ", w)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func totalLessonWords(t *testing.T, moduleID, title, body string) int {
	t.Helper()
	sum := 0
	for _, l := range SplitLessons(moduleID, title, body) {
		sum += l.WordCount
	}
	return sum
}

func TestSplitLessonsConservesWords(t *testing.T) {
	bodies := []string{
		sectionedBody(10, 400),
		sectionedBody(4, 50),
		sectionedBody(20, 700),
		"no headers here, just a plain paragraph of text that keeps going for a while",
	}
	for i, body := range bodies {
		want := WordCount(body)
		got := totalLessonWords(t, "module-01", "Module", body)
		if got != want {
			t.Errorf("body %d: lesson word counts sum to %d, body has %d", i, got, want)
		}
	}
}

func TestSplitLessonsCountBounds(t *testing.T) {
	// 20 sections of 700 words = 14000 words; untouched that would want
	// ceil(14000/1500) = 10 lessons, clamped to 7.
	lessons := SplitLessons("module-01", "Module", sectionedBody(20, 700))
	if len(lessons) != MaxLessons {
		t.Errorf("Expected %d lessons for a very long body, got %d", MaxLessons, len(lessons))
	}

	// 4 short sections: target clamps up to MinLessons but never past the
	// section count.
	lessons = SplitLessons("module-01", "Module", sectionedBody(4, 50))
	if len(lessons) < MinLessons || len(lessons) > MaxLessons {
		t.Errorf("Expected lesson count within [%d,%d], got %d", MinLessons, MaxLessons, len(lessons))
	}

	// 2 sections cannot make 3 lessons; the section count caps the target.
	lessons = SplitLessons("module-01", "Module", sectionedBody(2, 100))
	if len(lessons) != 2 {
		t.Errorf("Expected 2 lessons for 2 sections, got %d", len(lessons))
	}

	// Exactly as many oversized sections as the minimum lesson count must
	// still produce one lesson per section.
	lessons = SplitLessons("module-01", "Module", sectionedBody(3, 700))
	if len(lessons) != 3 {
		t.Errorf("Expected 3 lessons for 3 oversized sections, got %d", len(lessons))
	}
}

func TestSplitLessonsTailHeavyBody(t *testing.T) {
	// Tiny leading sections followed by one large one: the budget alone would
	// never close a lesson in time, so the splitter must force closes to keep
	// the target reachable.
	body := "## A\n" + strings.Repeat("w ", 10) +
		"\n## B\n" + strings.Repeat("w ", 10) +
		"\n## C\n" + strings.Repeat("w ", 200)
	lessons := SplitLessons("module-01", "Module", body)
	if len(lessons) != 3 {
		t.Errorf("Expected 3 lessons for tail-heavy body, got %d", len(lessons))
	}
	if got, want := totalLessonWords(t, "module-01", "Module", body), WordCount(body); got != want {
		t.Errorf("Words lost: lessons sum to %d, body has %d", got, want)
	}
}

func TestSplitLessonsHeaderlessBody(t *testing.T) {
	body := "A single paragraph with no markdown headers at all. It still deserves a lesson."
	lessons := SplitLessons("module-03", "Intro to Things", body)
	if len(lessons) != 1 {
		t.Fatalf("Expected exactly 1 lesson for headerless body, got %d", len(lessons))
	}
	if lessons[0].Title != "Intro to Things" {
		t.Errorf("Expected module title on the single lesson, got %q", lessons[0].Title)
	}
	if lessons[0].TheoryBody != body {
		t.Error("Expected the whole body in the single lesson")
	}
}

func TestSplitLessonsDeterministicIDs(t *testing.T) {
	body := sectionedBody(8, 300)
	first := SplitLessons("module-02", "Module", body)
	second := SplitLessons("module-02", "Module", body)
	if len(first) != len(second) {
		t.Fatalf("Expected stable lesson count, got %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("Lesson %d id changed between runs: %q vs %q", i, first[i].ID, second[i].ID)
		}
		wantID := fmt.Sprintf("module-02-lesson-%02d", i+1)
		if first[i].ID != wantID {
			t.Errorf("Expected id %q, got %q", wantID, first[i].ID)
		}
		if first[i].Order != i+1 {
			t.Errorf("Expected order %d, got %d", i+1, first[i].Order)
		}
	}
}

func TestSplitLessonsReadMinutesClamped(t *testing.T) {
	// Tiny body: raw estimate under 5 minutes clamps up.
	lessons := SplitLessons("module-01", "Module", "just a few words")
	if lessons[0].EstimatedReadMinutes != 5 {
		t.Errorf("Expected clamp to 5 minutes, got %d", lessons[0].EstimatedReadMinutes)
	}

	// Every lesson of a long body stays within the clamp.
	for _, l := range SplitLessons("module-01", "Module", sectionedBody(20, 700)) {
		if l.EstimatedReadMinutes < 5 || l.EstimatedReadMinutes > 15 {
			t.Errorf("Lesson %s read estimate %d outside [5,15]", l.ID, l.EstimatedReadMinutes)
		}
	}
}

func TestSplitLessonsTitlesComeFromHeaders(t *testing.T) {
	body := "## Alpha\nsome text here\n## Beta\nmore text here\n## Gamma\neven more text"
	lessons := SplitLessons("module-01", "Module", body)
	if lessons[0].Title != "Alpha" {
		t.Errorf("Expected first lesson titled after its leading header, got %q", lessons[0].Title)
	}
}

func TestSplitLessonsPreambleBeforeFirstHeader(t *testing.T) {
	body := "An introductory paragraph before any header.\n" + sectionedBody(5, 200)
	want := WordCount(body)
	if got := totalLessonWords(t, "module-01", "Module", body); got != want {
		t.Errorf("Preamble words lost: lessons sum to %d, body has %d", got, want)
	}
}

func TestWordCount(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"one two\tthree\nfour", 4},
	}
	for _, tc := range cases {
		if got := WordCount(tc.in); got != tc.want {
			t.Errorf("WordCount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
