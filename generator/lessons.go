package generator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/courseforge/courseforge/course"
)

// Lesson splitting bounds. A module's theory is divided into at least
// MinLessons and at most MaxLessons lessons, sized against MaxWordsPerLesson,
// except a headerless body which becomes exactly one lesson.
const (
	MinLessons        = 3
	MaxLessons        = 7
	MaxWordsPerLesson = 1500

	// Reading speed used for the per-lesson estimate, clamped to [5,15] min.
	wordsPerMinute = 200
	minReadMinutes = 5
	maxReadMinutes = 15
)

var headerPattern = regexp.MustCompile(`^#{1,6}\s+(.*)$`)

// section is one header-delimited span of the theory body. Content includes
// the header line itself so reassembled lessons conserve every word.
type section struct {
	title   string
	content []string
	words   int
}

// SplitLessons divides a module's theory body into lessons along header
// boundaries. The algorithm is deterministic and makes no model calls:
//
//  1. Parse header-delimited sections and count their words.
//  2. Target lesson count = clamp(ceil(totalWords/MaxWordsPerLesson),
//     MinLessons, MaxLessons).
//  3. Greedily accumulate consecutive sections until the running word count
//     would pass totalWords/target, then close the lesson; the final lesson
//     absorbs all remaining sections.
//  4. A body with no headers yields a single lesson containing the whole body.
//
// Lesson identifiers derive from (moduleID, order), so regenerating the same
// module yields the same ids. The word counts of all lessons sum to the word
// count of the input body.
func SplitLessons(moduleID, moduleTitle, body string) []course.Lesson {
	sections := parseSections(moduleTitle, body)

	if len(sections) <= 1 {
		return []course.Lesson{makeLesson(moduleID, 1, moduleTitle, body)}
	}

	totalWords := 0
	for _, s := range sections {
		totalWords += s.words
	}

	target := ceilDiv(totalWords, MaxWordsPerLesson)
	target = clampInt(target, MinLessons, MaxLessons)
	if target > len(sections) {
		target = len(sections)
	}
	budget := totalWords / target

	var lessons []course.Lesson
	var current []section
	currentWords := 0

	for i, s := range sections {
		remainingLessons := target - len(lessons)
		remainingSections := len(sections) - i
		lastLesson := remainingLessons <= 1

		// Closing here leaves sections i..n-1 to fill remainingLessons-1
		// lessons. Close on budget overflow when enough sections remain, and
		// force a close when the remaining sections only just cover the
		// remaining lessons.
		overBudget := currentWords+s.words > budget && remainingSections >= remainingLessons-1
		mustClose := remainingSections == remainingLessons-1
		if !lastLesson && len(current) > 0 && (overBudget || mustClose) {
			lessons = append(lessons, closeLesson(moduleID, len(lessons)+1, current))
			current = nil
			currentWords = 0
		}
		current = append(current, s)
		currentWords += s.words
	}
	if len(current) > 0 {
		lessons = append(lessons, closeLesson(moduleID, len(lessons)+1, current))
	}

	return lessons
}

// parseSections splits a body on markdown headers. Text before the first
// header becomes a leading section titled after the module.
func parseSections(moduleTitle, body string) []section {
	lines := strings.Split(body, "\n")
	var sections []section
	current := section{title: moduleTitle}
	sawHeader := false

	flush := func() {
		if len(current.content) > 0 {
			current.words = WordCount(strings.Join(current.content, "\n"))
			if current.words > 0 {
				sections = append(sections, current)
			}
		}
	}

	for _, line := range lines {
		if m := headerPattern.FindStringSubmatch(line); m != nil {
			flush()
			sawHeader = true
			current = section{title: strings.TrimSpace(m[1]), content: []string{line}}
			continue
		}
		current.content = append(current.content, line)
	}
	flush()

	if !sawHeader {
		return nil
	}
	return sections
}

func closeLesson(moduleID string, order int, sections []section) course.Lesson {
	var parts []string
	for _, s := range sections {
		parts = append(parts, strings.Join(s.content, "\n"))
	}
	return makeLesson(moduleID, order, sections[0].title, strings.Join(parts, "\n"))
}

func makeLesson(moduleID string, order int, title, body string) course.Lesson {
	words := WordCount(body)
	return course.Lesson{
		ID:                   fmt.Sprintf("%s-lesson-%02d", moduleID, order),
		ModuleID:             moduleID,
		Order:                order,
		Title:                title,
		TheoryBody:           body,
		KeyTerms:             ExtractKeyTerms(body),
		EstimatedReadMinutes: clampInt(ceilDiv(words, wordsPerMinute), minReadMinutes, maxReadMinutes),
		WordCount:            words,
	}
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func clampInt(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
