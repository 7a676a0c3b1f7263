package generator

import (
	"strings"
)

// DefaultBlockWordBudget bounds presentation-oriented text blocks.
const DefaultBlockWordBudget = 150

// SplitBlocks divides text into sentence-bounded chunks of at most maxWords
// words each. A single sentence longer than the budget is force-split on word
// boundaries. No words are ever dropped: the words across all blocks equal
// the words of the input.
func SplitBlocks(text string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = DefaultBlockWordBudget
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var blocks []string
	var current []string
	currentWords := 0

	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, " "))
			current = nil
			currentWords = 0
		}
	}

	for _, sentence := range sentences {
		words := strings.Fields(sentence)
		if len(words) > maxWords {
			// Oversized sentence: flush what we have, then hard-split it.
			flush()
			for start := 0; start < len(words); start += maxWords {
				end := start + maxWords
				if end > len(words) {
					end = len(words)
				}
				blocks = append(blocks, strings.Join(words[start:end], " "))
			}
			continue
		}
		if currentWords+len(words) > maxWords {
			flush()
		}
		current = append(current, sentence)
		currentWords += len(words)
	}
	flush()

	return blocks
}

// splitSentences groups whitespace-separated words into sentences, closing a
// sentence at a word with terminal punctuation. Grouping words rather than
// slicing runes keeps the split word-conserving by construction.
func splitSentences(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var sentences []string
	var current []string
	for _, w := range words {
		current = append(current, w)
		if endsSentence(w) {
			sentences = append(sentences, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		sentences = append(sentences, strings.Join(current, " "))
	}
	return sentences
}

func endsSentence(word string) bool {
	trimmed := strings.TrimRight(word, `"')]*_`)
	return strings.HasSuffix(trimmed, ".") ||
		strings.HasSuffix(trimmed, "!") ||
		strings.HasSuffix(trimmed, "?")
}
