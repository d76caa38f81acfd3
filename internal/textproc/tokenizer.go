// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

// Package textproc provides text tokenization and TF-IDF term weighting for
// behavioral signal analysis.
package textproc

import (
	"strings"
)

// stopWords are common English words excluded from term extraction.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "he": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"that": true, "the": true, "to": true, "was": true, "were": true, "will": true,
	"with": true, "this": true, "but": true, "they": true, "have": true,
	"had": true, "what": true, "when": true, "where": true, "who": true, "which": true,
	"why": true, "how": true, "all": true, "any": true, "both": true, "each": true,
	"few": true, "more": true, "most": true, "other": true, "some": true, "such": true,
	"no": true, "nor": true, "not": true, "only": true, "own": true, "same": true,
	"so": true, "than": true, "too": true, "very": true, "can": true, "did": true,
	"do": true, "does": true, "doing": true, "done": true, "down": true, "up": true,
}

// Tokenizer normalizes free text into weighted-term-ready tokens.
type Tokenizer struct{}

// NewTokenizer creates a new tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize lowercases, strips punctuation, removes stop words and applies
// light stemming. The result preserves input order and may contain duplicates
// (term frequency is computed downstream).
func (t *Tokenizer) Tokenize(text string) []string {
	words := strings.Fields(strings.ToLower(text))

	var result []string
	for _, word := range words {
		word = strings.Trim(word, ".,!?()[]{}:;\"'")

		if word == "" || stopWords[word] {
			continue
		}

		result = append(result, t.stem(word))
	}

	return result
}

// IsStopWord reports whether the word is on the stop list.
func (t *Tokenizer) IsStopWord(word string) bool {
	return stopWords[strings.ToLower(word)]
}

// stem applies a simplified Porter-style suffix reduction.
func (t *Tokenizer) stem(word string) string {
	if len(word) < 3 {
		return word
	}

	// Plurals
	switch {
	case strings.HasSuffix(word, "sses"):
		word = word[:len(word)-2]
	case strings.HasSuffix(word, "ies"):
		word = word[:len(word)-2]
	case strings.HasSuffix(word, "ss"):
		// keep
	case strings.HasSuffix(word, "s"):
		word = word[:len(word)-1]
	}

	// -ed / -ing
	switch {
	case strings.HasSuffix(word, "eed") && len(word) > 4:
		word = word[:len(word)-1]
	case strings.HasSuffix(word, "ed") && len(word) > 4:
		word = word[:len(word)-2]
	case strings.HasSuffix(word, "ing") && len(word) > 5:
		word = word[:len(word)-3]
	}

	// -ly / -ful / -ness
	switch {
	case strings.HasSuffix(word, "ly") && len(word) > 4:
		word = word[:len(word)-2]
	case strings.HasSuffix(word, "ful") && len(word) > 5:
		word = word[:len(word)-3]
	case strings.HasSuffix(word, "ness") && len(word) > 5:
		word = word[:len(word)-4]
	}

	return word
}
