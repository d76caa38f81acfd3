// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package textproc

import (
	"math"
	"sync"
)

// Corpus maintains document frequencies over a reference corpus and computes
// TF-IDF term weights against it. It is safe for concurrent use: documents
// are added as sessions produce text, and weights are read on every vector
// recomputation.
//
// The corpus scope is a deployment decision (recent signals across all
// sessions, or a static content catalog); the corpus itself is agnostic and
// just counts the documents it is fed.
type Corpus struct {
	mu             sync.RWMutex
	docCount       int
	docsContaining map[string]int
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{
		docsContaining: make(map[string]int),
	}
}

// AddDocument folds one document's distinct terms into the corpus statistics.
func (c *Corpus) AddDocument(terms []string) {
	if len(terms) == 0 {
		return
	}

	distinct := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		distinct[term] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.docCount++
	for term := range distinct {
		c.docsContaining[term]++
	}
}

// DocumentCount returns the number of documents folded into the corpus.
func (c *Corpus) DocumentCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.docCount
}

// IDF computes the inverse document frequency for a term with additive
// smoothing: ln(corpusSize / (1 + docsContaining)). The smoothed denominator
// means a term absent from the corpus never divides by zero.
//
// An empty corpus yields 0 for every term.
func (c *Corpus) IDF(term string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.docCount == 0 {
		return 0
	}

	idf := math.Log(float64(c.docCount) / float64(1+c.docsContaining[term]))
	if idf < 0 {
		// Terms appearing in nearly every document carry no discriminative
		// weight; clamp rather than produce negative contributions.
		return 0
	}
	return idf
}

// TermFrequency computes occurrences(term)/totalTerms for a tokenized
// document. An empty document yields an empty map (the caller treats the
// result as a zero vector).
func TermFrequency(terms []string) map[string]float64 {
	if len(terms) == 0 {
		return map[string]float64{}
	}

	counts := make(map[string]int, len(terms))
	for _, term := range terms {
		counts[term]++
	}

	total := float64(len(terms))
	tf := make(map[string]float64, len(counts))
	for term, n := range counts {
		tf[term] = float64(n) / total
	}
	return tf
}

// TFIDF computes tf*idf for every distinct term of a tokenized document
// against the corpus. An empty document yields an empty map.
func (c *Corpus) TFIDF(terms []string) map[string]float64 {
	tf := TermFrequency(terms)
	if len(tf) == 0 {
		return tf
	}

	weights := make(map[string]float64, len(tf))
	for term, f := range tf {
		weights[term] = f * c.IDF(term)
	}
	return weights
}
