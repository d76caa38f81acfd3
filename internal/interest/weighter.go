// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package interest

import (
	"github.com/tailorhq/tailor/internal/textproc"
)

// TFIDFWeighter bridges the text pipeline into signal contribution scoring:
// free text is tokenized and weighted against the reference corpus. It
// implements signal.TermWeighter.
type TFIDFWeighter struct {
	tokenizer *textproc.Tokenizer
	corpus    *textproc.Corpus
}

// NewTFIDFWeighter creates a weighter over the given corpus.
func NewTFIDFWeighter(corpus *textproc.Corpus) *TFIDFWeighter {
	return &TFIDFWeighter{
		tokenizer: textproc.NewTokenizer(),
		corpus:    corpus,
	}
}

// Weights tokenizes text and returns per-term TF-IDF weights. Against an
// empty corpus every weight is zero; callers fall back to uniform term
// weights in that case.
func (w *TFIDFWeighter) Weights(text string) map[string]float64 {
	return w.corpus.TFIDF(w.tokenizer.Tokenize(text))
}

// Observe folds a document of free text into the corpus statistics. Used
// when the corpus scope is recent signal text.
func (w *TFIDFWeighter) Observe(text string) {
	w.corpus.AddDocument(w.tokenizer.Tokenize(text))
}
