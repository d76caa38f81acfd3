// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

// Package gap identifies content gaps: search topics the catalog serves
// poorly, prioritized by how often and how specifically sessions ask for
// them. Analysis runs out-of-band and never blocks a caller's request path.
package gap

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tailorhq/tailor/internal/catalog"
	"github.com/tailorhq/tailor/internal/genai"
	"github.com/tailorhq/tailor/internal/metrics"
	"github.com/tailorhq/tailor/internal/textproc"
)

// subtopicFacets are the angles suggested for filling an identified gap.
var subtopicFacets = []string{"basics", "guide", "examples", "comparison", "trends"}

// Report is the analysis outcome for one topic.
type Report struct {
	Topic              string            `json:"topic"`
	GapIdentified      bool              `json:"gap_identified"`
	MatchCount         int               `json:"match_count"`
	SuggestedSubtopics []string          `json:"suggested_subtopics,omitempty"`
	PriorityScore      float64           `json:"priority_score"`
	DraftCopy          map[string]string `json:"draft_copy,omitempty"`
	AnalyzedAt         time.Time         `json:"analyzed_at"`
}

// Analyzer matches topics against the catalog and scores gaps. Query
// frequency is tracked per topic so repeatedly missed searches climb the
// priority ranking.
type Analyzer struct {
	provider     catalog.Provider
	tokenizer    *textproc.Tokenizer
	copywriter   genai.Provider
	minMatches   int
	maxSubtopics int
	logger       zerolog.Logger

	mu        sync.Mutex
	frequency map[string]int
}

// NewAnalyzer creates a gap analyzer. minMatches is the match count below
// which a topic counts as a gap (default 2).
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAnalyzer(provider catalog.Provider, minMatches, maxSubtopics int, logger zerolog.Logger) *Analyzer {
	if minMatches <= 0 {
		minMatches = 2
	}
	if maxSubtopics <= 0 {
		maxSubtopics = 5
	}
	return &Analyzer{
		provider:     provider,
		tokenizer:    textproc.NewTokenizer(),
		minMatches:   minMatches,
		maxSubtopics: maxSubtopics,
		logger:       logger.With().Str("component", "gap").Logger(),
		frequency:    make(map[string]int),
	}
}

// WithCopywriter attaches an AI copy provider. Identified gaps then carry a
// draft of suggested content; provider failures degrade to a report without
// copy. Returns the analyzer for chaining at wiring time.
func (a *Analyzer) WithCopywriter(p genai.Provider) *Analyzer {
	a.copywriter = p
	return a
}

// Analyze counts catalog items matching the topic and emits a report. The
// same topic analyzed repeatedly accumulates frequency and climbs in
// priority.
func (a *Analyzer) Analyze(ctx context.Context, topic string) (*Report, error) {
	terms := a.tokenizer.Tokenize(topic)
	normalized := strings.Join(terms, " ")

	a.mu.Lock()
	a.frequency[normalized]++
	freq := a.frequency[normalized]
	a.mu.Unlock()

	matches, err := a.countMatches(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("analyze gap: %w", err)
	}

	report := &Report{
		Topic:      topic,
		MatchCount: matches,
		AnalyzedAt: time.Now(),
	}

	if matches < a.minMatches {
		report.GapIdentified = true
		report.SuggestedSubtopics = a.subtopics(topic)
		report.PriorityScore = priority(freq, topic, terms)
		report.DraftCopy = a.draftCopy(ctx, terms)
		metrics.GapReports.Inc()

		a.logger.Info().
			Str("topic", topic).
			Int("matches", matches).
			Float64("priority", report.PriorityScore).
			Msg("content gap identified")
	}

	return report, nil
}

// countMatches counts catalog items sharing at least one term with the
// topic, via category names or title tokens.
func (a *Analyzer) countMatches(ctx context.Context, terms []string) (int, error) {
	if len(terms) == 0 {
		return 0, nil
	}

	items, err := a.provider.Items(ctx)
	if err != nil {
		return 0, err
	}

	termSet := make(map[string]bool, len(terms))
	for _, t := range terms {
		termSet[t] = true
	}

	matches := 0
	for _, item := range items {
		if a.itemMatches(item, termSet) {
			matches++
		}
	}
	return matches, nil
}

func (a *Analyzer) itemMatches(item *catalog.ContentItem, termSet map[string]bool) bool {
	for cat := range item.Categories {
		for _, catTerm := range a.tokenizer.Tokenize(cat) {
			if termSet[catTerm] {
				return true
			}
		}
	}
	for _, titleTerm := range a.tokenizer.Tokenize(item.Title) {
		if termSet[titleTerm] {
			return true
		}
	}
	return false
}

// draftCopy asks the configured copy provider for a content draft covering
// the gap. No provider, or an unavailable one, yields no copy.
func (a *Analyzer) draftCopy(ctx context.Context, terms []string) map[string]string {
	if a.copywriter == nil {
		return nil
	}

	result, err := a.copywriter.Generate(ctx, genai.Request{
		SlotType:   string(catalog.SlotRecommended),
		Categories: terms,
		Tone:       "informative",
	})
	if err != nil {
		a.logger.Debug().Err(err).Msg("gap copy draft unavailable")
		return nil
	}
	return result.Body
}

// subtopics suggests content angles for the missed topic.
func (a *Analyzer) subtopics(topic string) []string {
	n := a.maxSubtopics
	if n > len(subtopicFacets) {
		n = len(subtopicFacets)
	}

	out := make([]string, 0, n)
	for _, facet := range subtopicFacets[:n] {
		out = append(out, topic+" "+facet)
	}
	return out
}

// priority scores a gap by frequency and specificity. Frequency saturates
// so one runaway topic cannot grow without bound; specificity rewards
// longer, information-dense queries.
func priority(freq int, topic string, terms []string) float64 {
	frequency := float64(freq) / (float64(freq) + 5)

	words := strings.Fields(topic)
	if len(words) == 0 {
		return 0
	}

	// Length factor saturates at 4 meaningful terms.
	length := float64(len(terms)) / 4
	if length > 1 {
		length = 1
	}
	density := float64(len(terms)) / float64(len(words))
	if density > 1 {
		density = 1
	}

	specificity := length * density
	return frequency * specificity
}
