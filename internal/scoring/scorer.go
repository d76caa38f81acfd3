// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package scoring

import (
	"sort"
	"time"

	"github.com/tailorhq/tailor/internal/interest"
	"github.com/tailorhq/tailor/internal/metrics"
)

// Candidate is anything scoreable: a content item or a component variant.
// CategoryWeights may be nil for untagged candidates; they score 0.
type Candidate interface {
	CandidateID() string
	CategoryWeights() map[string]float64
}

// Scored pairs a candidate with its relevance against one interest vector.
type Scored struct {
	Candidate Candidate
	Score     float64
}

// ScoreBatch scores candidates against the session vector and returns them
// sorted score-descending, candidate-ID ascending on ties. Both-zero vector
// pairs score 0 rather than erroring.
//
// Candidates with no declared category weights are treated as uniform over
// nothing, i.e. score 0; callers that want uniform tagging assign it before
// scoring.
func ScoreBatch(vector *interest.Vector, candidates []Candidate) []Scored {
	start := time.Now()
	defer func() {
		metrics.ScoringDuration.Observe(time.Since(start).Seconds())
	}()

	var weights map[string]float64
	if !vector.Empty() {
		weights = vector.Weights
	}

	scored := make([]Scored, 0, len(candidates))
	for _, cand := range candidates {
		scored = append(scored, Scored{
			Candidate: cand,
			Score:     Cosine(weights, cand.CategoryWeights()),
		})
	}

	SortScored(scored)
	return scored
}

// SortScored orders scored candidates score-descending with the candidate-ID
// ascending tie-break, guaranteeing deterministic output for equal inputs.
func SortScored(scored []Scored) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Candidate.CandidateID() < scored[j].Candidate.CandidateID()
	})
}

// UniformWeights assigns 1/n to each named category. Used for candidates
// tagged with categories but no explicit weights.
func UniformWeights(categories []string) map[string]float64 {
	if len(categories) == 0 {
		return nil
	}
	w := 1.0 / float64(len(categories))
	out := make(map[string]float64, len(categories))
	for _, cat := range categories {
		out[cat] = w
	}
	return out
}
