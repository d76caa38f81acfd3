// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package scoring

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/tailorhq/tailor/internal/interest"
)

// Selector applies diversity-aware selection: a bounded fraction of the
// returned items must fall outside the session's dominant interest
// categories, so personalization doesn't collapse into a filter bubble.
type Selector struct {
	// DiversityFactor is the target fraction of selected items drawn from
	// non-dominant categories. Default 0.3.
	DiversityFactor float64

	// DominantCategories is how many top interest categories count as
	// "dominant". Default 3.
	DominantCategories int

	logger zerolog.Logger
}

// NewSelector creates a diversity selector with defaults filled in.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSelector(diversityFactor float64, dominantCategories int, logger zerolog.Logger) *Selector {
	if diversityFactor < 0 || diversityFactor >= 1 {
		diversityFactor = 0.3
	}
	if dominantCategories <= 0 {
		dominantCategories = 3
	}
	return &Selector{
		DiversityFactor:    diversityFactor,
		DominantCategories: dominantCategories,
		logger:             logger.With().Str("component", "scoring").Logger(),
	}
}

// Select returns up to n items from the scored, sorted candidate list such
// that roughly DiversityFactor of them come from categories outside the
// vector's dominant interest categories.
//
// The primary slice takes the top ⌈n·(1−f)⌉ by raw score; the remainder is
// filled with the highest-scoring candidates whose categories are disjoint
// from the dominant set. When too few diverse candidates exist the quota
// degrades gracefully: remaining slots fill by raw score and the shortfall
// is logged, never surfaced as an error.
func (s *Selector) Select(vector *interest.Vector, scored []Scored, n int) []Scored {
	if n <= 0 || len(scored) == 0 {
		return nil
	}
	if n > len(scored) {
		n = len(scored)
	}

	dominant := dominantSet(vector, s.DominantCategories)

	primaryCount := int(math.Ceil(float64(n) * (1 - s.DiversityFactor)))
	if primaryCount > n {
		primaryCount = n
	}

	out := make([]Scored, 0, n)
	picked := make(map[string]bool, n)

	for i := 0; i < primaryCount && i < len(scored); i++ {
		out = append(out, scored[i])
		picked[scored[i].Candidate.CandidateID()] = true
	}

	// Diverse fill: best remaining candidates disjoint from the dominant
	// categories.
	for _, cand := range scored {
		if len(out) >= n {
			break
		}
		id := cand.Candidate.CandidateID()
		if picked[id] || !disjoint(cand.Candidate.CategoryWeights(), dominant) {
			continue
		}
		out = append(out, cand)
		picked[id] = true
	}

	// Graceful degradation: not enough diverse candidates, fill by score.
	if len(out) < n {
		s.logger.Warn().
			Int("target", n).
			Int("selected", len(out)).
			Msg("insufficient diverse candidates, degrading to score order")

		for _, cand := range scored {
			if len(out) >= n {
				break
			}
			if picked[cand.Candidate.CandidateID()] {
				continue
			}
			out = append(out, cand)
			picked[cand.Candidate.CandidateID()] = true
		}
	}

	SortScored(out)
	return out
}

// dominantSet returns the vector's top-k interest categories.
func dominantSet(vector *interest.Vector, k int) map[string]bool {
	out := make(map[string]bool, k)
	for _, cat := range vector.TopCategories(k) {
		out[cat] = true
	}
	return out
}

// disjoint reports whether none of the candidate's positively-weighted
// categories appear in the dominant set.
func disjoint(weights map[string]float64, dominant map[string]bool) bool {
	for cat, w := range weights {
		if w > 0 && dominant[cat] {
			return false
		}
	}
	return true
}
