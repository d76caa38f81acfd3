// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package interest

import (
	"sort"
	"time"
)

// Vector is the derived, cached interest summary for one session.
// Weights are L1-normalized: they sum to 1.0 whenever SignalCount > 0.
// All components outside the calculator treat a Vector as read-only.
type Vector struct {
	// SessionID identifies the session this vector summarizes.
	SessionID string `json:"session_id"`

	// Weights maps category to non-negative weight. Empty when the
	// session has no scoreable signals.
	Weights map[string]float64 `json:"weights"`

	// Confidence in [0,1] indicates how reliable the vector is for
	// personalization decisions.
	Confidence float64 `json:"confidence"`

	// SignalCount is the number of signals folded into this vector.
	SignalCount int `json:"signal_count"`

	// LastUpdated is when the vector was computed.
	LastUpdated time.Time `json:"last_updated"`
}

// Empty reports whether the vector carries no interest information.
// An empty vector is a defined zero-confidence state, not an error.
func (v *Vector) Empty() bool {
	return v == nil || len(v.Weights) == 0
}

// TopCategories returns the n highest-weighted categories, ties broken by
// category name ascending for deterministic output.
func (v *Vector) TopCategories(n int) []string {
	if v.Empty() || n <= 0 {
		return nil
	}

	type catWeight struct {
		category string
		weight   float64
	}

	sorted := make([]catWeight, 0, len(v.Weights))
	for cat, w := range v.Weights {
		sorted = append(sorted, catWeight{cat, w})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].weight != sorted[j].weight {
			return sorted[i].weight > sorted[j].weight
		}
		return sorted[i].category < sorted[j].category
	})

	if n > len(sorted) {
		n = len(sorted)
	}

	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = sorted[i].category
	}
	return out
}

// clone returns a defensive copy so cached vectors are never mutated by
// callers.
func (v *Vector) clone() *Vector {
	if v == nil {
		return nil
	}

	weights := make(map[string]float64, len(v.Weights))
	for k, w := range v.Weights {
		weights[k] = w
	}

	cp := *v
	cp.Weights = weights
	return &cp
}
