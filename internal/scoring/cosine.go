// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

// Package scoring computes content relevance against session interest
// vectors and applies diversity-aware selection over scored candidates.
package scoring

import "math"

// Cosine computes the cosine similarity of two sparse non-negative vectors.
// Either vector empty or all-zero yields 0. For non-negative inputs the
// result is in [0,1]; identical vectors score 1.
func Cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Iterate the smaller map for the dot product.
	if len(b) < len(a) {
		a, b = b, a
	}

	var dot float64
	for k, av := range a {
		if bv, ok := b[k]; ok {
			dot += av * bv
		}
	}
	if dot == 0 {
		return 0
	}

	var normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Float accumulation can nudge identical vectors past 1.
	if sim > 1 {
		sim = 1
	}
	return sim
}
