// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package abtest

import "math"

// Significance is the outcome of a two-proportion z-test between two arms.
type Significance struct {
	ZStatistic float64 `json:"z_statistic"`
	PValue     float64 `json:"p_value"`

	// Conclusive is true when PValue clears the configured confidence
	// level. Winner is set only then; inconclusive tests report no winner.
	Conclusive bool   `json:"conclusive"`
	Winner     string `json:"winner,omitempty"`
}

// zTest runs a pooled two-proportion z-test on two arms' conversion rates.
// confidenceLevel is e.g. 0.95; the test is two-tailed. Either arm with
// zero impressions, or a degenerate pooled rate (all convert or none do),
// yields an inconclusive result rather than a division error.
func zTest(a, b VariantCounts, confidenceLevel float64) Significance {
	if a.Impressions == 0 || b.Impressions == 0 {
		return Significance{}
	}

	n1, n2 := float64(a.Impressions), float64(b.Impressions)
	p1, p2 := a.ConversionRate(), b.ConversionRate()

	pooled := (float64(a.Conversions) + float64(b.Conversions)) / (n1 + n2)
	se := math.Sqrt(pooled * (1 - pooled) * (1/n1 + 1/n2))
	if se == 0 {
		return Significance{PValue: 1}
	}

	z := (p1 - p2) / se
	pValue := math.Erfc(math.Abs(z) / math.Sqrt2)

	sig := Significance{ZStatistic: z, PValue: pValue}
	if pValue <= 1-confidenceLevel {
		sig.Conclusive = true
		if p1 > p2 {
			sig.Winner = a.VariantID
		} else {
			sig.Winner = b.VariantID
		}
	}
	return sig
}
