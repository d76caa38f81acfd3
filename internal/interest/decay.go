// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

// Package interest derives per-session interest vectors from behavioral
// signals: temporal decay, TF-IDF weighted aggregation, confidence scoring
// and a versioned per-session cache.
package interest

import (
	"math"
	"time"
)

// Decayer maps (base weight, signal age) to an effective weight using
// exponential decay with a hard cutoff. It is a pure value: no side effects,
// deterministic for given inputs.
type Decayer struct {
	// HalfLife is the age at which a signal's weight halves.
	HalfLife time.Duration

	// Cutoff is the hard age limit past which weight is exactly zero.
	Cutoff time.Duration
}

// NewDecayer creates a decayer with the given half-life and a cutoff of
// retentionDays days.
func NewDecayer(halfLife time.Duration, retentionDays int) Decayer {
	return Decayer{
		HalfLife: halfLife,
		Cutoff:   time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Decay returns baseWeight * exp(-λ·age) with λ = ln2 / halfLife, and zero
// for any age past the cutoff. Negative ages clamp to zero age.
func (d Decayer) Decay(baseWeight float64, age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	if age > d.Cutoff {
		return 0
	}

	lambda := math.Ln2 / d.HalfLife.Seconds()
	return baseWeight * math.Exp(-lambda*age.Seconds())
}
