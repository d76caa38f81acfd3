// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

// Package abtest implements controlled experiments on slot variants:
// deterministic traffic-split assignment, append-only outcome tracking and
// two-proportion significance testing.
package abtest

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tailorhq/tailor/internal/catalog"
)

// Sentinel errors for the A/B engine.
var (
	ErrTestNotFound      = errors.New("abtest: test not found")
	ErrTestConfigInvalid = errors.New("abtest: invalid test configuration")
	ErrInvalidTransition = errors.New("abtest: invalid status transition")
	ErrTestNotActive     = errors.New("abtest: test not active")
)

// allocationTolerance is how far traffic allocations may drift from 1.0.
const allocationTolerance = 0.001

// Status is a test's lifecycle state.
type Status string

// Lifecycle states. Completed is terminal.
const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// CanTransition reports whether s may move to next. The machine is
// draft → active ⇄ paused → completed, with completion allowed from both
// active and paused. Nothing leaves completed.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusActive
	case StatusActive:
		return next == StatusPaused || next == StatusCompleted
	case StatusPaused:
		return next == StatusActive || next == StatusCompleted
	default:
		return false
	}
}

// Variant is one experiment arm.
type Variant struct {
	// VariantID references a catalog.ComponentVariant ID.
	VariantID string `json:"variant_id" validate:"required"`

	// TrafficAllocation is this arm's share of sessions, in (0,1].
	TrafficAllocation float64 `json:"traffic_allocation" validate:"gt=0,lte=1"`
}

// Test is one experiment over a single slot type.
type Test struct {
	ID        string           `json:"id"`
	Name      string           `json:"name" validate:"required"`
	SlotType  catalog.SlotType `json:"slot_type" validate:"required"`
	Variants  []Variant        `json:"variants" validate:"required,min=2,dive"`
	Status    Status           `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Validate enforces the test configuration invariants: a known slot type,
// at least two variants with unique IDs, and allocations summing to 1.0
// within tolerance. Violations wrap ErrTestConfigInvalid.
func (t *Test) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: name required", ErrTestConfigInvalid)
	}
	if !t.SlotType.Valid() {
		return fmt.Errorf("%w: unknown slot type %q", ErrTestConfigInvalid, t.SlotType)
	}
	if len(t.Variants) < 2 {
		return fmt.Errorf("%w: need at least 2 variants, got %d", ErrTestConfigInvalid, len(t.Variants))
	}

	seen := make(map[string]bool, len(t.Variants))
	var sum float64
	for _, v := range t.Variants {
		if v.VariantID == "" {
			return fmt.Errorf("%w: variant with empty id", ErrTestConfigInvalid)
		}
		// Variant IDs are embedded in ':'-delimited result keys.
		if strings.Contains(v.VariantID, ":") {
			return fmt.Errorf("%w: variant id %q must not contain ':'", ErrTestConfigInvalid, v.VariantID)
		}
		if seen[v.VariantID] {
			return fmt.Errorf("%w: duplicate variant id %q", ErrTestConfigInvalid, v.VariantID)
		}
		seen[v.VariantID] = true

		if v.TrafficAllocation <= 0 || v.TrafficAllocation > 1 {
			return fmt.Errorf("%w: allocation for %q out of (0,1]", ErrTestConfigInvalid, v.VariantID)
		}
		sum += v.TrafficAllocation
	}

	if math.Abs(sum-1.0) > allocationTolerance {
		return fmt.Errorf("%w: allocations sum to %.4f, want 1.0 ± %.3f",
			ErrTestConfigInvalid, sum, allocationTolerance)
	}
	return nil
}

// OutcomeKind distinguishes the two tracked outcome events.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeImpression OutcomeKind = "impression"
	OutcomeConversion OutcomeKind = "conversion"
)

// Valid reports whether the kind is one of the tracked outcomes.
func (k OutcomeKind) Valid() bool {
	return k == OutcomeImpression || k == OutcomeConversion
}

// VariantCounts aggregates outcomes for one arm.
type VariantCounts struct {
	VariantID   string `json:"variant_id"`
	Impressions int    `json:"impressions"`
	Conversions int    `json:"conversions"`
}

// ConversionRate returns conversions/impressions, 0 for zero impressions.
func (c VariantCounts) ConversionRate() float64 {
	if c.Impressions == 0 {
		return 0
	}
	return float64(c.Conversions) / float64(c.Impressions)
}
