// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

// Package assembly selects a variant for every page slot: relevance-ranked
// when the session's interest vector is trustworthy, the slot's default
// otherwise, deferring to the A/B engine for slots under test. Assembly
// never fails a page; every degradation path lands on a default variant.
package assembly

import (
	"github.com/tailorhq/tailor/internal/catalog"
)

// Reason explains how a slot's variant was chosen.
type Reason string

// Selection and fallback reasons.
const (
	// ReasonRelevance marks a slot won by relevance ranking.
	ReasonRelevance Reason = "relevance"

	// ReasonABAssignment marks a slot decided by an active A/B test.
	ReasonABAssignment Reason = "ab_assignment"

	// Fallback reasons.
	ReasonLowConfidence    Reason = "low_confidence"
	ReasonEmptyVector      Reason = "empty_vector"
	ReasonNoCandidates     Reason = "no_candidates"
	ReasonSlotError        Reason = "slot_error"
	ReasonDeadlineExceeded Reason = "deadline_exceeded"
)

// SlotDefinition describes one slot the caller wants filled.
type SlotDefinition struct {
	SlotType catalog.SlotType `json:"slot_type" validate:"required"`

	// ItemCount > 1 makes the slot multi-item (article lists); diversity
	// selection applies. Single-item slots leave it 0 or 1.
	ItemCount int `json:"item_count,omitempty" validate:"gte=0,lte=50"`
}

// SelectedVariant is one chosen variant with its relevance score. The score
// is recorded even for A/B-assigned and fallback variants, for analytics.
type SelectedVariant struct {
	Variant        *catalog.ComponentVariant `json:"variant"`
	RelevanceScore float64                   `json:"relevance_score"`
}

// SlotResult is one slot's outcome.
type SlotResult struct {
	SlotType     catalog.SlotType  `json:"slot_type"`
	Variants     []SelectedVariant `json:"variants"`
	Reason       Reason            `json:"reason"`
	FallbackUsed bool              `json:"fallback_used"`

	// ABTestID is set when an active test decided this slot.
	ABTestID string `json:"ab_test_id,omitempty"`
}

// Primary returns the slot's first (top-ranked) variant, nil when the slot
// could not be filled at all.
func (r *SlotResult) Primary() *catalog.ComponentVariant {
	if len(r.Variants) == 0 {
		return nil
	}
	return r.Variants[0].Variant
}

// PageMetadata summarizes the assembly pass.
type PageMetadata struct {
	PersonalizationApplied bool    `json:"personalization_applied"`
	ConfidenceScore        float64 `json:"confidence_score"`
	FallbackUsed           bool    `json:"fallback_used"`

	// AssemblyTimeMS is the wall-clock assembly time in milliseconds,
	// matching the query_time_ms convention of the response envelope.
	AssemblyTimeMS int64 `json:"assembly_time_ms"`
}

// PageResult is the assembled page descriptor.
type PageResult struct {
	SessionID string        `json:"session_id"`
	Slots     []*SlotResult `json:"slots"`
	Metadata  PageMetadata  `json:"metadata"`
}
