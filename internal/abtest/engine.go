// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package abtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tailorhq/tailor/internal/catalog"
	"github.com/tailorhq/tailor/internal/metrics"
)

// Results is the full analysis payload for one test.
type Results struct {
	TestID       string          `json:"test_id"`
	Status       Status          `json:"status"`
	Variants     []VariantCounts `json:"variants"`
	Significance *Significance   `json:"significance,omitempty"`
}

// Engine manages experiment lifecycle, assignment and analysis.
type Engine struct {
	store           Store
	confidenceLevel float64
	logger          zerolog.Logger
}

// NewEngine creates an A/B testing engine. confidenceLevel is the winner
// threshold, e.g. 0.95.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(store Store, confidenceLevel float64, logger zerolog.Logger) *Engine {
	if confidenceLevel <= 0 || confidenceLevel >= 1 {
		confidenceLevel = 0.95
	}
	return &Engine{
		store:           store,
		confidenceLevel: confidenceLevel,
		logger:          logger.With().Str("component", "abtest").Logger(),
	}
}

// Create validates and persists a new test in draft status.
func (e *Engine) Create(ctx context.Context, t *Test) (*Test, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	t.ID = uuid.New().String()
	t.Status = StatusDraft
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := e.store.SaveTest(ctx, t); err != nil {
		return nil, err
	}

	e.logger.Info().Str("test_id", t.ID).Str("slot_type", string(t.SlotType)).Msg("test created")
	return t, nil
}

// Get returns one test by ID.
func (e *Engine) Get(ctx context.Context, id string) (*Test, error) {
	return e.store.GetTest(ctx, id)
}

// List returns all tests.
func (e *Engine) List(ctx context.Context) ([]*Test, error) {
	return e.store.ListTests(ctx)
}

// Transition moves a test through its lifecycle. Illegal moves (anything
// out of completed, draft straight to paused) wrap ErrInvalidTransition.
func (e *Engine) Transition(ctx context.Context, id string, next Status) (*Test, error) {
	t, err := e.store.GetTest(ctx, id)
	if err != nil {
		return nil, err
	}

	if !t.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
	}

	t.Status = next
	t.UpdatedAt = time.Now()
	if err := e.store.SaveTest(ctx, t); err != nil {
		return nil, err
	}

	e.logger.Info().Str("test_id", id).Str("status", string(next)).Msg("test status changed")
	return t, nil
}

// Variant returns the session's assigned variant for an active test.
// Assignment is a pure function of (test_id, session_id), so repeat calls
// always agree.
func (e *Engine) Variant(ctx context.Context, testID, sessionID string) (string, error) {
	t, err := e.store.GetTest(ctx, testID)
	if err != nil {
		return "", err
	}
	if t.Status != StatusActive {
		return "", fmt.Errorf("%w: test %q is %s", ErrTestNotActive, testID, t.Status)
	}

	variantID := assignVariant(t, sessionID)
	metrics.ABAssignments.WithLabelValues(testID).Inc()
	return variantID, nil
}

// ActiveTestForSlot returns the active test covering a slot type, nil when
// the slot is not under test. Multiple active tests on one slot resolve to
// the oldest, so a misconfigured overlap stays deterministic.
func (e *Engine) ActiveTestForSlot(ctx context.Context, slot catalog.SlotType) (*Test, error) {
	tests, err := e.store.ListTests(ctx)
	if err != nil {
		return nil, err
	}

	var match *Test
	for _, t := range tests {
		if t.Status != StatusActive || t.SlotType != slot {
			continue
		}
		if match == nil || t.CreatedAt.Before(match.CreatedAt) {
			match = t
		}
	}
	return match, nil
}

// RecordOutcome appends an impression or conversion for the session's
// variant. The variant must belong to the test.
func (e *Engine) RecordOutcome(ctx context.Context, testID, variantID, sessionID string, kind OutcomeKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown outcome kind %q", ErrTestConfigInvalid, kind)
	}

	t, err := e.store.GetTest(ctx, testID)
	if err != nil {
		return err
	}

	known := false
	for _, v := range t.Variants {
		if v.VariantID == variantID {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: variant %q not in test %q", ErrTestConfigInvalid, variantID, testID)
	}

	if err := e.store.AppendOutcome(ctx, testID, variantID, sessionID, kind); err != nil {
		return err
	}

	metrics.ABOutcomes.WithLabelValues(testID, string(kind)).Inc()
	return nil
}

// Analyze aggregates per-variant outcomes and, for two-variant tests, runs
// the significance test. Variants with no recorded outcomes still appear
// with zero counts.
func (e *Engine) Analyze(ctx context.Context, testID string) (*Results, error) {
	t, err := e.store.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}

	counts, err := e.store.OutcomeCounts(ctx, testID)
	if err != nil {
		return nil, err
	}

	results := &Results{TestID: testID, Status: t.Status}
	for _, v := range t.Variants {
		vc := counts[v.VariantID]
		if vc == nil {
			vc = &VariantCounts{VariantID: v.VariantID}
		}
		results.Variants = append(results.Variants, *vc)
	}

	// Significance is defined for two-arm tests; multi-arm tests report
	// raw counts only.
	if len(results.Variants) == 2 {
		sig := zTest(results.Variants[0], results.Variants[1], e.confidenceLevel)
		results.Significance = &sig
	}

	return results, nil
}
