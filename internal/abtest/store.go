// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package abtest

import "context"

// Store persists test definitions and append-only outcome events.
type Store interface {
	// SaveTest writes or replaces a test definition.
	SaveTest(ctx context.Context, t *Test) error

	// GetTest returns one test by ID, ErrTestNotFound when absent.
	GetTest(ctx context.Context, id string) (*Test, error)

	// ListTests returns all test definitions.
	ListTests(ctx context.Context) ([]*Test, error)

	// AppendOutcome records one impression or conversion. Re-recording the
	// same (test, variant, session, kind) tuple is idempotent: the event
	// keeps a single entry, so repeated impressions from one session do
	// not double count.
	AppendOutcome(ctx context.Context, testID, variantID, sessionID string, kind OutcomeKind) error

	// OutcomeCounts aggregates per-variant impressions and conversions.
	OutcomeCounts(ctx context.Context, testID string) (map[string]*VariantCounts, error)

	Close() error
}
