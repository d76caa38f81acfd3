// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// BaseWeights holds the per-type base weight applied at ingestion.
type BaseWeights struct {
	SearchQuery        float64
	ContentClick       float64
	TimeSpent          float64
	TaxonomyEngagement float64
	CTAClick           float64
}

// ForType returns the base weight for a signal type.
func (w BaseWeights) ForType(t Type) float64 {
	switch t {
	case TypeSearchQuery:
		return w.SearchQuery
	case TypeContentClick:
		return w.ContentClick
	case TypeTimeSpent:
		return w.TimeSpent
	case TypeTaxonomyEngagement:
		return w.TaxonomyEngagement
	case TypeCTAClick:
		return w.CTAClick
	default:
		return 1.0
	}
}

// Invalidator is notified synchronously after each signal write so the
// session's cached interest vector is never observed as valid alongside a
// newer signal.
type Invalidator interface {
	Invalidate(sessionID string)
}

// Publisher fans a recorded signal out to asynchronous consumers (corpus
// maintenance, gap analysis). Publish failures must not fail ingestion.
type Publisher interface {
	SignalRecorded(ctx context.Context, s *Signal) error
}

// Recorder is the ingestion service: it validates, stamps and appends
// signals, then invalidates the session's derived vector atomically with
// the write.
type Recorder struct {
	store       Store
	weights     BaseWeights
	invalidator Invalidator
	publisher   Publisher
	logger      zerolog.Logger
}

// NewRecorder creates a signal recorder. invalidator and publisher may be
// nil in tests.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecorder(store Store, weights BaseWeights, invalidator Invalidator, publisher Publisher, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:       store,
		weights:     weights,
		invalidator: invalidator,
		publisher:   publisher,
		logger:      logger.With().Str("component", "signal").Logger(),
	}
}

// Record validates and persists one signal, returning its assigned ID.
// Validation errors wrap ErrInvalidSignal and are surfaced synchronously.
func (r *Recorder) Record(ctx context.Context, sessionID string, t Type, payload Payload, ts time.Time) (string, error) {
	if ts.IsZero() {
		ts = time.Now()
	}

	sig := &Signal{
		SessionID:  sessionID,
		SignalType: t,
		Payload:    payload,
		BaseWeight: r.weights.ForType(t),
		Timestamp:  ts,
	}

	if err := sig.Validate(); err != nil {
		return "", err
	}

	id, err := r.store.Append(ctx, sig)
	if err != nil {
		return "", fmt.Errorf("record signal: %w", err)
	}

	// Invalidate the cached vector before returning so no caller can read
	// a vector claiming to cover this signal's session while missing it.
	if r.invalidator != nil {
		r.invalidator.Invalidate(sessionID)
	}

	if r.publisher != nil {
		if err := r.publisher.SignalRecorded(ctx, sig); err != nil {
			// Asynchronous consumers are best-effort; ingestion stays up.
			r.logger.Warn().Err(err).Str("session_id", sessionID).Msg("signal event publish failed")
		}
	}

	return id, nil
}
