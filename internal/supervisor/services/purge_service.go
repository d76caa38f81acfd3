// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tailorhq/tailor/internal/metrics"
)

// SignalPurger deletes signals older than the cutoff and reports how many
// were removed. Satisfied by signal.Store.
type SignalPurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// VectorEvicter drops in-memory per-session state for sessions idle longer
// than olderThan. Satisfied by interest.Calculator.
type VectorEvicter interface {
	EvictIdle(olderThan time.Duration) int
}

// PurgeService periodically removes signals past the retention window and
// evicts calculator state for sessions idle that long.
//
// Expired signals already contribute nothing to scoring (the decay cutoff
// excludes them); the purge reclaims storage and in-memory session state.
// A failed purge cycle is logged and retried on the next tick rather than
// crashing the service.
type PurgeService struct {
	purger    SignalPurger
	evicter   VectorEvicter
	retention time.Duration
	interval  time.Duration
	logger    zerolog.Logger
	name      string
}

// NewPurgeService creates a retention purge worker. evicter may be nil;
// the service then purges storage only.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPurgeService(purger SignalPurger, evicter VectorEvicter, retentionDays int, interval time.Duration, logger zerolog.Logger) *PurgeService {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &PurgeService{
		purger:    purger,
		evicter:   evicter,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger.With().Str("component", "purge").Logger(),
		name:      "signal-purge",
	}
}

// Serve implements suture.Service. One purge runs immediately on start so
// a long-stopped instance catches up without waiting a full interval.
func (p *PurgeService) Serve(ctx context.Context) error {
	p.runOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *PurgeService) runOnce(ctx context.Context) {
	cutoff := time.Now().Add(-p.retention)

	purged, err := p.purger.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error().Err(err).Time("cutoff", cutoff).Msg("signal purge failed")
		return
	}

	if purged > 0 {
		metrics.SignalsPurged.Add(float64(purged))
		p.logger.Info().Int("purged", purged).Time("cutoff", cutoff).Msg("purged expired signals")
	}

	if p.evicter != nil {
		if evicted := p.evicter.EvictIdle(p.retention); evicted > 0 {
			p.logger.Info().Int("sessions", evicted).Msg("evicted idle session state")
		}
	}
}

// String implements fmt.Stringer; suture uses it in log messages.
func (p *PurgeService) String() string {
	return p.name
}
