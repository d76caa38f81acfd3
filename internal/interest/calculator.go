// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package interest

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tailorhq/tailor/internal/metrics"
	"github.com/tailorhq/tailor/internal/signal"
)

// Config holds calculator tuning knobs. Zero values are replaced with
// production defaults in NewCalculator.
type Config struct {
	HalfLife        time.Duration
	RetentionDays   int
	CacheTTL        time.Duration
	RecomputeBudget time.Duration
}

func (c *Config) applyDefaults() {
	if c.HalfLife <= 0 {
		c.HalfLife = 7 * 24 * time.Hour
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = 30
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Hour
	}
	if c.RecomputeBudget <= 0 {
		c.RecomputeBudget = 50 * time.Millisecond
	}
}

// cacheEntry is one cached vector plus the session version it was computed
// against. The entry is stale once the session's version moves past it or
// the TTL elapses.
type cacheEntry struct {
	vector     *Vector
	computedAt time.Time
	version    uint64
}

// Calculator computes and caches per-session interest vectors. Signal writes
// bump a per-session version (via Invalidate), so a cached vector is served
// only while no newer signal exists for the session.
//
// Concurrent requests for the same session coalesce on one recomputation
// through a per-session mutex; different sessions never contend.
type Calculator struct {
	store    signal.Store
	weighter signal.TermWeighter
	decayer  Decayer
	cfg      Config
	logger   zerolog.Logger

	mu       sync.RWMutex
	cache    map[string]*cacheEntry
	versions map[string]uint64
	locks    map[string]*sync.Mutex
	touched  map[string]time.Time

	// now is swappable in tests.
	now func() time.Time
}

// NewCalculator creates an interest vector calculator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCalculator(store signal.Store, weighter signal.TermWeighter, cfg Config, logger zerolog.Logger) *Calculator {
	cfg.applyDefaults()
	return &Calculator{
		store:    store,
		weighter: weighter,
		decayer:  NewDecayer(cfg.HalfLife, cfg.RetentionDays),
		cfg:      cfg,
		logger:   logger.With().Str("component", "interest").Logger(),
		cache:    make(map[string]*cacheEntry),
		versions: make(map[string]uint64),
		locks:    make(map[string]*sync.Mutex),
		touched:  make(map[string]time.Time),
		now:      time.Now,
	}
}

// Invalidate bumps the session version so the next Get recomputes. It is
// called synchronously after every signal write and satisfies
// signal.Invalidator.
func (c *Calculator) Invalidate(sessionID string) {
	c.mu.Lock()
	c.versions[sessionID]++
	c.touched[sessionID] = c.now()
	c.mu.Unlock()
}

// Get returns the session's interest vector, recomputing it when the cached
// copy is stale or missing. A session with no signals yields an empty
// vector with zero confidence, never an error.
func (c *Calculator) Get(ctx context.Context, sessionID string) (*Vector, error) {
	if v, ok := c.cached(sessionID); ok {
		metrics.VectorCacheHits.Inc()
		return v, nil
	}
	metrics.VectorCacheMisses.Inc()

	lock := c.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	// Another request may have recomputed while we waited on the lock.
	if v, ok := c.cached(sessionID); ok {
		metrics.VectorCacheHits.Inc()
		return v, nil
	}

	// Snapshot the version before reading signals: a write racing with
	// this recompute bumps the version and the entry is stale on arrival,
	// never wrongly fresh.
	c.mu.RLock()
	version := c.versions[sessionID]
	c.mu.RUnlock()

	budgetCtx, cancel := context.WithTimeout(ctx, c.cfg.RecomputeBudget)
	defer cancel()

	start := c.now()
	vector, err := c.compute(budgetCtx, sessionID, start)
	metrics.VectorRecomputeDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		// Budget exhausted or store failure: serve the stale vector if one
		// exists rather than stalling the request path.
		if stale := c.staleEntry(sessionID); stale != nil {
			c.logger.Warn().Err(err).Str("session_id", sessionID).
				Msg("vector recompute failed, serving stale vector")
			return stale.vector.clone(), nil
		}
		return nil, fmt.Errorf("compute interest vector: %w", err)
	}

	c.mu.Lock()
	c.cache[sessionID] = &cacheEntry{
		vector:     vector,
		computedAt: start,
		version:    version,
	}
	c.touched[sessionID] = start
	c.mu.Unlock()

	return vector.clone(), nil
}

// Forget drops all cached state for a session. Used by the retention purge
// so fully expired sessions do not pin memory.
func (c *Calculator) Forget(sessionID string) {
	c.mu.Lock()
	delete(c.cache, sessionID)
	delete(c.versions, sessionID)
	delete(c.locks, sessionID)
	delete(c.touched, sessionID)
	c.mu.Unlock()
}

// EvictIdle forgets every session with no signal write, recompute or lock
// acquisition within olderThan, and reports how many were dropped. The
// retention purge calls this each cycle so anonymous sessions do not pin
// calculator state forever. Evicted state rebuilds on the next Get.
func (c *Calculator) EvictIdle(olderThan time.Duration) int {
	cutoff := c.now().Add(-olderThan)

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for sessionID, last := range c.touched {
		if last.After(cutoff) {
			continue
		}
		delete(c.cache, sessionID)
		delete(c.versions, sessionID)
		delete(c.locks, sessionID)
		delete(c.touched, sessionID)
		evicted++
	}
	return evicted
}

func (c *Calculator) cached(sessionID string) (*Vector, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.cache[sessionID]
	if !ok {
		return nil, false
	}
	if entry.version != c.versions[sessionID] {
		return nil, false
	}
	if c.now().Sub(entry.computedAt) > c.cfg.CacheTTL {
		return nil, false
	}
	return entry.vector.clone(), true
}

func (c *Calculator) staleEntry(sessionID string) *cacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache[sessionID]
}

func (c *Calculator) sessionLock(sessionID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[sessionID] = lock
	}
	c.touched[sessionID] = c.now()
	return lock
}

// compute folds the session's retained signals into an L1-normalized vector.
func (c *Calculator) compute(ctx context.Context, sessionID string, now time.Time) (*Vector, error) {
	cutoff := now.Add(-time.Duration(c.cfg.RetentionDays) * 24 * time.Hour)

	sigs, err := c.store.BySession(ctx, sessionID, cutoff)
	if err != nil {
		return nil, err
	}

	weights := make(map[string]float64)
	var ageSum float64
	counted := 0

	for _, sig := range sigs {
		// Signals stamped after the recompute started are covered by the
		// version bump their write performed; skip them here so the cached
		// entry's version honestly describes its contents.
		if sig.Timestamp.After(now) {
			continue
		}

		age := now.Sub(sig.Timestamp)
		effective := c.decayer.Decay(sig.BaseWeight, age)
		if effective <= 0 {
			continue
		}

		contribs := sig.Payload.Contributions(c.weighter)
		if len(contribs) == 0 {
			continue
		}

		for _, contrib := range contribs {
			weights[contrib.Category] += effective * contrib.Weight
		}
		ageSum += age.Seconds()
		counted++
	}

	vector := &Vector{
		SessionID:   sessionID,
		Weights:     normalize(weights),
		SignalCount: counted,
		LastUpdated: now,
	}
	vector.Confidence = confidence(counted, ageSum, c.cfg.HalfLife)

	return vector, nil
}

// normalize L1-normalizes weights in place: the returned map sums to 1.0
// unless every weight is zero, in which case it is emptied.
func normalize(weights map[string]float64) map[string]float64 {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return map[string]float64{}
	}
	for cat, w := range weights {
		weights[cat] = w / sum
	}
	return weights
}

// confidence blends signal volume with recency:
//
//	volume  = 1 - exp(-count/4)           saturating in the count
//	recency = 0.5 + 0.5·exp(-avgAge·λ)    λ = ln2/halfLife
//
// Four fresh signals cross the default 0.6 personalization threshold; a
// week-old session needs roughly twice as many.
func confidence(count int, ageSumSeconds float64, halfLife time.Duration) float64 {
	if count == 0 {
		return 0
	}

	volume := 1 - math.Exp(-float64(count)/4)

	avgAge := ageSumSeconds / float64(count)
	lambda := math.Ln2 / halfLife.Seconds()
	recency := 0.5 + 0.5*math.Exp(-avgAge*lambda)

	conf := volume * recency
	if conf > 1 {
		conf = 1
	}
	return conf
}
