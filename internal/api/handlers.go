// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

// Package api exposes the personalization engine over HTTP: signal
// ingestion, interest inspection, relevance scoring, page assembly, A/B
// test management and gap analysis.
package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tailorhq/tailor/internal/abtest"
	"github.com/tailorhq/tailor/internal/assembly"
	"github.com/tailorhq/tailor/internal/gap"
	"github.com/tailorhq/tailor/internal/signal"
)

// ReadinessFunc reports per-component readiness for the health endpoint.
type ReadinessFunc func() map[string]bool

// Handlers carries the engine services the HTTP layer fronts.
type Handlers struct {
	recorder     *signal.Recorder
	vectors      assembly.VectorSource
	personalizer *assembly.Personalizer
	ab           *abtest.Engine
	analyzer     *gap.Analyzer
	scorer       *RelevanceService
	readiness    ReadinessFunc
	logger       zerolog.Logger
}

// NewHandlers wires the API handlers. readiness may be nil; the ready
// endpoint then always reports ready.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandlers(
	recorder *signal.Recorder,
	vectors assembly.VectorSource,
	personalizer *assembly.Personalizer,
	ab *abtest.Engine,
	analyzer *gap.Analyzer,
	scorer *RelevanceService,
	readiness ReadinessFunc,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		recorder:     recorder,
		vectors:      vectors,
		personalizer: personalizer,
		ab:           ab,
		analyzer:     analyzer,
		scorer:       scorer,
		readiness:    readiness,
		logger:       logger.With().Str("component", "api").Logger(),
	}
}

// Health reports overall service health with component detail.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	components := map[string]bool{}
	if h.readiness != nil {
		components = h.readiness()
	}

	healthy := true
	for _, ok := range components {
		if !ok {
			healthy = false
			break
		}
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	respondData(w, status, map[string]any{
		"state":      state,
		"components": components,
	}, started)
}

// HealthLive is the liveness probe: the process is up.
func (h *Handlers) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"state": "alive"}, time.Now())
}

// HealthReady is the readiness probe.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.Health(w, r)
}
