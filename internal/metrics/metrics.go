// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

// Package metrics provides Prometheus instrumentation for Tailor.
//
// Instrumented areas:
//   - Signal ingestion throughput and rejection rate
//   - Interest vector recompute latency and cache efficiency
//   - Relevance scoring and page assembly latency
//   - Fallback decisions per slot
//   - A/B assignment and outcome tracking
//   - Content gap reports
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Signal ingestion metrics
	SignalsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tailor_signals_ingested_total",
			Help: "Total number of behavioral signals accepted",
		},
		[]string{"signal_type"},
	)

	SignalsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tailor_signals_rejected_total",
			Help: "Total number of signals rejected at ingestion",
		},
		[]string{"reason"},
	)

	SignalsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tailor_signals_purged_total",
			Help: "Total number of signals removed by retention purge",
		},
	)

	// Interest vector metrics
	VectorRecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tailor_vector_recompute_duration_seconds",
			Help:    "Duration of interest vector recomputation",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25},
		},
	)

	VectorCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tailor_vector_cache_hits_total",
			Help: "Interest vector cache hits",
		},
	)

	VectorCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tailor_vector_cache_misses_total",
			Help: "Interest vector cache misses (recompute triggered)",
		},
	)

	// Scoring and assembly metrics
	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tailor_scoring_duration_seconds",
			Help:    "Duration of candidate batch relevance scoring",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1},
		},
	)

	AssemblyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tailor_assembly_duration_seconds",
			Help:    "End-to-end personalized page assembly duration",
			Buckets: []float64{.01, .025, .05, .1, .2, .3, .6, 1},
		},
	)

	SlotFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tailor_slot_fallbacks_total",
			Help: "Slot selections that fell back to the default variant",
		},
		[]string{"slot_type", "reason"},
	)

	SlotSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tailor_slot_selections_total",
			Help: "Personalized slot selections by slot type",
		},
		[]string{"slot_type"},
	)

	// A/B testing metrics
	ABAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tailor_ab_assignments_total",
			Help: "Variant assignments served per test",
		},
		[]string{"test_id"},
	)

	ABOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tailor_ab_outcomes_total",
			Help: "Recorded A/B outcomes (impressions and conversions)",
		},
		[]string{"test_id", "kind"},
	)

	// Gap analysis metrics
	GapReports = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tailor_gap_reports_total",
			Help: "Content gap reports emitted",
		},
	)

	GapEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tailor_gap_events_dropped_total",
			Help: "Gap analysis events dropped due to processing failures",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tailor_api_requests_total",
			Help: "Total API requests by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tailor_api_request_duration_seconds",
			Help:    "API request duration by endpoint",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

// RecordAPIRequest records one API request observation.
func RecordAPIRequest(endpoint, method string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
