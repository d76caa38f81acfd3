// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig tunes the HTTP surface.
type RouterConfig struct {
	// CORSOrigins lists allowed origins; empty disables cross-origin use.
	CORSOrigins []string

	// RateLimitRequests / RateLimitWindow bound read and management paths
	// per client IP.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// IngestRateLimitRequests bounds the high-frequency signal path.
	IngestRateLimitRequests int
}

func (c *RouterConfig) applyDefaults() {
	if c.RateLimitRequests <= 0 {
		c.RateLimitRequests = 300
	}
	if c.RateLimitWindow <= 0 {
		c.RateLimitWindow = time.Minute
	}
	if c.IngestRateLimitRequests <= 0 {
		c.IngestRateLimitRequests = 3000
	}
}

// NewRouter builds the chi router with the full middleware stack and all
// engine routes.
func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	cfg.applyDefaults()

	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health endpoints stay outside rate limiting so probes never 429.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	// Ingest path: high-frequency, permissive limit.
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.IngestRateLimitRequests, cfg.RateLimitWindow))
		r.Use(Metrics)

		r.Post("/api/v1/signals", h.RecordSignal)
	})

	// Read and management paths: standard limit.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Use(Metrics)

		r.Get("/sessions/{sessionID}/interest", h.GetInterest)
		r.Post("/sessions/{sessionID}/page", h.AssemblePage)
		r.Post("/score", h.ScoreRelevance)

		r.Route("/abtests", func(r chi.Router) {
			r.Post("/", h.CreateTest)
			r.Get("/", h.ListTests)
			r.Get("/{testID}", h.GetTest)
			r.Post("/{testID}/status", h.TransitionTest)
			r.Get("/{testID}/variant", h.GetVariant)
			r.Post("/{testID}/impression", h.TrackImpression)
			r.Post("/{testID}/conversion", h.TrackConversion)
			r.Get("/{testID}/results", h.TestResults)
		})

		r.Post("/gaps/analyze", h.AnalyzeGap)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
