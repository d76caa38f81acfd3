// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

// Package main is the entry point for the Tailor server.
//
// Tailor is a real-time content personalization engine: it ingests
// behavioral signals, infers per-session interest vectors with TF-IDF
// weighting and temporal decay, scores content relevance, and assembles
// personalized pages with diversity-aware selection, A/B experimentation
// and content gap analysis.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layered load (defaults, config.yaml, TAILOR_ env)
//  2. Logging: zerolog, global logger
//  3. Storage: BadgerDB (disk or in-memory per storage.in_memory)
//  4. Event bus: watermill in-process pub/sub plus consumer router
//  5. Engine: interest calculator, recorder, catalog, scorer, personalizer,
//     A/B engine, gap analyzer
//  6. Supervision: suture tree (data / messaging / api layers)
//
// # Shutdown
//
// SIGINT and SIGTERM cancel the root context; the supervisor tree drains
// the HTTP server, stops the event router and the purge worker, then the
// bus and database close.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tailorhq/tailor/internal/abtest"
	"github.com/tailorhq/tailor/internal/api"
	"github.com/tailorhq/tailor/internal/assembly"
	"github.com/tailorhq/tailor/internal/catalog"
	"github.com/tailorhq/tailor/internal/config"
	"github.com/tailorhq/tailor/internal/events"
	"github.com/tailorhq/tailor/internal/gap"
	"github.com/tailorhq/tailor/internal/interest"
	"github.com/tailorhq/tailor/internal/logging"
	"github.com/tailorhq/tailor/internal/scoring"
	"github.com/tailorhq/tailor/internal/signal"
	"github.com/tailorhq/tailor/internal/supervisor"
	"github.com/tailorhq/tailor/internal/supervisor/services"
	"github.com/tailorhq/tailor/internal/textproc"
)

// eventBufferSize is the per-topic channel buffer for the in-process bus.
const eventBufferSize = 256

//nolint:gocyclo // main initialization is sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Bool("in_memory_storage", cfg.Storage.InMemory).
		Str("storage_path", cfg.Storage.Path).
		Msg("Starting Tailor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage. One Badger instance backs both signals and experiments,
	// namespaced by key prefix.
	opts := badger.DefaultOptions(cfg.Storage.Path)
	if cfg.Storage.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()

	signalStore := signal.NewBadgerStore(db)
	abStore := abtest.NewBadgerStore(db)

	// Event bus and emitter.
	bus := events.NewBus(eventBufferSize, logger)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()
	emitter := events.NewEmitter(bus.Publisher())

	// Interest inference.
	corpus := textproc.NewCorpus()
	weighter := interest.NewTFIDFWeighter(corpus)
	calculator := interest.NewCalculator(signalStore, weighter, interest.Config{
		HalfLife:        cfg.Interest.HalfLife,
		RetentionDays:   cfg.Signals.RetentionDays,
		CacheTTL:        cfg.Interest.CacheTTL,
		RecomputeBudget: cfg.Interest.RecomputeBudget,
	}, logger)

	recorder := signal.NewRecorder(signalStore, signal.BaseWeights{
		SearchQuery:        cfg.Signals.BaseWeights.SearchQuery,
		ContentClick:       cfg.Signals.BaseWeights.ContentClick,
		TimeSpent:          cfg.Signals.BaseWeights.TimeSpent,
		TaxonomyEngagement: cfg.Signals.BaseWeights.TaxonomyEngagement,
		CTAClick:           cfg.Signals.BaseWeights.CTAClick,
	}, calculator, emitter, logger)

	// Content catalog.
	var provider *catalog.MemoryProvider
	if cfg.Catalog.Path != "" {
		provider, err = catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Catalog.Path).Msg("Failed to load catalog")
		}
		logging.Info().Str("path", cfg.Catalog.Path).Msg("Catalog loaded")
	} else {
		provider = catalog.NewMemoryProvider()
		logging.Warn().Msg("No catalog configured; starting empty (set catalog.path)")
	}

	// Scoring, assembly, experimentation, gap analysis.
	selector := scoring.NewSelector(cfg.Scoring.DiversityFactor, cfg.Scoring.DominantCategories, logger)
	abEngine := abtest.NewEngine(abStore, cfg.ABTest.ConfidenceLevel, logger)
	personalizer := assembly.NewPersonalizer(calculator, provider, selector, abEngine, emitter, assembly.Config{
		ConfidenceThreshold: cfg.Interest.ConfidenceThreshold,
		PageBudget:          cfg.Assembly.PageBudget,
	}, logger)
	analyzer := gap.NewAnalyzer(provider, cfg.Gap.MinMatches, cfg.Gap.MaxSubtopics, logger)
	scorer := api.NewRelevanceService(calculator, selector)

	// Event consumers. All subscriptions must precede router start.
	eventRouter, err := events.NewRouter(bus.Subscriber(), logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create event router")
	}

	feeder := events.NewCorpusFeeder(weighter, logger)
	eventRouter.Subscribe("corpus-feeder", events.TopicSignalRecorded, feeder.Handle)
	gap.NewDetector(analyzer, emitter, logger).Register(eventRouter)
	gap.NewWorker(analyzer, cfg.Gap.WorkerRate, logger).Register(eventRouter)
	events.NewAuditLog(logger).Register(eventRouter)

	// HTTP surface.
	readiness := func() map[string]bool {
		return map[string]bool{
			"storage": !db.IsClosed(),
		}
	}
	handlers := api.NewHandlers(recorder, calculator, personalizer, abEngine, analyzer, scorer, readiness, logger)

	server := &http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: api.NewRouter(handlers, api.RouterConfig{
			CORSOrigins:             cfg.API.CORSOrigins,
			RateLimitRequests:       cfg.API.RateLimitReqs,
			RateLimitWindow:         cfg.API.RateLimitWindow,
			IngestRateLimitRequests: cfg.API.IngestRateLimitReqs,
		}),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Supervision tree.
	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)

	tree.AddDataService(services.NewPurgeService(signalStore, calculator, cfg.Signals.RetentionDays, cfg.Signals.PurgeInterval, logger))
	tree.AddMessagingService(services.NewEventRouterService(eventRouter))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("Services added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Tailor stopped gracefully")
}
