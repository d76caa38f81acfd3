// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package gap

import (
	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tailorhq/tailor/internal/events"
	"github.com/tailorhq/tailor/internal/metrics"
)

// Worker consumes gap-candidate events off the bus and runs analysis at a
// bounded rate. Every failure mode acks and drops: gap analysis is advisory
// and must never back-pressure the search or assembly paths that emit
// candidates.
type Worker struct {
	analyzer *Analyzer
	limiter  *rate.Limiter
	logger   zerolog.Logger
}

// NewWorker creates a gap worker processing at most eventsPerSecond.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewWorker(analyzer *Analyzer, eventsPerSecond float64, logger zerolog.Logger) *Worker {
	if eventsPerSecond <= 0 {
		eventsPerSecond = 10
	}
	return &Worker{
		analyzer: analyzer,
		limiter:  rate.NewLimiter(rate.Limit(eventsPerSecond), int(eventsPerSecond)),
		logger:   logger.With().Str("component", "gap").Logger(),
	}
}

// Handle processes one gap-candidate message. Always returns nil: the
// message is acked whether analysis succeeded or not.
func (w *Worker) Handle(msg *message.Message) error {
	if err := w.limiter.Wait(msg.Context()); err != nil {
		metrics.GapEventsDropped.Inc()
		return nil
	}

	var ev events.GapCandidateEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		metrics.GapEventsDropped.Inc()
		w.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("undecodable gap candidate dropped")
		return nil
	}

	if _, err := w.analyzer.Analyze(msg.Context(), ev.Topic); err != nil {
		metrics.GapEventsDropped.Inc()
		w.logger.Warn().Err(err).Str("topic", ev.Topic).Msg("gap analysis failed")
	}
	return nil
}

// Register attaches the worker to the event router.
func (w *Worker) Register(router *events.Router) {
	router.Subscribe("gap-worker", events.TopicGapCandidate, w.Handle)
}
