// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package gap

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tailorhq/tailor/internal/events"
	"github.com/tailorhq/tailor/internal/signal"
)

// CandidateEmitter publishes gap candidates. Satisfied by *events.Emitter.
type CandidateEmitter interface {
	GapCandidate(ctx context.Context, ev events.GapCandidateEvent) error
}

// Detector watches recorded search-query signals and emits a gap candidate
// when the catalog matches a query poorly. Detection is a cheap term-overlap
// count; the full scoring and subtopic suggestion happens in the Worker that
// consumes the candidate.
type Detector struct {
	analyzer *Analyzer
	emitter  CandidateEmitter
	logger   zerolog.Logger
}

// NewDetector creates a gap candidate detector.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewDetector(analyzer *Analyzer, emitter CandidateEmitter, logger zerolog.Logger) *Detector {
	return &Detector{
		analyzer: analyzer,
		emitter:  emitter,
		logger:   logger.With().Str("component", "gap").Logger(),
	}
}

// Handle processes one recorded-signal message. Non-search signals and
// undecodable payloads are acked and ignored; detection never nacks.
func (d *Detector) Handle(msg *message.Message) error {
	sig, err := signal.Decode(msg.Payload)
	if err != nil {
		d.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("undecodable signal event dropped")
		return nil
	}

	query, ok := sig.Payload.(signal.SearchQueryPayload)
	if !ok {
		return nil
	}

	ctx := msg.Context()
	terms := d.analyzer.tokenizer.Tokenize(query.Query)
	matches, err := d.analyzer.countMatches(ctx, terms)
	if err != nil {
		d.logger.Warn().Err(err).Str("query", query.Query).Msg("gap detection failed")
		return nil
	}
	if matches >= d.analyzer.minMatches {
		return nil
	}

	ev := events.GapCandidateEvent{
		Topic:      query.Query,
		SessionID:  sig.SessionID,
		MatchCount: matches,
	}
	if err := d.emitter.GapCandidate(ctx, ev); err != nil {
		d.logger.Warn().Err(err).Str("query", query.Query).Msg("gap candidate publish failed")
	}
	return nil
}

// Register attaches the detector to the event router.
func (d *Detector) Register(router *events.Router) {
	router.Subscribe("gap-detector", events.TopicSignalRecorded, d.Handle)
}
