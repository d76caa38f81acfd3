// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package events

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tailorhq/tailor/internal/signal"
)

// TextObserver folds free text into the TF-IDF reference corpus.
type TextObserver interface {
	Observe(text string)
}

// CorpusFeeder consumes recorded signals and feeds search-query text into
// the corpus, keeping IDF statistics current with what sessions actually
// search for. Undecodable messages are acked and dropped; the corpus is a
// statistical aggregate and one lost document is noise.
type CorpusFeeder struct {
	observer TextObserver
	logger   zerolog.Logger
}

// NewCorpusFeeder creates a corpus feeder.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCorpusFeeder(observer TextObserver, logger zerolog.Logger) *CorpusFeeder {
	return &CorpusFeeder{
		observer: observer,
		logger:   logger.With().Str("component", "corpus").Logger(),
	}
}

// Handle processes one recorded-signal message.
func (f *CorpusFeeder) Handle(msg *message.Message) error {
	sig, err := signal.Decode(msg.Payload)
	if err != nil {
		f.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("undecodable signal event dropped")
		return nil
	}

	if query, ok := sig.Payload.(signal.SearchQueryPayload); ok {
		f.observer.Observe(query.Query)
	}
	return nil
}
