// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

// Package events is the in-process event bus decoupling the ingestion and
// assembly hot paths from asynchronous consumers (corpus maintenance, gap
// analysis, personalization audit).
package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
)

// Topics carried on the bus.
const (
	// TopicSignalRecorded fans out every accepted signal.
	TopicSignalRecorded = "signals.recorded"

	// TopicGapCandidate carries low-relevance search topics for gap
	// analysis.
	TopicGapCandidate = "gaps.candidate"

	// TopicPersonalizationAudit carries per-slot personalization decisions.
	TopicPersonalizationAudit = "personalization.audit"
)

// Bus wraps an in-process Watermill pub/sub channel. Publishing never blocks
// ingestion: the channel buffers, and a full buffer drops on the publisher's
// context rather than stalling the caller.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates an event bus with the given per-topic buffer size.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBus(bufferSize int64, logger zerolog.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = 1024
	}

	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            bufferSize,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		NewWatermillLogger(logger),
	)

	return &Bus{pubsub: pubsub}
}

// Publisher returns the bus's Watermill publisher.
func (b *Bus) Publisher() message.Publisher {
	return b.pubsub
}

// Subscriber returns the bus's Watermill subscriber.
func (b *Bus) Subscriber() message.Subscriber {
	return b.pubsub
}

// Close shuts the bus down; in-flight messages are dropped.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// watermillLogger adapts zerolog to watermill.LoggerAdapter so bus internals
// log through the application logger.
type watermillLogger struct {
	logger zerolog.Logger
}

// NewWatermillLogger wraps a zerolog logger for Watermill components.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewWatermillLogger(logger zerolog.Logger) watermill.LoggerAdapter {
	return &watermillLogger{logger: logger.With().Str("component", "events").Logger()}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(l.logger.Error().Err(err), msg, fields)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(l.logger.Info(), msg, fields)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(l.logger.Debug(), msg, fields)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(l.logger.Trace(), msg, fields)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &watermillLogger{logger: ctx.Logger()}
}

func (l *watermillLogger) event(e *zerolog.Event, msg string, fields watermill.LogFields) {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}
