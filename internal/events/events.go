// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	json "github.com/goccy/go-json"

	"github.com/tailorhq/tailor/internal/signal"
)

// GapCandidateEvent marks a search topic that matched too little content.
type GapCandidateEvent struct {
	Topic      string    `json:"topic"`
	SessionID  string    `json:"session_id"`
	MatchCount int       `json:"match_count"`
	Timestamp  time.Time `json:"timestamp"`
}

// AuditEvent records one slot personalization decision.
type AuditEvent struct {
	SessionID      string    `json:"session_id"`
	SlotType       string    `json:"slot_type"`
	VariantID      string    `json:"variant_id"`
	RelevanceScore float64   `json:"relevance_score"`
	FallbackUsed   bool      `json:"fallback_used"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
	ABTestID       string    `json:"ab_test_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Emitter publishes domain events onto the bus. It implements
// signal.Publisher for the ingestion path.
type Emitter struct {
	publisher message.Publisher
}

// NewEmitter creates an emitter over the bus publisher.
func NewEmitter(publisher message.Publisher) *Emitter {
	return &Emitter{publisher: publisher}
}

// SignalRecorded publishes an accepted signal for asynchronous consumers.
// Implements signal.Publisher.
func (e *Emitter) SignalRecorded(ctx context.Context, s *signal.Signal) error {
	data, err := signal.Encode(s)
	if err != nil {
		return fmt.Errorf("encode signal event: %w", err)
	}

	msg := message.NewMessage(s.ID, data)
	msg.Metadata.Set("session_id", s.SessionID)
	msg.Metadata.Set("signal_type", string(s.SignalType))
	msg.SetContext(ctx)

	return e.publisher.Publish(TopicSignalRecorded, msg)
}

// GapCandidate publishes a low-relevance topic for gap analysis.
func (e *Emitter) GapCandidate(ctx context.Context, ev GapCandidateEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode gap candidate: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), data)
	msg.SetContext(ctx)
	return e.publisher.Publish(TopicGapCandidate, msg)
}

// Audit publishes a personalization decision for analytics.
func (e *Emitter) Audit(ctx context.Context, ev AuditEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), data)
	msg.SetContext(ctx)
	return e.publisher.Publish(TopicPersonalizationAudit, msg)
}
