// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package events

import (
	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// AuditLog consumes personalization audit events and writes them to the
// structured log, one line per slot decision. This is the durable trail for
// answering "why did this session see that variant".
type AuditLog struct {
	logger zerolog.Logger
}

// NewAuditLog creates an audit log consumer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAuditLog(logger zerolog.Logger) *AuditLog {
	return &AuditLog{
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Handle processes one audit message. Undecodable messages are acked and
// dropped.
func (a *AuditLog) Handle(msg *message.Message) error {
	var ev AuditEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		a.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("undecodable audit event dropped")
		return nil
	}

	a.logger.Info().
		Str("session_id", ev.SessionID).
		Str("slot_type", ev.SlotType).
		Str("variant_id", ev.VariantID).
		Float64("relevance_score", ev.RelevanceScore).
		Bool("fallback_used", ev.FallbackUsed).
		Str("fallback_reason", ev.FallbackReason).
		Str("ab_test_id", ev.ABTestID).
		Time("decided_at", ev.Timestamp).
		Msg("personalization decision")
	return nil
}

// Register attaches the audit log to the event router.
func (a *AuditLog) Register(router *Router) {
	router.Subscribe("audit-log", TopicPersonalizationAudit, a.Handle)
}
