// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package signal

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// storedSignal is the wire/storage representation of a Signal. The payload
// is kept as raw JSON so the tagged union survives round-trips.
type storedSignal struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	SignalType Type            `json:"signal_type"`
	Payload    json.RawMessage `json:"payload"`
	BaseWeight float64         `json:"base_weight"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Encode serializes a signal for storage.
func Encode(s *Signal) ([]byte, error) {
	payload, err := json.Marshal(s.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	return json.Marshal(storedSignal{
		ID:         s.ID,
		SessionID:  s.SessionID,
		SignalType: s.SignalType,
		Payload:    payload,
		BaseWeight: s.BaseWeight,
		Timestamp:  s.Timestamp,
	})
}

// Decode deserializes a stored signal, reconstructing the typed payload.
func Decode(data []byte) (*Signal, error) {
	var stored storedSignal
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("unmarshal signal: %w", err)
	}

	payload, err := ParsePayload(stored.SignalType, stored.Payload)
	if err != nil {
		return nil, err
	}

	return &Signal{
		ID:         stored.ID,
		SessionID:  stored.SessionID,
		SignalType: stored.SignalType,
		Payload:    payload,
		BaseWeight: stored.BaseWeight,
		Timestamp:  stored.Timestamp,
	}, nil
}

// ParsePayload unmarshals raw payload JSON into the typed payload for the
// given signal type. Unknown types are rejected with ErrInvalidSignal.
func ParsePayload(t Type, raw []byte) (Payload, error) {
	switch t {
	case TypeSearchQuery:
		var p SearchQueryPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignal, err)
		}
		return p, nil
	case TypeContentClick:
		var p ContentClickPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignal, err)
		}
		return p, nil
	case TypeTimeSpent:
		var p TimeSpentPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignal, err)
		}
		return p, nil
	case TypeTaxonomyEngagement:
		var p TaxonomyEngagementPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignal, err)
		}
		return p, nil
	case TypeCTAClick:
		var p CTAClickPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignal, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown signal_type %q", ErrInvalidSignal, t)
	}
}
