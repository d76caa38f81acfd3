// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

// Package genai is the boundary to external AI copy providers that generate
// hero, article and CTA text. Tailor selects variants; generation itself is
// an external collaborator reached through this interface, guarded by a
// circuit breaker so a degraded provider cannot stall slot assembly.
package genai

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the provider cannot serve a request,
// whether the upstream failed or the breaker is open. Callers fall back to
// the slot's default copy.
var ErrUnavailable = errors.New("genai: provider unavailable")

// Request asks for slot copy targeted at the session's top interest
// categories.
type Request struct {
	SlotType   string   `json:"slot_type"`
	Categories []string `json:"categories"`
	Tone       string   `json:"tone,omitempty"`
	MaxLength  int      `json:"max_length,omitempty"`
}

// Result is the generated copy. Body keys are slot-specific (headline,
// subheadline, cta_label); Tailor does not interpret them.
type Result struct {
	Body     map[string]string `json:"body"`
	Provider string            `json:"provider"`
}

// Provider generates copy for one slot. Implementations live outside this
// module; deployments register theirs at wiring time.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
