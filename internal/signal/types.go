// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

// Package signal defines the behavioral signal data model and its append-only
// store. Signals are immutable once written; a session's interest is always
// derived from them, never stored as source of truth.
package signal

import (
	"fmt"
	"strings"
	"time"
)

// Type classifies a behavioral signal.
type Type string

const (
	// TypeSearchQuery is a free-text search performed by the visitor.
	TypeSearchQuery Type = "search_query"
	// TypeContentClick is a click-through to a content item.
	TypeContentClick Type = "content_click"
	// TypeTimeSpent is dwell time observed on a content item.
	TypeTimeSpent Type = "time_spent"
	// TypeTaxonomyEngagement is interaction with category navigation.
	TypeTaxonomyEngagement Type = "taxonomy_engagement"
	// TypeCTAClick is a click on a call-to-action element.
	TypeCTAClick Type = "cta_click"
)

// Valid reports whether the type is a known signal type.
func (t Type) Valid() bool {
	switch t {
	case TypeSearchQuery, TypeContentClick, TypeTimeSpent, TypeTaxonomyEngagement, TypeCTAClick:
		return true
	default:
		return false
	}
}

// Contribution is one (category, raw weight) pair a signal contributes to
// interest aggregation, before base weight and temporal decay are applied.
type Contribution struct {
	Category string
	Weight   float64
}

// TermWeighter turns free text into weighted terms. Implemented by the
// TF-IDF layer; injected so payloads stay free of corpus state.
type TermWeighter interface {
	// Weights returns normalized term weights for the text. An empty or
	// stop-word-only text yields an empty map.
	Weights(text string) map[string]float64
}

// Payload is the type-specific body of a signal. Each signal type carries
// its own strongly-typed payload so category extraction is exhaustive.
type Payload interface {
	// SignalType returns the type this payload belongs to.
	SignalType() Type

	// Validate rejects malformed payloads at ingestion time.
	Validate() error

	// Contributions extracts the (category, weight) pairs this payload
	// contributes to interest aggregation.
	Contributions(tw TermWeighter) []Contribution
}

// SearchQueryPayload carries a visitor search.
type SearchQueryPayload struct {
	Query string `json:"query"`
}

// SignalType implements Payload.
func (p SearchQueryPayload) SignalType() Type { return TypeSearchQuery }

// Validate implements Payload.
func (p SearchQueryPayload) Validate() error {
	if p.Query == "" {
		return fmt.Errorf("%w: search_query requires a non-empty query", ErrInvalidSignal)
	}
	return nil
}

// Contributions distributes the query's TF-IDF term weights as categories.
// The weights are L1-normalized within the signal so one query contributes
// the same total mass regardless of length.
func (p SearchQueryPayload) Contributions(tw TermWeighter) []Contribution {
	weights := tw.Weights(p.Query)
	if len(weights) == 0 {
		return nil
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}

	out := make([]Contribution, 0, len(weights))
	if sum == 0 {
		// All terms weightless against the corpus (e.g. cold corpus);
		// fall back to uniform distribution over terms.
		uniform := 1.0 / float64(len(weights))
		for term := range weights {
			out = append(out, Contribution{Category: term, Weight: uniform})
		}
		return out
	}

	for term, w := range weights {
		out = append(out, Contribution{Category: term, Weight: w / sum})
	}
	return out
}

// ContentClickPayload carries a click-through to a content item.
type ContentClickPayload struct {
	ContentID string `json:"content_id"`
	Category  string `json:"category"`
}

// SignalType implements Payload.
func (p ContentClickPayload) SignalType() Type { return TypeContentClick }

// Validate implements Payload.
func (p ContentClickPayload) Validate() error {
	if p.ContentID == "" {
		return fmt.Errorf("%w: content_click requires content_id", ErrInvalidSignal)
	}
	if p.Category == "" {
		return fmt.Errorf("%w: content_click requires category", ErrInvalidSignal)
	}
	return nil
}

// Contributions credits the clicked item's category at full weight.
func (p ContentClickPayload) Contributions(TermWeighter) []Contribution {
	return []Contribution{{Category: p.Category, Weight: 1.0}}
}

// TimeSpentPayload carries dwell time on a content item.
type TimeSpentPayload struct {
	ContentID         string `json:"content_id"`
	Category          string `json:"category"`
	EngagementSeconds int    `json:"engagement_seconds"`
}

// SignalType implements Payload.
func (p TimeSpentPayload) SignalType() Type { return TypeTimeSpent }

// Validate implements Payload.
func (p TimeSpentPayload) Validate() error {
	if p.Category == "" {
		return fmt.Errorf("%w: time_spent requires category", ErrInvalidSignal)
	}
	if p.EngagementSeconds < 0 {
		return fmt.Errorf("%w: time_spent requires non-negative engagement_seconds", ErrInvalidSignal)
	}
	return nil
}

// Contributions buckets engagement duration into a weight so long reads
// count more than bounces.
func (p TimeSpentPayload) Contributions(TermWeighter) []Contribution {
	var weight float64
	switch {
	case p.EngagementSeconds < 30:
		weight = 0.5
	case p.EngagementSeconds < 120:
		weight = 1.0
	case p.EngagementSeconds < 300:
		weight = 1.5
	default:
		weight = 2.0
	}
	return []Contribution{{Category: p.Category, Weight: weight}}
}

// TaxonomyEngagementPayload carries interaction with category navigation.
type TaxonomyEngagementPayload struct {
	Category string `json:"category"`
	// Depth is how deep into the taxonomy tree the visitor navigated.
	Depth int `json:"depth"`
}

// SignalType implements Payload.
func (p TaxonomyEngagementPayload) SignalType() Type { return TypeTaxonomyEngagement }

// Validate implements Payload.
func (p TaxonomyEngagementPayload) Validate() error {
	if p.Category == "" {
		return fmt.Errorf("%w: taxonomy_engagement requires category", ErrInvalidSignal)
	}
	if p.Depth < 0 {
		return fmt.Errorf("%w: taxonomy_engagement requires non-negative depth", ErrInvalidSignal)
	}
	return nil
}

// Contributions weights deeper navigation higher, capped at depth 4.
func (p TaxonomyEngagementPayload) Contributions(TermWeighter) []Contribution {
	depth := p.Depth
	if depth > 4 {
		depth = 4
	}
	return []Contribution{{Category: p.Category, Weight: 1.0 + 0.25*float64(depth)}}
}

// CTAClickPayload carries a click on a call-to-action element.
type CTAClickPayload struct {
	CTAID    string `json:"cta_id"`
	Category string `json:"category"`
}

// SignalType implements Payload.
func (p CTAClickPayload) SignalType() Type { return TypeCTAClick }

// Validate implements Payload.
func (p CTAClickPayload) Validate() error {
	if p.CTAID == "" {
		return fmt.Errorf("%w: cta_click requires cta_id", ErrInvalidSignal)
	}
	if p.Category == "" {
		return fmt.Errorf("%w: cta_click requires category", ErrInvalidSignal)
	}
	return nil
}

// Contributions credits the CTA's category at full weight.
func (p CTAClickPayload) Contributions(TermWeighter) []Contribution {
	return []Contribution{{Category: p.Category, Weight: 1.0}}
}

// Signal is one observed visitor action. Immutable once written.
type Signal struct {
	// ID is assigned by the store on append.
	ID string `json:"id"`

	// SessionID is the opaque, per-browsing-session identifier.
	SessionID string `json:"session_id"`

	// SignalType classifies the signal.
	SignalType Type `json:"signal_type"`

	// Payload is the type-specific body.
	Payload Payload `json:"payload"`

	// BaseWeight is the per-type base weight captured at ingestion so
	// later config changes don't rewrite history.
	BaseWeight float64 `json:"base_weight"`

	// Timestamp is the creation time, immutable.
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the signal envelope and its payload.
func (s *Signal) Validate() error {
	if s.SessionID == "" {
		return fmt.Errorf("%w: session_id is required", ErrInvalidSignal)
	}
	if strings.ContainsRune(s.SessionID, ':') {
		// Colons delimit store keys.
		return fmt.Errorf("%w: session_id must not contain ':'", ErrInvalidSignal)
	}
	if !s.SignalType.Valid() {
		return fmt.Errorf("%w: unknown signal_type %q", ErrInvalidSignal, s.SignalType)
	}
	if s.Payload == nil {
		return fmt.Errorf("%w: payload is required", ErrInvalidSignal)
	}
	if s.Payload.SignalType() != s.SignalType {
		return fmt.Errorf("%w: payload type %q does not match signal_type %q",
			ErrInvalidSignal, s.Payload.SignalType(), s.SignalType)
	}
	if s.BaseWeight < 0 {
		return fmt.Errorf("%w: base_weight must be non-negative", ErrInvalidSignal)
	}
	return s.Payload.Validate()
}
