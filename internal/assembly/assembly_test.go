// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package assembly

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tailorhq/tailor/internal/abtest"
	"github.com/tailorhq/tailor/internal/catalog"
	"github.com/tailorhq/tailor/internal/events"
	"github.com/tailorhq/tailor/internal/interest"
	"github.com/tailorhq/tailor/internal/scoring"
)

// staticVectors serves a fixed vector per session.
type staticVectors struct {
	vectors map[string]*interest.Vector
	err     error
}

func (s *staticVectors) Get(ctx context.Context, sessionID string) (*interest.Vector, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[sessionID]; ok {
		return v, nil
	}
	return &interest.Vector{SessionID: sessionID}, nil
}

// recordingAudit captures audit events.
type recordingAudit struct {
	events []events.AuditEvent
}

func (r *recordingAudit) Audit(ctx context.Context, ev events.AuditEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func confidentVector(sessionID string) *interest.Vector {
	return &interest.Vector{
		SessionID: sessionID,
		Weights: map[string]float64{
			"technology": 0.6,
			"science":    0.3,
			"travel":     0.1,
		},
		Confidence:  0.85,
		SignalCount: 6,
	}
}

func testCatalog(t *testing.T) *catalog.MemoryProvider {
	t.Helper()
	p := catalog.NewMemoryProvider()

	variants := []*catalog.ComponentVariant{
		{ID: "hero-default", SlotType: catalog.SlotHeroBanner, IsDefault: true},
		{ID: "hero-tech", SlotType: catalog.SlotHeroBanner, Categories: map[string]float64{"technology": 1}},
		{ID: "hero-travel", SlotType: catalog.SlotHeroBanner, Categories: map[string]float64{"travel": 1}},
		{ID: "cta-default", SlotType: catalog.SlotCTA, IsDefault: true},
		{ID: "cta-tech", SlotType: catalog.SlotCTA, Categories: map[string]float64{"technology": 1}},
		{ID: "rec-default", SlotType: catalog.SlotRecommended, IsDefault: true},
		{ID: "rec-tech", SlotType: catalog.SlotRecommended, Categories: map[string]float64{"technology": 1}},
		{ID: "rec-science", SlotType: catalog.SlotRecommended, Categories: map[string]float64{"science": 1}},
		{ID: "rec-cooking", SlotType: catalog.SlotRecommended, Categories: map[string]float64{"cooking": 1}},
		{ID: "rec-sports", SlotType: catalog.SlotRecommended, Categories: map[string]float64{"sports": 1}},
	}
	for _, v := range variants {
		if err := p.AddVariant(v); err != nil {
			t.Fatalf("AddVariant: %v", err)
		}
	}
	return p
}

func newPersonalizer(t *testing.T, vectors VectorSource, ab ABDecider, audit AuditSink) *Personalizer {
	t.Helper()
	return NewPersonalizer(
		vectors,
		testCatalog(t),
		scoring.NewSelector(0.3, 3, zerolog.Nop()),
		ab,
		audit,
		Config{},
		zerolog.Nop(),
	)
}

func TestAssembleConfidentSession(t *testing.T) {
	vectors := &staticVectors{vectors: map[string]*interest.Vector{
		"sess-1": confidentVector("sess-1"),
	}}
	audit := &recordingAudit{}
	p := newPersonalizer(t, vectors, nil, audit)

	page := p.AssemblePage(context.Background(), "sess-1", []SlotDefinition{
		{SlotType: catalog.SlotHeroBanner},
		{SlotType: catalog.SlotCTA},
	})

	if !page.Metadata.PersonalizationApplied || page.Metadata.FallbackUsed {
		t.Errorf("metadata = %+v", page.Metadata)
	}
	if len(page.Slots) != 2 {
		t.Fatalf("slots = %d, want 2", len(page.Slots))
	}

	hero := page.Slots[0]
	if hero.Primary() == nil || hero.Primary().ID != "hero-tech" {
		t.Errorf("hero variant = %+v, want hero-tech", hero.Primary())
	}
	if hero.FallbackUsed || hero.Reason != ReasonRelevance {
		t.Errorf("hero result = %+v", hero)
	}
	if hero.Variants[0].RelevanceScore <= 0 {
		t.Errorf("relevance score = %v, want > 0", hero.Variants[0].RelevanceScore)
	}

	if len(audit.events) != 2 {
		t.Errorf("audit events = %d, want 2", len(audit.events))
	}
}

func TestAssembleFreshSessionAllDefaults(t *testing.T) {
	p := newPersonalizer(t, &staticVectors{}, nil, nil)

	start := time.Now()
	page := p.AssemblePage(context.Background(), "new-session", []SlotDefinition{
		{SlotType: catalog.SlotHeroBanner},
		{SlotType: catalog.SlotCTA},
		{SlotType: catalog.SlotRecommended, ItemCount: 3},
	})

	if time.Since(start) > 300*time.Millisecond {
		t.Error("fresh-session assembly exceeded the page budget")
	}
	if page.Metadata.PersonalizationApplied || !page.Metadata.FallbackUsed {
		t.Errorf("metadata = %+v", page.Metadata)
	}

	for _, slot := range page.Slots {
		if !slot.FallbackUsed || slot.Reason != ReasonEmptyVector {
			t.Errorf("slot %s = %+v, want empty-vector fallback", slot.SlotType, slot)
		}
		if slot.Primary() == nil || !slot.Primary().IsDefault {
			t.Errorf("slot %s should carry its default variant", slot.SlotType)
		}
	}
}

func TestAssembleLowConfidenceFallsBack(t *testing.T) {
	low := confidentVector("sess-1")
	low.Confidence = 0.4
	p := newPersonalizer(t, &staticVectors{vectors: map[string]*interest.Vector{"sess-1": low}}, nil, nil)

	page := p.AssemblePage(context.Background(), "sess-1", []SlotDefinition{{SlotType: catalog.SlotHeroBanner}})

	slot := page.Slots[0]
	if !slot.FallbackUsed || slot.Reason != ReasonLowConfidence {
		t.Errorf("slot = %+v, want low-confidence fallback", slot)
	}
}

func TestAssembleVectorSourceFailure(t *testing.T) {
	p := newPersonalizer(t, &staticVectors{err: errors.New("store down")}, nil, nil)

	page := p.AssemblePage(context.Background(), "sess-1", []SlotDefinition{{SlotType: catalog.SlotHeroBanner}})

	if !page.Metadata.FallbackUsed {
		t.Error("vector failure should degrade to fallback, not error")
	}
	if page.Slots[0].Primary() == nil {
		t.Error("fallback slot should still carry the default variant")
	}
}

func TestAssembleMultiItemSlot(t *testing.T) {
	vectors := &staticVectors{vectors: map[string]*interest.Vector{
		"sess-1": confidentVector("sess-1"),
	}}
	p := newPersonalizer(t, vectors, nil, nil)

	page := p.AssemblePage(context.Background(), "sess-1", []SlotDefinition{
		{SlotType: catalog.SlotRecommended, ItemCount: 4},
	})

	slot := page.Slots[0]
	if len(slot.Variants) != 4 {
		t.Fatalf("multi-item slot variants = %d, want 4", len(slot.Variants))
	}

	// Diversity: at least one pick outside the dominant categories.
	diverse := 0
	for _, sv := range slot.Variants {
		outside := true
		for cat := range sv.Variant.Categories {
			if cat == "technology" || cat == "science" || cat == "travel" {
				outside = false
			}
		}
		if outside && sv.Variant.ID != "rec-default" {
			diverse++
		}
	}
	if diverse < 1 {
		t.Errorf("expected at least one diverse pick, got variants %+v", slot.Variants)
	}
}

// scriptedAB pins every assignment to a fixed variant.
type scriptedAB struct {
	test      *abtest.Test
	variantID string
}

func (s *scriptedAB) ActiveTestForSlot(ctx context.Context, slot catalog.SlotType) (*abtest.Test, error) {
	if s.test != nil && s.test.SlotType == slot {
		return s.test, nil
	}
	return nil, nil
}

func (s *scriptedAB) Variant(ctx context.Context, testID, sessionID string) (string, error) {
	return s.variantID, nil
}

func TestAssembleABAssignedSlot(t *testing.T) {
	vectors := &staticVectors{vectors: map[string]*interest.Vector{
		"sess-1": confidentVector("sess-1"),
	}}
	ab := &scriptedAB{
		test: &abtest.Test{
			ID:       "t-1",
			SlotType: catalog.SlotHeroBanner,
			Status:   abtest.StatusActive,
		},
		// Deliberately not the relevance winner.
		variantID: "hero-travel",
	}
	p := newPersonalizer(t, vectors, ab, nil)

	page := p.AssemblePage(context.Background(), "sess-1", []SlotDefinition{{SlotType: catalog.SlotHeroBanner}})

	slot := page.Slots[0]
	if slot.Reason != ReasonABAssignment || slot.ABTestID != "t-1" {
		t.Errorf("slot = %+v, want ab_assignment via t-1", slot)
	}
	if slot.Primary().ID != "hero-travel" {
		t.Errorf("variant = %s, want hero-travel", slot.Primary().ID)
	}
	if slot.FallbackUsed {
		t.Error("A/B assignment is not a fallback")
	}
}

func TestAssembleABUnknownVariantFallsThrough(t *testing.T) {
	vectors := &staticVectors{vectors: map[string]*interest.Vector{
		"sess-1": confidentVector("sess-1"),
	}}
	ab := &scriptedAB{
		test:      &abtest.Test{ID: "t-1", SlotType: catalog.SlotHeroBanner, Status: abtest.StatusActive},
		variantID: "not-in-catalog",
	}
	p := newPersonalizer(t, vectors, ab, nil)

	page := p.AssemblePage(context.Background(), "sess-1", []SlotDefinition{{SlotType: catalog.SlotHeroBanner}})

	slot := page.Slots[0]
	if slot.Reason != ReasonRelevance {
		t.Errorf("unresolvable assignment should fall through to relevance, got %+v", slot)
	}
}

func TestAssembleExpiredContextServesDefaults(t *testing.T) {
	vectors := &staticVectors{vectors: map[string]*interest.Vector{
		"sess-1": confidentVector("sess-1"),
	}}
	p := newPersonalizer(t, vectors, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page := p.AssemblePage(ctx, "sess-1", []SlotDefinition{{SlotType: catalog.SlotHeroBanner}})

	slot := page.Slots[0]
	if !slot.FallbackUsed || slot.Reason != ReasonDeadlineExceeded {
		t.Errorf("slot = %+v, want deadline fallback", slot)
	}
	if slot.Primary() == nil {
		t.Error("deadline fallback should still serve the default variant")
	}
}
