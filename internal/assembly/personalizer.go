// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package assembly

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tailorhq/tailor/internal/abtest"
	"github.com/tailorhq/tailor/internal/catalog"
	"github.com/tailorhq/tailor/internal/events"
	"github.com/tailorhq/tailor/internal/interest"
	"github.com/tailorhq/tailor/internal/metrics"
	"github.com/tailorhq/tailor/internal/scoring"
)

// VectorSource yields the session's interest vector.
type VectorSource interface {
	Get(ctx context.Context, sessionID string) (*interest.Vector, error)
}

// ABDecider resolves slots under experiment.
type ABDecider interface {
	ActiveTestForSlot(ctx context.Context, slot catalog.SlotType) (*abtest.Test, error)
	Variant(ctx context.Context, testID, sessionID string) (string, error)
}

// AuditSink receives per-slot personalization decisions.
type AuditSink interface {
	Audit(ctx context.Context, ev events.AuditEvent) error
}

// Config tunes the personalizer.
type Config struct {
	// ConfidenceThreshold gates personalization; sessions below it get
	// defaults for every slot. Default 0.6.
	ConfidenceThreshold float64

	// PageBudget is the soft deadline for assembling a full page.
	// Default 300ms.
	PageBudget time.Duration
}

func (c *Config) applyDefaults() {
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = 0.6
	}
	if c.PageBudget <= 0 {
		c.PageBudget = 300 * time.Millisecond
	}
}

// Personalizer assembles personalized pages slot by slot.
type Personalizer struct {
	vectors  VectorSource
	provider catalog.Provider
	selector *scoring.Selector
	ab       ABDecider
	audit    AuditSink
	cfg      Config
	logger   zerolog.Logger
}

// NewPersonalizer creates a page personalizer. ab and audit may be nil; the
// corresponding behaviors are skipped.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPersonalizer(vectors VectorSource, provider catalog.Provider, selector *scoring.Selector, ab ABDecider, audit AuditSink, cfg Config, logger zerolog.Logger) *Personalizer {
	cfg.applyDefaults()
	return &Personalizer{
		vectors:  vectors,
		provider: provider,
		selector: selector,
		ab:       ab,
		audit:    audit,
		cfg:      cfg,
		logger:   logger.With().Str("component", "assembly").Logger(),
	}
}

// AssemblePage fills every requested slot. It never returns an error for a
// degraded session or slot; each slot independently falls back to its
// default variant, and page metadata reports what happened.
func (p *Personalizer) AssemblePage(ctx context.Context, sessionID string, slots []SlotDefinition) *PageResult {
	start := time.Now()
	defer func() {
		metrics.AssemblyDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.PageBudget)
	defer cancel()

	vector, err := p.vectors.Get(ctx, sessionID)
	if err != nil {
		// A session we cannot profile is served like a brand-new one.
		p.logger.Warn().Err(err).Str("session_id", sessionID).Msg("interest vector unavailable, serving defaults")
		vector = &interest.Vector{SessionID: sessionID}
	}

	page := &PageResult{
		SessionID: sessionID,
		Slots:     make([]*SlotResult, 0, len(slots)),
	}

	anyPersonalized := false
	anyFallback := false
	for _, def := range slots {
		result := p.fillSlot(ctx, sessionID, vector, def)
		page.Slots = append(page.Slots, result)

		if result.FallbackUsed {
			anyFallback = true
			metrics.SlotFallbacks.WithLabelValues(string(def.SlotType), string(result.Reason)).Inc()
		} else {
			anyPersonalized = true
			metrics.SlotSelections.WithLabelValues(string(def.SlotType)).Inc()
		}

		p.emitAudit(ctx, sessionID, result)
	}

	page.Metadata = PageMetadata{
		PersonalizationApplied: anyPersonalized,
		ConfidenceScore:        vector.Confidence,
		FallbackUsed:           anyFallback,
		AssemblyTimeMS:         time.Since(start).Milliseconds(),
	}
	return page
}

// PersonalizeSlot fills a single slot. Exposed for callers that render
// slots independently.
func (p *Personalizer) PersonalizeSlot(ctx context.Context, sessionID string, vector *interest.Vector, def SlotDefinition) *SlotResult {
	return p.fillSlot(ctx, sessionID, vector, def)
}

func (p *Personalizer) fillSlot(ctx context.Context, sessionID string, vector *interest.Vector, def SlotDefinition) *SlotResult {
	if ctx.Err() != nil {
		return p.fallback(ctx, def, ReasonDeadlineExceeded)
	}

	if vector.Empty() {
		return p.fallback(ctx, def, ReasonEmptyVector)
	}
	if vector.Confidence < p.cfg.ConfidenceThreshold {
		return p.fallback(ctx, def, ReasonLowConfidence)
	}

	variants, err := p.provider.Variants(ctx, def.SlotType)
	if err != nil {
		p.logger.Error().Err(err).Str("slot_type", string(def.SlotType)).Msg("variant lookup failed")
		return p.fallback(ctx, def, ReasonSlotError)
	}
	if len(variants) == 0 {
		return p.fallback(ctx, def, ReasonNoCandidates)
	}

	scored := scoreVariants(vector, variants)

	// A slot under an active test is decided by assignment, not ranking.
	// The relevance score still travels with the result for analytics.
	if p.ab != nil {
		if result := p.tryABAssignment(ctx, sessionID, def, variants, scored); result != nil {
			return result
		}
	}

	count := def.ItemCount
	if count <= 1 {
		count = 1
	}

	var picked []scoring.Scored
	if count == 1 {
		picked = scored[:1]
	} else {
		picked = p.selector.Select(vector, scored, count)
	}

	result := &SlotResult{
		SlotType: def.SlotType,
		Reason:   ReasonRelevance,
	}
	for _, sc := range picked {
		result.Variants = append(result.Variants, SelectedVariant{
			Variant:        sc.Candidate.(variantCandidate).variant,
			RelevanceScore: sc.Score,
		})
	}
	return result
}

// tryABAssignment resolves the slot by test assignment. Returns nil when the
// slot is not under an active test or the assignment cannot be honored, in
// which case relevance ranking proceeds.
func (p *Personalizer) tryABAssignment(ctx context.Context, sessionID string, def SlotDefinition, variants []*catalog.ComponentVariant, scored []scoring.Scored) *SlotResult {
	test, err := p.ab.ActiveTestForSlot(ctx, def.SlotType)
	if err != nil {
		p.logger.Warn().Err(err).Str("slot_type", string(def.SlotType)).Msg("test lookup failed, ranking by relevance")
		return nil
	}
	if test == nil {
		return nil
	}

	variantID, err := p.ab.Variant(ctx, test.ID, sessionID)
	if err != nil {
		p.logger.Warn().Err(err).Str("test_id", test.ID).Msg("assignment failed, ranking by relevance")
		return nil
	}

	for _, v := range variants {
		if v.ID != variantID {
			continue
		}

		score := 0.0
		for _, sc := range scored {
			if sc.Candidate.CandidateID() == variantID {
				score = sc.Score
				break
			}
		}

		return &SlotResult{
			SlotType: def.SlotType,
			Variants: []SelectedVariant{{Variant: v, RelevanceScore: score}},
			Reason:   ReasonABAssignment,
			ABTestID: test.ID,
		}
	}

	p.logger.Warn().
		Str("test_id", test.ID).
		Str("variant_id", variantID).
		Msg("assigned variant missing from catalog, ranking by relevance")
	return nil
}

// fallback serves the slot's default variant. A missing default is a catalog
// configuration defect; the slot is returned empty rather than failing the
// page.
func (p *Personalizer) fallback(ctx context.Context, def SlotDefinition, reason Reason) *SlotResult {
	result := &SlotResult{
		SlotType:     def.SlotType,
		Reason:       reason,
		FallbackUsed: true,
	}

	// The page context may already be past deadline; the default lookup
	// must still go through.
	lookupCtx := ctx
	if ctx.Err() != nil {
		lookupCtx = context.WithoutCancel(ctx)
	}

	variant, err := p.provider.DefaultVariant(lookupCtx, def.SlotType)
	if err != nil {
		p.logger.Error().Err(err).Str("slot_type", string(def.SlotType)).Msg("no default variant configured")
		return result
	}

	result.Variants = []SelectedVariant{{Variant: variant}}
	return result
}

func (p *Personalizer) emitAudit(ctx context.Context, sessionID string, result *SlotResult) {
	if p.audit == nil {
		return
	}

	ev := events.AuditEvent{
		SessionID:    sessionID,
		SlotType:     string(result.SlotType),
		FallbackUsed: result.FallbackUsed,
		ABTestID:     result.ABTestID,
	}
	if result.FallbackUsed {
		ev.FallbackReason = string(result.Reason)
	}
	if primary := result.Primary(); primary != nil {
		ev.VariantID = primary.ID
	}
	if len(result.Variants) > 0 {
		ev.RelevanceScore = result.Variants[0].RelevanceScore
	}

	if err := p.audit.Audit(context.WithoutCancel(ctx), ev); err != nil {
		p.logger.Warn().Err(err).Msg("audit publish failed")
	}
}

// variantCandidate adapts a catalog variant to the scoring boundary.
type variantCandidate struct {
	variant *catalog.ComponentVariant
}

func (c variantCandidate) CandidateID() string                 { return c.variant.ID }
func (c variantCandidate) CategoryWeights() map[string]float64 { return c.variant.Categories }

func scoreVariants(vector *interest.Vector, variants []*catalog.ComponentVariant) []scoring.Scored {
	candidates := make([]scoring.Candidate, 0, len(variants))
	for _, v := range variants {
		candidates = append(candidates, variantCandidate{variant: v})
	}
	return scoring.ScoreBatch(vector, candidates)
}
