// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package abtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore implements Store in memory for tests and development.
type MemoryStore struct {
	mu       sync.RWMutex
	tests    map[string]*Test
	outcomes map[string]map[string]OutcomeKind // testID -> tuple key -> kind
}

// NewMemoryStore creates an empty in-memory A/B store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tests:    make(map[string]*Test),
		outcomes: make(map[string]map[string]OutcomeKind),
	}
}

// SaveTest implements Store.
func (s *MemoryStore) SaveTest(ctx context.Context, t *Test) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *t
	cp.Variants = append([]Variant(nil), t.Variants...)
	s.tests[t.ID] = &cp
	return nil
}

// GetTest implements Store.
func (s *MemoryStore) GetTest(ctx context.Context, id string) (*Test, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tests[id]
	if !ok {
		return nil, fmt.Errorf("test %q: %w", id, ErrTestNotFound)
	}

	cp := *t
	cp.Variants = append([]Variant(nil), t.Variants...)
	return &cp, nil
}

// ListTests implements Store.
func (s *MemoryStore) ListTests(ctx context.Context) ([]*Test, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Test, 0, len(s.tests))
	for _, t := range s.tests {
		cp := *t
		cp.Variants = append([]Variant(nil), t.Variants...)
		out = append(out, &cp)
	}
	return out, nil
}

// AppendOutcome implements Store.
func (s *MemoryStore) AppendOutcome(ctx context.Context, testID, variantID, sessionID string, kind OutcomeKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outcomes[testID] == nil {
		s.outcomes[testID] = make(map[string]OutcomeKind)
	}
	tuple := variantID + ":" + sessionID + ":" + string(kind)
	s.outcomes[testID][tuple] = kind
	return nil
}

// OutcomeCounts implements Store.
func (s *MemoryStore) OutcomeCounts(ctx context.Context, testID string) (map[string]*VariantCounts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]*VariantCounts)
	for tuple, kind := range s.outcomes[testID] {
		variantID := tuple[:strings.IndexByte(tuple, ':')]

		vc, ok := counts[variantID]
		if !ok {
			vc = &VariantCounts{VariantID: variantID}
			counts[variantID] = vc
		}
		switch kind {
		case OutcomeImpression:
			vc.Impressions++
		case OutcomeConversion:
			vc.Conversions++
		}
	}
	return counts, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
