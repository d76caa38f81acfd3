// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package catalog

import (
	"context"
	"fmt"
	"sync"
)

// MemoryProvider implements Provider over an in-memory catalog. It backs
// tests and deployments that load the catalog from configuration at boot.
type MemoryProvider struct {
	mu       sync.RWMutex
	items    map[string]*ContentItem
	variants map[SlotType][]*ComponentVariant
}

// NewMemoryProvider creates an empty in-memory catalog.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		items:    make(map[string]*ContentItem),
		variants: make(map[SlotType][]*ComponentVariant),
	}
}

// AddItem registers or replaces a content item.
func (p *MemoryProvider) AddItem(item *ContentItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[item.ID] = item
}

// AddVariant registers a component variant. Registering a default variant
// demotes any previous default for the slot so the slot keeps exactly one.
func (p *MemoryProvider) AddVariant(v *ComponentVariant) error {
	if !v.SlotType.Valid() {
		return fmt.Errorf("catalog: unknown slot type %q", v.SlotType)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if v.IsDefault {
		for _, existing := range p.variants[v.SlotType] {
			existing.IsDefault = false
		}
	}
	p.variants[v.SlotType] = append(p.variants[v.SlotType], v)
	return nil
}

// Items implements Provider.
func (p *MemoryProvider) Items(ctx context.Context) ([]*ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*ContentItem, 0, len(p.items))
	for _, item := range p.items {
		out = append(out, item)
	}
	return out, nil
}

// Item implements Provider.
func (p *MemoryProvider) Item(ctx context.Context, id string) (*ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	item, ok := p.items[id]
	if !ok {
		return nil, fmt.Errorf("content item %q: %w", id, ErrNotFound)
	}
	return item, nil
}

// Variants implements Provider.
func (p *MemoryProvider) Variants(ctx context.Context, slot SlotType) ([]*ComponentVariant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*ComponentVariant, len(p.variants[slot]))
	copy(out, p.variants[slot])
	return out, nil
}

// DefaultVariant implements Provider.
func (p *MemoryProvider) DefaultVariant(ctx context.Context, slot SlotType) (*ComponentVariant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, v := range p.variants[slot] {
		if v.IsDefault {
			return v, nil
		}
	}
	return nil, fmt.Errorf("default variant for slot %q: %w", slot, ErrNotFound)
}
