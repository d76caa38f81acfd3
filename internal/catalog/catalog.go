// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

// Package catalog defines the content and component-variant model Tailor
// personalizes over, and the provider boundary the engine consumes it
// through. The engine never manages content; it reads whatever catalog a
// deployment plugs in.
package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a content item or variant does not exist.
var ErrNotFound = errors.New("catalog: not found")

// SlotType identifies a personalizable page region.
type SlotType string

// Slot types recognized by page assembly.
const (
	SlotHeroBanner  SlotType = "hero_banner"
	SlotRecommended SlotType = "recommended_content"
	SlotCTA         SlotType = "cta"
	SlotCategoryNav SlotType = "category_nav"
	SlotPromotional SlotType = "promotional"
)

// Valid reports whether the slot type is one assembly understands.
func (s SlotType) Valid() bool {
	switch s {
	case SlotHeroBanner, SlotRecommended, SlotCTA, SlotCategoryNav, SlotPromotional:
		return true
	default:
		return false
	}
}

// ContentItem is one scoreable piece of content. Categories carry the item's
// taxonomy affinity as non-negative weights; scoring treats them as a sparse
// vector.
type ContentItem struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Categories map[string]float64 `json:"categories"`
}

// PrimaryCategory returns the highest-weighted category, ties broken by
// name ascending. Empty string when the item has no categories.
func (c *ContentItem) PrimaryCategory() string {
	best := ""
	var bestWeight float64
	for cat, w := range c.Categories {
		if best == "" || w > bestWeight || (w == bestWeight && cat < best) {
			best = cat
			bestWeight = w
		}
	}
	return best
}

// ComponentVariant is one renderable alternative for a slot. Exactly one
// variant per slot type should be the default; it is what low-confidence
// sessions and error paths receive.
type ComponentVariant struct {
	ID         string             `json:"id"`
	SlotType   SlotType           `json:"slot_type"`
	IsDefault  bool               `json:"is_default"`
	Categories map[string]float64 `json:"categories"`

	// Payload is the opaque render content (copy, image refs, links).
	// Tailor selects variants; it does not interpret payloads.
	Payload map[string]any `json:"payload,omitempty"`
}

// Provider is the read boundary to a deployment's content system.
type Provider interface {
	// Items returns the scoreable content pool.
	Items(ctx context.Context) ([]*ContentItem, error)

	// Item returns one content item by ID.
	Item(ctx context.Context, id string) (*ContentItem, error)

	// Variants returns all variants registered for a slot type.
	Variants(ctx context.Context, slot SlotType) ([]*ComponentVariant, error)

	// DefaultVariant returns the slot's default variant.
	DefaultVariant(ctx context.Context, slot SlotType) (*ComponentVariant, error)
}
