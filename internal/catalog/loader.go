// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package catalog

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
)

// catalogFile is the on-disk bootstrap format: content items plus the
// component variants available per slot.
type catalogFile struct {
	Items    []*ContentItem      `json:"items"`
	Variants []*ComponentVariant `json:"variants"`
}

// Load populates a MemoryProvider from a JSON catalog document.
func Load(r io.Reader) (*MemoryProvider, error) {
	var doc catalogFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	provider := NewMemoryProvider()
	for _, item := range doc.Items {
		if item.ID == "" {
			return nil, fmt.Errorf("catalog item missing id")
		}
		provider.AddItem(item)
	}
	for _, v := range doc.Variants {
		if err := provider.AddVariant(v); err != nil {
			return nil, fmt.Errorf("catalog variant %q: %w", v.ID, err)
		}
	}
	return provider, nil
}

// LoadFile loads a catalog bootstrap file from disk.
func LoadFile(path string) (*MemoryProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return Load(f)
}
