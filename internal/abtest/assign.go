// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package abtest

import "hash/fnv"

// bucket maps (testID, sessionID) deterministically into [0,1) via FNV-1a.
// The same pair always lands in the same bucket, so assignment is stable
// for a test's lifetime with no stored state.
func bucket(testID, sessionID string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(testID))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(sessionID))
	return float64(h.Sum64()) / float64(1<<64)
}

// assignVariant walks cumulative allocation boundaries until the session's
// bucket falls inside one. Allocations sum to ~1.0 (validated at creation),
// so the final arm absorbs any floating-point remainder.
func assignVariant(t *Test, sessionID string) string {
	b := bucket(t.ID, sessionID)

	var cumulative float64
	for _, v := range t.Variants {
		cumulative += v.TrafficAllocation
		if b < cumulative {
			return v.VariantID
		}
	}
	return t.Variants[len(t.Variants)-1].VariantID
}
