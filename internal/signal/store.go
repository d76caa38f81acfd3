// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package signal

import (
	"context"
	"time"
)

// Store is the append-only persistence contract for signals.
//
// Implementations must support concurrent readers; the write path is
// high-frequency and must not block on anything beyond the append itself.
type Store interface {
	// Append persists a validated signal and returns its assigned ID.
	Append(ctx context.Context, s *Signal) (string, error)

	// BySession returns a session's signals with timestamp >= notBefore,
	// ordered by arrival time.
	BySession(ctx context.Context, sessionID string, notBefore time.Time) ([]*Signal, error)

	// PurgeOlderThan deletes signals older than cutoff and reports how
	// many were removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases store resources.
	Close() error
}
