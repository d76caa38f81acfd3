// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package signal

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store in memory. Used by tests and by development
// deployments that don't need persistence.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]*Signal
	closed   bool
}

// NewMemoryStore creates an empty in-memory signal store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]*Signal),
	}
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, sig *Signal) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrStoreClosed
	}

	if sig.ID == "" {
		sig.ID = uuid.New().String()
	}
	if sig.Timestamp.IsZero() {
		sig.Timestamp = time.Now()
	}

	cp := *sig
	s.sessions[sig.SessionID] = append(s.sessions[sig.SessionID], &cp)

	// Keep arrival order by timestamp for out-of-order test fixtures.
	sigs := s.sessions[sig.SessionID]
	sort.SliceStable(sigs, func(i, j int) bool {
		return sigs[i].Timestamp.Before(sigs[j].Timestamp)
	})

	return sig.ID, nil
}

// BySession implements Store.
func (s *MemoryStore) BySession(ctx context.Context, sessionID string, notBefore time.Time) ([]*Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var out []*Signal
	for _, sig := range s.sessions[sessionID] {
		if sig.Timestamp.Before(notBefore) {
			continue
		}
		cp := *sig
		out = append(out, &cp)
	}
	return out, nil
}

// PurgeOlderThan implements Store.
func (s *MemoryStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	purged := 0
	for sessionID, sigs := range s.sessions {
		kept := sigs[:0]
		for _, sig := range sigs {
			if sig.Timestamp.Before(cutoff) {
				purged++
				continue
			}
			kept = append(kept, sig)
		}
		if len(kept) == 0 {
			delete(s.sessions, sessionID)
		} else {
			s.sessions[sessionID] = kept
		}
	}

	return purged, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
