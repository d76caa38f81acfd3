// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// signalKeyPrefix namespaces signal keys in the shared Badger instance.
const signalKeyPrefix = "sig:"

// BadgerStore implements Store on BadgerDB. Keys are laid out as
// sig:<session_id>:<zero-padded unix nanos>:<uuid> so a prefix scan over a
// session yields its signals in arrival order.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a Badger-backed signal store.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// sessionPrefix returns the key prefix covering one session's signals.
func sessionPrefix(sessionID string) []byte {
	return []byte(signalKeyPrefix + sessionID + ":")
}

// Append implements Store.
func (s *BadgerStore) Append(ctx context.Context, sig *Signal) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if sig.ID == "" {
		sig.ID = uuid.New().String()
	}
	if sig.Timestamp.IsZero() {
		sig.Timestamp = time.Now()
	}

	data, err := Encode(sig)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s%s:%020d:%s", signalKeyPrefix, sig.SessionID, sig.Timestamp.UnixNano(), sig.ID)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return "", fmt.Errorf("append signal: %w", err)
	}

	return sig.ID, nil
}

// BySession implements Store.
func (s *BadgerStore) BySession(ctx context.Context, sessionID string, notBefore time.Time) ([]*Signal, error) {
	var signals []*Signal

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = sessionPrefix(sessionID)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			err := it.Item().Value(func(val []byte) error {
				sig, err := Decode(val)
				if err != nil {
					return err
				}
				if sig.Timestamp.Before(notBefore) {
					return nil
				}
				signals = append(signals, sig)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read session signals: %w", err)
	}

	return signals, nil
}

// PurgeOlderThan implements Store. Runs as a single pass collecting expired
// keys under a read transaction, then deletes in batches.
func (s *BadgerStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	var expired [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(signalKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			err := item.Value(func(val []byte) error {
				sig, err := Decode(val)
				if err != nil {
					// Undecodable entries are purged too.
					expired = append(expired, item.KeyCopy(nil))
					return nil
				}
				if sig.Timestamp.Before(cutoff) {
					expired = append(expired, item.KeyCopy(nil))
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan for purge: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, key := range expired {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("purge delete: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("purge flush: %w", err)
	}

	return len(expired), nil
}

// Close implements Store. The underlying Badger instance is shared with
// other stores, so closing is a no-op here; the owner closes the DB.
func (s *BadgerStore) Close() error {
	return nil
}
