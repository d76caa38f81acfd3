// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package abtest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"
)

// Key prefixes namespacing A/B data in the shared Badger instance.
const (
	testKeyPrefix   = "abdef:"
	resultKeyPrefix = "abres:"
)

// BadgerStore implements Store on BadgerDB. Test definitions live under
// abdef:<test_id>; outcomes under abres:<test_id>:<variant_id>:<session_id>:<kind>.
// The outcome key itself encodes the full tuple, so writing the same tuple
// twice is naturally idempotent.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a Badger-backed A/B test store.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// SaveTest implements Store.
func (s *BadgerStore) SaveTest(ctx context.Context, t *Test) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode test: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(testKeyPrefix+t.ID), data)
	})
	if err != nil {
		return fmt.Errorf("save test: %w", err)
	}
	return nil
}

// GetTest implements Store.
func (s *BadgerStore) GetTest(ctx context.Context, id string) (*Test, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var t Test
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(testKeyPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &t)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("test %q: %w", id, ErrTestNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}
	return &t, nil
}

// ListTests implements Store.
func (s *BadgerStore) ListTests(ctx context.Context) ([]*Test, error) {
	var tests []*Test

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(testKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			err := it.Item().Value(func(val []byte) error {
				var t Test
				if err := json.Unmarshal(val, &t); err != nil {
					return err
				}
				tests = append(tests, &t)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	return tests, nil
}

// AppendOutcome implements Store.
func (s *BadgerStore) AppendOutcome(ctx context.Context, testID, variantID, sessionID string, kind OutcomeKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := fmt.Sprintf("%s%s:%s:%s:%s", resultKeyPrefix, testID, variantID, sessionID, kind)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), nil)
	})
	if err != nil {
		return fmt.Errorf("append outcome: %w", err)
	}
	return nil
}

// OutcomeCounts implements Store. One prefix scan over the test's outcome
// keys; the tuple is parsed out of the key, values are empty.
func (s *BadgerStore) OutcomeCounts(ctx context.Context, testID string) (map[string]*VariantCounts, error) {
	counts := make(map[string]*VariantCounts)
	prefix := resultKeyPrefix + testID + ":"

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			// <variant_id>:<session_id>:<kind>; session IDs cannot contain
			// ':' so the split is unambiguous.
			rest := strings.TrimPrefix(string(it.Item().Key()), prefix)
			parts := strings.Split(rest, ":")
			if len(parts) != 3 {
				continue
			}
			variantID, kind := parts[0], OutcomeKind(parts[2])

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
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	return counts, nil
}

// Close implements Store. The Badger instance is shared; the owner closes it.
func (s *BadgerStore) Close() error {
	return nil
}
