// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

// Package snapshot keeps short-lived copies of submitted detection
// envelopes so the read API can serve them while classification is in
// flight. Entries expire on their own; the durable record of a
// detection is its classification, not its snapshot.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/vigilo/internal/models"
)

const keyPrefix = "snapshot:"

// DefaultTTL is how long a snapshot outlives its submission.
const DefaultTTL = time.Hour

// ErrNotFound indicates the snapshot expired or never existed.
var ErrNotFound = errors.New("snapshot not found")

// Store persists detection envelopes with a TTL in a shared Badger DB.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// NewStore wraps the shared Badger DB. A non-positive ttl uses
// DefaultTTL.
func NewStore(db *badger.DB, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{db: db, ttl: ttl}
}

func snapshotKey(detectionID string) []byte {
	return []byte(keyPrefix + detectionID)
}

// Put stores the envelope under its detection ID. Resubmission
// overwrites and refreshes the TTL.
func (s *Store) Put(ctx context.Context, env *models.DetectionEnvelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to serialize envelope: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(snapshotKey(env.DetectionID), data).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// Get returns the envelope for a detection ID, or ErrNotFound once the
// snapshot has expired.
func (s *Store) Get(ctx context.Context, detectionID string) (*models.DetectionEnvelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var env models.DetectionEnvelope
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(detectionID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &env)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return &env, nil
}
