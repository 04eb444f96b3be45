// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

// Revocation store for the token authority.
//
// Every issued token gets a grant entry keyed by subject and the
// SHA-256 of the raw token (the token itself never becomes key
// material). Validation requires an unexpired grant to exist: a
// missing entry means the token is revoked, regardless of signature.
// Grants carry a TTL matching the token lifetime, so expired tokens
// age out of the store without a cleanup pass.

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/vigilo/internal/logging"
	"github.com/tomtom215/vigilo/internal/metrics"
)

// GrantEntry is a stored token grant.
type GrantEntry struct {
	// Subject is the principal the token was issued to.
	Subject string `json:"subject"`

	// Role captures the role at issuance, for audit logging.
	Role string `json:"role"`

	// IssuedAt is when the grant was recorded.
	IssuedAt time.Time `json:"issued_at"`

	// ExpiresAt is when the grant (and the token) expires.
	ExpiresAt time.Time `json:"expires_at"`
}

// GrantStore is the revocation store interface. Implementations must
// make Grant/Revoke idempotent and IsValid side-effect free.
type GrantStore interface {
	// Grant records an active grant for the token with the given TTL.
	Grant(ctx context.Context, subject, token string, entry *GrantEntry, ttl time.Duration) error

	// IsValid reports whether an unexpired grant exists for the token.
	IsValid(ctx context.Context, subject, token string) (bool, error)

	// Revoke deletes the grant. Revoking an absent grant is success.
	Revoke(ctx context.Context, subject, token string) error

	// Size returns the approximate number of active grants.
	Size(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// grantKey builds the store key: "grant:" + subject + ":" + sha256(token).
func grantKey(subject, token string) string {
	sum := sha256.Sum256([]byte(token))
	return "grant:" + subject + ":" + hex.EncodeToString(sum[:])
}

// MemoryGrantStore is an in-memory grant store for tests.
// Grants are lost on restart, which revokes everything.
type MemoryGrantStore struct {
	mu      sync.RWMutex
	entries map[string]*GrantEntry
	closed  bool
}

// NewMemoryGrantStore creates an empty in-memory store.
func NewMemoryGrantStore() *MemoryGrantStore {
	return &MemoryGrantStore{entries: make(map[string]*GrantEntry)}
}

// Grant records a grant.
func (s *MemoryGrantStore) Grant(_ context.Context, subject, token string, entry *GrantEntry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	stored := *entry
	if stored.ExpiresAt.IsZero() {
		stored.ExpiresAt = time.Now().Add(ttl)
	}
	s.entries[grantKey(subject, token)] = &stored
	metrics.RevocationStoreSize.Set(float64(len(s.entries)))
	return nil
}

// IsValid checks for an unexpired grant.
func (s *MemoryGrantStore) IsValid(_ context.Context, subject, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, ErrStoreClosed
	}

	entry, ok := s.entries[grantKey(subject, token)]
	if !ok {
		return false, nil
	}
	return time.Now().Before(entry.ExpiresAt), nil
}

// Revoke deletes the grant, absent entries included.
func (s *MemoryGrantStore) Revoke(_ context.Context, subject, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	delete(s.entries, grantKey(subject, token))
	metrics.RevocationStoreSize.Set(float64(len(s.entries)))
	return nil
}

// Size returns the number of entries, expired ones included.
func (s *MemoryGrantStore) Size(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	return len(s.entries), nil
}

// Close closes the store.
func (s *MemoryGrantStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}

// BadgerGrantStore is a BadgerDB-backed grant store for production.
// BadgerDB's native TTL support ages grants out with their tokens.
type BadgerGrantStore struct {
	db     *badger.DB
	closed bool
	mu     sync.RWMutex
}

// NewBadgerGrantStore creates a store on a shared BadgerDB instance.
func NewBadgerGrantStore(db *badger.DB) *BadgerGrantStore {
	return &BadgerGrantStore{db: db}
}

// Grant records a grant with a TTL entry.
func (s *BadgerGrantStore) Grant(_ context.Context, subject, token string, entry *GrantEntry, ttl time.Duration) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	stored := *entry
	if stored.ExpiresAt.IsZero() {
		stored.ExpiresAt = time.Now().Add(ttl)
	}

	data, err := json.Marshal(&stored)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(grantKey(subject, token)), data).WithTTL(ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// IsValid checks for an unexpired grant.
func (s *BadgerGrantStore) IsValid(_ context.Context, subject, token string) (bool, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return false, ErrStoreClosed
	}
	s.mu.RUnlock()

	var valid bool
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(grantKey(subject, token)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			valid = false
			return nil
		}
		if err != nil {
			return err
		}

		var entry GrantEntry
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entry); err != nil {
				return err
			}
			valid = time.Now().Before(entry.ExpiresAt)
			return nil
		})
	})
	if err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}
	return valid, nil
}

// Revoke deletes the grant. Deleting an absent key is a no-op in
// BadgerDB, which gives us idempotency for free.
func (s *BadgerGrantStore) Revoke(_ context.Context, subject, token string) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(grantKey(subject, token)))
	})
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Size counts grant keys. Expired-but-uncompacted entries may still be
// counted; the number is approximate by contract.
func (s *BadgerGrantStore) Size(_ context.Context) (int, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return 0, ErrStoreClosed
	}
	s.mu.RUnlock()

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("grant:")
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}

	metrics.RevocationStoreSize.Set(float64(count))
	return count, nil
}

// Close marks the store closed. The BadgerDB handle is shared with the
// snapshot store and is closed by its owner.
func (s *BadgerGrantStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// StartGrantGaugeRoutine periodically refreshes the revocation store
// size gauge. Returns a channel to stop the routine.
func StartGrantGaugeRoutine(store GrantStore, interval time.Duration) chan struct{} {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if _, err := store.Size(ctx); err != nil {
					logging.Error().Err(err).Msg("Grant store size refresh failed")
				}
				cancel()
			case <-done:
				return
			}
		}
	}()

	return done
}
