// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMemoryGrantStoreLifecycle(t *testing.T) {
	store := NewMemoryGrantStore()
	ctx := context.Background()

	entry := &GrantEntry{Subject: "admin", Role: "admin", IssuedAt: time.Now()}
	if err := store.Grant(ctx, "admin", "token-a", entry, time.Hour); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	valid, err := store.IsValid(ctx, "admin", "token-a")
	if err != nil {
		t.Fatalf("IsValid: %v", err)
	}
	if !valid {
		t.Error("fresh grant not valid")
	}

	// Different token for the same subject is unknown.
	valid, err = store.IsValid(ctx, "admin", "token-b")
	if err != nil {
		t.Fatalf("IsValid: %v", err)
	}
	if valid {
		t.Error("unknown token reported valid")
	}

	if err := store.Revoke(ctx, "admin", "token-a"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	valid, _ = store.IsValid(ctx, "admin", "token-a")
	if valid {
		t.Error("revoked grant still valid")
	}

	// Revoking again is fine.
	if err := store.Revoke(ctx, "admin", "token-a"); err != nil {
		t.Errorf("idempotent Revoke = %v", err)
	}
}

func TestMemoryGrantStoreTTLExpiry(t *testing.T) {
	store := NewMemoryGrantStore()
	ctx := context.Background()

	entry := &GrantEntry{Subject: "viewer"}
	if err := store.Grant(ctx, "viewer", "short-lived", entry, 10*time.Millisecond); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	valid, err := store.IsValid(ctx, "viewer", "short-lived")
	if err != nil {
		t.Fatalf("IsValid: %v", err)
	}
	if valid {
		t.Error("expired grant still valid")
	}
}

func TestMemoryGrantStoreClosed(t *testing.T) {
	store := NewMemoryGrantStore()
	ctx := context.Background()

	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := store.Grant(ctx, "a", "t", &GrantEntry{}, time.Hour); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Grant after close = %v, want ErrStoreClosed", err)
	}
	if _, err := store.IsValid(ctx, "a", "t"); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("IsValid after close = %v, want ErrStoreClosed", err)
	}
	if _, err := store.Size(ctx); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Size after close = %v, want ErrStoreClosed", err)
	}
}

func TestGrantKeyShape(t *testing.T) {
	key := grantKey("admin", "some-token")
	if !strings.HasPrefix(key, "grant:admin:") {
		t.Errorf("key = %q, want grant:admin: prefix", key)
	}
	// The raw token must not appear in the key.
	if strings.Contains(key, "some-token") {
		t.Errorf("key %q leaks raw token", key)
	}
	// Same inputs hash identically; different tokens differ.
	if key != grantKey("admin", "some-token") {
		t.Error("grantKey not deterministic")
	}
	if key == grantKey("admin", "other-token") {
		t.Error("distinct tokens share a key")
	}
}
