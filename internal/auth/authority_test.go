// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/vigilo/internal/authz"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestAuthority(t *testing.T, ttl time.Duration) (*Authority, *MemoryGrantStore) {
	t.Helper()

	jwtManager, err := NewJWTManager(testSecret, ttl)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	directory, err := NewStaticDirectory(
		[]UserSeed{
			{Username: "admin", Password: "admin123", Role: "admin"},
			{Username: "operator", Password: "operator123", Role: "operator"},
			{Username: "viewer", Password: "viewer123", Role: "viewer"},
		},
		[]string{"camera-ingest", "threat-classifier", "alert-engine", "api-gateway"},
	)
	if err != nil {
		t.Fatalf("NewStaticDirectory: %v", err)
	}

	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	t.Cleanup(enforcer.Close)

	store := NewMemoryGrantStore()
	return NewAuthority(jwtManager, store, directory, enforcer), store
}

func TestIssueUserTokenRoundTrip(t *testing.T) {
	authority, _ := newTestAuthority(t, time.Hour)
	ctx := context.Background()

	token, issued, err := authority.IssueUserToken(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}
	if issued.Role != "admin" {
		t.Errorf("issued role = %q, want admin", issued.Role)
	}

	claims, err := authority.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Username != "admin" {
		t.Errorf("username = %q, want admin", claims.Username)
	}
	wantPerms := []string{"read", "write", "delete", "manage"}
	if len(claims.Permissions) != len(wantPerms) {
		t.Fatalf("permissions = %v, want %v", claims.Permissions, wantPerms)
	}
	for i, p := range wantPerms {
		if claims.Permissions[i] != p {
			t.Errorf("permissions = %v, want %v", claims.Permissions, wantPerms)
			break
		}
	}
	if claims.ServiceAccount {
		t.Error("user token marked as service account")
	}
}

func TestIssueUserTokenBadCredentials(t *testing.T) {
	authority, _ := newTestAuthority(t, time.Hour)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "nope"},
		{"unknown user", "ghost", "admin123"},
		{"empty password", "admin", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := authority.IssueUserToken(ctx, tt.username, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestIssueServiceToken(t *testing.T) {
	authority, _ := newTestAuthority(t, time.Hour)
	ctx := context.Background()

	token, _, err := authority.IssueServiceToken(ctx, "threat-classifier")
	if err != nil {
		t.Fatalf("IssueServiceToken: %v", err)
	}

	claims, err := authority.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !claims.ServiceAccount {
		t.Error("service token not marked as service account")
	}
	if claims.Role != "service" {
		t.Errorf("role = %q, want service", claims.Role)
	}
	if !claims.HasPermission("read") || !claims.HasPermission("write") {
		t.Errorf("service permissions = %v, want read+write", claims.Permissions)
	}
	if claims.HasPermission("manage") {
		t.Error("service token granted manage")
	}

	if _, _, err := authority.IssueServiceToken(ctx, "rogue-service"); !errors.Is(err, ErrUnknownService) {
		t.Errorf("unknown service error = %v, want ErrUnknownService", err)
	}
}

func TestRevokeInvalidatesToken(t *testing.T) {
	authority, _ := newTestAuthority(t, time.Hour)
	ctx := context.Background()

	token, _, err := authority.IssueUserToken(ctx, "operator", "operator123")
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}
	if _, err := authority.Validate(ctx, token); err != nil {
		t.Fatalf("Validate before revoke: %v", err)
	}

	if err := authority.Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := authority.Validate(ctx, token); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("Validate after revoke = %v, want ErrTokenRevoked", err)
	}

	// Revoke is idempotent.
	if err := authority.Revoke(ctx, token); err != nil {
		t.Errorf("second Revoke = %v, want nil", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	authority, _ := newTestAuthority(t, 10*time.Millisecond)
	ctx := context.Background()

	token, _, err := authority.IssueUserToken(ctx, "viewer", "viewer123")
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if _, err := authority.Validate(ctx, token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Validate = %v, want ErrTokenExpired", err)
	}
}

func TestValidateMalformedToken(t *testing.T) {
	authority, _ := newTestAuthority(t, time.Hour)
	ctx := context.Background()

	for _, raw := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30."} {
		if _, err := authority.Validate(ctx, raw); !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("Validate(%q) = %v, want ErrTokenMalformed", raw, err)
		}
	}
}

func TestStoreLossRevokesEverything(t *testing.T) {
	authority, store := newTestAuthority(t, time.Hour)
	ctx := context.Background()

	token, _, err := authority.IssueUserToken(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}

	// Simulate store loss: the signed, unexpired token must read as
	// revoked once its grant is gone.
	if err := store.Revoke(ctx, "admin", token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := authority.Validate(ctx, token); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("Validate = %v, want ErrTokenRevoked", err)
	}
}

func TestTamperedTokenIsMalformed(t *testing.T) {
	authority, _ := newTestAuthority(t, time.Hour)
	ctx := context.Background()

	// Token signed with a different secret.
	otherManager, err := NewJWTManager("ffffffffffffffffffffffffffffffff", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	forged, _, err := otherManager.Sign("admin", "admin", []string{"read", "write", "delete", "manage"}, false)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := authority.Validate(ctx, forged); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("Validate(forged) = %v, want ErrTokenMalformed", err)
	}
}

func TestCheckPermissionExactMembership(t *testing.T) {
	authority, _ := newTestAuthority(t, time.Hour)
	ctx := context.Background()

	token, _, err := authority.IssueUserToken(ctx, "viewer", "viewer123")
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}
	claims, err := authority.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if !authority.CheckPermission(claims, "read") {
		t.Error("viewer denied read")
	}
	for _, perm := range []string{"write", "delete", "manage"} {
		if authority.CheckPermission(claims, perm) {
			t.Errorf("viewer granted %s", perm)
		}
	}
}

func TestNewJWTManagerRejectsShortSecret(t *testing.T) {
	if _, err := NewJWTManager("short", time.Hour); err == nil {
		t.Error("short secret accepted")
	}
}
