// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateMissingToken(t *testing.T) {
	authority, _ := newTestAuthority(t, time.Hour)
	mw := NewMiddleware(authority)

	handler := mw.Authenticate(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateValidToken(t *testing.T) {
	authority, _ := newTestAuthority(t, time.Hour)
	mw := NewMiddleware(authority)

	token, _, err := authority.IssueUserToken(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}

	var gotClaims *Claims
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotClaims == nil || gotClaims.Username != "admin" {
		t.Errorf("claims = %+v, want admin", gotClaims)
	}
}

func TestAuthenticateRevokedToken(t *testing.T) {
	authority, _ := newTestAuthority(t, time.Hour)
	mw := NewMiddleware(authority)

	ctx := context.Background()
	token, _, err := authority.IssueUserToken(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}
	if err := authority.Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	handler := mw.Authenticate(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequirePermissionDeniesViewer(t *testing.T) {
	authority, _ := newTestAuthority(t, time.Hour)
	mw := NewMiddleware(authority)

	token, _, err := authority.IssueUserToken(context.Background(), "viewer", "viewer123")
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}

	handler := mw.Authenticate(mw.RequirePermission("write")(okHandler()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detections", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRequirePermissionAllowsOperatorWrite(t *testing.T) {
	authority, _ := newTestAuthority(t, time.Hour)
	mw := NewMiddleware(authority)

	token, _, err := authority.IssueUserToken(context.Background(), "operator", "operator123")
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}

	handler := mw.Authenticate(mw.RequirePermission("write")(okHandler()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detections", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing", "", ""},
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"lowercase scheme", "bearer abc", "abc"},
		{"wrong scheme", "Basic abc", ""},
		{"no token", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := BearerToken(req); got != tt.want {
				t.Errorf("BearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
