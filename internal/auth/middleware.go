// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vigilo/internal/logging"
	"github.com/tomtom215/vigilo/internal/models"
)

type contextKey string

// ClaimsContextKey is the request context key holding validated Claims.
const ClaimsContextKey contextKey = "claims"

// ClaimsFromContext extracts validated claims from the request context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

// BearerToken extracts the bearer token from an Authorization header.
// Returns empty string when the header is missing or not a bearer.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Middleware enforces the zero-trust checkpoint on HTTP routes.
type Middleware struct {
	authority *Authority
}

// NewMiddleware creates authentication middleware backed by the authority.
func NewMiddleware(authority *Authority) *Middleware {
	return &Middleware{authority: authority}
}

// Authenticate validates the bearer token and stores claims in the
// request context. Requests without a valid, unrevoked token get 401.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token")
			return
		}

		claims, err := m.authority.Validate(r.Context(), token)
		if err != nil {
			status, code, message := mapValidationError(err)
			if status == http.StatusServiceUnavailable {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Token validation unavailable")
			}
			writeAuthError(w, status, code, message)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission gates a route on a permission from the claims
// snapshot. Must run after Authenticate.
func (m *Middleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token")
				return
			}
			if !m.authority.CheckPermission(claims, permission) {
				logging.Ctx(r.Context()).Warn().
					Str("username", claims.Username).
					Str("permission", permission).
					Msg("Permission denied")
				writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// mapValidationError translates authority errors to HTTP responses.
// Revocation-store unavailability is 503, not 401: the caller should
// retry, not re-authenticate.
func mapValidationError(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Token expired"
	case errors.Is(err, ErrTokenRevoked):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Token revoked"
	case errors.Is(err, ErrTokenMalformed):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Token malformed"
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrStoreClosed):
		return http.StatusServiceUnavailable, "SERVICE_ERROR", "Authority temporarily unavailable"
	default:
		return http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token"
	}
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error:    &models.APIError{Code: code, Message: message},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to write auth error response")
	}
}
