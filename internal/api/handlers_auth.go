// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/vigilo/internal/auth"
	"github.com/tomtom215/vigilo/internal/logging"
	"github.com/tomtom215/vigilo/internal/models"
)

// Login issues a user token for valid credentials.
// POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	token, claims, err := h.authority.IssueUserToken(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logging.Ctx(r.Context()).Warn().
				Str("username", sanitizeLogValue(req.Username)).
				Msg("Login rejected")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password", nil)
			return
		}
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Token issuance unavailable", err)
		return
	}

	respondSuccess(w, http.StatusOK, tokenResponse(token, claims))
}

// ServiceToken issues a token for a known service principal named in
// the X-Service-Name header.
// POST /api/v1/auth/service-token
func (h *Handler) ServiceToken(w http.ResponseWriter, r *http.Request) {
	serviceName := r.Header.Get("X-Service-Name")
	if serviceName == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "X-Service-Name header is required", nil)
		return
	}

	token, claims, err := h.authority.IssueServiceToken(r.Context(), serviceName)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownService) {
			logging.Ctx(r.Context()).Warn().
				Str("service", sanitizeLogValue(serviceName)).
				Msg("Service token rejected")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unknown service", nil)
			return
		}
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Token issuance unavailable", err)
		return
	}

	respondSuccess(w, http.StatusOK, tokenResponse(token, claims))
}

// ValidateToken answers whether the presented bearer token is valid.
// Invalid tokens yield 200 {valid:false}; only a broken revocation
// store is an error.
// POST /api/v1/auth/validate
func (h *Handler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r)
	if token == "" {
		respondSuccess(w, http.StatusOK, &models.ValidationResult{
			Valid:  false,
			Reason: "missing bearer token",
		})
		return
	}

	claims, err := h.authority.Validate(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrStoreUnavailable) || errors.Is(err, auth.ErrStoreClosed) {
			respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Authority temporarily unavailable", err)
			return
		}
		respondSuccess(w, http.StatusOK, &models.ValidationResult{
			Valid:  false,
			Reason: validationReason(err),
		})
		return
	}

	result := &models.ValidationResult{
		Valid:          true,
		Username:       claims.Username,
		Role:           claims.Role,
		Permissions:    claims.Permissions,
		ServiceAccount: claims.ServiceAccount,
	}
	if claims.ExpiresAt != nil {
		expiresAt := claims.ExpiresAt.Time
		result.ExpiresAt = &expiresAt
	}
	respondSuccess(w, http.StatusOK, result)
}

// RevokeToken revokes the presented bearer token. Revoking an already
// revoked token succeeds.
// POST /api/v1/auth/revoke
func (h *Handler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r)
	if token == "" {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token", nil)
		return
	}

	if err := h.authority.Revoke(r.Context(), token); err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenMalformed):
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Token malformed", nil)
		case errors.Is(err, auth.ErrStoreUnavailable), errors.Is(err, auth.ErrStoreClosed):
			respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Authority temporarily unavailable", err)
		default:
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token", nil)
		}
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"revoked": true})
}

// Permissions returns the permission snapshot from the caller's claims.
// GET /api/v1/auth/permissions (requires Authenticate middleware)
func (h *Handler) Permissions(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token", nil)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"username":        claims.Username,
		"role":            claims.Role,
		"permissions":     claims.Permissions,
		"service_account": claims.ServiceAccount,
	})
}

func tokenResponse(token string, claims *auth.Claims) *models.TokenResponse {
	resp := &models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		Role:        claims.Role,
		Permissions: claims.Permissions,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
		resp.ExpiresIn = int64(time.Until(claims.ExpiresAt.Time).Seconds())
	}
	return resp
}

func validationReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		return "token revoked"
	case errors.Is(err, auth.ErrTokenMalformed):
		return "token malformed"
	default:
		return "invalid token"
	}
}
