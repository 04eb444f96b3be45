// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package models

import "time"

// APIResponse is the standardized wrapper used by all HTTP endpoints.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "ALREADY_ACKNOWLEDGED",
//	    "message": "Alert not found or already acknowledged"
//	  },
//	  "metadata": {"timestamp": "2026-08-29T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError carries a machine-readable code and a short human message.
// Internal error detail (SQL text, stack traces, store paths) never
// appears here.
//
// Error codes in use:
//   - UNAUTHORIZED: missing, expired, revoked, or malformed credentials
//   - FORBIDDEN: authenticated but lacking the required permission
//   - NOT_FOUND: resource doesn't exist
//   - ALREADY_ACKNOWLEDGED: alert was already acknowledged
//   - VALIDATION_ERROR: malformed request payload or parameters
//   - SERVICE_ERROR: dependent store or queue unavailable (retryable)
//   - RATE_LIMIT_EXCEEDED: too many requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// LoginRequest is the credential payload for user token issuance.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=128"`
	Password string `json:"password" validate:"required,min=1,max=256"`
}

// TokenResponse is returned on successful token issuance.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
}

// ValidationResult is returned by the token validation endpoint.
// Invalid tokens yield Valid=false with HTTP 200; the endpoint
// answers the question rather than failing the request.
type ValidationResult struct {
	Valid          bool       `json:"valid"`
	Username       string     `json:"username,omitempty"`
	Role           string     `json:"role,omitempty"`
	Permissions    []string   `json:"permissions,omitempty"`
	ServiceAccount bool       `json:"service_account,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Reason         string     `json:"reason,omitempty"`
}
