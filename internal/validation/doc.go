// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

// Package validation provides struct validation using go-playground/validator v10.
//
// This package wraps the go-playground/validator library to provide a thread-safe
// singleton validator instance with domain validators and user-friendly error
// messages. It integrates with the application's API error format for consistent
// error responses.
//
// # Overview
//
// The package provides:
//   - Thread-safe singleton validator (initialized once, cached struct info)
//   - Domain validators: threat_level, threat_category, permission
//   - Comprehensive error translation to human-readable messages
//   - APIError conversion matching the application's error format
//
// # Quick Start
//
//	type LoginRequest struct {
//	    Username string `validate:"required,min=1,max=64"`
//	    Password string `validate:"required,min=1"`
//	}
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    var req LoginRequest
//	    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
//	        // handle decode error
//	    }
//
//	    if verr := validation.ValidateStruct(&req); verr != nil {
//	        apiErr := verr.ToAPIError()
//	        respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	        return
//	    }
//
//	    // proceed with valid request
//	}
//
// # Domain Validation Tags
//
//   - threat_level: camera-reported level (low, medium, high, critical)
//   - threat_category: classifier output (benign, suspicious, high_threat, critical)
//   - permission: RBAC permission name (read, write, delete, manage)
//
// Built-in tags (required, min, max, gte, lte, oneof, uuid, datetime) cover
// the rest of the request surface.
//
// # Error Message Translation
//
// Human-readable messages are generated for common validation tags:
//
//	required      -> "Username is required"
//	min=3         -> "Username must be at least 3 characters"
//	gte=1         -> "Limit must be greater than or equal to 1"
//	threat_level  -> "ThreatLevel must be one of: low, medium, high, critical"
//	oneof=a b     -> "Order must be one of: a b"
//
// # Thread Safety
//
// The singleton validator is initialized once and safe for concurrent use:
//
//	validate := validation.GetValidator()  // Thread-safe
//	err := validation.ValidateStruct(&req) // Thread-safe
//
// # See Also
//
//   - internal/api: Request handlers using validation
//   - github.com/go-playground/validator/v10: Underlying library
package validation
