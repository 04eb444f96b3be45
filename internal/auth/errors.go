// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package auth

import "errors"

// Token authority errors. Callers branch on these with errors.Is; the
// API layer maps them to HTTP status codes.
var (
	// ErrInvalidCredentials indicates an unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenExpired indicates a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenMalformed indicates a token that fails parsing or signature checks.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenRevoked indicates a signed, unexpired token with no active
	// grant in the revocation store. Absence of a grant means revoked;
	// the store is authoritative over the signature.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrUnknownService indicates a service principal not present in the directory.
	ErrUnknownService = errors.New("unknown service principal")

	// ErrStoreUnavailable indicates the revocation store could not answer.
	// Validation fails closed but retryably; it never degrades into a
	// false "revoked" verdict.
	ErrStoreUnavailable = errors.New("revocation store unavailable")

	// ErrStoreClosed indicates the revocation store has been shut down.
	ErrStoreClosed = errors.New("revocation store is closed")
)
