// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package database

import (
	"errors"
	"io"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyHandled is returned when an acknowledge targets an alert
// that was already acknowledged. Distinct from ErrNotFound so the API
// can answer 409 rather than 404.
var ErrAlreadyHandled = errors.New("alert already acknowledged")

// closeQuietly closes a resource and explicitly ignores any error.
// Use in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
