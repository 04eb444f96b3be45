// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for compression, request ID
tracking, and Prometheus metrics integration. These components work alongside
the token authentication middleware to create a complete middleware stack for
HTTP request processing.

Key Components:

  - Compression: Gzip compression for clients that accept it
  - Request ID: UUID-based request tracking for distributed tracing
  - Prometheus Metrics: HTTP request/response instrumentation

All middleware uses the standard func(http.Handler) http.Handler shape, so it
composes with chi:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)

Request IDs honor an upstream X-Request-ID header when present and are echoed
back on the response. The Prometheus middleware labels endpoints with the chi
route pattern rather than the raw URL path to keep series cardinality bounded.
*/
package middleware
