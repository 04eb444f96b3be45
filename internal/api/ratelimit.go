// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/vigilo/internal/config"
)

// Guards bundles CORS and per-group rate limiting built from security
// config. Login gets its own strict limiter for brute-force defense;
// health stays permissive so probes never starve.
type Guards struct {
	cfg  *config.SecurityConfig
	cors func(http.Handler) http.Handler
}

// NewGuards builds the guard set from security config.
func NewGuards(cfg *config.SecurityConfig) *Guards {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Service-Name"},
		ExposedHeaders:   []string{"X-Request-ID", "ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	return &Guards{cfg: cfg, cors: corsHandler}
}

// CORS returns the CORS middleware. Global so OPTIONS preflight works
// on every route.
func (g *Guards) CORS() func(http.Handler) http.Handler {
	return g.cors
}

// RateLimit is the standard per-IP limiter for data endpoints.
func (g *Guards) RateLimit() func(http.Handler) http.Handler {
	return g.limiter(g.cfg.RateLimitReqs, g.cfg.RateLimitWindow)
}

// RateLimitLogin is the strict limiter for credential endpoints.
func (g *Guards) RateLimitLogin() func(http.Handler) http.Handler {
	return g.limiter(5, 5*time.Minute)
}

// RateLimitHealth is the permissive limiter for probe endpoints.
func (g *Guards) RateLimitHealth() func(http.Handler) http.Handler {
	return g.limiter(1000, time.Minute)
}

func (g *Guards) limiter(requests int, window time.Duration) func(http.Handler) http.Handler {
	if g.cfg.RateLimitDisabled {
		return passthrough
	}
	if requests <= 0 {
		requests = 100
	}
	if window <= 0 {
		window = time.Minute
	}

	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests", nil)
		}),
	)
}

func passthrough(next http.Handler) http.Handler {
	return next
}
