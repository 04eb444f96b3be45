// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

// Package api provides the HTTP surface: token issuance, detection
// submission, classification and alert queries, health probes, the
// Prometheus endpoint, and the websocket alert feed. Every data route
// sits behind the zero-trust checkpoint (bearer token + permission).
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/vigilo/internal/auth"
	"github.com/tomtom215/vigilo/internal/authz"
	"github.com/tomtom215/vigilo/internal/middleware"
)

// Router assembles handlers, auth, and guards into the chi tree.
type Router struct {
	handler *Handler
	authMW  *auth.Middleware
	guards  *Guards
}

// NewRouter creates the router.
func NewRouter(handler *Handler, authMW *auth.Middleware, guards *Guards) *Router {
	return &Router{handler: handler, authMW: authMW, guards: guards}
}

// Setup builds the full route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.guards.CORS())

	// Health probes: permissive rate limit, no auth. Probes must work
	// before the authority does.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.guards.RateLimitHealth())
		r.Use(middleware.PrometheusMetrics)
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Token authority surface. Login is limited hardest.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.guards.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.With(router.guards.RateLimitLogin()).Post("/login", router.handler.Login)
		r.With(router.guards.RateLimitLogin()).Post("/service-token", router.handler.ServiceToken)
		r.Post("/validate", router.handler.ValidateToken)
		r.Post("/revoke", router.handler.RevokeToken)
		r.With(router.authMW.Authenticate).Get("/permissions", router.handler.Permissions)
	})

	// Data endpoints: bearer token plus per-route permission.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.guards.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.Compression)
		r.Use(router.authMW.Authenticate)

		r.Route("/detections", func(r chi.Router) {
			r.With(router.authMW.RequirePermission(authz.PermissionWrite)).
				Post("/", router.handler.SubmitDetection)
			r.With(router.authMW.RequirePermission(authz.PermissionRead)).
				Get("/{id}", router.handler.GetDetection)
		})

		r.Route("/classifications", func(r chi.Router) {
			r.With(router.authMW.RequirePermission(authz.PermissionRead)).
				Get("/stats", router.handler.ClassificationStats)
			r.With(router.authMW.RequirePermission(authz.PermissionManage)).
				Post("/reset-stats", router.handler.ResetClassificationStats)
			r.With(router.authMW.RequirePermission(authz.PermissionRead)).
				Get("/{id}", router.handler.GetClassification)
		})

		r.Route("/alerts", func(r chi.Router) {
			read := router.authMW.RequirePermission(authz.PermissionRead)
			write := router.authMW.RequirePermission(authz.PermissionWrite)

			r.With(write).Post("/trigger", router.handler.TriggerAlert)
			r.With(read).Get("/", router.handler.ListAlerts)
			r.With(read).Get("/recent", router.handler.RecentAlerts)
			r.With(read).Get("/stats", router.handler.AlertStats)
			r.With(read).Get("/{id}", router.handler.GetAlert)
			r.With(write).Post("/{id}/acknowledge", router.handler.AcknowledgeAlert)
		})

		r.With(router.authMW.RequirePermission(authz.PermissionRead)).
			Get("/ws", router.handler.WebSocket)
	})

	// Prometheus scrape endpoint. Unauthenticated by convention;
	// deployment fronts it with network policy.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
