// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/vigilo/internal/websocket"
)

// Health reports overall service health with dependency detail.
// GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	if err := h.db.Ping(r.Context()); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	for name, check := range h.extraChecks {
		if err := check(r.Context()); err != nil {
			checks[name] = err.Error()
			healthy = false
		} else {
			checks[name] = "ok"
		}
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	respondSuccess(w, status, map[string]interface{}{
		"status":  state,
		"version": h.version,
		"checks":  checks,
		"time":    time.Now().UTC(),
	})
}

// HealthLive is the liveness probe. Process up means alive.
// GET /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{"status": "alive"})
}

// HealthReady is the readiness probe: the store and all registered
// dependencies must answer.
// GET /api/v1/health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Database not ready", err)
		return
	}
	for name, check := range h.extraChecks {
		if err := check(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", name+" not ready", err)
			return
		}
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"status": "ready"})
}

// WebSocket upgrades the connection and attaches it to the alert hub.
// GET /api/v1/ws (requires Authenticate middleware)
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Live feed not available", nil)
		return
	}
	websocket.ServeWS(h.hub, w, r)
}
