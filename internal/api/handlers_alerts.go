// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/vigilo/internal/auth"
	"github.com/tomtom215/vigilo/internal/database"
	"github.com/tomtom215/vigilo/internal/logging"
	"github.com/tomtom215/vigilo/internal/models"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// TriggerAlert publishes an alert trigger to the alert queue. This is
// the internal submit path used by pipeline services; the classifier
// consumer publishes the same payload after scoring.
// POST /api/v1/alerts/trigger
func (h *Handler) TriggerAlert(w http.ResponseWriter, r *http.Request) {
	var trigger models.AlertTrigger
	if err := decodeJSONBody(r, &trigger); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed request body", err)
		return
	}
	if trigger.Timestamp.IsZero() {
		trigger.Timestamp = time.Now().UTC()
	}
	if err := trigger.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	if err := h.publisher.PublishTrigger(r.Context(), &trigger); err != nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Alert queue unavailable", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("detection_id", sanitizeLogValue(trigger.DetectionID)).
		Float64("threat_score", trigger.ThreatScore).
		Msg("Alert trigger queued")

	respondSuccess(w, http.StatusAccepted, map[string]interface{}{
		"detection_id": trigger.DetectionID,
		"queued":       true,
	})
}

// ListAlerts returns stored alerts, newest first.
// GET /api/v1/alerts?acknowledged=&category=&limit=
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}

	filter := models.AlertFilter{
		Acknowledged: getBoolParam(r, "acknowledged"),
		Category:     r.URL.Query().Get("category"),
		Limit:        limit,
	}

	alerts, err := h.db.ListAlerts(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Store unavailable", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// RecentAlerts serves the in-memory recent-alert ring without touching
// the store.
// GET /api/v1/alerts/recent?limit=
func (h *Handler) RecentAlerts(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", defaultListLimit)
	alerts := h.recent.Recent(limit)

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alerts": alerts,
			"count":  len(alerts),
		},
		Metadata: models.Metadata{Timestamp: time.Now(), Cached: true},
	})
}

// AlertStats returns the alert stage counters plus the live
// unacknowledged count from the store.
// GET /api/v1/alerts/stats
func (h *Handler) AlertStats(w http.ResponseWriter, r *http.Request) {
	snap := h.alertCounter.Snapshot()

	active, err := h.db.CountUnacknowledged(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Store unavailable", err)
		return
	}
	snap.ActiveAlerts = active

	respondSuccess(w, http.StatusOK, snap)
}

// GetAlert returns one stored alert by ID.
// GET /api/v1/alerts/{id}
func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "id")

	alert, err := h.db.GetAlert(r.Context(), alertID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Alert not found", nil)
			return
		}
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Store unavailable", err)
		return
	}

	respondSuccess(w, http.StatusOK, alert)
}

// AcknowledgeAlert marks an alert handled. Exactly one caller wins;
// the rest get 409 with the original acknowledger preserved.
// POST /api/v1/alerts/{id}/acknowledge
func (h *Handler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "id")

	acknowledgedBy := "unknown"
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		acknowledgedBy = claims.Username
	}

	if err := h.db.AcknowledgeAlert(r.Context(), alertID, acknowledgedBy); err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Alert not found", nil)
		case errors.Is(err, database.ErrAlreadyHandled):
			respondError(w, http.StatusConflict, "ALREADY_ACKNOWLEDGED", "Alert not found or already acknowledged", nil)
		default:
			respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Store unavailable", err)
		}
		return
	}

	h.alertCounter.RecordAcknowledge()

	if h.hub != nil {
		if active, err := h.db.CountUnacknowledged(r.Context()); err == nil {
			h.hub.BroadcastStatsUpdate(h.alertCounter.Snapshot().TotalAlerts, active)
		}
	}

	logging.Ctx(r.Context()).Info().
		Str("alert_id", sanitizeLogValue(alertID)).
		Str("acknowledged_by", acknowledgedBy).
		Msg("Alert acknowledged")

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"alert_id":        alertID,
		"acknowledged":    true,
		"acknowledged_by": acknowledgedBy,
	})
}
