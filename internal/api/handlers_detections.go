// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/vigilo/internal/logging"
	"github.com/tomtom215/vigilo/internal/models"
	"github.com/tomtom215/vigilo/internal/snapshot"
)

// SubmitDetection validates an envelope, stores a TTL snapshot, and
// publishes it to the detection queue. The snapshot write happens
// before publish so a GET can serve the envelope as soon as the submit
// returns.
// POST /api/v1/detections
func (h *Handler) SubmitDetection(w http.ResponseWriter, r *http.Request) {
	var env models.DetectionEnvelope
	if err := decodeJSONBody(r, &env); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed request body", err)
		return
	}
	if err := env.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	if err := h.snapshots.Put(r.Context(), &env); err != nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Snapshot store unavailable", err)
		return
	}

	if err := h.publisher.PublishEnvelope(r.Context(), &env); err != nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Detection queue unavailable", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("detection_id", sanitizeLogValue(env.DetectionID)).
		Str("camera_id", sanitizeLogValue(env.CameraID)).
		Int("detections", len(env.Detections)).
		Msg("Detection queued")

	respondSuccess(w, http.StatusAccepted, map[string]interface{}{
		"detection_id": env.DetectionID,
		"queued":       true,
	})
}

// GetDetection returns the TTL snapshot of a submitted envelope.
// GET /api/v1/detections/{id}
func (h *Handler) GetDetection(w http.ResponseWriter, r *http.Request) {
	detectionID := chi.URLParam(r, "id")

	env, err := h.snapshots.Get(r.Context(), detectionID)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Detection not found or expired", nil)
			return
		}
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Snapshot store unavailable", err)
		return
	}

	respondSuccess(w, http.StatusOK, env)
}
