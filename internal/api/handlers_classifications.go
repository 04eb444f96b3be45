// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/vigilo/internal/auth"
	"github.com/tomtom215/vigilo/internal/database"
	"github.com/tomtom215/vigilo/internal/logging"
)

// GetClassification returns the stored classification for a detection.
// GET /api/v1/classifications/{id}
func (h *Handler) GetClassification(w http.ResponseWriter, r *http.Request) {
	detectionID := chi.URLParam(r, "id")

	classification, err := h.db.GetClassification(r.Context(), detectionID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Classification not found", nil)
			return
		}
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Store unavailable", err)
		return
	}

	respondSuccess(w, http.StatusOK, classification)
}

// ClassificationStats returns the classifier stage counters.
// GET /api/v1/classifications/stats
func (h *Handler) ClassificationStats(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.classifierStats.Snapshot())
}

// ResetClassificationStats zeroes the classifier stage counters.
// Gated on the manage permission by the router.
// POST /api/v1/classifications/reset-stats
func (h *Handler) ResetClassificationStats(w http.ResponseWriter, r *http.Request) {
	h.classifierStats.Reset()

	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		logging.Ctx(r.Context()).Info().
			Str("username", claims.Username).
			Msg("Classification stats reset")
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"reset": true})
}
