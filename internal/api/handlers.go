// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package api

import (
	"context"

	"github.com/tomtom215/vigilo/internal/auth"
	"github.com/tomtom215/vigilo/internal/cache"
	"github.com/tomtom215/vigilo/internal/database"
	"github.com/tomtom215/vigilo/internal/models"
	"github.com/tomtom215/vigilo/internal/snapshot"
	"github.com/tomtom215/vigilo/internal/stats"
	"github.com/tomtom215/vigilo/internal/websocket"
)

// Publisher is the queue-facing surface the handlers need. Satisfied
// by pipeline.Publisher; tests substitute fakes.
type Publisher interface {
	PublishEnvelope(ctx context.Context, env *models.DetectionEnvelope) error
	PublishTrigger(ctx context.Context, trigger *models.AlertTrigger) error
}

// ReadinessChecker reports whether a dependency can serve traffic.
type ReadinessChecker func(ctx context.Context) error

// Handler holds the dependencies for all HTTP endpoints.
type Handler struct {
	authority       *auth.Authority
	db              *database.DB
	snapshots       *snapshot.Store
	publisher       Publisher
	classifierStats *stats.ClassifierStats
	alertCounter    *stats.AlertCounter
	recent          *cache.RecentAlerts
	hub             *websocket.Hub
	version         string

	// readiness contributors beyond the database ping
	extraChecks map[string]ReadinessChecker
}

// HandlerConfig bundles the handler dependencies.
type HandlerConfig struct {
	Authority       *auth.Authority
	DB              *database.DB
	Snapshots       *snapshot.Store
	Publisher       Publisher
	ClassifierStats *stats.ClassifierStats
	AlertCounter    *stats.AlertCounter
	RecentAlerts    *cache.RecentAlerts
	Hub             *websocket.Hub
	Version         string
}

// NewHandler creates the endpoint handler set.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		authority:       cfg.Authority,
		db:              cfg.DB,
		snapshots:       cfg.Snapshots,
		publisher:       cfg.Publisher,
		classifierStats: cfg.ClassifierStats,
		alertCounter:    cfg.AlertCounter,
		recent:          cfg.RecentAlerts,
		hub:             cfg.Hub,
		version:         cfg.Version,
		extraChecks:     make(map[string]ReadinessChecker),
	}
}

// AddReadinessCheck registers a named dependency check for the ready
// endpoint. Not safe to call after the router starts serving.
func (h *Handler) AddReadinessCheck(name string, check ReadinessChecker) {
	h.extraChecks[name] = check
}
