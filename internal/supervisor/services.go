// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPServer matches *http.Server's lifecycle methods so the wrapper
// can be tested with mocks.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService adapts http.Server's blocking ListenAndServe to
// suture's context-aware Serve: start in a goroutine, wait for
// cancellation or crash, then shut down gracefully within the timeout.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPServerService creates the HTTP server wrapper.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "http-server",
	}
}

// Serve implements suture.Service. http.ErrServerClosed is converted
// to nil since it is expected on shutdown.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	if err := h.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's log messages.
func (h *HTTPServerService) String() string { return h.name }

// ContextRunner is anything whose run loop already follows the
// suture.Service pattern, like websocket.Hub.RunWithContext.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// HubService wraps the websocket hub as a supervised service.
type HubService struct {
	hub ContextRunner
}

// NewHubService creates the hub wrapper.
func NewHubService(hub ContextRunner) *HubService {
	return &HubService{hub: hub}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer.
func (s *HubService) String() string { return "websocket-hub" }

// ServiceFunc adapts a named func(ctx) error to suture.Service. Used
// for the queue consumers, whose Serve methods already block until
// cancellation.
type ServiceFunc struct {
	Name string
	Run  func(ctx context.Context) error
}

// Serve implements suture.Service.
func (s ServiceFunc) Serve(ctx context.Context) error {
	return s.Run(ctx)
}

// String implements fmt.Stringer.
func (s ServiceFunc) String() string { return s.Name }

// BrokerServer matches pipeline.EmbeddedServer's lifecycle.
type BrokerServer interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// BrokerService supervises an already-started embedded NATS server:
// it holds the server open until the context is canceled, then shuts
// it down. If the server dies underneath us the service returns an
// error so suture logs the failure.
type BrokerService struct {
	server          BrokerServer
	shutdownTimeout time.Duration
	checkInterval   time.Duration
}

// NewBrokerService creates the broker wrapper.
func NewBrokerService(server BrokerServer, shutdownTimeout time.Duration) *BrokerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &BrokerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		checkInterval:   5 * time.Second,
	}
}

// Serve implements suture.Service.
func (s *BrokerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("broker shutdown: %w", err)
			}
			return ctx.Err()
		case <-ticker.C:
			if !s.server.IsRunning() {
				return errors.New("embedded broker stopped unexpectedly")
			}
		}
	}
}

// String implements fmt.Stringer.
func (s *BrokerService) String() string { return "nats-broker" }

// StatsBroadcaster matches websocket.Hub's stats push.
type StatsBroadcaster interface {
	BroadcastStatsUpdate(totalAlerts, activeAlerts int64)
}

// StatsSource produces the current totals for the periodic broadcast.
type StatsSource func(ctx context.Context) (total, active int64, err error)

// StatsBroadcastService periodically pushes alert totals to connected
// websocket clients.
type StatsBroadcastService struct {
	hub      StatsBroadcaster
	source   StatsSource
	interval time.Duration
}

// NewStatsBroadcastService creates the periodic stats broadcaster.
func NewStatsBroadcastService(hub StatsBroadcaster, source StatsSource, interval time.Duration) *StatsBroadcastService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &StatsBroadcastService{hub: hub, source: source, interval: interval}
}

// Serve implements suture.Service. Source errors are skipped, not
// fatal; the next tick retries.
func (s *StatsBroadcastService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			total, active, err := s.source(ctx)
			if err != nil {
				continue
			}
			s.hub.BroadcastStatsUpdate(total, active)
		}
	}
}

// String implements fmt.Stringer.
func (s *StatsBroadcastService) String() string { return "stats-broadcaster" }
