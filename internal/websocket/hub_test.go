// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/vigilo/internal/models"
)

// newHubClient registers a bare client (no network connection) with a
// running hub.
func newHubClient(t *testing.T, hub *Hub) *Client {
	t.Helper()
	client := NewClient(hub, nil)

	select {
	case hub.Register <- client:
	case <-time.After(time.Second):
		t.Fatal("register timed out")
	}
	waitFor(t, func() bool { return hub.GetClientCount() > 0 })
	return client
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.RunWithContext(ctx) }()

	client := newHubClient(t, hub)
	if hub.GetClientCount() != 1 {
		t.Errorf("count = %d, want 1", hub.GetClientCount())
	}

	hub.Unregister <- client
	waitFor(t, func() bool { return hub.GetClientCount() == 0 })
}

func TestHubBroadcastAlert(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.RunWithContext(ctx) }()

	client := newHubClient(t, hub)

	alert := &models.Alert{AlertID: "alert-ws-1", ThreatCategory: models.CategoryCritical}
	hub.BroadcastAlert(alert)

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeAlert {
			t.Errorf("type = %q, want alert", msg.Type)
		}
		got, ok := msg.Data.(*models.Alert)
		if !ok || got.AlertID != "alert-ws-1" {
			t.Errorf("data = %+v", msg.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
	}
}

func TestHubBroadcastStatsUpdate(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.RunWithContext(ctx) }()

	client := newHubClient(t, hub)

	hub.BroadcastStatsUpdate(42, 7)

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeStatsUpdate {
			t.Errorf("type = %q, want stats_update", msg.Type)
		}
		data, ok := msg.Data.(StatsUpdateData)
		if !ok || data.TotalAlerts != 42 || data.ActiveAlerts != 7 {
			t.Errorf("data = %+v", msg.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	client := newHubClient(t, hub)

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	if hub.GetClientCount() != 0 {
		t.Errorf("count after shutdown = %d", hub.GetClientCount())
	}

	// The client's send channel must be closed.
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("send channel delivered instead of closing")
		}
	case <-time.After(time.Second):
		t.Error("send channel not closed")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.RunWithContext(ctx) }()

	client := newHubClient(t, hub)

	// Fill the client's buffer without draining, then push one more.
	for i := 0; i < cap(client.send)+1; i++ {
		hub.BroadcastAlert(&models.Alert{AlertID: "flood"})
	}

	waitFor(t, func() bool { return hub.GetClientCount() == 0 })
}

func TestClientIDsMonotonic(t *testing.T) {
	a := NewClient(nil, nil)
	b := NewClient(nil, nil)
	if b.ID() <= a.ID() {
		t.Errorf("IDs not increasing: %d then %d", a.ID(), b.ID())
	}
}
