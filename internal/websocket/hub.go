// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

// Package websocket pushes live alert traffic to connected operator
// consoles. The hub owns the client set; clients are dumb pipes
// between their connection and the hub.
package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/vigilo/internal/logging"
	"github.com/tomtom215/vigilo/internal/metrics"
	"github.com/tomtom215/vigilo/internal/models"
)

// Message types pushed to clients.
const (
	MessageTypeAlert       = "alert"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
	MessageTypeStatsUpdate = "stats_update"
)

// Message is the framing for all hub-to-client traffic.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to
// them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub event loop until the context is
// canceled, then closes every client. Lifecycle events take priority
// over broadcasts so the client set is consistent before delivery.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnectedClients.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("Websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnectedClients.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("Websocket client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := sortedClients(h.clients)
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WSConnectedClients.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", len(clients)).
		AnErr("reason", ctx.Err()).
		Msg("Websocket hub stopped")
}

// broadcastToClients delivers a message to every client. Clients that
// cannot keep up are dropped rather than allowed to stall the hub.
// Iteration order is by client ID so delivery is deterministic.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var toRemove []*Client
	for _, client := range sortedClients(h.clients) {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		logging.Warn().Uint64("client_id", client.id).Msg("Dropping slow websocket client")
	}
	metrics.WSBroadcastsTotal.Inc()
}

func sortedClients(set map[*Client]bool) []*Client {
	clients := make([]*Client, 0, len(set))
	for client := range set {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// BroadcastAlert pushes a triggered alert to all connected consoles.
// Never blocks; if the broadcast buffer is full the alert is dropped
// from the live feed (it remains in the store).
func (h *Hub) BroadcastAlert(alert *models.Alert) {
	message := Message{Type: MessageTypeAlert, Data: alert}
	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("alert_id", alert.AlertID).Msg("Broadcast channel full, dropping alert message")
	}
}

// StatsUpdateData is the payload of a stats_update push.
type StatsUpdateData struct {
	Timestamp    string `json:"timestamp"`
	TotalAlerts  int64  `json:"total_alerts"`
	ActiveAlerts int64  `json:"active_alerts"`
}

// BroadcastStatsUpdate pushes an alert stats refresh to all clients.
func (h *Hub) BroadcastStatsUpdate(totalAlerts, activeAlerts int64) {
	data := StatsUpdateData{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		TotalAlerts:  totalAlerts,
		ActiveAlerts: activeAlerts,
	}
	message := Message{Type: MessageTypeStatsUpdate, Data: data}
	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Msg("Broadcast channel full, dropping stats_update message")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
