// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

// Package cache provides in-memory read structures that front the
// durable stores.
package cache

import (
	"sync"

	"github.com/tomtom215/vigilo/internal/models"
)

// DefaultRecentCapacity bounds the recent-alerts cache.
const DefaultRecentCapacity = 100

// RecentAlerts is a bounded ring of the most recently triggered
// alerts, newest first. It serves the hot "what just happened" read
// path without touching the database.
//
// The cache holds copies; acknowledge state read from it may lag the
// store, which is acceptable for the recent feed.
type RecentAlerts struct {
	mu       sync.RWMutex
	ring     []*models.Alert
	head     int
	size     int
	capacity int
}

// NewRecentAlerts creates the cache. Non-positive capacity uses
// DefaultRecentCapacity.
func NewRecentAlerts(capacity int) *RecentAlerts {
	if capacity <= 0 {
		capacity = DefaultRecentCapacity
	}
	return &RecentAlerts{
		ring:     make([]*models.Alert, capacity),
		capacity: capacity,
	}
}

// Push records a new alert, evicting the oldest when full.
func (c *RecentAlerts) Push(alert *models.Alert) {
	copied := *alert

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ring[c.head] = &copied
	c.head = (c.head + 1) % c.capacity
	if c.size < c.capacity {
		c.size++
	}
}

// Recent returns up to limit alerts, newest first. A non-positive
// limit returns everything cached.
func (c *RecentAlerts) Recent(limit int) []*models.Alert {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := c.size
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]*models.Alert, 0, n)
	for i := 0; i < n; i++ {
		idx := (c.head - 1 - i + c.capacity) % c.capacity
		copied := *c.ring[idx]
		out = append(out, &copied)
	}
	return out
}

// Len returns the number of cached alerts.
func (c *RecentAlerts) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Clear empties the cache.
func (c *RecentAlerts) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ring = make([]*models.Alert, c.capacity)
	c.head = 0
	c.size = 0
}
