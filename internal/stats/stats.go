// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

// Package stats maintains per-stage in-memory counters. Each stage owns
// one counter set; updates are serialized under a mutex and reads take
// a consistent snapshot. Stats never block the pipeline hot path beyond
// the mutex hold.
package stats

import (
	"sync"
	"time"

	"github.com/tomtom215/vigilo/internal/models"
)

// ClassifierStats tracks classification stage counters.
type ClassifierStats struct {
	mu          sync.Mutex
	total       int64
	highThreat  int64
	critical    int64
	average     float64
	lastEventAt time.Time
	modelLoaded bool
}

// NewClassifierStats creates a zeroed counter set.
func NewClassifierStats() *ClassifierStats {
	return &ClassifierStats{}
}

// SetModelLoaded records whether the weights model is active.
func (s *ClassifierStats) SetModelLoaded(loaded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelLoaded = loaded
}

// Record updates counters for one classification. The running average
// is recomputed under the lock so the increment and the average update
// are one atomic step.
func (s *ClassifierStats) Record(score float64, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	switch category {
	case models.CategoryHighThreat:
		s.highThreat++
	case models.CategoryCritical:
		s.critical++
	}
	n := float64(s.total)
	s.average = (s.average*(n-1) + score) / n
	s.lastEventAt = time.Now()
}

// Snapshot returns a consistent copy of the counters.
func (s *ClassifierStats) Snapshot() models.ClassificationStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.ClassificationStats{
		TotalClassifications: s.total,
		HighThreatCount:      s.highThreat,
		CriticalCount:        s.critical,
		AverageThreatScore:   s.average,
		ModelLoaded:          s.modelLoaded,
	}
	if !s.lastEventAt.IsZero() {
		t := s.lastEventAt
		snap.LastClassificationTime = &t
	}
	return snap
}

// Reset zeroes all counters. Model-loaded state survives the reset
// since it describes the classifier, not the traffic.
func (s *ClassifierStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = 0
	s.highThreat = 0
	s.critical = 0
	s.average = 0
	s.lastEventAt = time.Time{}
}

// AlertCounter tracks alert stage counters.
type AlertCounter struct {
	mu          sync.Mutex
	total       int64
	critical    int64
	highThreat  int64
	acked       int64
	lastAlertAt time.Time
}

// NewAlertCounter creates a zeroed counter set.
func NewAlertCounter() *AlertCounter {
	return &AlertCounter{}
}

// RecordAlert updates counters for one created alert.
func (s *AlertCounter) RecordAlert(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	switch category {
	case models.CategoryCritical:
		s.critical++
	case models.CategoryHighThreat:
		s.highThreat++
	}
	s.lastAlertAt = time.Now()
}

// RecordAcknowledge updates counters for one acknowledged alert.
func (s *AlertCounter) RecordAcknowledge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acked++
}

// Snapshot returns a consistent copy of the counters. ActiveAlerts is
// left zero; the caller fills it from the durable store.
func (s *AlertCounter) Snapshot() models.AlertStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.AlertStats{
		TotalAlerts:     s.total,
		CriticalCount:   s.critical,
		HighThreatCount: s.highThreat,
		Acknowledged:    s.acked,
	}
	if !s.lastAlertAt.IsZero() {
		t := s.lastAlertAt
		snap.LastAlertTime = &t
	}
	return snap
}

// Reset zeroes all counters.
func (s *AlertCounter) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = 0
	s.critical = 0
	s.highThreat = 0
	s.acked = 0
	s.lastAlertAt = time.Time{}
}
