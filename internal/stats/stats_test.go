// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package stats

import (
	"math"
	"sync"
	"testing"

	"github.com/tomtom215/vigilo/internal/models"
)

func TestClassifierStatsRunningAverage(t *testing.T) {
	s := NewClassifierStats()

	scores := []float64{0.2, 0.4, 0.9}
	for _, score := range scores {
		s.Record(score, models.CategoryBenign)
	}

	snap := s.Snapshot()
	want := (0.2 + 0.4 + 0.9) / 3
	if math.Abs(snap.AverageThreatScore-want) > 1e-9 {
		t.Errorf("average = %f, want %f", snap.AverageThreatScore, want)
	}
	if snap.TotalClassifications != 3 {
		t.Errorf("total = %d, want 3", snap.TotalClassifications)
	}
}

func TestClassifierStatsCategoryCounts(t *testing.T) {
	s := NewClassifierStats()
	s.Record(0.9, models.CategoryCritical)
	s.Record(0.7, models.CategoryHighThreat)
	s.Record(0.7, models.CategoryHighThreat)
	s.Record(0.1, models.CategoryBenign)

	snap := s.Snapshot()
	if snap.CriticalCount != 1 {
		t.Errorf("critical = %d, want 1", snap.CriticalCount)
	}
	if snap.HighThreatCount != 2 {
		t.Errorf("high_threat = %d, want 2", snap.HighThreatCount)
	}
	if snap.LastClassificationTime == nil {
		t.Error("last classification time not set")
	}
}

func TestClassifierStatsReset(t *testing.T) {
	s := NewClassifierStats()
	s.SetModelLoaded(true)
	s.Record(0.5, models.CategorySuspicious)

	s.Reset()

	snap := s.Snapshot()
	if snap.TotalClassifications != 0 || snap.AverageThreatScore != 0 {
		t.Errorf("counters not zeroed: %+v", snap)
	}
	if snap.LastClassificationTime != nil {
		t.Error("last event time survived reset")
	}
	if !snap.ModelLoaded {
		t.Error("model loaded flag should survive reset")
	}
}

func TestClassifierStatsConcurrentRecord(t *testing.T) {
	s := NewClassifierStats()

	const workers = 8
	const perWorker = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				s.Record(0.5, models.CategorySuspicious)
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.TotalClassifications != workers*perWorker {
		t.Errorf("total = %d, want %d", snap.TotalClassifications, workers*perWorker)
	}
	// Every sample was 0.5 so the serialized average must be exact.
	if math.Abs(snap.AverageThreatScore-0.5) > 1e-9 {
		t.Errorf("average = %f, want 0.5", snap.AverageThreatScore)
	}
}

func TestAlertCounter(t *testing.T) {
	s := NewAlertCounter()
	s.RecordAlert(models.CategoryCritical)
	s.RecordAlert(models.CategoryHighThreat)
	s.RecordAcknowledge()

	snap := s.Snapshot()
	if snap.TotalAlerts != 2 {
		t.Errorf("total = %d, want 2", snap.TotalAlerts)
	}
	if snap.CriticalCount != 1 || snap.HighThreatCount != 1 {
		t.Errorf("category counts wrong: %+v", snap)
	}
	if snap.Acknowledged != 1 {
		t.Errorf("acknowledged = %d, want 1", snap.Acknowledged)
	}
	if snap.ActiveAlerts != 0 {
		t.Errorf("active alerts should be left for the store, got %d", snap.ActiveAlerts)
	}

	s.Reset()
	if snap := s.Snapshot(); snap.TotalAlerts != 0 || snap.LastAlertTime != nil {
		t.Errorf("reset failed: %+v", snap)
	}
}
