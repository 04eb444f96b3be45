// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package pipeline

import (
	"testing"
	"time"

	"github.com/tomtom215/vigilo/internal/config"
)

func TestSubscriberConfigFor(t *testing.T) {
	natsCfg := &config.NATSConfig{
		URL:              "nats://localhost:4222",
		DurableName:      "vigilo-processor",
		QueueGroup:       "processors",
		SubscribersCount: 4,
		AckWait:          30 * time.Second,
		RetryCount:       3,
		CloseTimeout:     10 * time.Second,
	}

	cfg := SubscriberConfigFor(natsCfg, StreamDetections, "detections")

	if cfg.DurableName != "vigilo-processor-detections" {
		t.Errorf("DurableName = %q", cfg.DurableName)
	}
	if cfg.StreamName != StreamDetections {
		t.Errorf("StreamName = %q", cfg.StreamName)
	}
	// Retries plus the first delivery.
	if cfg.MaxDeliver != 4 {
		t.Errorf("MaxDeliver = %d, want 4", cfg.MaxDeliver)
	}
	if cfg.AckWaitTimeout != 30*time.Second {
		t.Errorf("AckWaitTimeout = %v", cfg.AckWaitTimeout)
	}
	if cfg.QueueGroup != "processors" || cfg.SubscribersCount != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestStreamConfigsCoverTopics(t *testing.T) {
	det := DetectionStreamConfig(0)
	if det.Name != StreamDetections || det.Subjects[0] != "detections.>" {
		t.Errorf("detection stream = %+v", det)
	}
	alerts := AlertStreamConfig(0)
	if alerts.Name != StreamAlerts || alerts.Subjects[0] != "alerts.>" {
		t.Errorf("alert stream = %+v", alerts)
	}
	if det.DuplicateWindow <= 0 || alerts.DuplicateWindow <= 0 {
		t.Error("duplicate window must be positive for publish dedup")
	}
}
