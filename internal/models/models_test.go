// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package models

import (
	"errors"
	"testing"
	"time"
)

func validEnvelope() DetectionEnvelope {
	return DetectionEnvelope{
		DetectionID: "det-001",
		CameraID:    "cam-03",
		Timestamp:   time.Now(),
		Detections: []ObjectDetection{
			{Class: "person", Confidence: 0.91, BBox: [4]float64{10, 10, 50, 120}},
		},
		ThreatLevel: ThreatLevelMedium,
	}
}

func TestDetectionEnvelopeValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DetectionEnvelope)
		wantErr bool
	}{
		{"valid", func(e *DetectionEnvelope) {}, false},
		{"empty detections ok", func(e *DetectionEnvelope) { e.Detections = nil }, false},
		{"missing detection_id", func(e *DetectionEnvelope) { e.DetectionID = "" }, true},
		{"missing camera_id", func(e *DetectionEnvelope) { e.CameraID = "" }, true},
		{"zero timestamp", func(e *DetectionEnvelope) { e.Timestamp = time.Time{} }, true},
		{"bad threat level", func(e *DetectionEnvelope) { e.ThreatLevel = "apocalyptic" }, true},
		{"missing class", func(e *DetectionEnvelope) { e.Detections[0].Class = "" }, true},
		{"confidence above one", func(e *DetectionEnvelope) { e.Detections[0].Confidence = 1.5 }, true},
		{"negative confidence", func(e *DetectionEnvelope) { e.Detections[0].Confidence = -0.1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := validEnvelope()
			tt.mutate(&env)
			err := env.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidEnvelope) {
				t.Errorf("error %v does not wrap ErrInvalidEnvelope", err)
			}
		})
	}
}

func TestObjectDetectionArea(t *testing.T) {
	tests := []struct {
		name string
		bbox [4]float64
		want float64
	}{
		{"normal box", [4]float64{0, 0, 10, 20}, 200},
		{"offset box", [4]float64{5, 5, 15, 10}, 50},
		{"inverted box", [4]float64{10, 10, 5, 5}, 0},
		{"zero width", [4]float64{10, 0, 10, 20}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ObjectDetection{BBox: tt.bbox}
			if got := d.Area(); got != tt.want {
				t.Errorf("Area() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestShouldAlertThresholdIsStrict(t *testing.T) {
	tests := []struct {
		score float64
		want  bool
	}{
		{0.61, true},
		{0.60, false},
		{0.59, false},
		{1.0, true},
		{0.0, false},
	}

	for _, tt := range tests {
		c := ThreatClassification{ThreatScore: tt.score}
		if got := c.ShouldAlert(); got != tt.want {
			t.Errorf("ShouldAlert() with score %f = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestAlertTriggerValidate(t *testing.T) {
	trigger := AlertTrigger{
		DetectionID:    "det-001",
		ThreatScore:    0.75,
		ThreatCategory: CategoryHighThreat,
		Timestamp:      time.Now(),
	}
	if err := trigger.Validate(); err != nil {
		t.Fatalf("valid trigger rejected: %v", err)
	}

	trigger.ThreatScore = 1.2
	if err := trigger.Validate(); err == nil {
		t.Error("out-of-range score accepted")
	}

	trigger.ThreatScore = 0.75
	trigger.ThreatCategory = ""
	if err := trigger.Validate(); err == nil {
		t.Error("empty category accepted")
	}
}
