// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

// Package models defines the domain types shared across the pipeline:
// detection envelopes, classifications, alerts, and the API envelope.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Threat levels attached to detection envelopes by the camera edge.
const (
	ThreatLevelLow      = "low"
	ThreatLevelMedium   = "medium"
	ThreatLevelHigh     = "high"
	ThreatLevelCritical = "critical"
)

// ErrInvalidEnvelope indicates a detection envelope that fails structural validation.
var ErrInvalidEnvelope = errors.New("invalid detection envelope")

// ObjectDetection is a single detected object within a frame.
//
// BBox is [x1, y1, x2, y2] in pixel coordinates.
type ObjectDetection struct {
	Class      string     `json:"class" validate:"required"`
	Confidence float64    `json:"confidence" validate:"gte=0,lte=1"`
	BBox       [4]float64 `json:"bbox"`
}

// Area returns the bounding box area in square pixels.
// Degenerate boxes (inverted coordinates) yield zero.
func (d *ObjectDetection) Area() float64 {
	w := d.BBox[2] - d.BBox[0]
	h := d.BBox[3] - d.BBox[1]
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// DetectionEnvelope is the immutable unit of work flowing through the
// detection queue. Envelopes are produced by the ingest surface and
// consumed by the classifier; they are never mutated after publish.
type DetectionEnvelope struct {
	DetectionID string            `json:"detection_id" validate:"required"`
	CameraID    string            `json:"camera_id" validate:"required"`
	Timestamp   time.Time         `json:"timestamp" validate:"required"`
	Detections  []ObjectDetection `json:"detections"`
	ThreatLevel string            `json:"threat_level" validate:"required,oneof=low medium high critical"`
}

// Validate checks structural integrity of the envelope.
func (e *DetectionEnvelope) Validate() error {
	if e.DetectionID == "" {
		return fmt.Errorf("%w: detection_id is required", ErrInvalidEnvelope)
	}
	if e.CameraID == "" {
		return fmt.Errorf("%w: camera_id is required", ErrInvalidEnvelope)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidEnvelope)
	}
	switch e.ThreatLevel {
	case ThreatLevelLow, ThreatLevelMedium, ThreatLevelHigh, ThreatLevelCritical:
	default:
		return fmt.Errorf("%w: unknown threat_level %q", ErrInvalidEnvelope, e.ThreatLevel)
	}
	for i := range e.Detections {
		d := &e.Detections[i]
		if d.Class == "" {
			return fmt.Errorf("%w: detection %d missing class", ErrInvalidEnvelope, i)
		}
		if d.Confidence < 0 || d.Confidence > 1 {
			return fmt.Errorf("%w: detection %d confidence %f out of range", ErrInvalidEnvelope, i, d.Confidence)
		}
	}
	return nil
}

// AlertTrigger is the message published to the alert queue when a
// classification crosses the alert threshold.
type AlertTrigger struct {
	DetectionID    string    `json:"detection_id" validate:"required"`
	ThreatScore    float64   `json:"threat_score" validate:"gte=0,lte=1"`
	ThreatCategory string    `json:"threat_category" validate:"required"`
	Explanation    string    `json:"explanation"`
	Timestamp      time.Time `json:"timestamp"`
}

// Validate checks structural integrity of the trigger.
func (t *AlertTrigger) Validate() error {
	if t.DetectionID == "" {
		return fmt.Errorf("%w: detection_id is required", ErrInvalidEnvelope)
	}
	if t.ThreatScore < 0 || t.ThreatScore > 1 {
		return fmt.Errorf("%w: threat_score %f out of range", ErrInvalidEnvelope, t.ThreatScore)
	}
	if t.ThreatCategory == "" {
		return fmt.Errorf("%w: threat_category is required", ErrInvalidEnvelope)
	}
	return nil
}
