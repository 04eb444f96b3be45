// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package models

import "time"

// Threat categories assigned by the classifier, ordered by severity.
const (
	CategoryBenign     = "benign"
	CategorySuspicious = "suspicious"
	CategoryHighThreat = "high_threat"
	CategoryCritical   = "critical"
)

// AlertThreshold is the strict lower bound a threat score must exceed
// before an alert trigger is published. A score of exactly 0.6 does
// not alert.
const AlertThreshold = 0.6

// ThreatClassification is the durable result of scoring one detection
// envelope. Keyed by DetectionID; reclassification of the same
// detection overwrites (last write wins).
type ThreatClassification struct {
	DetectionID    string    `json:"detection_id"`
	CameraID       string    `json:"camera_id"`
	ThreatScore    float64   `json:"threat_score"`
	ThreatCategory string    `json:"threat_category"`
	Confidence     float64   `json:"confidence"`
	Features       string    `json:"features,omitempty"`
	Explanation    string    `json:"explanation"`
	Timestamp      time.Time `json:"timestamp"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// ShouldAlert reports whether this classification crosses the alert
// threshold. The comparison is strict.
func (c *ThreatClassification) ShouldAlert() bool {
	return c.ThreatScore > AlertThreshold
}
