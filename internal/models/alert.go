// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package models

import "time"

// Alert is a durable, acknowledgeable record created from an
// AlertTrigger. AlertID is a UUIDv7 so IDs sort by creation time.
type Alert struct {
	AlertID        string     `json:"alert_id"`
	DetectionID    string     `json:"detection_id"`
	ThreatScore    float64    `json:"threat_score"`
	ThreatCategory string     `json:"threat_category"`
	Explanation    string     `json:"explanation"`
	Timestamp      time.Time  `json:"timestamp"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at,omitempty"`
}

// AlertFilter narrows ListAlerts queries. Nil pointer fields mean
// "no constraint".
type AlertFilter struct {
	Acknowledged *bool
	Category     string
	Limit        int
}
