// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package models

import "time"

// ClassificationStats is a point-in-time snapshot of classifier stage
// counters.
type ClassificationStats struct {
	TotalClassifications   int64      `json:"total_classifications"`
	HighThreatCount        int64      `json:"high_threat_count"`
	CriticalCount          int64      `json:"critical_count"`
	AverageThreatScore     float64    `json:"average_threat_score"`
	LastClassificationTime *time.Time `json:"last_classification_time,omitempty"`
	ModelLoaded            bool       `json:"model_loaded"`
}

// AlertStats is a point-in-time snapshot of alert stage counters.
// ActiveAlerts is sourced from the durable store, not the counter set.
type AlertStats struct {
	TotalAlerts     int64      `json:"total_alerts"`
	CriticalCount   int64      `json:"critical_count"`
	HighThreatCount int64      `json:"high_threat_count"`
	Acknowledged    int64      `json:"acknowledged"`
	ActiveAlerts    int64      `json:"active_alerts"`
	LastAlertTime   *time.Time `json:"last_alert_time,omitempty"`
}
