// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

// Package classifier scores detection envelopes into threat
// classifications. Feature extraction is a pure function of the
// envelope; scoring is pluggable, with a rule-based scorer that is
// always available as a fallback.
package classifier

import (
	"github.com/tomtom215/vigilo/internal/models"
)

// vehicleClasses are the detection classes counted as vehicles.
var vehicleClasses = map[string]struct{}{
	"car":        {},
	"truck":      {},
	"motorcycle": {},
	"bus":        {},
}

// threatLevelNumeric maps the edge-assigned threat level to a scalar.
// Unknown levels map to zero.
var threatLevelNumeric = map[string]float64{
	models.ThreatLevelLow:      0.25,
	models.ThreatLevelMedium:   0.5,
	models.ThreatLevelHigh:     0.75,
	models.ThreatLevelCritical: 1.0,
}

// FeatureVector is the numeric view of a detection envelope consumed
// by scorers. All fields are float64 so the weights file can address
// every feature uniformly.
type FeatureVector struct {
	PersonCount        float64 `json:"person_count"`
	VehicleCount       float64 `json:"vehicle_count"`
	AverageConfidence  float64 `json:"average_confidence"`
	MaxConfidence      float64 `json:"max_confidence"`
	DetectionCount     float64 `json:"detection_count"`
	ThreatLevelNumeric float64 `json:"threat_level_numeric"`
	AverageBBoxArea    float64 `json:"average_bbox_area"`
	MaxBBoxArea        float64 `json:"max_bbox_area"`
}

// ExtractFeatures derives the feature vector from an envelope.
// An envelope with no detections yields zero confidence and area
// features but still carries the threat level.
func ExtractFeatures(env *models.DetectionEnvelope) FeatureVector {
	fv := FeatureVector{
		DetectionCount:     float64(len(env.Detections)),
		ThreatLevelNumeric: threatLevelNumeric[env.ThreatLevel],
	}

	if len(env.Detections) == 0 {
		return fv
	}

	var confSum, areaSum float64
	for i := range env.Detections {
		d := &env.Detections[i]

		if d.Class == "person" {
			fv.PersonCount++
		} else if _, ok := vehicleClasses[d.Class]; ok {
			fv.VehicleCount++
		}

		confSum += d.Confidence
		if d.Confidence > fv.MaxConfidence {
			fv.MaxConfidence = d.Confidence
		}

		area := d.Area()
		areaSum += area
		if area > fv.MaxBBoxArea {
			fv.MaxBBoxArea = area
		}
	}

	n := float64(len(env.Detections))
	fv.AverageConfidence = confSum / n
	fv.AverageBBoxArea = areaSum / n
	return fv
}
