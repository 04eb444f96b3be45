// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package classifier

import (
	"fmt"
	"math"
	"os"

	"github.com/goccy/go-json"
)

// Scorer produces a threat probability in [0, 1] from a feature
// vector.
type Scorer interface {
	// PredictProbability returns the threat probability for the
	// features. Implementations must return values in [0, 1].
	PredictProbability(fv FeatureVector) (float64, error)

	// Name identifies the scorer in logs and explanations.
	Name() string
}

// RuleScorer is the deterministic baseline scorer. It is always
// available and serves as the fallback when a trained model cannot be
// loaded or fails at predict time.
type RuleScorer struct{}

// NewRuleScorer returns the rule-based scorer.
func NewRuleScorer() *RuleScorer {
	return &RuleScorer{}
}

// Name implements Scorer.
func (s *RuleScorer) Name() string { return "rule" }

// PredictProbability computes the weighted heuristic score
//
//	0.2*person_count + 0.3*vehicle_count + 0.3*average_confidence + 0.2*threat_level
//
// clamped to [0, 1]. Counts above roughly three saturate the score.
func (s *RuleScorer) PredictProbability(fv FeatureVector) (float64, error) {
	score := 0.2*fv.PersonCount +
		0.3*fv.VehicleCount +
		0.3*fv.AverageConfidence +
		0.2*fv.ThreatLevelNumeric
	return clamp(score), nil
}

// ModelWeights is the on-disk format of a trained logistic model.
// Feature names match the FeatureVector JSON tags; unknown names are
// rejected at load time so a typo cannot silently drop a weight.
type ModelWeights struct {
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
}

var featureNames = map[string]func(FeatureVector) float64{
	"person_count":         func(fv FeatureVector) float64 { return fv.PersonCount },
	"vehicle_count":        func(fv FeatureVector) float64 { return fv.VehicleCount },
	"average_confidence":   func(fv FeatureVector) float64 { return fv.AverageConfidence },
	"max_confidence":       func(fv FeatureVector) float64 { return fv.MaxConfidence },
	"detection_count":      func(fv FeatureVector) float64 { return fv.DetectionCount },
	"threat_level_numeric": func(fv FeatureVector) float64 { return fv.ThreatLevelNumeric },
	"average_bbox_area":    func(fv FeatureVector) float64 { return fv.AverageBBoxArea },
	"max_bbox_area":        func(fv FeatureVector) float64 { return fv.MaxBBoxArea },
}

// WeightsScorer applies a logistic model loaded from a JSON weights
// file.
type WeightsScorer struct {
	weights ModelWeights
	path    string
}

// LoadWeightsScorer reads and validates a weights file.
func LoadWeightsScorer(path string) (*WeightsScorer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights file: %w", err)
	}

	var weights ModelWeights
	if err := json.Unmarshal(data, &weights); err != nil {
		return nil, fmt.Errorf("failed to parse weights file: %w", err)
	}
	if len(weights.Weights) == 0 {
		return nil, fmt.Errorf("weights file %s has no weights", path)
	}
	for name := range weights.Weights {
		if _, ok := featureNames[name]; !ok {
			return nil, fmt.Errorf("weights file %s references unknown feature %q", path, name)
		}
	}

	return &WeightsScorer{weights: weights, path: path}, nil
}

// Name implements Scorer.
func (s *WeightsScorer) Name() string { return "weights" }

// PredictProbability computes sigmoid(bias + sum(w_i * f_i)).
func (s *WeightsScorer) PredictProbability(fv FeatureVector) (float64, error) {
	z := s.weights.Bias
	for name, w := range s.weights.Weights {
		z += w * featureNames[name](fv)
	}
	return 1.0 / (1.0 + math.Exp(-z)), nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
