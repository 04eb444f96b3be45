// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package classifier

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vigilo/internal/logging"
	"github.com/tomtom215/vigilo/internal/metrics"
	"github.com/tomtom215/vigilo/internal/models"
)

// Classifier turns detection envelopes into threat classifications.
// It prefers the configured model scorer and falls back to the rule
// scorer on any predict failure, so classification never stalls the
// pipeline on a bad model.
type Classifier struct {
	scorer      Scorer
	fallback    *RuleScorer
	modelLoaded bool
}

// New creates a classifier around the given scorer. A nil scorer means
// rule-based scoring only.
func New(scorer Scorer) *Classifier {
	fallback := NewRuleScorer()
	modelLoaded := scorer != nil
	if scorer == nil {
		scorer = fallback
	}
	return &Classifier{scorer: scorer, fallback: fallback, modelLoaded: modelLoaded}
}

// NewFromWeightsFile builds a classifier from a weights file path.
// An empty path or a load failure yields the rule-based classifier;
// load failures are logged, not fatal.
func NewFromWeightsFile(path string) *Classifier {
	if path == "" {
		return New(nil)
	}
	scorer, err := LoadWeightsScorer(path)
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Model weights unavailable, using rule scorer")
		metrics.ClassifierFallbacksTotal.Inc()
		return New(nil)
	}
	logging.Info().Str("path", path).Msg("Model weights loaded")
	return New(scorer)
}

// ModelLoaded reports whether a trained model (not the rule fallback)
// is active.
func (c *Classifier) ModelLoaded() bool {
	return c.modelLoaded
}

// Classify scores one envelope. The returned classification carries
// the serialized feature vector and a human-readable explanation.
func (c *Classifier) Classify(env *models.DetectionEnvelope) (*models.ThreatClassification, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}

	fv := ExtractFeatures(env)

	score, err := c.scorer.PredictProbability(fv)
	if err != nil {
		logging.Warn().Err(err).
			Str("scorer", c.scorer.Name()).
			Str("detection_id", env.DetectionID).
			Msg("Scorer failed, falling back to rule scorer")
		metrics.ClassifierFallbacksTotal.Inc()
		score, err = c.fallback.PredictProbability(fv)
		if err != nil {
			return nil, fmt.Errorf("fallback scorer failed: %w", err)
		}
	}
	score = clamp(score)

	category := Categorize(score)
	featuresJSON, err := json.Marshal(fv)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize features: %w", err)
	}

	classification := &models.ThreatClassification{
		DetectionID:    env.DetectionID,
		CameraID:       env.CameraID,
		ThreatScore:    score,
		ThreatCategory: category,
		Confidence:     confidence(score),
		Features:       string(featuresJSON),
		Explanation:    explain(fv, score, category),
		Timestamp:      env.Timestamp,
		CreatedAt:      time.Now().UTC(),
	}

	metrics.RecordClassification(category, score)
	return classification, nil
}

// Categorize maps a threat score to its category. Boundaries are
// strict: a score of exactly 0.8 is high_threat, not critical.
func Categorize(score float64) string {
	switch {
	case score > 0.8:
		return models.CategoryCritical
	case score > 0.6:
		return models.CategoryHighThreat
	case score > 0.4:
		return models.CategorySuspicious
	default:
		return models.CategoryBenign
	}
}

// confidence reflects that higher scores are produced from stronger
// signals. Capped at 1.0.
func confidence(score float64) float64 {
	c := score + 0.1
	if c > 1.0 {
		return 1.0
	}
	return c
}

func explain(fv FeatureVector, score float64, category string) string {
	return fmt.Sprintf("classified %s (score %.2f): %d person(s), %d vehicle(s), avg confidence %.2f",
		category, score, int(fv.PersonCount), int(fv.VehicleCount), fv.AverageConfidence)
}
