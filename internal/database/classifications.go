// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/vigilo/internal/metrics"
	"github.com/tomtom215/vigilo/internal/models"
)

// UpsertClassification stores a classification, overwriting any prior
// row for the same detection. Last write wins; queue redelivery
// converges on the most recent scoring.
func (db *DB) UpsertClassification(ctx context.Context, c *models.ThreatClassification) error {
	start := time.Now()

	query := `
		INSERT INTO threat_classifications
			(detection_id, camera_id, threat_score, threat_category,
			 confidence, features, explanation, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (detection_id) DO UPDATE SET
			camera_id = excluded.camera_id,
			threat_score = excluded.threat_score,
			threat_category = excluded.threat_category,
			confidence = excluded.confidence,
			features = excluded.features,
			explanation = excluded.explanation,
			timestamp = excluded.timestamp,
			created_at = excluded.created_at`

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx, query,
		c.DetectionID, c.CameraID, c.ThreatScore, c.ThreatCategory,
		c.Confidence, c.Features, c.Explanation, c.Timestamp, createdAt)
	metrics.RecordDBQuery("upsert", "threat_classifications", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert classification %s: %w", c.DetectionID, err)
	}
	return nil
}

// GetClassification returns the classification for a detection ID, or
// ErrNotFound.
func (db *DB) GetClassification(ctx context.Context, detectionID string) (*models.ThreatClassification, error) {
	start := time.Now()

	query := `
		SELECT detection_id, camera_id, threat_score, threat_category,
		       confidence, features, explanation, timestamp, created_at
		FROM threat_classifications
		WHERE detection_id = ?`

	c := &models.ThreatClassification{}
	var features, explanation sql.NullString
	err := db.conn.QueryRowContext(ctx, query, detectionID).Scan(
		&c.DetectionID, &c.CameraID, &c.ThreatScore, &c.ThreatCategory,
		&c.Confidence, &features, &explanation, &c.Timestamp, &c.CreatedAt)
	metrics.RecordDBQuery("get", "threat_classifications", time.Since(start), err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get classification %s: %w", detectionID, err)
	}

	c.Features = features.String
	c.Explanation = explanation.String
	return c, nil
}

// CountClassifications returns the total number of stored
// classifications.
func (db *DB) CountClassifications(ctx context.Context) (int64, error) {
	start := time.Now()

	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM threat_classifications`).Scan(&count)
	metrics.RecordDBQuery("count", "threat_classifications", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count classifications: %w", err)
	}
	return count, nil
}
