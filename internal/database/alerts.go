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
	"strings"
	"time"

	"github.com/tomtom215/vigilo/internal/metrics"
	"github.com/tomtom215/vigilo/internal/models"
)

const defaultAlertLimit = 100
const maxAlertLimit = 1000

// InsertAlert stores a new alert. The unique detection_id makes the
// insert idempotent: a redelivered trigger for an already-alerted
// detection inserts nothing. Returns whether a row was inserted.
func (db *DB) InsertAlert(ctx context.Context, alert *models.Alert) (bool, error) {
	start := time.Now()

	query := `
		INSERT INTO alerts
			(alert_id, detection_id, threat_score, threat_category,
			 explanation, timestamp, acknowledged, created_at)
		VALUES (?, ?, ?, ?, ?, ?, FALSE, ?)
		ON CONFLICT (detection_id) DO NOTHING`

	createdAt := alert.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := db.conn.ExecContext(ctx, query,
		alert.AlertID, alert.DetectionID, alert.ThreatScore,
		alert.ThreatCategory, alert.Explanation, alert.Timestamp, createdAt)
	metrics.RecordDBQuery("insert", "alerts", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to insert alert %s: %w", alert.AlertID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return rows > 0, nil
}

// GetAlert returns the alert with the given ID, or ErrNotFound.
func (db *DB) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	start := time.Now()

	query := selectAlertColumns + ` WHERE alert_id = ?`
	row := db.conn.QueryRowContext(ctx, query, alertID)
	alert, err := scanAlertRow(row)
	metrics.RecordDBQuery("get", "alerts", time.Since(start), err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert %s: %w", alertID, err)
	}
	return alert, nil
}

// ListAlerts returns alerts matching the filter, most recent first.
func (db *DB) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	start := time.Now()

	var conditions []string
	var args []interface{}

	if filter.Acknowledged != nil {
		conditions = append(conditions, "acknowledged = ?")
		args = append(args, *filter.Acknowledged)
	}
	if filter.Category != "" {
		conditions = append(conditions, "threat_category = ?")
		args = append(args, filter.Category)
	}

	query := selectAlertColumns
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAlertLimit
	}
	if limit > maxAlertLimit {
		limit = maxAlertLimit
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("list", "alerts", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer closeQuietly(rows)

	var alerts []*models.Alert
	for rows.Next() {
		alert, err := scanAlertRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}
	return alerts, nil
}

// AcknowledgeAlert marks an alert handled by the given user. The
// acknowledge is a single conditional update; losing a concurrent race
// reads the same as acknowledging twice, ErrAlreadyHandled.
func (db *DB) AcknowledgeAlert(ctx context.Context, alertID, acknowledgedBy string) error {
	start := time.Now()

	query := `
		UPDATE alerts
		SET acknowledged = TRUE, acknowledged_by = ?, acknowledged_at = ?
		WHERE alert_id = ? AND acknowledged = FALSE`

	result, err := db.conn.ExecContext(ctx, query, acknowledgedBy, time.Now().UTC(), alertID)
	metrics.RecordDBQuery("acknowledge", "alerts", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert %s: %w", alertID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read acknowledge result: %w", err)
	}
	if rows > 0 {
		metrics.AlertsAcknowledgedTotal.Inc()
		return nil
	}

	// Zero rows: distinguish missing from already acknowledged.
	var acknowledged bool
	err = db.conn.QueryRowContext(ctx,
		`SELECT acknowledged FROM alerts WHERE alert_id = ?`, alertID).Scan(&acknowledged)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check alert %s: %w", alertID, err)
	}
	metrics.AlertAckConflictsTotal.Inc()
	return ErrAlreadyHandled
}

// CountUnacknowledged returns the number of active (unacknowledged)
// alerts.
func (db *DB) CountUnacknowledged(ctx context.Context) (int64, error) {
	start := time.Now()

	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alerts WHERE acknowledged = FALSE`).Scan(&count)
	metrics.RecordDBQuery("count", "alerts", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count unacknowledged alerts: %w", err)
	}
	return count, nil
}

const selectAlertColumns = `
	SELECT alert_id, detection_id, threat_score, threat_category,
	       explanation, timestamp, acknowledged, acknowledged_by,
	       acknowledged_at, created_at
	FROM alerts`

// scanAlertRow scans a database row into an Alert, handling nullable
// acknowledge fields.
func scanAlertRow(scanner interface {
	Scan(dest ...interface{}) error
}) (*models.Alert, error) {
	alert := &models.Alert{}
	var explanation, acknowledgedBy sql.NullString
	var acknowledgedAt sql.NullTime

	err := scanner.Scan(
		&alert.AlertID, &alert.DetectionID, &alert.ThreatScore,
		&alert.ThreatCategory, &explanation, &alert.Timestamp,
		&alert.Acknowledged, &acknowledgedBy, &acknowledgedAt, &alert.CreatedAt)
	if err != nil {
		return nil, err
	}

	alert.Explanation = explanation.String
	if acknowledgedBy.Valid {
		alert.AcknowledgedBy = acknowledgedBy.String
	}
	if acknowledgedAt.Valid {
		alert.AcknowledgedAt = &acknowledgedAt.Time
	}
	return alert, nil
}
