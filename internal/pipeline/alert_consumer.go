// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package pipeline

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/tomtom215/vigilo/internal/cache"
	"github.com/tomtom215/vigilo/internal/logging"
	"github.com/tomtom215/vigilo/internal/metrics"
	"github.com/tomtom215/vigilo/internal/models"
	"github.com/tomtom215/vigilo/internal/stats"
)

// AlertStore is the durable sink for alerts.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert *models.Alert) (bool, error)
}

// AlertBroadcaster pushes new alerts to live consumers.
type AlertBroadcaster interface {
	BroadcastAlert(alert *models.Alert)
}

// AlertConsumer drains the alert queue: mint a time-ordered alert ID,
// insert idempotently, then update stats, the recent cache, and the
// live feed. Side effects run only when the insert actually landed, so
// a redelivered trigger is a pure no-op.
type AlertConsumer struct {
	store       AlertStore
	counter     *stats.AlertCounter
	recent      *cache.RecentAlerts
	broadcaster AlertBroadcaster
}

// NewAlertConsumer wires the consumer. broadcaster may be nil.
func NewAlertConsumer(store AlertStore, counter *stats.AlertCounter, recent *cache.RecentAlerts, broadcaster AlertBroadcaster) *AlertConsumer {
	return &AlertConsumer{
		store:       store,
		counter:     counter,
		recent:      recent,
		broadcaster: broadcaster,
	}
}

// Serve consumes the alert topic until the context is canceled.
func (c *AlertConsumer) Serve(ctx context.Context, sub message.Subscriber) error {
	return RunHandler(ctx, sub, TopicAlerts, c.Handle)
}

// Handle processes one alert trigger.
func (c *AlertConsumer) Handle(ctx context.Context, msg *message.Message) error {
	trigger, err := UnmarshalTrigger(msg.Payload)
	if err != nil {
		// Triggers are produced in-process; a malformed one is a bug,
		// not something redelivery can repair.
		metrics.QueueConsumedTotal.WithLabelValues(TopicAlerts, "poisoned").Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping unprocessable alert trigger")
		return nil
	}

	alert := &models.Alert{
		AlertID:        newAlertID(),
		DetectionID:    trigger.DetectionID,
		ThreatScore:    trigger.ThreatScore,
		ThreatCategory: trigger.ThreatCategory,
		Explanation:    trigger.Explanation,
		Timestamp:      trigger.Timestamp,
		CreatedAt:      time.Now().UTC(),
	}

	inserted, err := c.store.InsertAlert(ctx, alert)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("detection_id", trigger.DetectionID).
			Msg("Alert insert failed")
		return err
	}
	if !inserted {
		logging.Ctx(ctx).Debug().
			Str("detection_id", trigger.DetectionID).
			Msg("Alert already recorded for detection")
		return nil
	}

	c.counter.RecordAlert(alert.ThreatCategory)
	c.recent.Push(alert)
	if c.broadcaster != nil {
		c.broadcaster.BroadcastAlert(alert)
	}
	metrics.AlertsCreatedTotal.WithLabelValues(alert.ThreatCategory).Inc()

	logging.Ctx(ctx).Info().
		Str("alert_id", alert.AlertID).
		Str("detection_id", alert.DetectionID).
		Float64("threat_score", alert.ThreatScore).
		Str("threat_category", alert.ThreatCategory).
		Msg("Alert created")
	return nil
}

// newAlertID mints a time-ordered UUIDv7 so alert IDs sort by creation
// time. Falls back to v4 if the clock source misbehaves.
func newAlertID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
