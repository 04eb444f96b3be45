// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package pipeline

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/vigilo/internal/classifier"
	"github.com/tomtom215/vigilo/internal/logging"
	"github.com/tomtom215/vigilo/internal/metrics"
	"github.com/tomtom215/vigilo/internal/models"
	"github.com/tomtom215/vigilo/internal/stats"
)

// ClassificationStore is the durable sink for classifications.
type ClassificationStore interface {
	UpsertClassification(ctx context.Context, c *models.ThreatClassification) error
}

// TriggerPublisher publishes alert triggers.
type TriggerPublisher interface {
	PublishTrigger(ctx context.Context, trigger *models.AlertTrigger) error
}

// ClassifierConsumer drains the detection queue: extract features,
// score, commit the classification, then publish an alert trigger when
// the score crosses the threshold.
//
// Error split: payloads that can never parse go to the poison topic
// and are acked (redelivery cannot fix them); store and publish
// failures are nacked for backoff redelivery. The idempotent upsert
// makes redelivery converge.
type ClassifierConsumer struct {
	classifier  *classifier.Classifier
	store       ClassificationStore
	stats       *stats.ClassifierStats
	publisher   TriggerPublisher
	poison      message.Publisher
	poisonTopic string
}

// NewClassifierConsumer wires the consumer. poison may be nil, in
// which case unparseable payloads are dropped after logging.
func NewClassifierConsumer(
	c *classifier.Classifier,
	store ClassificationStore,
	st *stats.ClassifierStats,
	publisher TriggerPublisher,
	poison message.Publisher,
	poisonTopic string,
) *ClassifierConsumer {
	st.SetModelLoaded(c.ModelLoaded())
	return &ClassifierConsumer{
		classifier:  c,
		store:       store,
		stats:       st,
		publisher:   publisher,
		poison:      poison,
		poisonTopic: poisonTopic,
	}
}

// Serve consumes the detection topic until the context is canceled.
func (c *ClassifierConsumer) Serve(ctx context.Context, sub message.Subscriber) error {
	return RunHandler(ctx, sub, TopicDetections, c.Handle)
}

// Handle processes one detection envelope.
func (c *ClassifierConsumer) Handle(ctx context.Context, msg *message.Message) error {
	env, err := UnmarshalEnvelope(msg.Payload)
	if err != nil {
		// Permanently malformed; park it and move on.
		c.sendToPoison(msg, err)
		return nil
	}

	classification, err := c.classifier.Classify(env)
	if err != nil {
		c.sendToPoison(msg, err)
		return nil
	}

	if err := c.store.UpsertClassification(ctx, classification); err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("detection_id", env.DetectionID).
			Msg("Classification commit failed")
		return err
	}

	c.stats.Record(classification.ThreatScore, classification.ThreatCategory)

	if classification.ShouldAlert() {
		trigger := &models.AlertTrigger{
			DetectionID:    classification.DetectionID,
			ThreatScore:    classification.ThreatScore,
			ThreatCategory: classification.ThreatCategory,
			Explanation:    classification.Explanation,
			Timestamp:      time.Now().UTC(),
		}
		if err := c.publisher.PublishTrigger(ctx, trigger); err != nil {
			// Nack so the whole item retries; the upsert above is
			// idempotent, only the trigger publish is outstanding.
			logging.Ctx(ctx).Error().Err(err).
				Str("detection_id", env.DetectionID).
				Msg("Alert trigger publish failed")
			return err
		}
	}

	logging.Ctx(ctx).Debug().
		Str("detection_id", env.DetectionID).
		Float64("threat_score", classification.ThreatScore).
		Str("threat_category", classification.ThreatCategory).
		Msg("Detection classified")
	return nil
}

func (c *ClassifierConsumer) sendToPoison(msg *message.Message, cause error) {
	metrics.QueueConsumedTotal.WithLabelValues(TopicDetections, "poisoned").Inc()

	if c.poison == nil {
		logging.Warn().Err(cause).Str("message_uuid", msg.UUID).Msg("Dropping unprocessable detection")
		return
	}

	poisoned := message.NewMessage(watermill.NewUUID(), msg.Payload)
	poisoned.Metadata.Set("poison_cause", cause.Error())
	poisoned.Metadata.Set("original_uuid", msg.UUID)
	if err := c.poison.Publish(c.poisonTopic, poisoned); err != nil {
		logging.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Poison publish failed, dropping message")
		return
	}
	logging.Warn().Err(cause).Str("message_uuid", msg.UUID).Msg("Detection sent to poison topic")
}
