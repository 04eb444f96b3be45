// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

// Package metrics provides Prometheus instrumentation for the pipeline:
// token authority decisions, queue publish/consume throughput,
// classification outcomes, alert lifecycle, and API latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Token authority metrics

	TokensIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total number of tokens issued",
		},
		[]string{"kind"}, // "user", "service"
	)

	TokenValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_validations_total",
			Help: "Total number of token validation attempts",
		},
		[]string{"outcome"}, // "valid", "expired", "revoked", "malformed"
	)

	TokenRevocationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_token_revocations_total",
			Help: "Total number of token revocations",
		},
	)

	PermissionDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_permission_denials_total",
			Help: "Total number of permission check denials",
		},
		[]string{"permission"},
	)

	RevocationStoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_revocation_store_entries",
			Help: "Current number of active token grants in the revocation store",
		},
	)

	// Queue metrics

	QueuePublishesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_publishes_total",
			Help: "Total number of messages published to queues",
		},
		[]string{"topic", "outcome"}, // outcome: "success", "failure", "breaker_open"
	)

	QueueConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_consumed_total",
			Help: "Total number of messages consumed from queues",
		},
		[]string{"topic", "outcome"}, // outcome: "processed", "nacked", "poisoned"
	)

	QueueProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queue_processing_duration_seconds",
			Help:    "Time spent processing a consumed message",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)

	// Classification metrics

	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifications_total",
			Help: "Total number of detections classified",
		},
		[]string{"category"},
	)

	ClassificationScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classification_threat_score",
			Help:    "Distribution of computed threat scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	ClassifierFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classifier_fallbacks_total",
			Help: "Total number of classifications served by the rule scorer after model failure",
		},
	)

	// Alert metrics

	AlertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_created_total",
			Help: "Total number of alerts created",
		},
		[]string{"category"},
	)

	AlertsAcknowledgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_acknowledged_total",
			Help: "Total number of alerts acknowledged",
		},
	)

	AlertAckConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_ack_conflicts_total",
			Help: "Total number of acknowledge attempts that lost the conditional update",
		},
	)

	// Store metrics

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// WebSocket metrics

	WSConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connected_clients",
			Help: "Current number of connected alert feed clients",
		},
	)

	WSBroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_broadcasts_total",
			Help: "Total number of alert broadcasts to the feed",
		},
	)
)

// RecordDBQuery records duration and outcome of a store operation.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API call outcome.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordPublish records a queue publish outcome.
func RecordPublish(topic string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	QueuePublishesTotal.WithLabelValues(topic, outcome).Inc()
}

// RecordConsume records a message consumption outcome and duration.
func RecordConsume(topic, outcome string, duration time.Duration) {
	QueueConsumedTotal.WithLabelValues(topic, outcome).Inc()
	QueueProcessingDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

// RecordClassification records a classification outcome.
func RecordClassification(category string, score float64) {
	ClassificationsTotal.WithLabelValues(category).Inc()
	ClassificationScores.Observe(score)
}
