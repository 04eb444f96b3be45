// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

// Package pipeline moves detections through classification to alerts
// over NATS JetStream. Delivery is at-least-once with
// acknowledge-after-commit: a consumer acks only once its writes are
// durable, so items popped but never processed are redelivered after
// AckWait.
package pipeline

import (
	"time"

	"github.com/tomtom215/vigilo/internal/config"
)

// Queue topics.
const (
	TopicDetections = "detections.incoming"
	TopicAlerts     = "alerts.triggered"
)

// Stream names.
const (
	StreamDetections = "DETECTIONS"
	StreamAlerts     = "ALERTS"
)

// PublisherConfig holds publisher connection settings.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool //nolint:revive // ID is correct per Go conventions
}

// DefaultPublisherConfig returns production defaults for the publisher.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024,
		EnableTrackMsgID: true,
	}
}

// SubscriberConfig holds durable consumer settings.
type SubscriberConfig struct {
	URL              string
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration

	// StreamName binds the subscriber to a pre-created stream.
	StreamName string
}

// SubscriberConfigFor derives a subscriber config for one stream from
// the application NATS settings. The durable name is suffixed per
// stream so each consumer tracks its own delivery state.
func SubscriberConfigFor(cfg *config.NATSConfig, streamName, durableSuffix string) SubscriberConfig {
	return SubscriberConfig{
		URL:              cfg.URL,
		DurableName:      cfg.DurableName + "-" + durableSuffix,
		QueueGroup:       cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWait,
		MaxDeliver:       cfg.RetryCount + 1,
		MaxAckPending:    1000,
		CloseTimeout:     cfg.CloseTimeout,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		StreamName:       streamName,
	}
}

// StreamConfig defines one JetStream stream.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DetectionStreamConfig returns the detection queue stream settings.
func DetectionStreamConfig(maxBytes int64) StreamConfig {
	return StreamConfig{
		Name:            StreamDetections,
		Subjects:        []string{"detections.>"},
		MaxAge:          7 * 24 * time.Hour,
		MaxBytes:        maxBytes,
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// AlertStreamConfig returns the alert queue stream settings.
func AlertStreamConfig(maxBytes int64) StreamConfig {
	return StreamConfig{
		Name:            StreamAlerts,
		Subjects:        []string{"alerts.>"},
		MaxAge:          7 * 24 * time.Hour,
		MaxBytes:        maxBytes,
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// ServerConfig holds embedded NATS server settings.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns defaults for the embedded NATS server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   1 << 30,
		JetStreamMaxStore: 10 << 30,
	}
}

// CircuitBreakerConfig holds circuit breaker settings for publishes.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultCircuitBreakerConfig returns production defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}
