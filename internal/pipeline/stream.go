// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package pipeline

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/vigilo/internal/logging"
)

// StreamManager owns the JetStream stream lifecycle for the detection
// and alert queues.
type StreamManager struct {
	js jetstream.JetStream
	nc *nats.Conn
}

// NewStreamManager creates a stream manager over an existing NATS
// connection.
func NewStreamManager(nc *nats.Conn) (*StreamManager, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return &StreamManager{js: js, nc: nc}, nil
}

// EnsureStream creates or updates one stream.
func (m *StreamManager) EnsureStream(ctx context.Context, cfg StreamConfig) (jetstream.Stream, error) {
	streamCfg := jetstream.StreamConfig{
		Name:        cfg.Name,
		Subjects:    cfg.Subjects,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      cfg.MaxAge,
		MaxBytes:    cfg.MaxBytes,
		MaxMsgs:     cfg.MaxMsgs,
		Duplicates:  cfg.DuplicateWindow,
		Replicas:    cfg.Replicas,
		Storage:     jetstream.FileStorage,
		AllowDirect: true,
		Discard:     jetstream.DiscardOld,
	}

	if _, err := m.js.Stream(ctx, cfg.Name); err == nil {
		stream, err := m.js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to update stream %s: %w", cfg.Name, err)
		}
		return stream, nil
	}

	stream, err := m.js.CreateStream(ctx, streamCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream %s: %w", cfg.Name, err)
	}
	logging.Info().Str("stream", cfg.Name).Strs("subjects", cfg.Subjects).Msg("Stream created")
	return stream, nil
}

// EnsureAll provisions the detection and alert streams.
func (m *StreamManager) EnsureAll(ctx context.Context, maxBytes int64) error {
	for _, cfg := range []StreamConfig{
		DetectionStreamConfig(maxBytes),
		AlertStreamConfig(maxBytes),
	} {
		if _, err := m.EnsureStream(ctx, cfg); err != nil {
			return err
		}
	}
	return nil
}

// StreamInfo returns current state for one stream.
func (m *StreamManager) StreamInfo(ctx context.Context, name string) (*jetstream.StreamInfo, error) {
	stream, err := m.js.Stream(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream %s: %w", name, err)
	}
	return stream.Info(ctx)
}
