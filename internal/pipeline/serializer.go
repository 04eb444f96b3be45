// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package pipeline

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vigilo/internal/models"
)

// MarshalEnvelope serializes a detection envelope for the queue.
// Invalid envelopes never reach the wire.
func MarshalEnvelope(env *models.DetectionEnvelope) ([]byte, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope %s: %w", env.DetectionID, err)
	}
	return data, nil
}

// UnmarshalEnvelope deserializes and validates a queue payload.
func UnmarshalEnvelope(data []byte) (*models.DetectionEnvelope, error) {
	env := &models.DetectionEnvelope{}
	if err := json.Unmarshal(data, env); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidEnvelope, err)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}

// MarshalTrigger serializes an alert trigger for the queue.
func MarshalTrigger(trigger *models.AlertTrigger) ([]byte, error) {
	if err := trigger.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trigger %s: %w", trigger.DetectionID, err)
	}
	return data, nil
}

// UnmarshalTrigger deserializes and validates an alert trigger.
func UnmarshalTrigger(data []byte) (*models.AlertTrigger, error) {
	trigger := &models.AlertTrigger{}
	if err := json.Unmarshal(data, trigger); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidEnvelope, err)
	}
	if err := trigger.Validate(); err != nil {
		return nil, err
	}
	return trigger, nil
}
