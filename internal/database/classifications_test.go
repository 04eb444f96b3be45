// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package database

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestUpsertAndGetClassification(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c := testClassification("det-200", 0.55)
	if err := db.UpsertClassification(ctx, c); err != nil {
		t.Fatalf("UpsertClassification: %v", err)
	}

	got, err := db.GetClassification(ctx, "det-200")
	if err != nil {
		t.Fatalf("GetClassification: %v", err)
	}
	if got.DetectionID != "det-200" || got.CameraID != "cam-west-03" {
		t.Errorf("identity mismatch: %+v", got)
	}
	if math.Abs(got.ThreatScore-0.55) > 1e-9 {
		t.Errorf("ThreatScore = %v, want 0.55", got.ThreatScore)
	}
	if got.Features != `{"person_count":1}` {
		t.Errorf("Features = %q", got.Features)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not populated")
	}
}

func TestUpsertClassificationLastWriteWins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.UpsertClassification(ctx, testClassification("det-201", 0.3)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := testClassification("det-201", 0.9)
	second.ThreatCategory = "critical"
	if err := db.UpsertClassification(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := db.GetClassification(ctx, "det-201")
	if err != nil {
		t.Fatalf("GetClassification: %v", err)
	}
	if math.Abs(got.ThreatScore-0.9) > 1e-9 || got.ThreatCategory != "critical" {
		t.Errorf("reprocessed row not overwritten: %+v", got)
	}

	count, err := db.CountClassifications(ctx)
	if err != nil {
		t.Fatalf("CountClassifications: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestGetClassificationNotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.GetClassification(context.Background(), "det-unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetClassification = %v, want ErrNotFound", err)
	}
}
