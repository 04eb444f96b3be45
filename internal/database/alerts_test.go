// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/vigilo/internal/models"
)

func TestInsertAlertIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	inserted, err := db.InsertAlert(ctx, testAlert("alert-1", "det-300"))
	if err != nil {
		t.Fatalf("InsertAlert: %v", err)
	}
	if !inserted {
		t.Fatal("first insert reported no-op")
	}

	// A redelivered trigger mints a new alert ID but carries the same
	// detection; the insert must be a no-op.
	inserted, err = db.InsertAlert(ctx, testAlert("alert-2", "det-300"))
	if err != nil {
		t.Fatalf("duplicate InsertAlert: %v", err)
	}
	if inserted {
		t.Error("duplicate detection inserted a second alert")
	}

	if _, err := db.GetAlert(ctx, "alert-1"); err != nil {
		t.Errorf("original alert missing: %v", err)
	}
	if _, err := db.GetAlert(ctx, "alert-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("phantom alert present: %v", err)
	}
}

func TestGetAlertNotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.GetAlert(context.Background(), "alert-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAlert = %v, want ErrNotFound", err)
	}
}

func TestAcknowledgeAlert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.InsertAlert(ctx, testAlert("alert-ack", "det-301")); err != nil {
		t.Fatalf("InsertAlert: %v", err)
	}

	if err := db.AcknowledgeAlert(ctx, "alert-ack", "operator"); err != nil {
		t.Fatalf("AcknowledgeAlert: %v", err)
	}

	got, err := db.GetAlert(ctx, "alert-ack")
	if err != nil {
		t.Fatalf("GetAlert: %v", err)
	}
	if !got.Acknowledged {
		t.Error("alert not marked acknowledged")
	}
	if got.AcknowledgedBy != "operator" {
		t.Errorf("AcknowledgedBy = %q, want operator", got.AcknowledgedBy)
	}
	if got.AcknowledgedAt == nil {
		t.Error("AcknowledgedAt not set")
	}

	// Second acknowledge loses the conditional update.
	if err := db.AcknowledgeAlert(ctx, "alert-ack", "admin"); !errors.Is(err, ErrAlreadyHandled) {
		t.Errorf("second acknowledge = %v, want ErrAlreadyHandled", err)
	}

	// The first acknowledger is preserved.
	got, _ = db.GetAlert(ctx, "alert-ack")
	if got.AcknowledgedBy != "operator" {
		t.Errorf("AcknowledgedBy overwritten to %q", got.AcknowledgedBy)
	}

	if err := db.AcknowledgeAlert(ctx, "alert-none", "operator"); !errors.Is(err, ErrNotFound) {
		t.Errorf("acknowledge missing = %v, want ErrNotFound", err)
	}
}

func TestListAlertsFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		alert := testAlert(fmt.Sprintf("alert-%d", i), fmt.Sprintf("det-%d", i))
		alert.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if i%2 == 0 {
			alert.ThreatCategory = models.CategoryHighThreat
		}
		if _, err := db.InsertAlert(ctx, alert); err != nil {
			t.Fatalf("InsertAlert %d: %v", i, err)
		}
	}
	if err := db.AcknowledgeAlert(ctx, "alert-0", "operator"); err != nil {
		t.Fatalf("AcknowledgeAlert: %v", err)
	}

	// Unfiltered, recency ordered.
	all, err := db.ListAlerts(ctx, models.AlertFilter{})
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("len = %d, want 5", len(all))
	}
	if all[0].AlertID != "alert-4" || all[4].AlertID != "alert-0" {
		t.Errorf("not recency ordered: %s .. %s", all[0].AlertID, all[4].AlertID)
	}

	// Acknowledged filter.
	acked := true
	got, err := db.ListAlerts(ctx, models.AlertFilter{Acknowledged: &acked})
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(got) != 1 || got[0].AlertID != "alert-0" {
		t.Errorf("acknowledged filter = %+v", got)
	}

	unacked := false
	got, err = db.ListAlerts(ctx, models.AlertFilter{Acknowledged: &unacked})
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("unacknowledged len = %d, want 4", len(got))
	}

	// Category filter.
	got, err = db.ListAlerts(ctx, models.AlertFilter{Category: models.CategoryHighThreat})
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("category len = %d, want 3", len(got))
	}

	// Limit.
	got, err = db.ListAlerts(ctx, models.AlertFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("limited len = %d, want 2", len(got))
	}
}

func TestCountUnacknowledged(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := db.InsertAlert(ctx, testAlert(fmt.Sprintf("a-%d", i), fmt.Sprintf("d-%d", i))); err != nil {
			t.Fatalf("InsertAlert: %v", err)
		}
	}
	if err := db.AcknowledgeAlert(ctx, "a-1", "viewer-on-duty"); err != nil {
		t.Fatalf("AcknowledgeAlert: %v", err)
	}

	count, err := db.CountUnacknowledged(ctx)
	if err != nil {
		t.Fatalf("CountUnacknowledged: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}
