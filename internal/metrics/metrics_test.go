// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPublishOutcomes(t *testing.T) {
	before := testutil.ToFloat64(QueuePublishesTotal.WithLabelValues("detections.incoming", "success"))
	RecordPublish("detections.incoming", nil)
	after := testutil.ToFloat64(QueuePublishesTotal.WithLabelValues("detections.incoming", "success"))
	if after != before+1 {
		t.Errorf("success counter = %f, want %f", after, before+1)
	}

	beforeFail := testutil.ToFloat64(QueuePublishesTotal.WithLabelValues("detections.incoming", "failure"))
	RecordPublish("detections.incoming", errors.New("nats down"))
	afterFail := testutil.ToFloat64(QueuePublishesTotal.WithLabelValues("detections.incoming", "failure"))
	if afterFail != beforeFail+1 {
		t.Errorf("failure counter = %f, want %f", afterFail, beforeFail+1)
	}
}

func TestRecordDBQueryCountsErrors(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("upsert", "threat_classifications"))
	RecordDBQuery("upsert", "threat_classifications", 5*time.Millisecond, errors.New("boom"))
	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("upsert", "threat_classifications"))
	if after != before+1 {
		t.Errorf("error counter = %f, want %f", after, before+1)
	}

	// Successful query must not bump the error counter.
	RecordDBQuery("upsert", "threat_classifications", 5*time.Millisecond, nil)
	final := testutil.ToFloat64(DBQueryErrors.WithLabelValues("upsert", "threat_classifications"))
	if final != after {
		t.Errorf("error counter moved on success: %f -> %f", after, final)
	}
}

func TestRecordClassification(t *testing.T) {
	before := testutil.ToFloat64(ClassificationsTotal.WithLabelValues("critical"))
	RecordClassification("critical", 0.92)
	after := testutil.ToFloat64(ClassificationsTotal.WithLabelValues("critical"))
	if after != before+1 {
		t.Errorf("classification counter = %f, want %f", after, before+1)
	}
}
