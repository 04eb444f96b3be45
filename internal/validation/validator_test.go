// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package validation

import (
	"strings"
	"testing"
)

// ===================================================================================================
// Singleton Validator Tests
// ===================================================================================================

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}

	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

// ===================================================================================================
// ValidateStruct Tests
// ===================================================================================================

type submitRequest struct {
	DetectionID string `validate:"required,min=1,max=128"`
	CameraID    string `validate:"required,min=1,max=64"`
	ThreatLevel string `validate:"required,threat_level"`
	Limit       int    `validate:"omitempty,min=1,max=1000"`
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input submitRequest
	}{
		{
			name: "typical request",
			input: submitRequest{
				DetectionID: "det-001",
				CameraID:    "cam-gate-01",
				ThreatLevel: "high",
				Limit:       100,
			},
		},
		{
			name: "limit omitted",
			input: submitRequest{
				DetectionID: "det-002",
				CameraID:    "cam-fence-02",
				ThreatLevel: "low",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(&tt.input); err != nil {
				t.Errorf("ValidateStruct() = %v, want nil", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     submitRequest
		wantField string
		wantTag   string
	}{
		{
			name: "missing detection ID",
			input: submitRequest{
				CameraID:    "cam-gate-01",
				ThreatLevel: "high",
			},
			wantField: "DetectionID",
			wantTag:   "required",
		},
		{
			name: "unknown threat level",
			input: submitRequest{
				DetectionID: "det-001",
				CameraID:    "cam-gate-01",
				ThreatLevel: "apocalyptic",
			},
			wantField: "ThreatLevel",
			wantTag:   "threat_level",
		},
		{
			name: "limit too large",
			input: submitRequest{
				DetectionID: "det-001",
				CameraID:    "cam-gate-01",
				ThreatLevel: "medium",
				Limit:       5000,
			},
			wantField: "Limit",
			wantTag:   "max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if len(err.Errors()) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(err.Errors()), err)
			}
			fieldErr := err.Errors()[0]
			if fieldErr.Field() != tt.wantField || fieldErr.Tag() != tt.wantTag {
				t.Errorf("got field=%q tag=%q, want field=%q tag=%q",
					fieldErr.Field(), fieldErr.Tag(), tt.wantField, tt.wantTag)
			}
		})
	}
}

// ===================================================================================================
// Domain Validator Tests
// ===================================================================================================

func TestDomainValidators(t *testing.T) {
	type tagged struct {
		Category   string `validate:"omitempty,threat_category"`
		Permission string `validate:"omitempty,permission"`
	}

	tests := []struct {
		name    string
		input   tagged
		wantErr bool
	}{
		{"valid category", tagged{Category: "high_threat"}, false},
		{"valid permission", tagged{Permission: "manage"}, false},
		{"bad category", tagged{Category: "scary"}, true},
		{"bad permission", tagged{Permission: "sudo"}, true},
		{"empty passes omitempty", tagged{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// ===================================================================================================
// Error Translation Tests
// ===================================================================================================

func TestErrorMessages(t *testing.T) {
	input := submitRequest{
		DetectionID: "det-001",
		CameraID:    "cam-gate-01",
		ThreatLevel: "nope",
	}

	err := ValidateStruct(&input)
	if err == nil {
		t.Fatal("want validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "ThreatLevel must be one of: low, medium, high, critical") {
		t.Errorf("message = %q", msg)
	}
}

func TestToAPIError_SingleField(t *testing.T) {
	input := submitRequest{
		CameraID:    "cam-gate-01",
		ThreatLevel: "high",
	}

	verr := ValidateStruct(&input)
	if verr == nil {
		t.Fatal("want validation error")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if apiErr.Details["field"] != "DetectionID" {
		t.Errorf("Details = %v", apiErr.Details)
	}
}

func TestToAPIError_MultipleFields(t *testing.T) {
	input := submitRequest{
		ThreatLevel: "nope",
	}

	verr := ValidateStruct(&input)
	if verr == nil {
		t.Fatal("want validation error")
	}
	if len(verr.Errors()) < 2 {
		t.Fatalf("got %d errors, want several", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Errorf("Details = %v, want fields list", apiErr.Details)
	}
	if !strings.Contains(apiErr.Message, ";") {
		t.Errorf("Message = %q, want combined messages", apiErr.Message)
	}
}
