package qms

import (
	"strings"
	"testing"

	qmsSvc "qms/internal/domain/services/qms"
)

func TestValidateSaveRequest_Title(t *testing.T) {
	tests := []struct {
		name    string
		title   *string
		wantErr bool
	}{
		{"rename", strPtr("Batch 7 COA (rev)"), false},
		{"blank", strPtr("   "), true},
		{"empty", strPtr(""), true},
		{"too long", strPtr(strings.Repeat("x", 1000)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSaveRequest(&qmsSvc.SaveContentRequest{Title: tt.title})
			if (err != nil) != tt.wantErr {
				t.Errorf("validateSaveRequest(%q) error = %v, wantErr %v", *tt.title, err, tt.wantErr)
			}
		})
	}
}

func TestNotBlank(t *testing.T) {
	var nilTitle *string
	tests := []struct {
		name    string
		value   interface{}
		wantErr bool
	}{
		{"string", "COA", false},
		{"blank string", " \t", true},
		{"pointer", strPtr("COA"), false},
		{"blank pointer", strPtr("  "), true},
		{"nil pointer", nilTitle, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := notBlank.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("notBlank(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}
