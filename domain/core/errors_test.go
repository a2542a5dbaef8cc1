package core

import (
	"errors"
	"strings"
	"testing"
)

func TestDomainErrorClassification(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectDomain bool
		expectConfig bool
	}{
		{"degrees of freedom", NewDegreesOfFreedomError(1, 1), true, false},
		{"train size", NewTrainSizeError(0), true, false},
		{"non finite", NewNonFiniteError("variance", 0), true, false},
		{"interval count", ErrIntervalCount, false, true},
		{"level", ErrLevel, false, true},
		{"plain", errors.New("boom"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDomainError(tt.err); got != tt.expectDomain {
				t.Errorf("IsDomainError() = %v, want %v", got, tt.expectDomain)
			}
			if got := IsConfigError(tt.err); got != tt.expectConfig {
				t.Errorf("IsConfigError() = %v, want %v", got, tt.expectConfig)
			}
		})
	}
}

func TestDegreesOfFreedomErrorReportsValues(t *testing.T) {
	err := NewDegreesOfFreedomError(1, 1)
	msg := err.Error()
	for _, want := range []string{"k*r-1 = 0", "r=1", "k=1"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %q in error message %q", want, msg)
		}
	}
}
