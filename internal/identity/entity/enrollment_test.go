package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnrollmentStatus(t *testing.T) {
	assert.Equal(t, EnrollmentStatusPending, ParseEnrollmentStatus("PENDING"))
	assert.Equal(t, EnrollmentStatusActive, ParseEnrollmentStatus(" active "))
	assert.Equal(t, EnrollmentStatusRevoked, ParseEnrollmentStatus("revoked"))
	assert.Equal(t, EnrollmentStatusUnknown, ParseEnrollmentStatus("enabled"))
	assert.Equal(t, "unknown", EnrollmentStatusUnknown.String())
}

func TestEnrollment_Status(t *testing.T) {
	var missing *Enrollment
	assert.False(t, missing.IsActive())
	assert.False(t, missing.IsPending())

	e := &Enrollment{Status: EnrollmentStatusPending}
	assert.True(t, e.IsPending())
	assert.False(t, e.IsActive())
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "AlreadyNormal", in: "alice@example.com", want: "alice@example.com"},
		{name: "MixedCase", in: "Alice@Example.COM", want: "alice@example.com"},
		{name: "Padded", in: "  bob@example.com\t", want: "bob@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeEmail(tt.in))
		})
	}
}
