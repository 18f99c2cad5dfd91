package entity

import (
	"strings"
	"time"
)

type EnrollmentStatus string

const (
	// EnrollmentStatusUnknown is not stored; it marks unrecognised values.
	EnrollmentStatusUnknown EnrollmentStatus = ""

	// EnrollmentStatusPending means a secret was issued but no code confirmed it yet.
	EnrollmentStatusPending EnrollmentStatus = "pending"

	// EnrollmentStatusActive means the secret was confirmed and codes can verify against it.
	EnrollmentStatusActive EnrollmentStatus = "active"

	// EnrollmentStatusRevoked means the secret must not be used anymore.
	EnrollmentStatusRevoked EnrollmentStatus = "revoked"
)

func ParseEnrollmentStatus(s string) EnrollmentStatus {
	switch st := EnrollmentStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case EnrollmentStatusPending, EnrollmentStatusActive, EnrollmentStatusRevoked:
		return st
	default:
		return EnrollmentStatusUnknown
	}
}

func (s EnrollmentStatus) String() string {
	if s == EnrollmentStatusUnknown {
		return "unknown"
	}
	return string(s)
}

// Enrollment is the TOTP secret bound to one user identity. Secret holds
// the AES-GCM ciphertext, never the base32 seed.
type Enrollment struct {
	ID        int64
	UserID    string
	Secret    []byte
	Status    EnrollmentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *Enrollment) IsActive() bool {
	return e != nil && e.Status == EnrollmentStatusActive
}

func (e *Enrollment) IsPending() bool {
	return e != nil && e.Status == EnrollmentStatusPending
}
