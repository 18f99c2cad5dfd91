package entity

import (
	"strings"
	"time"
)

// User is an account that logs in with email and password. The email
// doubles as the MFA subject, so the enrollment for a user is keyed by it.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// NormalizeEmail lowercases and trims an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
