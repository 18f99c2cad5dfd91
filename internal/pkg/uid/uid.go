// Package uid generates identifiers: UUIDs for correlation, snowflakes for
// storage keys and session identities for MFA flows.
package uid

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}

// NumberID generates numeric identifiers.
type NumberID interface {
	Generate() int64
}
