// Package jwt issues and checks the session tokens handed out after a
// successful login.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shandysiswandi/aegis/internal/pkg/clock"
	"github.com/shandysiswandi/aegis/internal/pkg/uid"
)

var (
	// ErrSigningKeyTooShort is returned when the HS512 key is under 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("JWT token has expired")
	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
)

// JWT generates and verifies session tokens.
type JWT interface {
	// Generate signs a token for subject. mfa records whether a second
	// factor was checked before the token was issued.
	Generate(subject string, mfa bool) (string, error)
	Verify(token string) (Claims, error)
}

// Config configures token signing. Clock drives issue and expiry checks and
// UUID supplies the token ID.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clock.Clocker
	UUID      uid.StringID
}

// Claims are the registered claims plus the second-factor marker.
type Claims struct {
	jwt.RegisteredClaims
	MFA bool `json:"mfa"`
}
