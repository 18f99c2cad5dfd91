package jwt

import (
	"errors"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Symmetric signs and verifies HS512 tokens with a shared secret.
type Symmetric struct {
	cfg Config
}

func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}
	return &Symmetric{cfg: cfg}, nil
}

func (s *Symmetric) Generate(subject string, mfa bool) (string, error) {
	now := s.cfg.Clock.Now()

	return libJWT.
		NewWithClaims(libJWT.SigningMethodHS512, Claims{
			RegisteredClaims: libJWT.RegisteredClaims{
				ID:        s.cfg.UUID.Generate(),
				Subject:   subject,
				Issuer:    s.cfg.Issuer,
				Audience:  s.cfg.Audiences,
				IssuedAt:  libJWT.NewNumericDate(now),
				NotBefore: libJWT.NewNumericDate(now),
				ExpiresAt: libJWT.NewNumericDate(now.Add(s.cfg.TTL)),
			},
			MFA: mfa,
		}).
		SignedString(s.cfg.Secret)
}

// Verify checks signature, issuer, audience and expiry against the
// configured clock.
func (s *Symmetric) Verify(token string) (Claims, error) {
	opts := []libJWT.ParserOption{
		libJWT.WithIssuer(s.cfg.Issuer),
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(s.cfg.Clock.Now),
	}
	for _, aud := range s.cfg.Audiences {
		opts = append(opts, libJWT.WithAudience(aud))
	}

	var claims Claims
	parsed, err := libJWT.ParseWithClaims(token, &claims, func(*libJWT.Token) (any, error) {
		return s.cfg.Secret, nil
	}, opts...)
	if errors.Is(err, libJWT.ErrTokenExpired) {
		return Claims{}, ErrTokenExpired
	}
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
