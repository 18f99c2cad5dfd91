package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/aegis/internal/identity/entity"
	"github.com/shandysiswandi/aegis/internal/pkg/goerror"
	"github.com/shandysiswandi/aegis/internal/pkg/jwt"
)

type RegisterInput struct {
	Email    string `validate:"required,max=128,email"`
	Password string `validate:"required,min=8,max=72"`
}

type RegisterOutput struct {
	UserID string
}

// Register creates an account. The normalized email is the user ID and the
// MFA subject for later enrollment.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Email = entity.NormalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	hashed, err := s.password.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.repoUser.CreateUser(ctx, entity.User{
		ID:           s.uid.Generate(),
		Email:        in.Email,
		PasswordHash: string(hashed),
		CreatedAt:    s.clock.Now(),
	})
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "email already registered", "email", in.Email)
		return nil, goerror.NewBusiness(msgEmailTaken, goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create user", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RegisterOutput{UserID: in.Email}, nil
}

type LoginInput struct {
	Email    string `validate:"required,max=128,email"`
	Password string `validate:"required,max=72"`
}

// LoginOutput carries a token, or MFARequired with the UserID to send to
// the verify endpoint when the account has an active enrollment.
type LoginOutput struct {
	Token       string
	MFARequired bool
	UserID      string
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = entity.NormalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoUser.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "login for unknown email", "email", in.Email)
		return nil, goerror.NewBusiness(msgInvalidCredentials, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(user.PasswordHash, in.Password) {
		slog.WarnContext(ctx, "wrong password", "email", in.Email)
		return nil, goerror.NewBusiness(msgInvalidCredentials, goerror.CodeUnauthorized)
	}

	enr, err := s.getEnrollment(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if enr.IsActive() {
		return &LoginOutput{MFARequired: true, UserID: user.Email}, nil
	}

	token, err := s.issueToken(ctx, user.Email, false)
	if err != nil {
		return nil, err
	}
	return &LoginOutput{Token: token, UserID: user.Email}, nil
}

type SessionInput struct {
	Token string `validate:"required"`
}

type SessionOutput struct {
	UserID    string
	MFA       bool
	ExpiresAt time.Time
}

// Session resolves a bearer token issued by Login or Verify.
func (s *Usecase) Session(ctx context.Context, in SessionInput) (*SessionOutput, error) {
	ctx, span := s.startSpan(ctx, "Session")
	defer span.End()

	in.Token = strings.TrimSpace(in.Token)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewBusiness(msgInvalidToken, goerror.CodeUnauthorized)
	}

	claims, err := s.jwt.Verify(in.Token)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, goerror.NewBusiness(msgTokenExpired, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.WarnContext(ctx, "invalid session token", "error", err)
		return nil, goerror.NewBusiness(msgInvalidToken, goerror.CodeUnauthorized)
	}

	out := &SessionOutput{UserID: claims.Subject, MFA: claims.MFA}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (s *Usecase) issueToken(ctx context.Context, subject string, mfa bool) (string, error) {
	token, err := s.jwt.Generate(subject, mfa)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate token", "user_id", subject, "error", err)
		return "", goerror.NewServer(err)
	}
	return token, nil
}
