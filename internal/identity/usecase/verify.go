package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/aegis/internal/pkg/goerror"
)

type VerifyInput struct {
	UserID string `validate:"required,max=128,subject"`
	Code   string `validate:"required,otpcode"`
}

type VerifyOutput struct {
	// Token is a session token marked as second-factor checked.
	Token string
}

func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	enr, err := s.getEnrollment(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !enr.IsActive() {
		slog.WarnContext(ctx, "active enrollment not found", "user_id", in.UserID)
		return nil, goerror.NewBusiness(msgAuthFailed, goerror.CodeUnauthorized)
	}

	secret, err := s.decryptSecret(ctx, enr)
	if err != nil {
		return nil, err
	}

	if !s.totp.Validate(in.Code, secret, s.clock.Now()) {
		slog.WarnContext(ctx, "invalid totp code", "user_id", in.UserID, "enrollment_id", enr.ID)
		return nil, goerror.NewBusiness(msgInvalidCode, goerror.CodeUnauthorized)
	}

	if err := s.consumeCode(ctx, in.UserID, in.Code, func(context.Context) error { return nil }); err != nil {
		return nil, err
	}

	token, err := s.issueToken(ctx, enr.UserID, true)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "mfa_verified", s.repoMessaging.PublishMFAVerified, MFAEvent{
		EnrollmentID: enr.ID,
		UserID:       enr.UserID,
		OccurredAt:   s.clock.Now(),
	})

	return &VerifyOutput{Token: token}, nil
}
