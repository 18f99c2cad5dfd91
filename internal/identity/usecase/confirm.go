package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/aegis/internal/pkg/goerror"
)

type ConfirmInput struct {
	UserID string `validate:"required,max=128,subject"`
	Code   string `validate:"required,otpcode"`
}

// Confirm activates a pending enrollment with the first code the
// authenticator app produced.
func (s *Usecase) Confirm(ctx context.Context, in ConfirmInput) error {
	ctx, span := s.startSpan(ctx, "Confirm")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	enr, err := s.getEnrollment(ctx, in.UserID)
	if err != nil {
		return err
	}
	if enr.IsActive() {
		slog.WarnContext(ctx, "mfa already confirmed", "user_id", in.UserID)
		return goerror.NewBusiness(msgAlreadyEnrolled, goerror.CodeConflict)
	}
	if !enr.IsPending() {
		slog.WarnContext(ctx, "pending enrollment not found", "user_id", in.UserID)
		return goerror.NewBusiness(msgEnrollmentNotFound, goerror.CodeNotFound)
	}

	secret, err := s.decryptSecret(ctx, enr)
	if err != nil {
		return err
	}

	if !s.totp.Validate(in.Code, secret, s.clock.Now()) {
		slog.WarnContext(ctx, "invalid totp code", "user_id", in.UserID, "enrollment_id", enr.ID)
		return goerror.NewBusiness(msgInvalidCode, goerror.CodeUnauthorized)
	}

	if err := s.consumeCode(ctx, in.UserID, in.Code, func(ctx context.Context) error {
		err := s.repoStore.ActivateEnrollment(ctx, in.UserID)
		if errors.Is(err, goerror.ErrNotFound) {
			return goerror.NewBusiness(msgEnrollmentNotFound, goerror.CodeNotFound)
		}
		return err
	}); err != nil {
		return err
	}

	s.publish(ctx, "mfa_confirmed", s.repoMessaging.PublishMFAConfirmed, MFAEvent{
		EnrollmentID: enr.ID,
		UserID:       enr.UserID,
		OccurredAt:   s.clock.Now(),
	})

	return nil
}
