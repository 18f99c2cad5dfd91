package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/aegis/internal/identity/entity"
	"github.com/shandysiswandi/aegis/internal/pkg/goerror"
	"github.com/shandysiswandi/aegis/internal/pkg/mfa"
)

type EnrollInput struct {
	UserID string `validate:"required,max=128,subject"`
}

type EnrollOutput struct {
	// QRCode is a PNG of the provisioning URI.
	QRCode []byte
}

func (s *Usecase) Enroll(ctx context.Context, in EnrollInput) (*EnrollOutput, error) {
	ctx, span := s.startSpan(ctx, "Enroll")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	existing, err := s.getEnrollment(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if existing.IsActive() {
		slog.WarnContext(ctx, "mfa already enrolled", "user_id", in.UserID)
		return nil, goerror.NewBusiness(msgAlreadyEnrolled, goerror.CodeConflict)
	}

	secret, uri, err := s.totp.Generate(in.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	encrypted, err := s.mfaEncryptor.Encrypt([]byte(secret), mfa.Scope{
		Subject: in.UserID,
		Purpose: mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	enr := entity.Enrollment{
		ID:        s.uid.Generate(),
		UserID:    in.UserID,
		Secret:    encrypted,
		Status:    entity.EnrollmentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil {
		enr.ID = existing.ID
		enr.CreatedAt = existing.CreatedAt
	}

	err = s.repoStore.SavePendingEnrollment(ctx, enr)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "mfa enrolled concurrently", "user_id", in.UserID)
		return nil, goerror.NewBusiness(msgAlreadyEnrolled, goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo save pending enrollment", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	qr, err := s.totp.QRCode(uri, s.qrSize())
	if err != nil {
		slog.ErrorContext(ctx, "failed to render qr code", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publish(ctx, "mfa_enrolled", s.repoMessaging.PublishMFAEnrolled, MFAEvent{
		EnrollmentID: enr.ID,
		UserID:       enr.UserID,
		OccurredAt:   now,
	})

	return &EnrollOutput{QRCode: qr}, nil
}
