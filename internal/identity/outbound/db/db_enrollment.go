package db

import (
	"context"
	"errors"

	"github.com/shandysiswandi/aegis/internal/identity/entity"
	"github.com/shandysiswandi/aegis/internal/pkg/goerror"
)

const (
	queryGetEnrollment = `
SELECT id, user_id, secret, status, created_at, updated_at
FROM identity_mfa_secrets
WHERE user_id = $1`

	// The WHERE on the conflict branch keeps an active secret untouched; no
	// row comes back in that case.
	queryUpsertPendingEnrollment = `
INSERT INTO identity_mfa_secrets (id, user_id, secret, status, created_at, updated_at)
VALUES ($1, $2, $3, 'pending', $4, $5)
ON CONFLICT (user_id) DO UPDATE
SET secret = EXCLUDED.secret, status = 'pending', updated_at = EXCLUDED.updated_at
WHERE identity_mfa_secrets.status <> 'active'
RETURNING id`

	queryActivateEnrollment = `
UPDATE identity_mfa_secrets
SET status = 'active', updated_at = NOW()
WHERE user_id = $1 AND status = 'pending'`
)

func (s *DB) GetEnrollment(ctx context.Context, userID string) (_ *entity.Enrollment, err error) {
	ctx, span := s.startSpan(ctx, "GetEnrollment")
	defer func() { s.endSpan(span, err) }()

	var (
		enr    entity.Enrollment
		status string
	)
	err = s.conn.QueryRow(ctx, queryGetEnrollment, userID).Scan(
		&enr.ID, &enr.UserID, &enr.Secret, &status, &enr.CreatedAt, &enr.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	enr.Status = entity.ParseEnrollmentStatus(status)

	return &enr, nil
}

func (s *DB) SavePendingEnrollment(ctx context.Context, in entity.Enrollment) (err error) {
	ctx, span := s.startSpan(ctx, "SavePendingEnrollment")
	defer func() { s.endSpan(span, err) }()

	var id int64
	err = s.conn.QueryRow(ctx, queryUpsertPendingEnrollment,
		in.ID, in.UserID, in.Secret, in.CreatedAt, in.UpdatedAt,
	).Scan(&id)
	if err = s.mapError(err); errors.Is(err, goerror.ErrNotFound) {
		err = goerror.ErrConflict
	}
	return err
}

func (s *DB) ActivateEnrollment(ctx context.Context, userID string) (err error) {
	ctx, span := s.startSpan(ctx, "ActivateEnrollment")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryActivateEnrollment, userID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}
