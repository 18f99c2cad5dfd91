package db

import (
	"context"

	"github.com/shandysiswandi/aegis/internal/identity/entity"
)

const (
	queryGetUserByEmail = `
SELECT id, email, password_hash, created_at
FROM identity_users
WHERE email = $1`

	queryCreateUser = `
INSERT INTO identity_users (id, email, password_hash, created_at)
VALUES ($1, $2, $3, $4)`
)

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	var u entity.User
	err = s.conn.QueryRow(ctx, queryGetUserByEmail, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &u, nil
}

// CreateUser returns goerror.ErrConflict when the email is taken.
func (s *DB) CreateUser(ctx context.Context, in entity.User) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateUser, in.ID, in.Email, in.PasswordHash, in.CreatedAt)
	return s.mapError(err)
}
