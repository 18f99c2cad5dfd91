package cache

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/aegis/internal/identity/entity"
	"github.com/shandysiswandi/aegis/internal/pkg/goerror"
)

// Accounts live outside the enrollment prefix so an MFA subject can never
// name an account hash.
const userKeyPrefix = "identity:user:"

var scriptCreateUser = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'id', ARGV[1], 'email', ARGV[2], 'password_hash', ARGV[3], 'created_at', ARGV[4])
return 1
`)

func (c *Cache) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := c.startSpan(ctx, "GetUserByEmail")
	defer func() { c.endSpan(span, err) }()

	fields, err := c.client.HGetAll(ctx, userKeyPrefix+email).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, goerror.ErrNotFound
	}

	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, err
	}

	return &entity.User{
		ID:           id,
		Email:        fields["email"],
		PasswordHash: fields["password_hash"],
		CreatedAt:    parseMillis(fields["created_at"]),
	}, nil
}

// CreateUser returns goerror.ErrConflict when the email is taken.
func (c *Cache) CreateUser(ctx context.Context, in entity.User) (err error) {
	ctx, span := c.startSpan(ctx, "CreateUser")
	defer func() { c.endSpan(span, err) }()

	created, err := scriptCreateUser.Run(ctx, c.client, []string{userKeyPrefix + in.Email},
		in.ID, in.Email, in.PasswordHash, in.CreatedAt.UnixMilli(),
	).Int()
	if err != nil {
		return err
	}
	if created == 0 {
		return goerror.ErrConflict
	}
	return nil
}
