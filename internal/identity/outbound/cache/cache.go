// Package cache is the Redis-backed enrollment store. Each user owns one
// hash; state changes run as Lua scripts so the status checks and the
// writes happen atomically.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/aegis/internal/identity/entity"
	"github.com/shandysiswandi/aegis/internal/pkg/clock"
	"github.com/shandysiswandi/aegis/internal/pkg/goerror"
	"github.com/shandysiswandi/aegis/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultKeyPrefix = "identity:mfa:"

// An active secret is never overwritten. The first id and created_at win.
var scriptSavePending = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'status') == 'active' then
  return 0
end
redis.call('HSETNX', KEYS[1], 'id', ARGV[1])
redis.call('HSETNX', KEYS[1], 'created_at', ARGV[4])
redis.call('HSET', KEYS[1], 'user_id', ARGV[2], 'secret', ARGV[3], 'status', 'pending', 'updated_at', ARGV[5])
return 1
`)

var scriptActivate = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'status') ~= 'pending' then
  return 0
end
redis.call('HSET', KEYS[1], 'status', 'active', 'updated_at', ARGV[1])
return 1
`)

type Cache struct {
	client redis.UniversalClient
	prefix string
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, prefix string, clk clock.Clocker, ins instrument.Instrumentation) *Cache {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Cache{client: client, prefix: prefix, clock: clk, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("identity.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) key(userID string) string {
	return c.prefix + userID
}

func (c *Cache) GetEnrollment(ctx context.Context, userID string) (_ *entity.Enrollment, err error) {
	ctx, span := c.startSpan(ctx, "GetEnrollment")
	defer func() { c.endSpan(span, err) }()

	fields, err := c.client.HGetAll(ctx, c.key(userID)).Result()
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

	return &entity.Enrollment{
		ID:        id,
		UserID:    fields["user_id"],
		Secret:    []byte(fields["secret"]),
		Status:    entity.ParseEnrollmentStatus(fields["status"]),
		CreatedAt: parseMillis(fields["created_at"]),
		UpdatedAt: parseMillis(fields["updated_at"]),
	}, nil
}

func (c *Cache) SavePendingEnrollment(ctx context.Context, in entity.Enrollment) (err error) {
	ctx, span := c.startSpan(ctx, "SavePendingEnrollment")
	defer func() { c.endSpan(span, err) }()

	saved, err := scriptSavePending.Run(ctx, c.client, []string{c.key(in.UserID)},
		in.ID, in.UserID, in.Secret, in.CreatedAt.UnixMilli(), in.UpdatedAt.UnixMilli(),
	).Int()
	if err != nil {
		return err
	}
	if saved == 0 {
		return goerror.ErrConflict
	}
	return nil
}

func (c *Cache) ActivateEnrollment(ctx context.Context, userID string) (err error) {
	ctx, span := c.startSpan(ctx, "ActivateEnrollment")
	defer func() { c.endSpan(span, err) }()

	updated, err := scriptActivate.Run(ctx, c.client, []string{c.key(userID)}, c.clock.Now().UnixMilli()).Int()
	if err != nil {
		return err
	}
	if updated == 0 {
		return goerror.ErrNotFound
	}
	return nil
}

func parseMillis(v string) time.Time {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
