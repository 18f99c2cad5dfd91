package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/aegis/internal/identity/entity"
	"github.com/shandysiswandi/aegis/internal/identity/inbound"
	"github.com/shandysiswandi/aegis/internal/identity/outbound/cache"
	"github.com/shandysiswandi/aegis/internal/identity/outbound/db"
	"github.com/shandysiswandi/aegis/internal/identity/outbound/mq"
	"github.com/shandysiswandi/aegis/internal/identity/usecase"
	"github.com/shandysiswandi/aegis/internal/pkg/clock"
	"github.com/shandysiswandi/aegis/internal/pkg/config"
	"github.com/shandysiswandi/aegis/internal/pkg/goroutine"
	"github.com/shandysiswandi/aegis/internal/pkg/hash"
	"github.com/shandysiswandi/aegis/internal/pkg/idempotency"
	"github.com/shandysiswandi/aegis/internal/pkg/instrument"
	"github.com/shandysiswandi/aegis/internal/pkg/jwt"
	"github.com/shandysiswandi/aegis/internal/pkg/messaging"
	"github.com/shandysiswandi/aegis/internal/pkg/mfa"
	"github.com/shandysiswandi/aegis/internal/pkg/otp"
	"github.com/shandysiswandi/aegis/internal/pkg/router"
	"github.com/shandysiswandi/aegis/internal/pkg/uid"
	"github.com/shandysiswandi/aegis/internal/pkg/validator"
)

const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// ErrDatabaseRequired is returned when the postgres store is selected
// without a connection pool.
var ErrDatabaseRequired = errors.New("identity: postgres store needs a database connection")

type Dependency struct {
	// DBConn is only required when modules.identity.store is postgres.
	DBConn       *pgxpool.Pool
	CacheConn    redis.UniversalClient      `validate:"required"`
	Goroutine    *goroutine.Manager         `validate:"required"`
	Router       *router.Router             `validate:"required"`
	Idempotency  idempotency.Idempotency    `validate:"required"`
	Messaging    messaging.Messaging        `validate:"required"`
	Config       config.Config              `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	UID          uid.NumberID               `validate:"required"`
	HMAC         hash.Hash                  `validate:"required"`
	Password     hash.Hash                  `validate:"required"`
	JWT          jwt.JWT                    `validate:"required"`
	MFAEncryptor mfa.Encryptor              `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Totp         otp.OTP                    `validate:"required"`
	Validator    validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	store, err := newStore(dep)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoStore:     store,
		RepoUser:      store,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Password:      dep.Password,
		JWT:           dep.JWT,
		MFAEncryptor:  dep.MFAEncryptor,
		UID:           dep.UID,
		Totp:          dep.Totp,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}

type store interface {
	GetEnrollment(ctx context.Context, userID string) (*entity.Enrollment, error)
	SavePendingEnrollment(ctx context.Context, in entity.Enrollment) error
	ActivateEnrollment(ctx context.Context, userID string) error
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	CreateUser(ctx context.Context, in entity.User) error
}

// newStore picks the enrollment and account store named by modules.identity.store.
func newStore(dep Dependency) (store, error) {
	switch name := dep.Config.GetString("modules.identity.store"); name {
	case "", StorePostgres:
		if dep.DBConn == nil {
			return nil, ErrDatabaseRequired
		}
		return db.NewDB(dep.DBConn, dep.Instrument), nil
	case StoreRedis:
		prefix := dep.Config.GetString("modules.identity.cache_prefix")
		return cache.NewCache(dep.CacheConn, prefix, dep.Clock, dep.Instrument), nil
	default:
		return nil, fmt.Errorf("identity: unknown store %q", name)
	}
}
