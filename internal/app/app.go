package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
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

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine    *goroutine.Manager
	validator    validator.Validator
	clock        clock.Clocker
	hmac         hash.Hash
	bcrypt       hash.Hash
	jwt          jwt.JWT
	uid          uid.NumberID
	uuid         uid.StringID
	totp         otp.OTP
	mfaEncryptor mfa.Encryptor

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	// released in order by Stop
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initCache()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
