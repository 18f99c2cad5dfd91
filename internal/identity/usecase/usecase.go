package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/aegis/internal/identity/entity"
	"github.com/shandysiswandi/aegis/internal/pkg/clock"
	"github.com/shandysiswandi/aegis/internal/pkg/config"
	"github.com/shandysiswandi/aegis/internal/pkg/goerror"
	"github.com/shandysiswandi/aegis/internal/pkg/goroutine"
	"github.com/shandysiswandi/aegis/internal/pkg/hash"
	"github.com/shandysiswandi/aegis/internal/pkg/idempotency"
	"github.com/shandysiswandi/aegis/internal/pkg/instrument"
	"github.com/shandysiswandi/aegis/internal/pkg/jwt"
	"github.com/shandysiswandi/aegis/internal/pkg/mfa"
	"github.com/shandysiswandi/aegis/internal/pkg/otp"
	"github.com/shandysiswandi/aegis/internal/pkg/uid"
	"github.com/shandysiswandi/aegis/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultQRSize         = 300
	defaultCodeReplayTTL  = 90 * time.Second
	defaultCodeLock       = 10 * time.Second
	msgEnrollmentNotFound = "Enrollment not found"
	msgAlreadyEnrolled    = "MFA already enrolled"
	msgInvalidCode        = "Invalid verification code"
	msgCodeAlreadyUsed    = "Code already used"
	msgAuthFailed         = "Authentication failed"
	msgInvalidCredentials = "Invalid credentials"
	msgEmailTaken         = "Email already registered"
	msgInvalidToken       = "Invalid token"
	msgTokenExpired       = "Token expired"
)

type MFAEvent struct {
	EnrollmentID int64
	UserID       string
	OccurredAt   time.Time
}

type repoMessaging interface {
	PublishMFAEnrolled(ctx context.Context, msg MFAEvent) error
	PublishMFAConfirmed(ctx context.Context, msg MFAEvent) error
	PublishMFAVerified(ctx context.Context, msg MFAEvent) error
}

type repoStore interface {
	GetEnrollment(ctx context.Context, userID string) (*entity.Enrollment, error)
	SavePendingEnrollment(ctx context.Context, in entity.Enrollment) error
	ActivateEnrollment(ctx context.Context, userID string) error
}

type repoUser interface {
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	CreateUser(ctx context.Context, in entity.User) error
}

type Usecase struct {
	repoStore     repoStore
	repoUser      repoUser
	repoMessaging repoMessaging
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	password      hash.Hash
	jwt           jwt.JWT
	mfaEncryptor  mfa.Encryptor
	uid           uid.NumberID
	totp          otp.OTP
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoStore     repoStore
	RepoUser      repoUser
	RepoMessaging repoMessaging
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Password      hash.Hash
	JWT           jwt.JWT
	MFAEncryptor  mfa.Encryptor
	UID           uid.NumberID
	Totp          otp.OTP
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoStore:     dep.RepoStore,
		repoUser:      dep.RepoUser,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		password:      dep.Password,
		jwt:           dep.JWT,
		mfaEncryptor:  dep.MFAEncryptor,
		uid:           dep.UID,
		totp:          dep.Totp,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) qrSize() int {
	if n := s.cfg.GetInt("modules.identity.qr_size"); n > 0 {
		return n
	}
	return defaultQRSize
}

func (s *Usecase) codeReplayTTL() time.Duration {
	if d := s.cfg.GetSecond("modules.identity.code_replay_ttl_seconds"); d > 0 {
		return d
	}
	return defaultCodeReplayTTL
}

// codeLockDuration bounds how long a code stays claimed while its check is
// running, so a crashed request cannot block the code forever.
func (s *Usecase) codeLockDuration() time.Duration {
	if d := s.cfg.GetSecond("modules.identity.code_lock_seconds"); d > 0 {
		return d
	}
	return defaultCodeLock
}

// publish hands the event to the goroutine manager so a slow broker never
// delays the HTTP answer. Failures are logged only.
func (s *Usecase) publish(ctx context.Context, name string, fn func(context.Context, MFAEvent) error, ev MFAEvent) {
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := fn(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish mfa event", "event", name, "user_id", ev.UserID, "error", err)
		}
		return nil
	})
}

func (s *Usecase) getEnrollment(ctx context.Context, userID string) (*entity.Enrollment, error) {
	enr, err := s.repoStore.GetEnrollment(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get enrollment", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}
	return enr, nil
}

func (s *Usecase) decryptSecret(ctx context.Context, enr *entity.Enrollment) (string, error) {
	secret, err := s.mfaEncryptor.Decrypt(enr.Secret, mfa.Scope{
		Subject: enr.UserID,
		Purpose: mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "user_id", enr.UserID, "enrollment_id", enr.ID, "error", err)
		return "", goerror.NewServer(err)
	}
	return string(secret), nil
}

// consumeCode runs fn at most once for (user, code) within the replay TTL.
// The key is an HMAC so codes never reach Redis in the clear.
func (s *Usecase) consumeCode(ctx context.Context, userID, code string, fn func(context.Context) error) error {
	key, err := s.hmac.Hash(userID + ":" + code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash code", "user_id", userID, "error", err)
		return goerror.NewServer(err)
	}

	err = s.idemp.Exec(ctx, "mfa:code:"+string(key), fn,
		idempotency.WithLockDuration(s.codeLockDuration()),
		idempotency.WithStateTTL(s.codeReplayTTL()),
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, idempotency.ErrAlreadyCompleted),
		errors.Is(err, idempotency.ErrAlreadyInProgress),
		errors.Is(err, idempotency.ErrAlreadyFailed):
		slog.WarnContext(ctx, "totp code replayed", "user_id", userID)
		return goerror.NewBusiness(msgCodeAlreadyUsed, goerror.CodeUnauthorized)
	}

	var gerr *goerror.Error
	if errors.As(err, &gerr) {
		return gerr
	}
	slog.ErrorContext(ctx, "failed to consume totp code", "user_id", userID, "error", err)
	return goerror.NewServer(err)
}
