package usecase

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/aegis/internal/identity/entity"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeStore struct {
	mu      sync.Mutex
	records map[string]entity.Enrollment
	users   map[string]entity.User
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]entity.Enrollment{}, users: map[string]entity.User{}}
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &u, nil
}

func (f *fakeStore) CreateUser(_ context.Context, in entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[in.Email]; ok {
		return goerror.ErrConflict
	}
	f.users[in.Email] = in
	return nil
}

func (f *fakeStore) GetEnrollment(_ context.Context, userID string) (*entity.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	enr, ok := f.records[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &enr, nil
}

func (f *fakeStore) SavePendingEnrollment(_ context.Context, in entity.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if cur, ok := f.records[in.UserID]; ok && cur.Status == entity.EnrollmentStatusActive {
		return goerror.ErrConflict
	}
	f.records[in.UserID] = in
	return nil
}

func (f *fakeStore) ActivateEnrollment(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cur, ok := f.records[userID]
	if !ok || cur.Status != entity.EnrollmentStatusPending {
		return goerror.ErrNotFound
	}
	cur.Status = entity.EnrollmentStatusActive
	f.records[userID] = cur
	return nil
}

func (f *fakeStore) get(userID string) entity.Enrollment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[userID]
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeMessaging) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, name)
	return nil
}

func (f *fakeMessaging) PublishMFAEnrolled(_ context.Context, msg MFAEvent) error {
	return f.record("enrolled:" + msg.UserID)
}

func (f *fakeMessaging) PublishMFAConfirmed(_ context.Context, msg MFAEvent) error {
	return f.record("confirmed:" + msg.UserID)
}

func (f *fakeMessaging) PublishMFAVerified(_ context.Context, msg MFAEvent) error {
	return f.record("verified:" + msg.UserID)
}

type harness struct {
	uc        *Usecase
	mr        *miniredis.Miniredis
	store     *fakeStore
	msg       *fakeMessaging
	goroutine *goroutine.Manager
	totp      *otp.TOTP
	enc       *mfa.AESGCMEncryptor
	jwt       *jwt.Symmetric
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithConfig(t, "modules:\n  identity:\n    qr_size: 200\n")
}

func newHarnessWithConfig(t *testing.T, yaml string) *harness {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	snow, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	tokens, err := jwt.NewHS512(jwt.Config{
		Secret:    bytes.Repeat([]byte{7}, 64),
		Issuer:    "aegis-test",
		Audiences: []string{"aegis"},
		TTL:       time.Hour,
		Clock:     fixedClock{t: testNow},
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)

	h := &harness{
		mr:        mr,
		store:     newFakeStore(),
		msg:       &fakeMessaging{},
		goroutine: goroutine.NewManager(4),
		totp:      otp.NewTOTP("Aegis", 30, 1, libOTP.DigitsSix),
		enc:       mfa.NewAESGCMEncryptor(mfa.StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{3}, 32)}),
		jwt:       tokens,
	}
	h.uc = New(Dependency{
		RepoStore:     h.store,
		RepoUser:      h.store,
		RepoMessaging: h.msg,
		Idempotency:   idempotency.New(rdb, "test:"),
		Validator:     v,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256("pepper"),
		Password:      hash.NewBcrypt(bcrypt.MinCost, "pepper"),
		JWT:           tokens,
		MFAEncryptor:  h.enc,
		UID:           snow,
		Totp:          h.totp,
		Clock:         fixedClock{t: testNow},
		Instrument:    instrument.NewNoop(),
		Goroutine:     h.goroutine,
	})
	return h
}

// code returns the current TOTP code for an enrolled user.
func (h *harness) code(t *testing.T, userID string) string {
	t.Helper()

	code, err := h.totp.GenerateCode(secretOf(t, h, userID), testNow)
	require.NoError(t, err)
	return code
}

func secretOf(t *testing.T, h *harness, userID string) string {
	t.Helper()

	enr := h.store.get(userID)
	secret, err := h.enc.Decrypt(enr.Secret, mfa.Scope{Subject: userID, Purpose: mfa.PurposeOTPSeed})
	require.NoError(t, err)
	return string(secret)
}

func (h *harness) events(t *testing.T) []string {
	t.Helper()
	require.NoError(t, h.goroutine.Wait())

	h.msg.mu.Lock()
	defer h.msg.mu.Unlock()
	return append([]string(nil), h.msg.events...)
}

func wrongCode(code string) string {
	last := code[len(code)-1]
	return code[:len(code)-1] + string('0'+(last-'0'+1)%10)
}

func assertGoError(t *testing.T, err error, code goerror.Code, msg string) {
	t.Helper()

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, code, gerr.Code())
	if msg != "" {
		assert.Equal(t, msg, gerr.Msg())
	}
}
