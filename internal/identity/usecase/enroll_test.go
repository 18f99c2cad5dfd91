package usecase

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	"github.com/shandysiswandi/aegis/internal/identity/entity"
	"github.com/shandysiswandi/aegis/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnroll_Success(t *testing.T) {
	h := newHarness(t)

	out, err := h.uc.Enroll(context.Background(), EnrollInput{UserID: " user_abc_1 "})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out.QRCode))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	enr := h.store.get("user_abc_1")
	assert.Equal(t, entity.EnrollmentStatusPending, enr.Status)
	assert.NotZero(t, enr.ID)
	assert.Len(t, h.code(t, "user_abc_1"), 6)

	assert.Equal(t, []string{"enrolled:user_abc_1"}, h.events(t))
}

func TestEnroll_ReplacesPendingSecret(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.uc.Enroll(ctx, EnrollInput{UserID: "user_abc_1"})
	require.NoError(t, err)
	first := h.store.get("user_abc_1")

	_, err = h.uc.Enroll(ctx, EnrollInput{UserID: "user_abc_1"})
	require.NoError(t, err)
	second := h.store.get("user_abc_1")

	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, first.Secret, second.Secret)
}

func TestEnroll_Errors(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		setup  func(h *harness)
		code   goerror.Code
		msg    string
	}{
		{name: "missing identity", userID: "", code: goerror.CodeInvalidInput},
		{name: "identity with spaces", userID: "user abc", code: goerror.CodeInvalidInput},
		{
			name:   "already active",
			userID: "user_1",
			setup: func(h *harness) {
				h.store.records["user_1"] = entity.Enrollment{ID: 1, UserID: "user_1", Status: entity.EnrollmentStatusActive}
			},
			code: goerror.CodeConflict,
			msg:  msgAlreadyEnrolled,
		},
		{
			name:   "store down",
			userID: "user_1",
			setup:  func(h *harness) { h.store.err = errors.New("db down") },
			code:   goerror.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.setup != nil {
				tt.setup(h)
			}

			out, err := h.uc.Enroll(context.Background(), EnrollInput{UserID: tt.userID})
			assert.Nil(t, out)
			assertGoError(t, err, tt.code, tt.msg)
			assert.Empty(t, h.events(t))
		})
	}
}
