package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost, "pepper")

	hashed, err := h.Hash("s3cret-pass")
	require.NoError(t, err)

	tests := []struct {
		name   string
		hasher *Bcrypt
		plain  string
		want   bool
	}{
		{name: "Match", hasher: h, plain: "s3cret-pass", want: true},
		{name: "WrongPassword", hasher: h, plain: "s3cret-pasz", want: false},
		{name: "WrongPepper", hasher: NewBcrypt(bcrypt.MinCost, "salt"), plain: "s3cret-pass", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.hasher.Verify(string(hashed), tt.plain))
		})
	}
}

func TestNewBcrypt_CostOutOfRange(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcrypt(0, "").cost)
	assert.Equal(t, bcrypt.MinCost, NewBcrypt(bcrypt.MinCost, "").cost)
}
