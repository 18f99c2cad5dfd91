package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACSHA256(t *testing.T) {
	h := NewHMACSHA256("pepper")

	digest, err := h.Hash("user_1:123456")
	require.NoError(t, err)
	assert.Len(t, digest, 64)
	assert.True(t, h.Verify(string(digest), "user_1:123456"))
	assert.False(t, h.Verify(string(digest), "user_1:123457"))

	other, err := NewHMACSHA256("salt").Hash("user_1:123456")
	require.NoError(t, err)
	assert.NotEqual(t, digest, other)
}
