package otp

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOTP_GenerateAndValidate(t *testing.T) {
	o := NewTOTP("Aegis", 0, 0, otp.DigitsSix)

	secret, uri, err := o.Generate("user_abc_1234")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "otpauth://totp/Aegis:user_abc_1234?"))
	assert.Contains(t, uri, "secret="+secret)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	code, err := o.GenerateCode(secret, now)
	require.NoError(t, err)
	assert.Len(t, code, 6)

	assert.True(t, o.Validate(code, secret, now))
	assert.True(t, o.Validate(code, secret, now.Add(30*time.Second)), "one step of skew is accepted")
	assert.False(t, o.Validate(code, secret, now.Add(5*time.Minute)))
	assert.False(t, o.Validate("abcdef", secret, now))
}

func TestTOTP_QRCode(t *testing.T) {
	o := NewTOTP("Aegis", 30, 1, otp.DigitsSix)
	_, uri, err := o.Generate("user_x")
	require.NoError(t, err)

	data, err := o.QRCode(uri, 300)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())

	_, err = o.QRCode("://bad", 300)
	assert.Error(t, err)
}
