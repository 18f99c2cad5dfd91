package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeFromStatus_RoundTrip(t *testing.T) {
	codes := []Code{
		CodeInvalidFormat, CodeInvalidInput, CodeNotFound, CodeUnauthorized,
		CodeForbidden, CodeTimeout, CodeTooManyRequest, CodeConflict, CodeInternal,
	}
	for _, code := range codes {
		t.Run(code.String(), func(t *testing.T) {
			e := &Error{code: code}
			assert.Equal(t, code, CodeFromStatus(e.StatusCode()))
		})
	}

	assert.Equal(t, CodeInternal, CodeFromStatus(http.StatusBadGateway))
	assert.Equal(t, CodeTimeout, CodeFromStatus(http.StatusGatewayTimeout))
}

func TestNewBusiness(t *testing.T) {
	err := NewBusiness("Invalid verification code", CodeUnauthorized)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, TypeBusiness, gerr.Type())
	assert.Equal(t, "Invalid verification code", gerr.Msg())
	assert.Equal(t, http.StatusUnauthorized, gerr.StatusCode())
	assert.Equal(t, "Invalid verification code", err.Error())
}

func TestNewServer_Unwraps(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewServer(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "dial tcp: refused", err.Error())
}

func TestValidationErrors(t *testing.T) {
	cause := errors.New("code: must be 6 digits")

	tests := []struct {
		name       string
		err        error
		wantCode   Code
		wantStatus int
		wantMsg    string
		wantText   string
	}{
		{
			name:       "InvalidInputWrapsCause",
			err:        NewInvalidInput(cause),
			wantCode:   CodeInvalidInput,
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "Validation error",
			wantText:   cause.Error(),
		},
		{
			name:       "InvalidFormat",
			err:        NewInvalidFormat(),
			wantCode:   CodeInvalidFormat,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid request body",
			wantText:   "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			require.ErrorAs(t, tt.err, &gerr)
			assert.Equal(t, TypeValidation, gerr.Type())
			assert.Equal(t, tt.wantCode, gerr.Code())
			assert.Equal(t, tt.wantStatus, gerr.StatusCode())
			assert.Equal(t, tt.wantMsg, gerr.Msg())
			assert.Equal(t, tt.wantText, tt.err.Error())
		})
	}

	assert.ErrorIs(t, NewInvalidInput(cause), cause)
}
