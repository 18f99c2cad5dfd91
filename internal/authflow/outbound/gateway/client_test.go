package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shandysiswandi/aegis/internal/pkg/goerror"
	"github.com/shandysiswandi/aegis/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewClient(srv.URL+"/", srv.Client(), instrument.NewNoop())
}

func TestClient_RequestProvisioning(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mfa/enroll", r.URL.Path)
		assert.Equal(t, "user_abc_123", r.Header.Get(HeaderUserID))
		assert.Empty(t, r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Empty(t, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"qrCode":"iVBOR"}`))
	})

	artifact, err := client.RequestProvisioning(context.Background(), "user_abc_123")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBOR", artifact.DataURI())
}

func TestClient_RequestProvisioning_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"message":"boom"}`},
		{name: "no artifact", status: http.StatusOK, body: `{"secret":"x"}`},
		{name: "not json", status: http.StatusOK, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			artifact, err := client.RequestProvisioning(context.Background(), "u")
			assert.Error(t, err)
			assert.True(t, artifact.IsZero())
		})
	}
}

func TestClient_ConfirmAndVerify(t *testing.T) {
	var got []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get(HeaderUserID))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"userId": "user_x", "code": "123456"}, body)

		got = append(got, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Confirm(context.Background(), "user_x", "123456"))
	require.NoError(t, client.Verify(context.Background(), "user_x", "123456"))
	assert.Equal(t, []string{"/mfa/confirm", "/mfa/verify"}, got)
}

func TestClient_Rejection(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		wantCode goerror.Code
	}{
		{name: "with message", status: http.StatusUnauthorized, body: `{"message":" Invalid verification code "}`, wantMsg: "Invalid verification code", wantCode: goerror.CodeUnauthorized},
		{name: "plain text", status: http.StatusBadRequest, body: `bad`, wantMsg: "", wantCode: goerror.CodeInvalidFormat},
		{name: "message not string", status: http.StatusConflict, body: `{"message":1}`, wantMsg: "", wantCode: goerror.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := client.Verify(context.Background(), "u", "000000")

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.Status)

			var gerr *goerror.Error
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, goerror.TypeBusiness, gerr.Type())
			assert.Equal(t, tt.wantMsg, gerr.Msg())
			assert.Equal(t, tt.wantCode, gerr.Code())
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, nil, instrument.NewNoop())
	err := client.Confirm(context.Background(), "u", "123456")

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, goerror.TypeServer, gerr.Type())
}

func TestClient_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.Verify(ctx, "u", "123456")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
