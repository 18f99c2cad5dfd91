package inbound

import (
	"encoding/base64"
	"strings"

	"github.com/shandysiswandi/aegis/internal/identity/usecase"
	"github.com/shandysiswandi/aegis/internal/pkg/router"
)

// HTTPEndpoint exposes the MFA enrollment and verification handlers.
type HTTPEndpoint struct {
	uc uc
}

// Enroll starts (or restarts) a pending enrollment for the caller and
// returns the provisioning QR code as raw base64 PNG.
func (h *HTTPEndpoint) Enroll(r *router.Request) (any, error) {
	resp, err := h.uc.Enroll(r.Context(), usecase.EnrollInput{
		UserID: r.GetHeader(HeaderUserID),
	})
	if err != nil {
		return nil, err
	}

	return EnrollResponse{QRCodeBase64: base64.StdEncoding.EncodeToString(resp.QRCode)}, nil
}

// Confirm activates a pending enrollment with the first valid code.
func (h *HTTPEndpoint) Confirm(r *router.Request) (any, error) {
	var req CodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Confirm(r.Context(), usecase.ConfirmInput{
		UserID: req.UserID,
		Code:   req.Code,
	}); err != nil {
		return nil, err
	}

	return MessageResponse{Message: "MFA confirmed"}, nil
}

func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req CodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		UserID: req.UserID,
		Code:   req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{Message: "MFA verified", Token: resp.Token}, nil
}

func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req CredentialsRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{UserID: resp.UserID}, nil
}

// Login answers with a token, or with mfaRequired and the userId to verify
// when the account has an active second factor.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req CredentialsRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	out := LoginResponse{MFARequired: resp.MFARequired, UserID: resp.UserID}
	if resp.Token != "" {
		out.Token = &resp.Token
	}
	return out, nil
}

func (h *HTTPEndpoint) Me(r *router.Request) (any, error) {
	token, _ := strings.CutPrefix(r.GetHeader(HeaderAuthorization), "Bearer ")

	resp, err := h.uc.Session(r.Context(), usecase.SessionInput{Token: token})
	if err != nil {
		return nil, err
	}

	return SessionResponse{UserID: resp.UserID, MFA: resp.MFA, ExpiresAt: resp.ExpiresAt}, nil
}
