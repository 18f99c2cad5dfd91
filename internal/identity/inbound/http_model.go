package inbound

import (
	"net/http"
	"time"
)

type EnrollResponse struct {
	QRCodeBase64 string `json:"qrCodeBase64"`
}

type CodeRequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type VerifyResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID string `json:"userId"`
}

func (RegisterResponse) StatusCode() int { return http.StatusCreated }

// LoginResponse keeps token null when a second factor is still required.
type LoginResponse struct {
	Token       *string `json:"token"`
	MFARequired bool    `json:"mfaRequired"`
	UserID      string  `json:"userId"`
}

type SessionResponse struct {
	UserID    string    `json:"userId"`
	MFA       bool      `json:"mfa"`
	ExpiresAt time.Time `json:"expiresAt"`
}
