package inbound

import (
	"context"

	"github.com/shandysiswandi/aegis/internal/identity/usecase"
	"github.com/shandysiswandi/aegis/internal/pkg/router"
)

// HeaderUserID carries the caller identity on enrollment. Whatever sits in
// front of this service is trusted to set it.
const HeaderUserID = "X-User-Id"

const HeaderAuthorization = "Authorization"

type uc interface {
	Enroll(ctx context.Context, in usecase.EnrollInput) (*usecase.EnrollOutput, error)
	Confirm(ctx context.Context, in usecase.ConfirmInput) error
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Session(ctx context.Context, in usecase.SessionInput) (*usecase.SessionOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/mfa/enroll", end.Enroll)
	r.POST("/mfa/confirm", end.Confirm)
	r.POST("/mfa/verify", end.Verify)

	r.POST("/auth/register", end.Register)
	r.POST("/auth/login", end.Login)
	r.GET("/auth/me", end.Me)
}
