package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/aegis/internal/identity"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			Config:       a.config,
			Instrument:   a.ins,
			UID:          a.uid,
			HMAC:         a.hmac,
			Password:     a.bcrypt,
			JWT:          a.jwt,
			MFAEncryptor: a.mfaEncryptor,
			Clock:        a.clock,
			Validator:    a.validator,
			Router:       a.router,
			Totp:         a.totp,
			DBConn:       a.dbConn,
			CacheConn:    a.cacheConn,
			Idempotency:  a.idemp,
			Messaging:    a.messaging,
			Goroutine:    a.goroutine,
		}); err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
	}
}
