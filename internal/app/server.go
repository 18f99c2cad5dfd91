package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 10 * time.Second

// Start serves HTTP until SIGINT or SIGTERM arrives or the listener fails.
// The channel yields the listener error, or nil after a signal.
func (a *App) Start() <-chan error {
	ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM)
	return a.serve(ctx, stop, a.httpServer.ListenAndServe)
}

func (a *App) serve(ctx context.Context, stop context.CancelFunc, listen func() error) <-chan error {
	done := make(chan error, 1)
	listenErr := make(chan error, 1)

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)
		listenErr <- listen()
	}()

	go func() {
		defer close(done)
		defer stop()

		select {
		case <-ctx.Done():
			slog.Info("shutdown requested")
			done <- nil
		case err := <-listenErr:
			if errors.Is(err, http.ErrServerClosed) {
				done <- nil
				return
			}
			slog.Error("http server stopped unexpectedly", "error", err)
			done <- err
		}
	}()

	return done
}

// ShutdownTimeout bounds how long Stop may take.
func (a *App) ShutdownTimeout() time.Duration {
	if a.config != nil {
		if d := a.config.GetSecond("app.server.shutdown_timeout_seconds"); d > 0 {
			return d
		}
	}
	return defaultShutdownTimeout
}

// Stop drains in-flight requests and background publishes, then releases
// every resource in order. Failures are logged and do not stop the rest.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background task failed before shutdown", "error", err)
	}

	for _, c := range a.closers {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
		}
	}
	slog.InfoContext(ctx, "application stopped")
}
