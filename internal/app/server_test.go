package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/aegis/internal/pkg/config"
	"github.com/shandysiswandi/aegis/internal/pkg/goroutine"
)

func TestServe(t *testing.T) {
	tests := []struct {
		name    string
		listen  func(release <-chan struct{}) error
		cancel  bool
		wantErr string
	}{
		{
			name:    "ListenerFails",
			listen:  func(<-chan struct{}) error { return errors.New("address already in use") },
			wantErr: "address already in use",
		},
		{
			name:   "ServerClosed",
			listen: func(<-chan struct{}) error { return http.ErrServerClosed },
		},
		{
			name: "ShutdownRequested",
			listen: func(release <-chan struct{}) error {
				<-release
				return http.ErrServerClosed
			},
			cancel: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			release := make(chan struct{})
			t.Cleanup(func() { close(release) })

			a := &App{httpServer: &http.Server{Addr: ":0"}}
			ctx, stop := context.WithCancel(context.Background())
			done := a.serve(ctx, stop, func() error { return tt.listen(release) })
			if tt.cancel {
				stop()
			}

			select {
			case err := <-done:
				if tt.wantErr != "" {
					assert.EqualError(t, err, tt.wantErr)
				} else {
					assert.NoError(t, err)
				}
			case <-time.After(time.Second):
				t.Fatal("serve did not finish")
			}

			_, open := <-done
			assert.False(t, open)
			assert.Error(t, ctx.Err())
		})
	}
}

func TestStop_ReleasesEverythingInOrder(t *testing.T) {
	var order []string
	record := func(name string, err error) closer {
		return closer{name: name, fn: func(context.Context) error {
			order = append(order, name)
			return err
		}}
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		ctx:        ctx,
		cancel:     cancel,
		httpServer: &http.Server{},
		goroutine:  goroutine.NewManager(1),
		closers:    []closer{record("Messaging", errors.New("broker gone")), record("Redis", nil)},
	}
	a.goroutine.Go(context.Background(), func(context.Context) error {
		order = append(order, "publish")
		return nil
	})

	a.Stop(context.Background())

	assert.Equal(t, []string{"publish", "Messaging", "Redis"}, order)
	assert.Error(t, ctx.Err())
}

func TestShutdownTimeout(t *testing.T) {
	assert.Equal(t, defaultShutdownTimeout, (&App{}).ShutdownTimeout())

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  server:\n    shutdown_timeout_seconds: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, (&App{config: cfg}).ShutdownTimeout())
}
