package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_CollectsErrors(t *testing.T) {
	m := NewManager(4)
	boom := errors.New("boom")

	var ran atomic.Int32
	for range 3 {
		m.Go(context.Background(), func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}
	m.Go(context.Background(), func(context.Context) error { return boom })

	assert.ErrorIs(t, m.Wait(), boom)
	assert.EqualValues(t, 3, ran.Load())
}

func TestManager_RecoversPanic(t *testing.T) {
	m := NewManager(1)
	m.Go(context.Background(), func(context.Context) error { panic("kaboom") })

	assert.NoError(t, m.Wait())
}

func TestManager_DropsAfterWait(t *testing.T) {
	m := NewManager(1)
	assert.NoError(t, m.Wait())

	called := false
	m.Go(context.Background(), func(context.Context) error { called = true; return nil })
	assert.NoError(t, m.Wait())
	assert.False(t, called)
}

func TestManager_SkipsCanceledContext(t *testing.T) {
	m := NewManager(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	m.Go(ctx, func(context.Context) error { called = true; return nil })
	assert.NoError(t, m.Wait())
	assert.False(t, called)
}

func TestManager_Nil(t *testing.T) {
	var m *Manager
	m.Go(context.Background(), func(context.Context) error { return nil })
	assert.NoError(t, m.Wait())
}
