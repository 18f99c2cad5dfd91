package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shandysiswandi/aegis/internal/authflow/entity"
	"github.com/shandysiswandi/aegis/internal/pkg/instrument"
)

type gatewayCall struct {
	op       string
	identity string
	code     string
}

type fakeGateway struct {
	mu    sync.Mutex
	calls []gatewayCall

	artifact     entity.Artifact
	provisionErr error
	confirmErr   error
	verifyErr    error

	// when set, calls block until release is closed
	entered chan struct{}
	release chan struct{}
}

func (f *fakeGateway) record(ctx context.Context, c gatewayCall) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	if f.release != nil {
		if f.entered != nil {
			f.entered <- struct{}{}
		}
		select {
		case <-f.release:
		case <-ctx.Done():
		}
	}
}

func (f *fakeGateway) RequestProvisioning(ctx context.Context, identity string) (entity.Artifact, error) {
	f.record(ctx, gatewayCall{op: "enroll", identity: identity})
	return f.artifact, f.provisionErr
}

func (f *fakeGateway) Confirm(ctx context.Context, identity, code string) error {
	f.record(ctx, gatewayCall{op: "confirm", identity: identity, code: code})
	return f.confirmErr
}

func (f *fakeGateway) Verify(ctx context.Context, identity, code string) error {
	f.record(ctx, gatewayCall{op: "verify", identity: identity, code: code})
	return f.verifyErr
}

func (f *fakeGateway) Calls() []gatewayCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gatewayCall(nil), f.calls...)
}

type seqIdentity struct {
	mu sync.Mutex
	n  int
}

func (s *seqIdentity) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("user_test_%d", s.n)
}

func newTestUsecase(gw *fakeGateway) *Usecase {
	return New(Dependency{
		Gateway:    gw,
		Identity:   &seqIdentity{},
		Instrument: instrument.NewNoop(),
	})
}

var errDial = errors.New("dial tcp 127.0.0.1:8080: connect: connection refused")
