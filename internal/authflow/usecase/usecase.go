package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/shandysiswandi/aegis/internal/authflow/entity"
	"github.com/shandysiswandi/aegis/internal/pkg/goerror"
	"github.com/shandysiswandi/aegis/internal/pkg/instrument"
	"github.com/shandysiswandi/aegis/internal/pkg/uid"
	"go.opentelemetry.io/otel/trace"
)

type repoGateway interface {
	RequestProvisioning(ctx context.Context, identity string) (entity.Artifact, error)
	Confirm(ctx context.Context, identity, code string) error
	Verify(ctx context.Context, identity, code string) error
}

type Usecase struct {
	gateway  repoGateway
	identity uid.StringID
	ins      instrument.Instrumentation
}

type Dependency struct {
	Gateway    repoGateway
	Identity   uid.StringID
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		gateway:  dep.Gateway,
		identity: dep.Identity,
		ins:      dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("authflow.usecase").Start(ctx, name)
}

// rejectionMessage picks the message shown after a failed submission: the
// service's own message for a rejection, fallback when it sent none, and a
// generic message when the service could not be reached.
func rejectionMessage(err error, fallback string) string {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) || gerr.Type() == goerror.TypeServer {
		return entity.MsgTransportFailed
	}

	if msg := strings.TrimSpace(gerr.Msg()); msg != "" {
		return msg
	}
	return fallback
}

// applyFocus moves focus when target asks for it.
func applyFocus(current int, target entity.FocusTarget) int {
	if idx, ok := target.Index(); ok {
		return idx
	}
	return current
}
