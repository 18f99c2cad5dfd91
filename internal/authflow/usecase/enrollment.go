package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shandysiswandi/aegis/internal/authflow/entity"
)

// EnrollmentView is a consistent snapshot of an Enrollment for rendering.
type EnrollmentView struct {
	State     entity.EnrollmentState
	Identity  string
	Artifact  entity.Artifact
	Slots     [entity.CodeLength]string
	Focus     int
	Error     string
	CanSubmit bool
}

// Enrollment drives first-time TOTP setup: fetch the QR artifact, collect a
// code and confirm it. At most one request is in flight at a time; results
// of requests started before a Restart are discarded.
type Enrollment struct {
	uc *Usecase

	mu           sync.Mutex
	state        entity.EnrollmentState
	identity     string
	artifact     entity.Artifact
	buffer       entity.CodeBuffer
	focus        int
	errMsg       string
	provisioning bool
	generation   uint64
}

// NewEnrollment creates an enrollment flow with a fresh session identity.
// Call Start to request the provisioning artifact.
func (s *Usecase) NewEnrollment() *Enrollment {
	return &Enrollment{
		uc:       s,
		state:    entity.EnrollmentBootstrapping,
		identity: s.identity.Generate(),
	}
}

// Start requests the provisioning artifact. It is a no-op unless the flow
// is bootstrapping with no request already in flight.
func (e *Enrollment) Start(ctx context.Context) {
	ctx, span := e.uc.startSpan(ctx, "Enrollment.Start")
	defer span.End()

	e.mu.Lock()
	if e.state != entity.EnrollmentBootstrapping || e.provisioning {
		e.mu.Unlock()
		return
	}
	e.provisioning = true
	identity, generation := e.identity, e.generation
	e.mu.Unlock()

	artifact, err := e.uc.gateway.RequestProvisioning(ctx, identity)

	e.mu.Lock()
	defer e.mu.Unlock()

	if generation != e.generation {
		slog.DebugContext(ctx, "discarding provisioning result from before restart", "identity", identity)
		return
	}
	e.provisioning = false

	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "failed to request mfa provisioning", "identity", identity, "error", err)
		e.transition(entity.EventProvisionFailed)
		e.errMsg = entity.MsgBootstrapFailed
		return
	}

	e.artifact = artifact
	e.transition(entity.EventProvisioned)
}

// SetSlot applies raw input typed into slot index.
func (e *Enrollment) SetSlot(index int, raw string) entity.FocusTarget {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.editable() {
		return entity.FocusTarget{}
	}

	var target entity.FocusTarget
	e.buffer, target = e.buffer.SetSlot(index, raw)
	e.focus = applyFocus(e.focus, target)
	return target
}

// Backspace handles a backspace key press in slot index.
func (e *Enrollment) Backspace(index int) entity.FocusTarget {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.editable() {
		return entity.FocusTarget{}
	}

	target := e.buffer.Backspace(index)
	e.focus = applyFocus(e.focus, target)
	return target
}

// Paste distributes pasted text over the slots.
func (e *Enrollment) Paste(text string) entity.FocusTarget {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.editable() {
		return entity.FocusTarget{}
	}

	var target entity.FocusTarget
	e.buffer, target = e.buffer.Paste(text)
	e.focus = applyFocus(e.focus, target)
	return target
}

// CanSubmit reports whether the submit affordance is enabled.
func (e *Enrollment) CanSubmit() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.canSubmit()
}

// Submit confirms the entered code. It returns false without contacting the
// service when the code is incomplete or the flow is not ready, which also
// makes repeated submits while one is in flight harmless. It blocks until
// the service answers.
func (e *Enrollment) Submit(ctx context.Context) bool {
	ctx, span := e.uc.startSpan(ctx, "Enrollment.Submit")
	defer span.End()

	e.mu.Lock()
	if !e.canSubmit() {
		e.mu.Unlock()
		return false
	}
	e.transition(entity.EventSubmit)
	e.errMsg = ""
	identity, code, generation := e.identity, e.buffer.Code(), e.generation
	e.mu.Unlock()

	err := e.uc.gateway.Confirm(ctx, identity, code)

	e.mu.Lock()
	defer e.mu.Unlock()

	if generation != e.generation {
		return true
	}

	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "mfa confirmation rejected", "identity", identity, "error", err)
		e.transition(entity.EventRejected)
		e.errMsg = rejectionMessage(err, entity.MsgConfirmRejected)
		return true
	}

	slog.InfoContext(ctx, "mfa enrollment confirmed", "identity", identity)
	e.transition(entity.EventAccepted)
	return true
}

// Restart discards everything, generates a new identity and requests a new
// provisioning artifact.
func (e *Enrollment) Restart(ctx context.Context) {
	e.mu.Lock()
	e.transition(entity.EventRestart)
	e.generation++
	e.identity = e.uc.identity.Generate()
	e.artifact = entity.Artifact{}
	e.buffer = entity.CodeBuffer{}
	e.focus = 0
	e.errMsg = ""
	e.provisioning = false
	e.mu.Unlock()

	e.Start(ctx)
}

// View returns a snapshot of the flow.
func (e *Enrollment) View() EnrollmentView {
	e.mu.Lock()
	defer e.mu.Unlock()

	return EnrollmentView{
		State:     e.state,
		Identity:  e.identity,
		Artifact:  e.artifact,
		Slots:     e.buffer.Slots(),
		Focus:     e.focus,
		Error:     e.errMsg,
		CanSubmit: e.canSubmit(),
	}
}

func (e *Enrollment) canSubmit() bool {
	return e.state == entity.EnrollmentReady && e.buffer.Complete()
}

// editable reports whether the code may change; it is frozen while a code
// is being confirmed and after it was accepted.
func (e *Enrollment) editable() bool {
	return e.state != entity.EnrollmentSubmitting && e.state != entity.EnrollmentSucceeded
}

func (e *Enrollment) transition(ev entity.Event) {
	if next, ok := e.state.Next(ev); ok {
		e.state = next
	}
}
