package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/shandysiswandi/aegis/internal/authflow/entity"
)

// VerificationView is a consistent snapshot of a Verification for rendering.
type VerificationView struct {
	State     entity.VerificationState
	Identity  string
	Slots     [entity.CodeLength]string
	Focus     int
	Error     string
	CanSubmit bool
}

// VerificationOption customises NewVerification.
type VerificationOption func(*Verification)

// WithIdentity verifies an identity enrolled earlier instead of a freshly
// generated one.
func WithIdentity(identity string) VerificationOption {
	return func(v *Verification) {
		if identity = strings.TrimSpace(identity); identity != "" {
			v.identity = identity
			v.fixedIdentity = true
		}
	}
}

// Verification checks a code for an already enrolled identity. There is no
// provisioning step; an incomplete code is rejected locally.
type Verification struct {
	uc *Usecase

	mu            sync.Mutex
	state         entity.VerificationState
	identity      string
	fixedIdentity bool
	buffer        entity.CodeBuffer
	focus         int
	errMsg        string
	generation    uint64
}

// NewVerification creates a verification flow in the idle state.
func (s *Usecase) NewVerification(opts ...VerificationOption) *Verification {
	v := &Verification{uc: s, state: entity.VerificationIdle}
	for _, opt := range opts {
		opt(v)
	}
	if v.identity == "" {
		v.identity = s.identity.Generate()
	}
	return v
}

// SetSlot applies raw input typed into slot index.
func (v *Verification) SetSlot(index int, raw string) entity.FocusTarget {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != entity.VerificationIdle {
		return entity.FocusTarget{}
	}

	var target entity.FocusTarget
	v.buffer, target = v.buffer.SetSlot(index, raw)
	v.focus = applyFocus(v.focus, target)
	return target
}

// Backspace handles a backspace key press in slot index.
func (v *Verification) Backspace(index int) entity.FocusTarget {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != entity.VerificationIdle {
		return entity.FocusTarget{}
	}

	target := v.buffer.Backspace(index)
	v.focus = applyFocus(v.focus, target)
	return target
}

// Paste distributes pasted text over the slots.
func (v *Verification) Paste(text string) entity.FocusTarget {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != entity.VerificationIdle {
		return entity.FocusTarget{}
	}

	var target entity.FocusTarget
	v.buffer, target = v.buffer.Paste(text)
	v.focus = applyFocus(v.focus, target)
	return target
}

// CanSubmit reports whether the submit affordance is enabled. It stays
// enabled for incomplete codes so Submit can explain what is missing.
func (v *Verification) CanSubmit() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.state == entity.VerificationIdle
}

// Submit verifies the entered code and reports whether the service was
// contacted. An incomplete code only sets the inline validation message.
func (v *Verification) Submit(ctx context.Context) bool {
	ctx, span := v.uc.startSpan(ctx, "Verification.Submit")
	defer span.End()

	v.mu.Lock()
	if v.state != entity.VerificationIdle {
		v.mu.Unlock()
		return false
	}
	if !v.buffer.Complete() {
		v.errMsg = entity.MsgCodeIncomplete
		v.mu.Unlock()
		return false
	}
	v.transition(entity.EventSubmit)
	v.errMsg = ""
	identity, code, generation := v.identity, v.buffer.Code(), v.generation
	v.mu.Unlock()

	err := v.uc.gateway.Verify(ctx, identity, code)

	v.mu.Lock()
	defer v.mu.Unlock()

	if generation != v.generation {
		return true
	}

	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "mfa verification rejected", "identity", identity, "error", err)
		v.transition(entity.EventRejected)
		v.errMsg = rejectionMessage(err, entity.MsgVerifyRejected)
		return true
	}

	slog.InfoContext(ctx, "mfa verification accepted", "identity", identity)
	v.transition(entity.EventAccepted)
	return true
}

// Restart clears the code and message. A generated identity is replaced;
// one supplied through WithIdentity is kept.
func (v *Verification) Restart() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.transition(entity.EventRestart)
	v.generation++
	if !v.fixedIdentity {
		v.identity = v.uc.identity.Generate()
	}
	v.buffer = entity.CodeBuffer{}
	v.focus = 0
	v.errMsg = ""
}

// View returns a snapshot of the flow.
func (v *Verification) View() VerificationView {
	v.mu.Lock()
	defer v.mu.Unlock()

	return VerificationView{
		State:     v.state,
		Identity:  v.identity,
		Slots:     v.buffer.Slots(),
		Focus:     v.focus,
		Error:     v.errMsg,
		CanSubmit: v.state == entity.VerificationIdle,
	}
}

func (v *Verification) transition(ev entity.Event) {
	if next, ok := v.state.Next(ev); ok {
		v.state = next
	}
}
