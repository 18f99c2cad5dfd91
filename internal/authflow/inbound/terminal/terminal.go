// Package terminal presents the MFA flows as an interactive bubbletea
// program.
//
// Digits typed into the focused slot advance focus, backspace steps back
// over empty slots, pasted text is spread across the slots and enter
// submits. ctrl+r restarts the flow, ctrl+s saves the enrollment QR image
// and esc quits.
package terminal

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shandysiswandi/aegis/internal/authflow/entity"
	"github.com/shandysiswandi/aegis/internal/authflow/usecase"
)

const defaultQRPath = "mfa-qr.png"

// Option customises a Terminal.
type Option func(*Terminal)

// WithQRPath sets where ctrl+s writes the enrollment QR image.
func WithQRPath(path string) Option {
	return func(t *Terminal) {
		if path != "" {
			t.qrPath = path
		}
	}
}

// Terminal runs flows against the given input and output streams.
type Terminal struct {
	in     io.Reader
	out    io.Writer
	th     theme
	qrPath string
}

// New returns a Terminal bound to the given streams.
func New(in io.Reader, out io.Writer, opts ...Option) *Terminal {
	t := &Terminal{
		in:     in,
		out:    out,
		th:     newTheme(lipgloss.NewRenderer(out)),
		qrPath: defaultQRPath,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RunEnrollment requests the QR artifact and runs until the code is
// confirmed or the user quits.
func (t *Terminal) RunEnrollment(ctx context.Context, e *usecase.Enrollment) error {
	return t.run(ctx, newEnrollmentModel(ctx, e, t.th, t.qrPath))
}

// RunVerification runs until the code is verified or the user quits.
func (t *Terminal) RunVerification(ctx context.Context, v *usecase.Verification) error {
	return t.run(ctx, newVerificationModel(ctx, v, t.th))
}

func (t *Terminal) run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
	)

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

type codeInput interface {
	SetSlot(index int, raw string) entity.FocusTarget
	Backspace(index int) entity.FocusTarget
	Paste(text string) entity.FocusTarget
	CanSubmit() bool
	Submit(ctx context.Context) bool
}

// flow adapts one usecase flow to the shared Model.
type flow struct {
	input    codeInput
	start    func(ctx context.Context)
	restart  func(ctx context.Context)
	snapshot func() snapshot
}

func newEnrollmentModel(ctx context.Context, e *usecase.Enrollment, th theme, qrPath string) Model {
	return Model{
		ctx:    ctx,
		th:     th,
		qrPath: qrPath,
		flow: flow{
			input:   e,
			start:   e.Start,
			restart: e.Restart,
			snapshot: func() snapshot {
				v := e.View()
				s := snapshot{
					title:     "Enrollment",
					state:     v.State.String(),
					identity:  v.Identity,
					slots:     v.Slots,
					errMsg:    v.Error,
					canSubmit: v.CanSubmit,
					artifact:  v.Artifact,
					hasQR:     true,
				}
				switch v.State {
				case entity.EnrollmentBootstrapping:
					s.waiting = true
				case entity.EnrollmentFailed:
					s.failed = true
				case entity.EnrollmentSucceeded:
					s.success = entity.MsgEnrollmentSuccess
				}
				return s
			},
		},
	}
}

func newVerificationModel(ctx context.Context, v *usecase.Verification, th theme) Model {
	return Model{
		ctx: ctx,
		th:  th,
		flow: flow{
			input:   v,
			restart: func(context.Context) { v.Restart() },
			snapshot: func() snapshot {
				view := v.View()
				s := snapshot{
					title:     "Verification",
					state:     view.State.String(),
					identity:  view.Identity,
					slots:     view.Slots,
					errMsg:    view.Error,
					canSubmit: view.CanSubmit,
				}
				if view.State == entity.VerificationSucceeded {
					s.success = entity.MsgVerifySuccess
				}
				return s
			},
		},
	}
}
