package terminal

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shandysiswandi/aegis/internal/authflow/entity"
)

type (
	startedMsg   struct{}
	restartedMsg struct{}
	submittedMsg struct{ sent bool }
	qrSavedMsg   struct {
		path string
		err  error
	}
)

var (
	errSubmitUnavailable = errors.New("submit is not available right now")
	errNoQRCode          = errors.New("no QR code received yet")
)

// Model is the bubbletea model shared by the enrollment and verification
// flows. Blocking usecase calls run as commands so the view keeps
// rendering while a request is in flight.
type Model struct {
	ctx    context.Context
	flow   flow
	th     theme
	qrPath string

	focus  int
	busy   bool
	notice string
	fault  string
}

// Init requests the provisioning artifact for flows that have one.
func (m Model) Init() tea.Cmd {
	if m.flow.start == nil {
		return nil
	}

	ctx, start := m.ctx, m.flow.start
	return func() tea.Msg {
		start(ctx)
		return startedMsg{}
	}
}

// Update applies one event to the flow.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)
	case startedMsg, restartedMsg:
		m.busy = false
		m.notice = ""
		return m, nil
	case submittedMsg:
		m.busy = false
		m.notice = ""
		if m.flow.snapshot().success != "" {
			return m, tea.Quit
		}
		return m, nil
	case qrSavedMsg:
		if msg.err != nil {
			m.fault = msg.err.Error()
			return m, nil
		}
		m.notice = "QR code written to " + msg.path
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) updateKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.fault = ""

	switch k.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyCtrlR:
		return m.restart()
	case tea.KeyCtrlS:
		return m, m.saveQR()
	case tea.KeyLeft:
		m.focus = max(m.focus-1, 0)
	case tea.KeyRight:
		m.focus = min(m.focus+1, entity.CodeLength-1)
	case tea.KeyBackspace, tea.KeyCtrlH:
		m.moveFocus(m.flow.input.Backspace(m.focus))
		m.flow.input.SetSlot(m.focus, "")
	case tea.KeyDelete:
		m.flow.input.SetSlot(m.focus, "")
	case tea.KeyRunes:
		text := string(k.Runes)
		if k.Paste || len(k.Runes) > 1 {
			m.moveFocus(m.flow.input.Paste(text))
		} else {
			m.moveFocus(m.flow.input.SetSlot(m.focus, text))
		}
	}

	return m, nil
}

func (m *Model) moveFocus(target entity.FocusTarget) {
	if idx, ok := target.Index(); ok {
		m.focus = idx
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy || !m.flow.input.CanSubmit() {
		m.fault = errSubmitUnavailable.Error()
		return m, nil
	}

	m.busy = true
	m.notice = "Submitting..."

	ctx, input := m.ctx, m.flow.input
	return m, func() tea.Msg {
		return submittedMsg{sent: input.Submit(ctx)}
	}
}

func (m Model) restart() (tea.Model, tea.Cmd) {
	m.busy = true
	m.focus = 0
	m.notice = "Restarting..."

	ctx, restart := m.ctx, m.flow.restart
	return m, func() tea.Msg {
		restart(ctx)
		return restartedMsg{}
	}
}

func (m Model) saveQR() tea.Cmd {
	s := m.flow.snapshot()
	if !s.hasQR {
		return func() tea.Msg { return qrSavedMsg{err: errors.New("no QR code in this flow")} }
	}

	path, artifact := m.qrPath, s.artifact
	return func() tea.Msg {
		if artifact.IsZero() {
			return qrSavedMsg{err: errNoQRCode}
		}
		img, err := artifact.Image()
		if err != nil {
			return qrSavedMsg{err: fmt.Errorf("decode QR code: %w", err)}
		}
		if err := os.WriteFile(path, img, 0o600); err != nil {
			return qrSavedMsg{err: err}
		}
		return qrSavedMsg{path: path}
	}
}
