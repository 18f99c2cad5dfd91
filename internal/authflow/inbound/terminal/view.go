package terminal

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shandysiswandi/aegis/internal/authflow/entity"
)

const (
	previewLen = 48
	keyHelp    = "[0-9] type  [backspace] erase  [←/→] move  [enter] submit  [ctrl+r] restart  [esc] quit"
	qrKeyHelp  = "  [ctrl+s] save QR"
)

type theme struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	focus  lipgloss.Style
	errMsg lipgloss.Style
	ok     lipgloss.Style
}

func newTheme(r *lipgloss.Renderer) theme {
	return theme{
		title:  r.NewStyle().Bold(true),
		muted:  r.NewStyle().Foreground(lipgloss.Color("244")),
		focus:  r.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		errMsg: r.NewStyle().Foreground(lipgloss.Color("196")),
		ok:     r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
	}
}

// snapshot is the flow state the view needs, independent of the flow kind.
type snapshot struct {
	title     string
	state     string
	identity  string
	slots     [entity.CodeLength]string
	errMsg    string
	canSubmit bool
	hasQR     bool
	artifact  entity.Artifact
	waiting   bool
	failed    bool
	success   string
}

// View renders the current flow state.
func (m Model) View() string {
	s := m.flow.snapshot()

	lines := []string{
		m.th.title.Render(s.title) + "  " + m.th.muted.Render("state="+s.state+"  identity="+s.identity),
		"",
	}

	switch {
	case s.success != "":
		lines = append(lines, m.th.ok.Render(s.success))
		return strings.Join(lines, "\n") + "\n"
	case s.failed:
		lines = append(lines,
			m.th.errMsg.Render("Error: "+s.errMsg),
			m.th.muted.Render("Press ctrl+r to try again."),
		)
		return strings.Join(lines, "\n") + "\n"
	case s.waiting:
		lines = append(lines, "Waiting for the QR code...")
	}

	if !s.artifact.IsZero() {
		uri := s.artifact.DataURI()
		if len(uri) > previewLen {
			uri = uri[:previewLen] + "..."
		}
		lines = append(lines, "QR code: "+uri)
	}

	lines = append(lines, "Code: "+m.formatSlots(s.slots))
	if s.errMsg != "" {
		lines = append(lines, m.th.errMsg.Render("Error: "+s.errMsg))
	}
	if m.fault != "" {
		lines = append(lines, m.th.errMsg.Render("! "+m.fault))
	}
	lines = append(lines, "Submit: "+onOff(s.canSubmit))
	if m.notice != "" {
		lines = append(lines, m.notice)
	}

	help := keyHelp
	if s.hasQR {
		help += qrKeyHelp
	}
	lines = append(lines, "", m.th.muted.Render(help))

	return strings.Join(lines, "\n") + "\n"
}

func (m Model) formatSlots(slots [entity.CodeLength]string) string {
	return formatSlots(slots, m.focus, m.th.focus.Render)
}

// formatSlots draws the slots with "_" for empty ones and brackets around
// the focused one.
func formatSlots(slots [entity.CodeLength]string, focus int, highlight func(...string) string) string {
	var b strings.Builder
	for i, s := range slots {
		if s == "" {
			s = "_"
		}
		if i == focus {
			b.WriteString(highlight("[" + s + "]"))
		} else {
			b.WriteString(" " + s + " ")
		}
	}
	return b.String()
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
