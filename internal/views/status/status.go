package status

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lostfound/tui/internal/client"
	"github.com/lostfound/tui/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	State    client.State
	Attempt  int
	RetryAt  time.Time
	Attempts int // attempts made when the client gave up
	User     string
	Width    int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// Apply folds a connectivity event into the bar. Report events are
// ignored.
func (m *Model) Apply(ev client.Event) {
	switch e := ev.(type) {
	case client.Connecting:
		m.State = client.StateConnecting
		m.Attempt = e.Attempt
		m.RetryAt = time.Time{}
	case client.Connected:
		m.State = client.StateOpen
		m.Attempt = 0
		m.RetryAt = time.Time{}
	case client.Disconnected:
		m.State = client.StateClosed
	case client.ReconnectScheduled:
		m.State = client.StateClosed
		m.Attempt = e.Attempt
		m.RetryAt = e.At
	case client.GaveUp:
		m.State = client.StateGaveUp
		m.Attempts = e.Attempts
		m.RetryAt = time.Time{}
	}
}

// Retrying reports whether a reconnect is pending.
func (m Model) Retrying() bool {
	return !m.RetryAt.IsZero()
}

// View renders the status bar. now drives the retry countdown.
func (m Model) View(now time.Time) string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	content := m.connLabel(now)
	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	if m.User != "" {
		content += sep + lipgloss.NewStyle().Foreground(theme.ColorAccent).Render(m.User)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func (m Model) connLabel(now time.Time) string {
	switch m.State {
	case client.StateOpen:
		return lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Live")
	case client.StateConnecting:
		label := "○ Connecting..."
		if m.Attempt > 0 {
			label = fmt.Sprintf("○ Reconnecting (attempt %d)...", m.Attempt)
		}
		return lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(label)
	case client.StateClosed:
		label := "○ Disconnected"
		if m.Retrying() {
			wait := m.RetryAt.Sub(now).Round(time.Second)
			if wait < 0 {
				wait = 0
			}
			label = fmt.Sprintf("○ Disconnected, retry %d in %s", m.Attempt, wait)
		}
		return lipgloss.NewStyle().Foreground(theme.ColorDanger).Render(label)
	case client.StateGaveUp:
		return lipgloss.NewStyle().Foreground(theme.ColorDanger).Bold(true).
			Render(fmt.Sprintf("✕ Offline after %d attempts, press r to retry", m.Attempts))
	default:
		return theme.StyleDimmed.Render("○ Idle")
	}
}
