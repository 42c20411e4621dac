// Package dashboard renders the report counters row of the admin
// dashboard.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lostfound/tui/internal/board"
	"github.com/lostfound/tui/internal/theme"
)

// Model holds the dashboard state.
type Model struct {
	Width int
	stats board.Stats
}

// New creates a dashboard model.
func New() Model {
	return Model{}
}

// SetStats updates the counters.
func (m *Model) SetStats(s board.Stats) {
	m.stats = s
}

// View renders the stats row.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	s := m.stats
	statStyle := lipgloss.NewStyle().Padding(0, 1)

	stats := []string{
		statStyle.Foreground(theme.ColorBright).Bold(true).Render(
			fmt.Sprintf("Total: %d", s.Total)),
		statStyle.Foreground(theme.ColorPending).Render(
			fmt.Sprintf("Pending: %d", s.Pending)),
		statStyle.Foreground(theme.ColorMatchFound).Render(
			fmt.Sprintf("Matched: %d", s.Matched)),
		statStyle.Foreground(theme.ColorClosed).Render(
			fmt.Sprintf("Closed: %d", s.Closed)),
		statStyle.Foreground(theme.ColorLost).Render(
			fmt.Sprintf("Lost: %d", s.Lost)),
		statStyle.Foreground(theme.ColorFound).Render(
			fmt.Sprintf("Found: %d", s.Found)),
	}

	content := strings.Join(stats, lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | "))

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
