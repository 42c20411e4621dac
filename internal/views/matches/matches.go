// Package matches renders the lost/found match candidates with their
// similarity scores.
package matches

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lostfound/tui/internal/client"
	"github.com/lostfound/tui/internal/theme"
)

const (
	colScore = 7
	colItem  = 26
	colSub   = 8
)

// Model holds the matches table state.
type Model struct {
	Width   int
	Height  int
	matches []client.Match
	cursor  int
	offset  int
}

// New creates a matches model.
func New() Model {
	return Model{}
}

// SetMatches replaces the list. Callers pass matches best-first.
func (m *Model) SetMatches(ms []client.Match) {
	m.matches = ms
	if m.cursor >= len(ms) {
		m.cursor = max(0, len(ms)-1)
	}
	m.clampOffset()
}

// Selected returns the match under the cursor.
func (m Model) Selected() (client.Match, bool) {
	if m.cursor >= len(m.matches) {
		return client.Match{}, false
	}
	return m.matches[m.cursor], true
}

// MoveUp moves the cursor one row up.
func (m *Model) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
	m.clampOffset()
}

// MoveDown moves the cursor one row down.
func (m *Model) MoveDown() {
	if m.cursor < len(m.matches)-1 {
		m.cursor++
	}
	m.clampOffset()
}

func (m Model) visibleRows() int {
	if m.Height <= 3 {
		return len(m.matches)
	}
	return m.Height - 3
}

func (m *Model) clampOffset() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// View renders the table.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	header := theme.StyleHeader.Render(fmt.Sprintf("  Matches (%d)", len(m.matches)))
	if len(m.matches) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			theme.StyleDimmed.Render("  No matches yet"),
		)
	}

	dimStyle := lipgloss.NewStyle().Foreground(theme.ColorDimmed)
	tableHeader := fmt.Sprintf("  %-*s %-*s %-*s %*s %*s",
		colScore, "Score",
		colItem, "Lost",
		colItem, "Found",
		colSub, "Image",
		colSub, "Text",
	)
	lines := []string{
		header,
		dimStyle.Render(tableHeader),
		dimStyle.Render("  " + strings.Repeat("─", min(width-4, colScore+2*colItem+2*colSub+4))),
	}

	end := min(len(m.matches), m.offset+m.visibleRows())
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(i))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderRow(i int) string {
	mt := m.matches[i]

	marker := "  "
	if i == m.cursor {
		marker = theme.StyleSelected.Render("▸ ")
	}

	scoreStr := lipgloss.NewStyle().Foreground(theme.ScoreColor(mt.CombinedScore)).Bold(true).
		Width(colScore).Render(Percent(mt.CombinedScore))
	lostStr := lipgloss.NewStyle().Foreground(theme.ColorLost).Width(colItem).
		Render(side(mt.LostReportID, mt.LostReport))
	foundStr := lipgloss.NewStyle().Foreground(theme.ColorFound).Width(colItem).
		Render(side(mt.FoundReportID, mt.FoundReport))
	imgStr := theme.StyleDimmed.Width(colSub).Align(lipgloss.Right).Render(Percent(mt.ImageSimilarity))
	txtStr := theme.StyleDimmed.Width(colSub).Align(lipgloss.Right).Render(Percent(mt.TextSimilarity))

	return fmt.Sprintf("%s%s %s %s %s %s", marker, scoreStr, lostStr, foundStr, imgStr, txtStr)
}

func side(id int64, r *client.Report) string {
	label := fmt.Sprintf("#%d", id)
	if r != nil && r.ItemName != "" {
		label += " " + r.ItemName
	}
	if len([]rune(label)) > colItem-1 {
		label = string([]rune(label)[:colItem-2]) + "…"
	}
	return label
}

// Percent formats a score in [0, 1] as a whole percentage.
func Percent(score float64) string {
	return fmt.Sprintf("%.0f%%", score*100)
}
