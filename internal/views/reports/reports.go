// Package reports renders the live report table. Rows pushed over the
// event stream are tinted while highlighted and fade back to normal on a
// spring.
package reports

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/lostfound/tui/internal/client"
	"github.com/lostfound/tui/internal/theme"
)

// FrameRate is the animation rate callers should tick Animate at.
const FrameRate = 10

// fadeFloor is the spring position below which a fade is considered done.
const fadeFloor = 0.02

// Column widths.
const (
	colID       = 6
	colType     = 4
	colItem     = 18
	colCategory = 12
	colLocation = 24
	colReporter = 14
	colSection  = 6
	colStatus   = 13
	colCreated  = 16
)

type fade struct {
	pos, vel float64
}

// Model holds the table state.
type Model struct {
	Width  int
	Height int

	reports []client.Report
	cursor  int
	offset  int

	highlighted map[int64]bool
	fades       map[int64]*fade
	spring      harmonica.Spring
}

// New creates a table model.
func New() Model {
	return Model{
		highlighted: make(map[int64]bool),
		fades:       make(map[int64]*fade),
		// Critically damped: settles in about three seconds at this frequency.
		spring: harmonica.NewSpring(harmonica.FPS(FrameRate), 2.0, 1.0),
	}
}

// SetReports replaces the rows. The cursor stays on the same report when
// it is still present. isHighlighted reports whether a row is flagged as
// new; newly flagged rows start a fade at full intensity.
func (m *Model) SetReports(rs []client.Report, isHighlighted func(int64) bool) {
	var selected int64
	if r, ok := m.Selected(); ok {
		selected = r.ID
	}

	m.reports = rs
	clear(m.highlighted)
	for _, r := range rs {
		if isHighlighted != nil && isHighlighted(r.ID) {
			m.highlighted[r.ID] = true
			if _, ok := m.fades[r.ID]; !ok {
				m.fades[r.ID] = &fade{pos: 1}
			}
		}
	}
	for id := range m.fades {
		if !m.highlighted[id] {
			delete(m.fades, id)
		}
	}

	m.cursor = 0
	for i, r := range rs {
		if r.ID == selected {
			m.cursor = i
			break
		}
	}
	m.clampOffset()
}

// Animate advances every fade by one frame. It reports whether any fade
// is still visible.
func (m *Model) Animate() bool {
	active := false
	for _, f := range m.fades {
		f.pos, f.vel = m.spring.Update(f.pos, f.vel, 0)
		if f.pos > fadeFloor {
			active = true
		}
	}
	return active
}

// Fading reports whether any fade is still visible.
func (m Model) Fading() bool {
	for _, f := range m.fades {
		if f.pos > fadeFloor {
			return true
		}
	}
	return false
}

// Intensity returns the fade level of a row in [0, 1].
func (m Model) Intensity(id int64) float64 {
	f, ok := m.fades[id]
	if !ok {
		return 0
	}
	return max(0, min(1, f.pos))
}

// Len returns the number of rows.
func (m Model) Len() int {
	return len(m.reports)
}

// Selected returns the report under the cursor.
func (m Model) Selected() (client.Report, bool) {
	if m.cursor < 0 || m.cursor >= len(m.reports) {
		return client.Report{}, false
	}
	return m.reports[m.cursor], true
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
	if m.cursor < len(m.reports)-1 {
		m.cursor++
	}
	m.clampOffset()
}

func (m Model) visibleRows() int {
	if m.Height <= 3 {
		return len(m.reports)
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

	header := theme.StyleHeader.Render(fmt.Sprintf("  Reports (%d)", len(m.reports)))
	if len(m.reports) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			theme.StyleDimmed.Render("  No reports"),
		)
	}

	dimStyle := lipgloss.NewStyle().Foreground(theme.ColorDimmed)
	tableHeader := fmt.Sprintf("  %-*s %-*s %-*s %-*s %-*s %-*s %-*s %-*s %-*s",
		colID, "ID",
		colType, "",
		colItem, "Item",
		colCategory, "Category",
		colLocation, "Location",
		colReporter, "Reporter",
		colSection, "Sec",
		colStatus, "Status",
		colCreated, "Submitted",
	)
	total := colID + colType + colItem + colCategory + colLocation + colReporter + colSection + colStatus + colCreated + 8
	lines := []string{
		header,
		dimStyle.Render(tableHeader),
		dimStyle.Render("  " + strings.Repeat("─", min(width-4, total))),
	}

	end := min(len(m.reports), m.offset+m.visibleRows())
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(i))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderRow(i int) string {
	r := m.reports[i]

	textColor := theme.ColorBright
	marker := "  "
	if m.highlighted[r.ID] {
		textColor = theme.Blend(theme.ColorBright, theme.ColorHighlight, m.Intensity(r.ID))
		marker = lipgloss.NewStyle().Foreground(theme.ColorHighlight).Render("★ ")
	}
	if i == m.cursor {
		marker = theme.StyleSelected.Render("▸ ")
	}

	text := lipgloss.NewStyle().Foreground(textColor)
	if i == m.cursor {
		text = text.Bold(true)
	}

	idStr := text.Width(colID).Render(fmt.Sprintf("#%d", r.ID))
	typeStr := lipgloss.NewStyle().Width(colType).Render(theme.TypeBadge(string(r.Type)))
	itemStr := text.Width(colItem).Render(truncate(r.ItemName, colItem-1))
	catStr := text.Width(colCategory).Render(truncate(r.Category, colCategory-1))
	locStr := text.Width(colLocation).Render(truncate(Location(r), colLocation-1))
	userStr := text.Width(colReporter).Render(truncate(r.Username, colReporter-1))
	secStr := text.Width(colSection).Render(r.Section)

	status := string(r.Status)
	statusStr := lipgloss.NewStyle().Foreground(theme.StatusColor(status)).Width(colStatus).
		Render(theme.StatusGlyph(status) + " " + theme.StatusLabel(status))
	createdStr := lipgloss.NewStyle().Foreground(theme.ColorDimmed).Width(colCreated).
		Render(shortTime(r.CreatedAt))

	return fmt.Sprintf("%s%s %s %s %s %s %s %s %s %s",
		marker, idStr, typeStr, itemStr, catStr, locStr, userStr, secStr, statusStr, createdStr)
}

// Location joins the block, floor and spot of a report.
func Location(r client.Report) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Block, r.Floor, r.SpecificLocation} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// shortTime trims an ISO timestamp to minutes.
func shortTime(ts string) string {
	ts = strings.Replace(ts, "T", " ", 1)
	if len(ts) > 16 {
		return ts[:16]
	}
	return ts
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
