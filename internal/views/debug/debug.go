// Package debug renders the event log overlay: stream lifecycle, pushed
// reports, filter changes and failed requests, newest at the bottom.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lostfound/tui/internal/theme"
)

const capacity = 200

// Kind tags an entry with its source.
type Kind string

const (
	KindStream Kind = "ws"
	KindReport Kind = "rpt"
	KindFilter Kind = "flt"
	KindHTTP   Kind = "http"
	KindError  Kind = "err"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindStream, KindReport, KindFilter, KindHTTP, KindError}

var kindColors = map[Kind]lipgloss.Color{
	KindStream: theme.ColorMatchFound,
	KindReport: theme.ColorHighlight,
	KindFilter: theme.ColorAccent,
	KindHTTP:   theme.ColorHealthy,
	KindError:  theme.ColorDanger,
}

// Entry is one logged event.
type Entry struct {
	Time    time.Time
	Kind    Kind
	Message string
}

// Model keeps the newest entries and the per-kind totals seen since start.
// Only restricts the view to one kind; the empty kind shows everything.
type Model struct {
	entries []Entry
	totals  map[Kind]int
	only    Kind
	back    int
}

func New() Model {
	return Model{totals: make(map[Kind]int)}
}

// Add logs message at the current wall time.
func (m *Model) Add(kind Kind, message string) {
	m.AddAt(time.Now(), kind, message)
}

// AddAt logs message at t. The view jumps back to the newest entry.
func (m *Model) AddAt(t time.Time, kind Kind, message string) {
	if m.totals == nil {
		m.totals = make(map[Kind]int)
	}
	m.totals[kind]++
	m.entries = append(m.entries, Entry{Time: t, Kind: kind, Message: message})
	if over := len(m.entries) - capacity; over > 0 {
		m.entries = append(m.entries[:0], m.entries[over:]...)
	}
	m.back = 0
}

// Len returns the number of retained entries.
func (m Model) Len() int { return len(m.entries) }

// Total returns how many entries of kind were ever logged, including
// those that fell out of the buffer.
func (m Model) Total(kind Kind) int { return m.totals[kind] }

// Only returns the kind the view is restricted to, or "" for all.
func (m Model) Only() Kind { return m.only }

// CycleKind steps the view restriction through all, then each kind.
func (m *Model) CycleKind() {
	m.back = 0
	if m.only == "" {
		m.only = Kinds[0]
		return
	}
	for i, k := range Kinds {
		if k == m.only {
			if i+1 < len(Kinds) {
				m.only = Kinds[i+1]
			} else {
				m.only = ""
			}
			return
		}
	}
	m.only = ""
}

// Shown returns the retained entries passing the kind restriction.
func (m Model) Shown() []Entry {
	if m.only == "" {
		return m.entries
	}
	var out []Entry
	for _, e := range m.entries {
		if e.Kind == m.only {
			out = append(out, e)
		}
	}
	return out
}

// ScrollUp moves n entries towards older ones, stopping at the oldest.
func (m *Model) ScrollUp(n int) {
	m.back = min(m.back+n, max(len(m.Shown())-1, 0))
}

// ScrollDown moves n entries towards the newest.
func (m *Model) ScrollDown(n int) {
	m.back = max(m.back-n, 0)
}

// Back returns how many entries below the viewport are hidden.
func (m Model) Back() int { return m.back }

// View renders the overlay within width x height.
func (m Model) View(width, height int) string {
	inner := max(width-4, 20)
	rows := max(height-8, 3)

	var b strings.Builder
	b.WriteString(theme.StyleHeader.Render(" EVENT LOG ") + "  " + m.summary() + "\n\n")

	shown := m.Shown()
	switch {
	case len(m.entries) == 0:
		b.WriteString(theme.StyleDimmed.Render("  Nothing logged yet.") + "\n")
	case len(shown) == 0:
		b.WriteString(theme.StyleDimmed.Render(fmt.Sprintf("  No %s entries.", m.only)) + "\n")
	default:
		end := len(shown) - m.back
		for _, e := range shown[max(end-rows, 0):end] {
			b.WriteString(line(e, inner) + "\n")
		}
	}

	if m.back > 0 {
		b.WriteString(theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d newer", m.back)) + "\n")
	}
	scope := "all"
	if m.only != "" {
		scope = string(m.only)
	}
	b.WriteString("\n" + theme.StyleDimmed.Render(fmt.Sprintf("[j/k] scroll  [tab] kind: %s  [esc] close", scope)))

	return lipgloss.NewStyle().
		Width(inner).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(b.String())
}

// summary lists the totals per kind, highlighting the restricted kind.
func (m Model) summary() string {
	parts := make([]string, 0, len(Kinds))
	for _, k := range Kinds {
		s := lipgloss.NewStyle().Foreground(kindColors[k])
		if k == m.only {
			s = s.Bold(true).Underline(true)
		}
		parts = append(parts, s.Render(fmt.Sprintf("%s %d", k, m.totals[k])))
	}
	return strings.Join(parts, " ")
}

func line(e Entry, width int) string {
	msg := []rune(e.Message)
	if room := width - 26; room > 3 && len(msg) > room {
		msg = append(msg[:room-3], []rune("...")...)
	}
	return theme.StyleDimmed.Render(e.Time.Format("15:04:05.000")) + " " +
		lipgloss.NewStyle().Foreground(kindColors[e.Kind]).Width(5).Render(string(e.Kind)) +
		string(msg)
}
