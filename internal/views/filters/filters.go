// Package filters renders the active filter bar and the filter picker
// overlay.
package filters

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lostfound/tui/internal/filter"
	"github.com/lostfound/tui/internal/theme"
)

var labels = map[filter.Dimension]string{
	filter.Section: "Section",
	filter.Time:    "Time",
	filter.Status:  "Status",
	filter.Type:    "Type",
}

// Label returns the display name of a dimension.
func Label(d filter.Dimension) string {
	return labels[d]
}

// ValueLabel returns the display form of a filter value.
func ValueLabel(v string) string {
	return strings.ReplaceAll(v, "_", " ")
}

// Bar renders one line with every dimension and its active value.
func Bar(q filter.Query, width int) string {
	parts := make([]string, 0, len(filter.Dimensions))
	for _, d := range filter.Dimensions {
		v := q.Get(d)
		label := theme.StyleDimmed.Render(Label(d)+":") + " "
		if v == "" {
			parts = append(parts, label+theme.StyleDimmed.Render("all"))
			continue
		}
		parts = append(parts, label+lipgloss.NewStyle().Foreground(theme.ColorAccent).Bold(true).Render(ValueLabel(v)))
	}
	line := "  " + strings.Join(parts, "   ")
	return lipgloss.NewStyle().MaxWidth(max(width, 40)).Render(line)
}

// Picker selects a (dimension, value) pair to toggle.
type Picker struct {
	dim    int
	cursor int
}

// NewPicker creates a picker on the first dimension.
func NewPicker() Picker {
	return Picker{}
}

// Dimension returns the focused dimension.
func (p Picker) Dimension() filter.Dimension {
	return filter.Dimensions[p.dim]
}

// Current returns the focused dimension and value.
func (p Picker) Current() (filter.Dimension, string) {
	d := p.Dimension()
	return d, filter.Values(d)[p.cursor]
}

// NextDim focuses the next dimension.
func (p *Picker) NextDim() {
	p.dim = (p.dim + 1) % len(filter.Dimensions)
	p.cursor = 0
}

// PrevDim focuses the previous dimension.
func (p *Picker) PrevDim() {
	p.dim = (p.dim + len(filter.Dimensions) - 1) % len(filter.Dimensions)
	p.cursor = 0
}

// Up moves to the previous value.
func (p *Picker) Up() {
	if p.cursor > 0 {
		p.cursor--
	}
}

// Down moves to the next value.
func (p *Picker) Down() {
	if p.cursor < len(filter.Values(p.Dimension()))-1 {
		p.cursor++
	}
}

var stylePanel = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(theme.ColorAccent).
	Padding(0, 1)

// View renders the picker. q marks the values currently applied.
func (p Picker) View(q filter.Query) string {
	var b strings.Builder

	tabs := make([]string, 0, len(filter.Dimensions))
	for i, d := range filter.Dimensions {
		if i == p.dim {
			tabs = append(tabs, theme.StyleSelected.Underline(true).Render(Label(d)))
		} else {
			tabs = append(tabs, theme.StyleDimmed.Render(Label(d)))
		}
	}
	b.WriteString(strings.Join(tabs, "  ") + "\n\n")

	d := p.Dimension()
	active := q.Get(d)
	for i, v := range filter.Values(d) {
		check := "[ ]"
		if v == active {
			check = "[x]"
		}
		line := check + " " + ValueLabel(v)
		if i == p.cursor {
			b.WriteString(theme.StyleSelected.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n" + theme.StyleDimmed.Render("[←/→] dimension  [enter] toggle  [c] clear all  [esc] close"))
	return stylePanel.Width(48).Render(b.String())
}
