// Package detail renders the report info flyout overlay.
package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/lostfound/tui/internal/client"
	"github.com/lostfound/tui/internal/theme"
	"github.com/lostfound/tui/internal/views/matches"
	"github.com/lostfound/tui/internal/views/reports"
)

const (
	panelWidth = 68
	labelWidth = 12
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBorder).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleFooter = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)

	styleSectionHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.ColorDimmed)
)

// Model holds the state for the detail overlay.
type Model struct {
	Report      *client.Report
	Matches     []client.Match // matches involving Report
	Highlighted bool
	ActionError string
	Busy        bool
	Now         time.Time
}

// New creates a detail model for the given report.
func New(r client.Report) Model {
	return Model{Report: &r}
}

// View renders the detail panel. Returns an empty string if no report is
// set.
func (m Model) View() string {
	if m.Report == nil {
		return ""
	}
	return stylePanel.Width(panelWidth).Render(m.renderInner(m.Report))
}

func (m Model) renderInner(r *client.Report) string {
	var b strings.Builder

	title := styleTitle.Render(fmt.Sprintf("Report #%d: %s", r.ID, r.ItemName))
	if m.Highlighted {
		title += " " + lipgloss.NewStyle().Foreground(theme.ColorHighlight).Bold(true).Render("NEW")
	}
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	writeRow(&b, "Type", theme.TypeBadge(string(r.Type))+" "+string(r.Type))
	status := string(r.Status)
	writeRow(&b, "Status", lipgloss.NewStyle().Foreground(theme.StatusColor(status)).
		Render(theme.StatusGlyph(status)+" "+theme.StatusLabel(status)))
	if r.Category != "" {
		writeRow(&b, "Category", r.Category)
	}
	if loc := reports.Location(*r); loc != "" {
		writeRow(&b, "Location", loc)
	}
	if r.Username != "" {
		who := r.Username
		if r.Section != "" {
			who += " (" + r.Section + ")"
		}
		writeRow(&b, "Reporter", who)
	}
	if r.DateReported != "" {
		writeRow(&b, "Date", r.DateReported)
	}
	if r.CreatedAt != "" {
		writeRow(&b, "Submitted", formatCreated(r.CreatedAt, m.Now))
	}
	if r.ImagePath != "" {
		writeRow(&b, "Image", r.ImagePath)
	}

	if r.Description != "" {
		b.WriteString("\n")
		b.WriteString(styleSectionHeader.Render("Description") + "\n")
		b.WriteString(renderMarkdown(r.Description, panelWidth-4) + "\n")
	}

	if len(m.Matches) > 0 {
		b.WriteString("\n")
		b.WriteString(styleSectionHeader.Render(fmt.Sprintf("Matches (%d)", len(m.Matches))) + "\n")
		for _, mt := range m.Matches {
			other := mt.FoundReportID
			if other == r.ID {
				other = mt.LostReportID
			}
			score := lipgloss.NewStyle().Foreground(theme.ScoreColor(mt.CombinedScore)).
				Render(matches.Percent(mt.CombinedScore))
			b.WriteString(fmt.Sprintf("  #%d  %s\n", other, score))
		}
	}

	if m.ActionError != "" {
		b.WriteString("\n")
		b.WriteString(theme.StyleError.Render("Error: "+m.ActionError) + "\n")
	}

	b.WriteString("\n")
	footer := "[esc] close"
	if next, ok := r.Status.Next(); ok {
		footer = fmt.Sprintf("[a] mark %s  [esc] close", theme.StatusLabel(string(next)))
	}
	if m.Busy {
		footer = "updating..."
	}
	b.WriteString(styleFooter.Render(footer))

	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(value) + "\n")
}

// renderMarkdown renders free text with glamour, falling back to the raw
// text when rendering fails.
func renderMarkdown(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// formatCreated shows a server timestamp with its age when it parses.
func formatCreated(ts string, now time.Time) string {
	t, err := time.ParseInLocation("2006-01-02T15:04:05", ts, time.UTC)
	if err != nil || now.IsZero() {
		return ts
	}
	return ts + " (" + formatAge(now.Sub(t)) + ")"
}

func formatAge(d time.Duration) string {
	switch {
	case d < 0:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds ago", int(d.Minutes()), int(d.Seconds())%60)
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh %dm ago", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
