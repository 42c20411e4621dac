// Package theme provides the Lip Gloss color palette and reusable styles
// for the lost-and-found dashboard. It is a leaf package with no internal
// imports to avoid import cycles.
package theme

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// Report status colors.
var (
	ColorPending    = lipgloss.Color("#d97706")
	ColorMatchFound = lipgloss.Color("#3b82f6")
	ColorClosed     = lipgloss.Color("#16a34a")
)

// Report type colors.
var (
	ColorLost  = lipgloss.Color("#f87171")
	ColorFound = lipgloss.Color("#34d399")
)

// Match score thresholds.
var (
	ColorScoreHigh = lipgloss.Color("#22c55e") // >=70%
	ColorScoreMid  = lipgloss.Color("#d97706") // >=40%
	ColorScoreLow  = lipgloss.Color("#6b7280")
)

// ColorHighlight marks freshly pushed reports.
var ColorHighlight = lipgloss.Color("#facc15")

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorAccent  = lipgloss.Color("#a855f7")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// StatusColor returns the color for a report status.
func StatusColor(status string) lipgloss.Color {
	switch status {
	case "pending":
		return ColorPending
	case "match_found":
		return ColorMatchFound
	case "closed":
		return ColorClosed
	default:
		return ColorDimmed
	}
}

// StatusLabel returns the display label for a report status.
func StatusLabel(status string) string {
	switch status {
	case "pending":
		return "Pending"
	case "match_found":
		return "Match Found"
	case "closed":
		return "Closed"
	default:
		return status
	}
}

// StatusGlyph returns a Unicode glyph for a report status.
func StatusGlyph(status string) string {
	switch status {
	case "pending":
		return "◌"
	case "match_found":
		return "◎"
	case "closed":
		return "✓"
	default:
		return "·"
	}
}

// TypeColor returns the color for a report type.
func TypeColor(typ string) lipgloss.Color {
	switch typ {
	case "lost":
		return ColorLost
	case "found":
		return ColorFound
	default:
		return ColorDimmed
	}
}

// TypeBadge returns a colored badge for a report type.
func TypeBadge(typ string) string {
	label := "[?]"
	switch typ {
	case "lost":
		label = "[L]"
	case "found":
		label = "[F]"
	}
	return lipgloss.NewStyle().Foreground(TypeColor(typ)).Render(label)
}

// ScoreColor returns the color for a match score in [0, 1].
func ScoreColor(score float64) lipgloss.Color {
	switch {
	case score >= 0.7:
		return ColorScoreHigh
	case score >= 0.4:
		return ColorScoreMid
	default:
		return ColorScoreLow
	}
}

// Blend mixes two #rrggbb colors; t=0 is a, t=1 is b.
func Blend(a, b lipgloss.Color, t float64) lipgloss.Color {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	ar, ag, ab, okA := rgb(a)
	br, bg, bb, okB := rgb(b)
	if !okA || !okB {
		return a
	}
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5) }
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", mix(ar, br), mix(ag, bg), mix(ab, bb)))
}

func rgb(c lipgloss.Color) (r, g, b uint8, ok bool) {
	s := string(c)
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)
)
