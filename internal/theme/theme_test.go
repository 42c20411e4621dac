package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestBlend(t *testing.T) {
	black := lipgloss.Color("#000000")
	white := lipgloss.Color("#ffffff")

	tests := []struct {
		t    float64
		want lipgloss.Color
	}{
		{-1, black},
		{0, black},
		{0.5, "#808080"},
		{1, white},
		{2, white},
	}
	for _, tt := range tests {
		if got := Blend(black, white, tt.t); got != tt.want {
			t.Errorf("Blend(black, white, %v) = %q, want %q", tt.t, got, tt.want)
		}
	}

	if got := Blend("red", white, 0.5); got != "red" {
		t.Errorf("non-hex input should be returned unchanged, got %q", got)
	}
}

func TestScoreColor(t *testing.T) {
	tests := []struct {
		score float64
		want  lipgloss.Color
	}{
		{0.95, ColorScoreHigh},
		{0.70, ColorScoreHigh},
		{0.69, ColorScoreMid},
		{0.40, ColorScoreMid},
		{0.39, ColorScoreLow},
		{0, ColorScoreLow},
	}
	for _, tt := range tests {
		if got := ScoreColor(tt.score); got != tt.want {
			t.Errorf("ScoreColor(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestStatusLabels(t *testing.T) {
	if StatusLabel("match_found") != "Match Found" {
		t.Errorf("StatusLabel(match_found) = %q", StatusLabel("match_found"))
	}
	if StatusColor("closed") != ColorClosed {
		t.Error("closed should use ColorClosed")
	}
	if StatusGlyph("unknown") != "·" {
		t.Error("unknown status should use the fallback glyph")
	}
}
