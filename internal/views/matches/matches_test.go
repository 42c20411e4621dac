package matches

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lostfound/tui/internal/client"
)

func TestView(t *testing.T) {
	m := New()
	assert.Contains(t, m.View(), "No matches yet")

	m.Width = 120
	m.SetMatches([]client.Match{
		{
			ID: 1, LostReportID: 4, FoundReportID: 9,
			ImageSimilarity: 1, TextSimilarity: 0.5, CombinedScore: 0.7,
			LostReport:  &client.Report{ItemName: "Calculator"},
			FoundReport: &client.Report{ItemName: "Calculator"},
		},
		{ID: 2, LostReportID: 5, FoundReportID: 9, CombinedScore: 0.123},
	})

	v := m.View()
	assert.Contains(t, v, "Matches (2)")
	assert.Contains(t, v, "70%")
	assert.Contains(t, v, "#4 Calculator")
	assert.Contains(t, v, "#5")
	assert.Contains(t, v, "12%")
}

func TestCursorClampedOnShrink(t *testing.T) {
	m := New()
	m.SetMatches([]client.Match{{ID: 1}, {ID: 2}, {ID: 3}})
	m.MoveDown()
	m.MoveDown()
	m.MoveDown()
	sel, ok := m.Selected()
	assert.True(t, ok)
	assert.Equal(t, int64(3), sel.ID)

	m.SetMatches([]client.Match{{ID: 1}})
	sel, ok = m.Selected()
	assert.True(t, ok)
	assert.Equal(t, int64(1), sel.ID)

	m.SetMatches(nil)
	_, ok = m.Selected()
	assert.False(t, ok)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "0%", Percent(0))
	assert.Equal(t, "86%", Percent(0.8571))
	assert.Equal(t, "100%", Percent(1))
}
