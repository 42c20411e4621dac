package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lostfound/tui/internal/filter"
)

func TestPickerNavigation(t *testing.T) {
	p := NewPicker()
	d, v := p.Current()
	assert.Equal(t, filter.Section, d)
	assert.Equal(t, "IT-A", v)

	p.Down()
	p.Down()
	p.Down() // clamps at IT-C
	_, v = p.Current()
	assert.Equal(t, "IT-C", v)

	p.NextDim()
	d, v = p.Current()
	assert.Equal(t, filter.Time, d)
	assert.Equal(t, "today", v, "switching dimension resets the cursor")

	p.PrevDim()
	p.PrevDim()
	assert.Equal(t, filter.Type, p.Dimension(), "wraps around")

	p.Up()
	_, v = p.Current()
	assert.Equal(t, "lost", v)
}

func TestBar(t *testing.T) {
	q := filter.Query{
		{Dimension: filter.Section, Value: "IT-B"},
		{Dimension: filter.Status, Value: "match_found"},
	}
	bar := Bar(q, 120)
	assert.Contains(t, bar, "Section: IT-B")
	assert.Contains(t, bar, "Time: all")
	assert.Contains(t, bar, "Status: match found")
	assert.Contains(t, bar, "Type: all")
}

func TestPickerViewMarksActive(t *testing.T) {
	p := NewPicker()
	v := p.View(filter.Query{{Dimension: filter.Section, Value: "IT-B"}})
	assert.Contains(t, v, "[x] IT-B")
	assert.Contains(t, v, "[ ] IT-A")
}
