package debug

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 19, 9, 30, 1, 0, time.UTC)

func TestBufferKeepsNewestAndCountsAll(t *testing.T) {
	m := New()
	for i := range capacity + 25 {
		m.AddAt(t0, KindStream, fmt.Sprintf("frame %d", i))
	}
	m.AddAt(t0, KindError, "dial refused")

	require.Equal(t, capacity, m.Len())
	assert.Equal(t, capacity+25, m.Total(KindStream))
	assert.Equal(t, 1, m.Total(KindError))
	shown := m.Shown()
	assert.Equal(t, "dial refused", shown[len(shown)-1].Message)
	assert.Equal(t, "frame 26", shown[0].Message)
}

func TestCycleKindRestrictsView(t *testing.T) {
	m := New()
	m.AddAt(t0, KindStream, "connected")
	m.AddAt(t0, KindReport, "report #7")
	m.AddAt(t0, KindError, "fetch reports: 500")

	var seen []Kind
	for range len(Kinds) + 1 {
		m.CycleKind()
		seen = append(seen, m.Only())
	}
	assert.Equal(t, append(append([]Kind{}, Kinds...), ""), seen)

	for m.Only() != KindReport {
		m.CycleKind()
	}
	shown := m.Shown()
	require.Len(t, shown, 1)
	assert.Equal(t, "report #7", shown[0].Message)

	v := m.View(100, 20)
	assert.Contains(t, v, "report #7")
	assert.NotContains(t, v, "connected")
	assert.Contains(t, v, "kind: rpt")
}

func TestEmptyKindMessage(t *testing.T) {
	m := New()
	m.AddAt(t0, KindStream, "connected")
	m.CycleKind()
	m.CycleKind()
	assert.Equal(t, KindReport, m.Only())
	assert.Contains(t, m.View(100, 20), "No rpt entries")
}

func TestScrollBounds(t *testing.T) {
	m := New()
	for range 5 {
		m.AddAt(t0, KindHTTP, "loaded")
	}
	m.ScrollUp(100)
	assert.Equal(t, 4, m.Back())
	m.ScrollDown(3)
	assert.Equal(t, 1, m.Back())
	m.ScrollDown(10)
	assert.Equal(t, 0, m.Back())

	m.ScrollUp(2)
	m.AddAt(t0, KindHTTP, "loaded again")
	assert.Equal(t, 0, m.Back(), "a new entry jumps to the newest")
}

func TestViewShowsScrolledWindow(t *testing.T) {
	m := New()
	for i := range 30 {
		m.AddAt(t0, KindStream, fmt.Sprintf("event-%02d", i))
	}
	m.ScrollUp(10)
	v := m.View(100, 14)
	assert.Contains(t, v, "event-19")
	assert.NotContains(t, v, "event-20")
	assert.Contains(t, v, "10 newer")
}

func TestViewEntryLine(t *testing.T) {
	m := New()
	assert.Contains(t, m.View(80, 20), "Nothing logged yet")

	m.AddAt(t0, KindReport, "report #7 pushed")
	m.AddAt(t0, KindError, strings.Repeat("x", 300))
	v := m.View(100, 20)
	assert.Contains(t, v, "09:30:01.000")
	assert.Contains(t, v, "report #7 pushed")
	assert.Contains(t, v, "rpt 1")
	assert.Contains(t, v, "...")
	assert.NotContains(t, v, strings.Repeat("x", 300))
}

func TestZeroValueUsable(t *testing.T) {
	var m Model
	m.Add(KindFilter, "section=IT-B")
	assert.Equal(t, 1, m.Total(KindFilter))
}
