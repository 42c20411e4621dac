package detail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lostfound/tui/internal/client"
)

func TestViewNilReport(t *testing.T) {
	assert.Empty(t, Model{}.View())
}

func TestView(t *testing.T) {
	m := New(client.Report{
		ID:          12,
		Type:        client.TypeLost,
		ItemName:    "Calculator",
		Category:    "Electronics",
		Description: "Casio **scientific** calculator",
		Block:       "A Block",
		Floor:       "First",
		Status:      client.StatusPending,
		Username:    "727625BIT116",
		Section:     "IT-B",
		CreatedAt:   "2026-10-19T09:00:00",
	})
	m.Now = time.Date(2026, 10, 19, 9, 5, 30, 0, time.UTC)
	m.Highlighted = true
	m.Matches = []client.Match{{LostReportID: 12, FoundReportID: 15, CombinedScore: 0.82}}

	v := m.View()
	assert.Contains(t, v, "Report #12: Calculator")
	assert.Contains(t, v, "NEW")
	assert.Contains(t, v, "727625BIT116 (IT-B)")
	assert.Contains(t, v, "A Block, First")
	assert.Contains(t, v, "5m 30s ago")
	assert.Contains(t, v, "scientific")
	assert.Contains(t, v, "#15")
	assert.Contains(t, v, "82%")
	assert.Contains(t, v, "[a] mark Match Found")
}

func TestViewClosedHasNoAdvance(t *testing.T) {
	m := New(client.Report{ID: 1, Status: client.StatusClosed})
	m.ActionError = "Cannot transition"
	v := m.View()
	assert.NotContains(t, v, "[a]")
	assert.Contains(t, v, "Error: Cannot transition")
}

func TestFormatCreated(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "garbage", formatCreated("garbage", now))
	assert.Equal(t, "2026-10-16T12:00:00 (3d ago)", formatCreated("2026-10-16T12:00:00", now))
	assert.Equal(t, "2026-10-19T12:00:00", formatCreated("2026-10-19T12:00:00", time.Time{}))
}
