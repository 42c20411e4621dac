package mockserver

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostfound/tui/internal/client"
)

// wednesday is 2026-10-14 12:00 UTC.
var wednesday = time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)

func student(t *testing.T, s *Store) client.User {
	t.Helper()
	u, ok := s.User("727625BIT116")
	require.True(t, ok)
	return u
}

func TestTimeWindow(t *testing.T) {
	day := func(m time.Month, d int) time.Time { return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		name       string
		start, end time.Time
	}{
		{"today", day(time.October, 14), wednesday},
		{"this_week", day(time.October, 12), wednesday},
		{"last_week", day(time.October, 5), day(time.October, 12)},
		{"this_month", day(time.October, 1), wednesday},
		{"last_month", day(time.September, 1), day(time.October, 1)},
		{"this_year", day(time.January, 1), wednesday},
		{"last_year", time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), day(time.January, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := TimeWindow(tt.name, wednesday)
			require.True(t, ok)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}

	_, _, ok := TimeWindow("next_week", wednesday)
	assert.False(t, ok)
}

func TestTimeWindowSundayBelongsToPreviousWeek(t *testing.T) {
	sunday := time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)
	start, _, ok := TimeWindow("this_week", sunday)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC), start)
}

func TestReportsFilters(t *testing.T) {
	s := NewStore()
	u := student(t, s)

	old, _ := s.AddReport(u, client.Report{Type: client.TypeLost, ItemName: "Umbrella"}, wednesday.AddDate(0, -1, 0))
	lost, _ := s.AddReport(u, client.Report{Type: client.TypeLost, ItemName: "Wallet"}, wednesday.Add(-time.Hour))
	found, _ := s.AddReport(u, client.Report{Type: client.TypeFound, ItemName: "Charger"}, wednesday.Add(-30*time.Minute))
	_, err := s.SetStatus(lost.ID, client.StatusMatchFound)
	require.NoError(t, err)

	all, err := s.Reports(Filter{}, wednesday)
	require.NoError(t, err)
	assert.Equal(t, []int64{found.ID, lost.ID, old.ID}, reportIDs(all), "newest first")

	tests := []struct {
		name string
		f    Filter
		want []int64
	}{
		{"type", Filter{Type: "lost"}, []int64{lost.ID, old.ID}},
		{"status", Filter{Status: "match_found"}, []int64{lost.ID}},
		{"section", Filter{Section: "IT-B"}, []int64{found.ID, lost.ID, old.ID}},
		{"other section", Filter{Section: "IT-A"}, []int64{}},
		{"today", Filter{TimeFilter: "today"}, []int64{found.ID, lost.ID}},
		{"last month", Filter{TimeFilter: "last_month"}, []int64{old.ID}},
		{"combined", Filter{TimeFilter: "today", Type: "found", Status: "pending"}, []int64{found.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Reports(tt.f, wednesday)
			require.NoError(t, err)
			assert.Equal(t, tt.want, reportIDs(got))
		})
	}

	_, err = s.Reports(Filter{TimeFilter: "someday"}, wednesday)
	assert.Error(t, err)
}

func reportIDs(rs []client.Report) []int64 {
	out := make([]int64, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestSetStatusTransitions(t *testing.T) {
	s := NewStore()
	r, _ := s.AddReport(student(t, s), client.Report{Type: client.TypeFound, ItemName: "ID Card"}, wednesday)

	_, err := s.SetStatus(r.ID, client.StatusClosed)
	var terr *TransitionError
	require.True(t, errors.As(err, &terr), "pending→closed must be rejected, got %v", err)
	assert.Equal(t, "Cannot transition from 'pending' to 'closed'", terr.Error())

	got, err := s.SetStatus(r.ID, client.StatusMatchFound)
	require.NoError(t, err)
	assert.Equal(t, client.StatusMatchFound, got.Status)

	got, err = s.SetStatus(r.ID, client.StatusClosed)
	require.NoError(t, err)
	assert.Equal(t, client.StatusClosed, got.Status)

	_, err = s.SetStatus(r.ID, client.StatusPending)
	assert.True(t, errors.As(err, &terr), "closed is terminal")

	_, err = s.SetStatus(999, client.StatusMatchFound)
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestMatchingAndOrdering(t *testing.T) {
	s := NewStore()
	u := student(t, s)

	lost, high := s.AddReport(u, client.Report{Type: client.TypeLost, ItemName: "Calculator", Category: "Electronics", Description: "Casio scientific calculator"}, wednesday)
	assert.Empty(t, high, "nothing to match against yet")

	// Same category, different words: weak match.
	_, high = s.AddReport(u, client.Report{Type: client.TypeFound, ItemName: "Earphones", Category: "Electronics", Description: "white earphones"}, wednesday)
	assert.Empty(t, high)

	// Identical item: strong match.
	found, high := s.AddReport(u, client.Report{Type: client.TypeFound, ItemName: "Calculator", Category: "Electronics", Description: "Casio scientific calculator"}, wednesday)
	require.Len(t, high, 1)
	assert.Equal(t, lost.ID, high[0].LostReportID)
	assert.Equal(t, found.ID, high[0].FoundReportID)
	assert.InDelta(t, 1.0, high[0].CombinedScore, 1e-9)

	ms := s.Matches()
	require.Len(t, ms, 2)
	assert.GreaterOrEqual(t, ms[0].CombinedScore, ms[1].CombinedScore)
	require.NotNil(t, ms[0].LostReport)
	require.NotNil(t, ms[0].FoundReport)
	assert.Equal(t, "Calculator", ms[0].FoundReport.ItemName)
}

func TestAuthenticate(t *testing.T) {
	s := NewStore()
	u, err := s.Authenticate("ADMINMCET", "ADMIN12345")
	require.NoError(t, err)
	assert.Equal(t, client.RoleAdmin, u.Role)

	_, err = s.Authenticate("ADMINMCET", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)

	assert.Len(t, s.Students(), 4)
}

func TestTextSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, textSimilarity("Blue Bottle", "blue bottle."), 1e-9)
	assert.InDelta(t, 0.0, textSimilarity("", "anything"), 1e-9)
	assert.InDelta(t, 1.0/3.0, textSimilarity("red pen", "red cap"), 1e-9)
}
