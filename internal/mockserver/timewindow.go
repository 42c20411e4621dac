package mockserver

import "time"

// TimeWindow returns the [start, end] range named by a time_filter value,
// computed in UTC. Weeks start on Monday.
func TimeWindow(name string, now time.Time) (start, end time.Time, ok bool) {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	sinceMonday := (int(now.Weekday()) + 6) % 7
	monday := midnight.AddDate(0, 0, -sinceMonday)
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	firstOfYear := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	switch name {
	case "today":
		return midnight, now, true
	case "this_week":
		return monday, now, true
	case "last_week":
		return monday.AddDate(0, 0, -7), monday, true
	case "this_month":
		return firstOfMonth, now, true
	case "last_month":
		return firstOfMonth.AddDate(0, -1, 0), firstOfMonth, true
	case "this_year":
		return firstOfYear, now, true
	case "last_year":
		return firstOfYear.AddDate(-1, 0, 0), firstOfYear, true
	}
	return time.Time{}, time.Time{}, false
}
