package board

import "github.com/lostfound/tui/internal/client"

// Stats are the dashboard counters.
type Stats struct {
	Total   int
	Pending int
	Matched int
	Closed  int
	Lost    int
	Found   int
}

// Compute counts reports by status and type.
func Compute(reports []client.Report) Stats {
	s := Stats{Total: len(reports)}
	for _, r := range reports {
		switch r.Status {
		case client.StatusPending:
			s.Pending++
		case client.StatusMatchFound:
			s.Matched++
		case client.StatusClosed:
			s.Closed++
		}
		switch r.Type {
		case client.TypeLost:
			s.Lost++
		case client.TypeFound:
			s.Found++
		}
	}
	return s
}
