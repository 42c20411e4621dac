package dashboard

import (
	"strings"
	"testing"

	"github.com/lostfound/tui/internal/board"
)

func TestViewShowsCounters(t *testing.T) {
	m := New()
	m.Width = 140
	m.SetStats(board.Stats{Total: 7, Pending: 3, Matched: 2, Closed: 2, Lost: 4, Found: 3})

	v := m.View()
	for _, want := range []string{"Total: 7", "Pending: 3", "Matched: 2", "Closed: 2", "Lost: 4", "Found: 3"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q:\n%s", want, v)
		}
	}
}
