// Package board holds the live report collection shown on the admin
// dashboard. It merges bulk refresh results with reports pushed over the
// event stream and tracks which reports are flagged as new.
package board

import (
	"log/slog"
	"sync"
	"time"

	"github.com/lostfound/tui/internal/client"
	"github.com/lostfound/tui/internal/clock"
	"github.com/lostfound/tui/internal/metrics"
)

// DefaultDwell is how long a pushed report stays highlighted.
const DefaultDwell = 3 * time.Second

// Option configures a Board.
type Option func(*Board)

// WithDwell overrides the highlight dwell time. Non-positive values are
// ignored.
func WithDwell(d time.Duration) Option {
	return func(b *Board) {
		if d > 0 {
			b.dwell = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Board) { b.log = l.With("component", "board") }
}

// WithMatchRefresh sets the callback invoked when a pushed report says it
// has high-scoring matches. It runs outside the board lock.
func WithMatchRefresh(f func()) Option {
	return func(b *Board) { b.refreshMatches = f }
}

// Board is safe for concurrent use.
type Board struct {
	clock          clock.Clock
	dwell          time.Duration
	log            *slog.Logger
	refreshMatches func()

	mu      sync.Mutex
	reports []client.Report
	// arrived records the push sequence of reports that came in over the
	// stream and have not yet been confirmed by a refresh.
	arrived    map[int64]uint64
	seq        uint64
	highlights *highlights
	matches    []client.Match
	err        error
	matchesErr error
	closed     bool

	changes chan struct{}
}

// New creates an empty board.
func New(clk clock.Clock, opts ...Option) *Board {
	b := &Board{
		clock:   clk,
		dwell:   DefaultDwell,
		log:     slog.Default().With("component", "board"),
		arrived: make(map[int64]uint64),
		changes: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.highlights = newHighlights(clk, b.dwell, b.expire)
	return b
}

// Changes receives a value after any mutation. Notifications coalesce.
func (b *Board) Changes() <-chan struct{} {
	return b.changes
}

// ApplyNewReport prepends a pushed report and highlights it. A report
// already on the board is moved to the head and its highlight restarted.
func (b *Board) ApplyNewReport(r client.Report, highMatches int) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.reports = prepend(b.reports, r)
	b.seq++
	b.arrived[r.ID] = b.seq
	b.highlights.add(r.ID)
	active := b.highlights.len()
	b.mu.Unlock()

	metrics.SetHighlightsActive(active)
	b.log.Debug("report pushed", "id", r.ID, "type", r.Type, "high_matches", highMatches)
	b.notify()

	if highMatches > 0 && b.refreshMatches != nil {
		b.refreshMatches()
	}
}

// Mark returns a token to take before issuing a reports fetch and pass to
// ReplaceCollection with the result.
func (b *Board) Mark() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

// ReplaceCollection replaces the collection with a refresh result. Reports
// pushed after mark that the result does not contain are kept at the head
// so a slow refresh cannot erase them. The result wins for every id it
// contains and no id appears twice. Highlights are left alone.
func (b *Board) ReplaceCollection(items []client.Report, mark uint64) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}

	seen := make(map[int64]struct{}, len(items))
	fresh := make([]client.Report, 0, len(items))
	for _, r := range items {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		fresh = append(fresh, r)
	}

	var kept []client.Report
	for _, r := range b.reports {
		s, live := b.arrived[r.ID]
		if !live {
			continue
		}
		if _, inResult := seen[r.ID]; inResult || s <= mark {
			delete(b.arrived, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	for id := range b.arrived {
		if _, inResult := seen[id]; inResult {
			delete(b.arrived, id)
		}
	}

	b.reports = append(kept, fresh...)
	b.err = nil
	n := len(b.reports)
	b.mu.Unlock()

	if len(kept) > 0 {
		b.log.Debug("kept pushed reports across refresh", "kept", len(kept))
	}
	b.log.Debug("collection replaced", "reports", n)
	b.notify()
}

// UpdateStatus sets the status of a report after the server acknowledged
// the change. It reports whether the report was still on the board.
func (b *Board) UpdateStatus(id int64, status client.ReportStatus) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	found := false
	for i := range b.reports {
		if b.reports[i].ID == id {
			b.reports[i].Status = status
			found = true
			break
		}
	}
	b.mu.Unlock()

	if found {
		b.notify()
	}
	return found
}

// IsHighlighted reports whether id is currently flagged as new.
func (b *Board) IsHighlighted(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.highlights.has(id)
}

// HighlightedSince returns when id was flagged as new.
func (b *Board) HighlightedSince(id int64) (time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.highlights.since(id)
}

// Dwell returns the highlight dwell time.
func (b *Board) Dwell() time.Duration {
	return b.dwell
}

// Reports returns a copy of the collection, newest first.
func (b *Board) Reports() []client.Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]client.Report, len(b.reports))
	copy(out, b.reports)
	return out
}

// Report returns the report with the given id.
func (b *Board) Report(id int64) (client.Report, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.reports {
		if r.ID == id {
			return r, true
		}
	}
	return client.Report{}, false
}

// Stats counts the current collection.
func (b *Board) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Compute(b.reports)
}

// SetMatches stores the latest matches list and clears any matches
// refresh failure.
func (b *Board) SetMatches(ms []client.Match) {
	b.mu.Lock()
	b.matches = ms
	b.matchesErr = nil
	b.mu.Unlock()
	b.notify()
}

// Matches returns a copy of the latest matches list.
func (b *Board) Matches() []client.Match {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]client.Match, len(b.matches))
	copy(out, b.matches)
	return out
}

// SetError records the last reports refresh failure. A successful
// ReplaceCollection clears it.
func (b *Board) SetError(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
	b.notify()
}

// Err returns the last reports refresh failure.
func (b *Board) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// SetMatchesError records a failed matches refresh. The previous matches
// list is kept. Only SetMatches clears it.
func (b *Board) SetMatchesError(err error) {
	b.mu.Lock()
	b.matchesErr = err
	b.mu.Unlock()
	b.notify()
}

// MatchesErr returns the last matches refresh failure.
func (b *Board) MatchesErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.matchesErr
}

// Close cancels every highlight timer. No callback mutates the board
// afterwards and pushed reports are ignored.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.highlights.stopAll()
	metrics.SetHighlightsActive(0)
}

// expire is the highlight timer callback.
func (b *Board) expire(id int64, gen uint64) {
	b.mu.Lock()
	if b.closed || !b.highlights.remove(id, gen) {
		b.mu.Unlock()
		return
	}
	active := b.highlights.len()
	b.mu.Unlock()

	metrics.SetHighlightsActive(active)
	b.notify()
}

func (b *Board) notify() {
	select {
	case b.changes <- struct{}{}:
	default:
	}
}

// prepend puts r at the head, dropping any older entry with the same id.
func prepend(reports []client.Report, r client.Report) []client.Report {
	out := make([]client.Report, 0, len(reports)+1)
	out = append(out, r)
	for _, old := range reports {
		if old.ID != r.ID {
			out = append(out, old)
		}
	}
	return out
}
