package board

import (
	"time"

	"github.com/lostfound/tui/internal/clock"
)

type highlight struct {
	timer clock.Timer
	since time.Time
	gen   uint64
}

// highlights is a registry of per-id expiry timers. Callers hold the
// board lock.
type highlights struct {
	clock  clock.Clock
	dwell  time.Duration
	expire func(id int64, gen uint64)

	gen     uint64
	entries map[int64]*highlight
}

func newHighlights(clk clock.Clock, dwell time.Duration, expire func(int64, uint64)) *highlights {
	return &highlights{
		clock:   clk,
		dwell:   dwell,
		expire:  expire,
		entries: make(map[int64]*highlight),
	}
}

// add flags id and arms its timer, replacing any timer already running for
// the same id. Other ids are untouched.
func (h *highlights) add(id int64) {
	if old, ok := h.entries[id]; ok {
		old.timer.Stop()
	}
	h.gen++
	gen := h.gen
	h.entries[id] = &highlight{
		since: h.clock.Now(),
		gen:   gen,
		timer: h.clock.AfterFunc(h.dwell, func() { h.expire(id, gen) }),
	}
}

// remove drops id if its entry is still the one armed with gen. A stale
// callback from a replaced timer is a no-op.
func (h *highlights) remove(id int64, gen uint64) bool {
	e, ok := h.entries[id]
	if !ok || e.gen != gen {
		return false
	}
	delete(h.entries, id)
	return true
}

func (h *highlights) has(id int64) bool {
	_, ok := h.entries[id]
	return ok
}

func (h *highlights) since(id int64) (time.Time, bool) {
	e, ok := h.entries[id]
	if !ok {
		return time.Time{}, false
	}
	return e.since, true
}

func (h *highlights) len() int {
	return len(h.entries)
}

func (h *highlights) stopAll() {
	for id, e := range h.entries {
		e.timer.Stop()
		delete(h.entries, id)
	}
}
