package board

import (
	"context"
	"log/slog"

	"github.com/lostfound/tui/internal/client"
	"github.com/lostfound/tui/internal/metrics"
)

// MatchFetcher loads the matches list.
type MatchFetcher interface {
	FetchMatches(ctx context.Context) ([]client.Match, error)
}

// Refresher reloads matches into a Board on request. Requests made while
// one is already queued collapse into it; a request made during a fetch
// causes one more fetch afterwards.
type Refresher struct {
	board   *Board
	fetch   MatchFetcher
	log     *slog.Logger
	trigger chan struct{}
}

// NewRefresher creates a Refresher. Call Run to start it.
func NewRefresher(b *Board, f MatchFetcher, log *slog.Logger) *Refresher {
	if log == nil {
		log = slog.Default()
	}
	return &Refresher{
		board:   b,
		fetch:   f,
		log:     log.With("component", "refresher"),
		trigger: make(chan struct{}, 1),
	}
}

// Request queues a matches reload. It never blocks.
func (r *Refresher) Request() {
	select {
	case r.trigger <- struct{}{}:
		metrics.ObserveRefresh(metrics.RefreshMatches)
	default:
	}
}

// Run serves requests until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.trigger:
		}

		ms, err := r.fetch.FetchMatches(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.log.Warn("matches refresh failed", "error", err)
			r.board.SetMatchesError(err)
			continue
		}
		r.log.Debug("matches refreshed", "matches", len(ms))
		r.board.SetMatches(ms)
	}
}
