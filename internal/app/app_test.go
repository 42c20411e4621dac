package app

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostfound/tui/internal/board"
	"github.com/lostfound/tui/internal/client"
	"github.com/lostfound/tui/internal/clock"
	"github.com/lostfound/tui/internal/filter"
	"github.com/lostfound/tui/internal/views/debug"
)

type fakeGateway struct {
	mu        sync.Mutex
	reports   []client.Report
	err       error
	queries   []filter.Query
	statusErr error
	statusIDs []int64
}

func (g *fakeGateway) FetchReports(_ context.Context, q filter.Query) ([]client.Report, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queries = append(g.queries, q)
	if g.err != nil {
		return nil, g.err
	}
	return append([]client.Report(nil), g.reports...), nil
}

func (g *fakeGateway) SetReportStatus(_ context.Context, id int64, status client.ReportStatus) (*client.StatusAck, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusIDs = append(g.statusIDs, id)
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	return &client.StatusAck{Message: "Status updated", NewStatus: status}, nil
}

type fakeStream struct {
	events   chan client.Event
	connects int
}

func (s *fakeStream) Events() <-chan client.Event { return s.events }
func (s *fakeStream) Connect()                    { s.connects++ }

type fakeRequester struct{ n int }

func (r *fakeRequester) Request() { r.n++ }

type harness struct {
	gw     *fakeGateway
	stream *fakeStream
	board  *board.Board
	clock  *clock.FakeClock
	req    *fakeRequester
	ctx    context.Context
}

func newHarness(t *testing.T, initial ...client.Report) (Model, *harness) {
	t.Helper()
	h := &harness{
		gw:     &fakeGateway{reports: initial},
		stream: &fakeStream{events: make(chan client.Event)},
		clock:  clock.Fake(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)),
		req:    &fakeRequester{},
	}
	h.board = board.New(h.clock, board.WithMatchRefresh(h.req.Request))
	t.Cleanup(h.board.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h.ctx = ctx

	m := New(Deps{
		Ctx:     ctx,
		Cancel:  cancel,
		Gateway: h.gw,
		Stream:  h.stream,
		Board:   h.board,
		Matches: h.req,
		User:    client.User{Username: "ADMINMCET", Role: client.RoleAdmin},
		Clock:   h.clock,
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 180, Height: 40})
	// Initial load.
	m = update(t, m, m.loadReports()())
	return m, h
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func ids(rs []client.Report) []int64 {
	out := make([]int64, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func pending(id int64, name string) client.Report {
	return client.Report{ID: id, Type: client.TypeLost, ItemName: name, Status: client.StatusPending}
}

func TestInitialLoad(t *testing.T) {
	m, h := newHarness(t, pending(2, "Wallet"), pending(1, "Umbrella"))
	assert.Equal(t, []int64{2, 1}, ids(h.board.Reports()))
	assert.Equal(t, 2, m.reportsView.Len())
	assert.Contains(t, m.View(), "Total: 2")
}

func TestNewReportPrependsAndHighlights(t *testing.T) {
	m, h := newHarness(t, pending(1, "Umbrella"))

	m = update(t, m, streamEventMsg{ev: client.NewReport{Report: pending(5, "Calculator"), HighMatches: 0}})
	assert.Equal(t, []int64{5, 1}, ids(h.board.Reports()))
	assert.True(t, h.board.IsHighlighted(5))
	assert.InDelta(t, 1.0, m.reportsView.Intensity(5), 1e-9)
	assert.True(t, m.ticking, "fade animation scheduled")
	assert.Equal(t, 0, h.req.n)

	m = update(t, m, streamEventMsg{ev: client.NewReport{Report: pending(6, "Charger"), HighMatches: 2}})
	assert.Equal(t, 1, h.req.n, "high matches trigger a matches refresh")

	h.clock.Advance(board.DefaultDwell)
	assert.False(t, h.board.IsHighlighted(5))
	m = update(t, m, boardChangedMsg{})
	assert.Zero(t, m.reportsView.Intensity(5), "fade dropped once the highlight expires")
}

func TestStaleReportsResponseDropped(t *testing.T) {
	m, h := newHarness(t)
	h.gw.reports = []client.Report{pending(1, "Umbrella")}

	stale := m.loadReports()
	require.NoError(t, m.Composer().Apply(filter.Type, "found"))

	m = update(t, m, stale())
	assert.Empty(t, h.board.Reports(), "response for an old filter set is ignored")

	m = update(t, m, m.loadReports()())
	assert.Equal(t, []int64{1}, ids(h.board.Reports()))
}

func TestReportPushedDuringRefreshSurvives(t *testing.T) {
	m, h := newHarness(t)
	h.gw.reports = []client.Report{pending(2, "Wallet"), pending(1, "Umbrella")}

	inFlight := m.loadReports()
	m = update(t, m, streamEventMsg{ev: client.NewReport{Report: pending(3, "Calculator")}})
	m = update(t, m, inFlight())

	assert.Equal(t, []int64{3, 2, 1}, ids(h.board.Reports()))
	assert.True(t, h.board.IsHighlighted(3))
}

func TestFilterPickerTogglesAndReloads(t *testing.T) {
	m, h := newHarness(t)

	m, _ = press(t, m, runes("f"))
	require.Equal(t, OverlayFilters, m.overlay)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight}) // time
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})  // this_week

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, "this_week", m.Composer().Active(filter.Time))
	m = update(t, m, cmd())

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Empty(t, m.Composer().Active(filter.Time), "reselecting the active value clears it")
	m = update(t, m, cmd())

	h.gw.mu.Lock()
	defer h.gw.mu.Unlock()
	require.Len(t, h.gw.queries, 3)
	assert.Equal(t, filter.Query{{Dimension: filter.Time, Value: "this_week"}}, h.gw.queries[1])
	assert.Empty(t, h.gw.queries[2])

	assert.Contains(t, m.View(), "Time: all")
}

func TestClearAllReloads(t *testing.T) {
	m, h := newHarness(t)
	require.NoError(t, m.Composer().Apply(filter.Section, "IT-B"))
	require.NoError(t, m.Composer().Apply(filter.Status, "pending"))

	m, cmd := press(t, m, runes("c"))
	require.NotNil(t, cmd)
	assert.Empty(t, m.Composer().Query())
	update(t, m, cmd())

	h.gw.mu.Lock()
	defer h.gw.mu.Unlock()
	assert.Empty(t, h.gw.queries[len(h.gw.queries)-1])
}

func TestAdvanceStatus(t *testing.T) {
	m, h := newHarness(t, pending(1, "Umbrella"))

	m, cmd := press(t, m, runes("a"))
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	m, again := press(t, m, runes("a"))
	assert.Nil(t, again, "no second request while one is in flight")

	m = update(t, m, cmd())
	assert.Equal(t, []int64{1}, h.gw.statusIDs)
	r, ok := h.board.Report(1)
	require.True(t, ok)
	assert.Equal(t, client.StatusMatchFound, r.Status)
	assert.False(t, m.busy)
	assert.Contains(t, m.View(), "Match Found")
}

func TestAdvanceStatusError(t *testing.T) {
	m, h := newHarness(t, pending(1, "Umbrella"))
	h.gw.statusErr = &client.RequestError{
		Op:     "set report status",
		Status: http.StatusBadRequest,
		Detail: "Cannot transition from 'pending' to 'match_found'",
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, OverlayDetail, m.overlay)
	m, cmd := press(t, m, runes("a"))
	require.NotNil(t, cmd)
	m = update(t, m, cmd())

	r, _ := h.board.Report(1)
	assert.Equal(t, client.StatusPending, r.Status, "board unchanged on failure")
	assert.Contains(t, m.View(), "Cannot transition from 'pending' to 'match_found'")
}

func TestAdvanceClosedReport(t *testing.T) {
	closed := pending(1, "Umbrella")
	closed.Status = client.StatusClosed
	m, h := newHarness(t, closed)

	m, cmd := press(t, m, runes("a"))
	assert.Nil(t, cmd)
	assert.Empty(t, h.gw.statusIDs)
	assert.Contains(t, m.View(), "already Closed")
}

func TestGaveUpBannerAndReconnect(t *testing.T) {
	m, h := newHarness(t)

	m = update(t, m, streamEventMsg{ev: client.Disconnected{}})
	m = update(t, m, streamEventMsg{ev: client.GaveUp{Attempts: 10}})
	v := m.View()
	assert.Contains(t, v, "DISCONNECTED")
	assert.Contains(t, v, "press r to retry")

	m, _ = press(t, m, runes("r"))
	assert.Equal(t, 1, h.stream.connects)

	m = update(t, m, streamEventMsg{ev: client.Connecting{}})
	assert.NotContains(t, m.View(), "DISCONNECTED")
}

func TestConnectedReloadsReports(t *testing.T) {
	m, h := newHarness(t)
	h.gw.reports = []client.Report{pending(7, "Lab Record")}

	next, cmd := m.Update(streamEventMsg{ev: client.Connected{}})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Live")

	// The batch holds the re-armed event wait and the reload.
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	require.Len(t, batch, 2)
	m = update(t, m, batch[1]())
	assert.Equal(t, []int64{7}, ids(h.board.Reports()))
}

func TestReportsErrorShowsNotice(t *testing.T) {
	m, h := newHarness(t, pending(1, "Umbrella"))
	h.gw.err = &client.RequestError{Op: "fetch reports", Status: 500, Detail: "boom"}

	m = update(t, m, m.loadReports()())
	assert.Equal(t, []int64{1}, ids(h.board.Reports()), "previous collection kept")
	assert.Error(t, h.board.Err())
	assert.Contains(t, m.View(), "Failed to load reports: boom")
}

func TestMatchesErrorShowsNotice(t *testing.T) {
	m, h := newHarness(t, pending(1, "Umbrella"))

	h.board.SetMatchesError(&client.RequestError{Op: "fetch matches", Status: 500, Detail: "matcher offline"})
	m = update(t, m, boardChangedMsg{})
	assert.Contains(t, m.View(), "Failed to load matches: matcher offline")

	// A successful reports load does not hide it.
	m = update(t, m, m.loadReports()())
	assert.Contains(t, m.View(), "Failed to load matches: matcher offline")

	h.board.SetMatches([]client.Match{{ID: 1, LostReportID: 1, FoundReportID: 2, CombinedScore: 0.8}})
	m = update(t, m, boardChangedMsg{})
	assert.NotContains(t, m.View(), "Failed to load matches")
}

func TestOlderReloadCompletingLastIsDropped(t *testing.T) {
	m, h := newHarness(t, pending(1, "Umbrella"))

	older := m.loadReports()
	newer := m.loadReports()

	closed := pending(1, "Umbrella")
	closed.Status = client.StatusClosed
	h.gw.reports = []client.Report{closed}
	m = update(t, m, newer())

	h.gw.reports = []client.Report{pending(1, "Umbrella")}
	update(t, m, older())

	r, ok := h.board.Report(1)
	require.True(t, ok)
	assert.Equal(t, client.StatusClosed, r.Status, "the newest snapshot wins")
}

func TestDebugOverlayCyclesKinds(t *testing.T) {
	m, _ := newHarness(t)
	m, _ = press(t, m, runes("d"))
	require.Equal(t, OverlayDebug, m.overlay)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, debug.KindStream, m.debugView.Only())
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, debug.KindReport, m.debugView.Only())
}

func TestTabsAndDetail(t *testing.T) {
	m, h := newHarness(t, pending(2, "Wallet"), pending(1, "Umbrella"))
	h.board.SetMatches([]client.Match{{ID: 1, LostReportID: 1, FoundReportID: 9, CombinedScore: 0.9}})
	m = update(t, m, boardChangedMsg{})

	m, _ = press(t, m, runes("j"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, OverlayDetail, m.overlay)
	v := m.View()
	assert.Contains(t, v, "Report #1: Umbrella")
	assert.Contains(t, v, "90%")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	assert.Equal(t, OverlayNone, m.overlay)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, TabMatches, m.tab)
	assert.Contains(t, m.View(), "Matches (1)")
}

func TestQuitCancelsContext(t *testing.T) {
	m, h := newHarness(t)
	_, cmd := press(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Error(t, h.ctx.Err())
}
