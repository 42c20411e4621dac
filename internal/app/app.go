// Package app wires the live report board, the filter composer and the
// event stream into the root Bubble Tea model.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lostfound/tui/internal/board"
	"github.com/lostfound/tui/internal/client"
	"github.com/lostfound/tui/internal/clock"
	"github.com/lostfound/tui/internal/filter"
	"github.com/lostfound/tui/internal/metrics"
	"github.com/lostfound/tui/internal/theme"
	"github.com/lostfound/tui/internal/views/dashboard"
	"github.com/lostfound/tui/internal/views/debug"
	"github.com/lostfound/tui/internal/views/detail"
	"github.com/lostfound/tui/internal/views/filters"
	"github.com/lostfound/tui/internal/views/matches"
	"github.com/lostfound/tui/internal/views/reports"
	"github.com/lostfound/tui/internal/views/status"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayDetail
	OverlayFilters
	OverlayDebug
)

// Tab identifies the main table.
type Tab int

const (
	TabReports Tab = iota
	TabMatches
)

// chrome is the number of lines around the main table.
const chrome = 12

// Gateway is the REST surface the dashboard calls.
type Gateway interface {
	FetchReports(ctx context.Context, q filter.Query) ([]client.Report, error)
	SetReportStatus(ctx context.Context, id int64, status client.ReportStatus) (*client.StatusAck, error)
}

// Stream is the event source the dashboard listens to.
type Stream interface {
	Events() <-chan client.Event
	Connect()
}

// MatchRequester queues a matches reload.
type MatchRequester interface {
	Request()
}

// Deps are the collaborators of the root model.
type Deps struct {
	// Ctx bounds every request the model issues. Cancel is called on quit.
	Ctx     context.Context
	Cancel  context.CancelFunc
	Gateway Gateway
	Stream  Stream
	Board   *board.Board
	Matches MatchRequester
	User    client.User
	Clock   clock.Clock
	Logger  *slog.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	gw      Gateway
	stream  Stream
	board   *board.Board
	matchRq MatchRequester
	clock   clock.Clock
	log     *slog.Logger

	composer *filter.Composer
	// loads numbers reports fetches in issue order; lastLoad is the newest
	// one applied. Shared by copies of the model.
	loads    *atomic.Uint64
	lastLoad uint64

	keys   KeyMap
	width  int
	height int

	tab     Tab
	overlay Overlay
	picker  filters.Picker
	busy    bool
	notice  string
	ticking bool

	// matchesFailure describes the last failed matches refresh until the
	// next successful one.
	matchesFailure string

	// Sub-views.
	statusBar   status.Model
	dashboard   dashboard.Model
	reportsView reports.Model
	matchesView matches.Model
	detailView  detail.Model
	debugView   debug.Model
}

// Messages produced by the model's commands.
type (
	streamEventMsg  struct{ ev client.Event }
	streamClosedMsg struct{}
	boardChangedMsg struct{}
	frameMsg        struct{}

	reportsLoadedMsg struct {
		seq     uint64
		version uint64
		mark    uint64
		reports []client.Report
		err     error
	}

	statusUpdatedMsg struct {
		id     int64
		status client.ReportStatus
		ack    *client.StatusAck
		err    error
	}
)

// New creates the root model.
func New(d Deps) Model {
	if d.Ctx == nil {
		d.Ctx, d.Cancel = context.WithCancel(context.Background())
	}
	if d.Cancel == nil {
		d.Cancel = func() {}
	}
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	log := d.Logger.With("component", "app")

	m := Model{
		ctx:     d.Ctx,
		cancel:  d.Cancel,
		gw:      d.Gateway,
		stream:  d.Stream,
		board:   d.Board,
		matchRq: d.Matches,
		clock:   d.Clock,
		log:     log,
		composer: filter.New(func(q filter.Query) {
			metrics.ObserveRefresh(metrics.RefreshReports)
			log.Debug("filters changed", "query", q)
		}),
		loads:       new(atomic.Uint64),
		keys:        DefaultKeyMap(),
		picker:      filters.NewPicker(),
		statusBar:   status.New(),
		dashboard:   dashboard.New(),
		reportsView: reports.New(),
		matchesView: matches.New(),
		debugView:   debug.New(),
	}
	m.statusBar.User = d.User.Username
	return m
}

// Init starts listening and loads the initial data.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitEvent(),
		m.waitBoard(),
		m.loadReports(),
		m.requestMatches(),
	)
}

// Composer returns the filter state.
func (m Model) Composer() *filter.Composer {
	return m.composer
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.dashboard.Width = msg.Width
		m.reportsView.Width = msg.Width
		m.reportsView.Height = msg.Height - chrome
		m.matchesView.Width = msg.Width
		m.matchesView.Height = msg.Height - chrome
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case streamEventMsg:
		return m.handleEvent(msg.ev)

	case streamClosedMsg:
		m.debugView.Add(debug.KindStream, "event stream closed")
		return m, nil

	case boardChangedMsg:
		m.sync()
		tick := m.ensureTick()
		return m, tea.Batch(m.waitBoard(), tick)

	case reportsLoadedMsg:
		return m.handleReports(msg)

	case statusUpdatedMsg:
		return m.handleStatus(msg)

	case frameMsg:
		m.ticking = false
		m.reportsView.Animate()
		tick := m.ensureTick()
		return m, tick
	}

	return m, nil
}

func (m Model) handleEvent(ev client.Event) (tea.Model, tea.Cmd) {
	m.statusBar.Apply(ev)
	cmds := []tea.Cmd{m.waitEvent()}

	switch e := ev.(type) {
	case client.NewReport:
		m.board.ApplyNewReport(e.Report, e.HighMatches)
		m.debugView.Add(debug.KindReport, fmt.Sprintf("report #%d %s %q (high matches %d)",
			e.Report.ID, e.Report.Type, e.Report.ItemName, e.HighMatches))
		m.sync()
	case client.Connected:
		m.debugView.Add(debug.KindStream, "connected")
		// Reports filed while offline were never pushed.
		cmds = append(cmds, m.loadReports())
	case client.Connecting:
		m.debugView.Add(debug.KindStream, fmt.Sprintf("connecting (attempt %d)", e.Attempt))
	case client.Disconnected:
		m.debugView.Add(debug.KindStream, fmt.Sprintf("disconnected: %v", e.Err))
	case client.ReconnectScheduled:
		m.debugView.Add(debug.KindStream, fmt.Sprintf("retry %d in %s", e.Attempt, e.Delay))
	case client.GaveUp:
		m.debugView.Add(debug.KindError, fmt.Sprintf("gave up after %d attempts", e.Attempts))
	}

	cmds = append(cmds, m.ensureTick())
	return m, tea.Batch(cmds...)
}

func (m Model) handleReports(msg reportsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.version != m.composer.Version() {
		m.debugView.Add(debug.KindFilter, fmt.Sprintf("dropped stale reports (version %d, current %d)",
			msg.version, m.composer.Version()))
		return m, nil
	}
	if msg.seq <= m.lastLoad {
		m.debugView.Add(debug.KindHTTP, fmt.Sprintf("dropped out-of-order reports (load %d, applied %d)",
			msg.seq, m.lastLoad))
		return m, nil
	}
	m.lastLoad = msg.seq
	if msg.err != nil {
		m.board.SetError(msg.err)
		m.notice = "Failed to load reports: " + errorText(msg.err)
		m.debugView.Add(debug.KindError, "fetch reports: "+msg.err.Error())
		return m, nil
	}

	m.board.ReplaceCollection(msg.reports, msg.mark)
	m.notice = ""
	m.debugView.Add(debug.KindHTTP, fmt.Sprintf("loaded %d reports", len(msg.reports)))
	m.sync()
	return m, nil
}

func (m Model) handleStatus(msg statusUpdatedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.detailView.Busy = false
	if msg.err != nil {
		text := errorText(msg.err)
		m.notice = fmt.Sprintf("Report #%d: %s", msg.id, text)
		m.detailView.ActionError = text
		m.debugView.Add(debug.KindError, fmt.Sprintf("status #%d: %v", msg.id, msg.err))
		return m, nil
	}

	next := msg.status
	if msg.ack != nil && msg.ack.NewStatus != "" {
		next = msg.ack.NewStatus
	}
	m.board.UpdateStatus(msg.id, next)
	m.notice = ""
	m.detailView.ActionError = ""
	m.debugView.Add(debug.KindHTTP, fmt.Sprintf("report #%d → %s", msg.id, next))
	m.sync()
	return m, m.requestMatches()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && msg.String() == "ctrl+c" {
		return m.quit()
	}

	switch m.overlay {
	case OverlayFilters:
		return m.handleFiltersKey(msg)
	case OverlayDetail:
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Advance):
			return m.advance(m.detailView.Report)
		}
		return m, nil
	case OverlayDebug:
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Debug):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Up):
			m.debugView.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.debugView.ScrollDown(1)
		case key.Matches(msg, m.keys.Tab):
			m.debugView.CycleKind()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Down):
		if m.tab == TabMatches {
			m.matchesView.MoveDown()
		} else {
			m.reportsView.MoveDown()
		}

	case key.Matches(msg, m.keys.Up):
		if m.tab == TabMatches {
			m.matchesView.MoveUp()
		} else {
			m.reportsView.MoveUp()
		}

	case key.Matches(msg, m.keys.Tab):
		m.tab = (m.tab + 1) % 2

	case key.Matches(msg, m.keys.Enter):
		m.openDetail()

	case key.Matches(msg, m.keys.Filters):
		m.overlay = OverlayFilters

	case key.Matches(msg, m.keys.ClearAll):
		m.composer.ClearAll()
		m.debugView.Add(debug.KindFilter, "cleared filters")
		return m, m.loadReports()

	case key.Matches(msg, m.keys.Advance):
		if m.tab == TabReports {
			if r, ok := m.reportsView.Selected(); ok {
				return m.advance(&r)
			}
		}

	case key.Matches(msg, m.keys.Reconnect):
		m.stream.Connect()
		m.debugView.Add(debug.KindStream, "reconnect requested")

	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.loadReports(), m.requestMatches())

	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
	}

	return m, nil
}

func (m Model) handleFiltersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Filters):
		m.overlay = OverlayNone
	case key.Matches(msg, m.keys.Left):
		m.picker.PrevDim()
	case key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.Tab):
		m.picker.NextDim()
	case key.Matches(msg, m.keys.Up):
		m.picker.Up()
	case key.Matches(msg, m.keys.Down):
		m.picker.Down()
	case key.Matches(msg, m.keys.Enter):
		d, v := m.picker.Current()
		if err := m.composer.Apply(d, v); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.debugView.Add(debug.KindFilter, fmt.Sprintf("toggle %s=%s", d, v))
		return m, m.loadReports()
	case key.Matches(msg, m.keys.ClearAll):
		m.composer.ClearAll()
		m.debugView.Add(debug.KindFilter, "cleared filters")
		return m, m.loadReports()
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.cancel()
	return m, tea.Quit
}

func (m *Model) openDetail() {
	var id int64
	switch m.tab {
	case TabReports:
		r, ok := m.reportsView.Selected()
		if !ok {
			return
		}
		id = r.ID
	case TabMatches:
		mt, ok := m.matchesView.Selected()
		if !ok {
			return
		}
		id = mt.LostReportID
	}

	r, ok := m.board.Report(id)
	if !ok {
		m.notice = fmt.Sprintf("Report #%d is not in the current view", id)
		return
	}
	m.detailView = detail.New(r)
	m.overlay = OverlayDetail
	m.syncDetail()
}

// advance moves a report one step along pending → match_found → closed.
func (m Model) advance(r *client.Report) (tea.Model, tea.Cmd) {
	if r == nil || m.busy {
		return m, nil
	}
	next, ok := r.Status.Next()
	if !ok {
		m.notice = fmt.Sprintf("Report #%d is already %s", r.ID, theme.StatusLabel(string(r.Status)))
		return m, nil
	}
	m.busy = true
	m.detailView.Busy = true
	return m, m.setStatus(r.ID, next)
}

// sync copies board state into the sub-views.
func (m *Model) sync() {
	m.reportsView.SetReports(m.board.Reports(), m.board.IsHighlighted)
	m.matchesView.SetMatches(m.board.Matches())
	m.dashboard.SetStats(m.board.Stats())
	m.syncDetail()

	m.matchesFailure = ""
	if err := m.board.MatchesErr(); err != nil {
		m.matchesFailure = "Failed to load matches: " + errorText(err)
	}
}

func (m *Model) syncDetail() {
	if m.detailView.Report == nil {
		return
	}
	id := m.detailView.Report.ID
	if r, ok := m.board.Report(id); ok {
		m.detailView.Report = &r
	}
	m.detailView.Highlighted = m.board.IsHighlighted(id)
	m.detailView.Matches = nil
	for _, mt := range m.board.Matches() {
		if mt.LostReportID == id || mt.FoundReportID == id {
			m.detailView.Matches = append(m.detailView.Matches, mt)
		}
	}
}

// --- commands ---

func (m Model) waitEvent() tea.Cmd {
	events := m.stream.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return streamEventMsg{ev: ev}
	}
}

func (m Model) waitBoard() tea.Cmd {
	changes := m.board.Changes()
	return func() tea.Msg {
		<-changes
		return boardChangedMsg{}
	}
}

// loadReports fetches the collection for the current filters. The result
// is tagged with its load number, the composer version and the board mark
// taken now.
func (m Model) loadReports() tea.Cmd {
	ctx, gw := m.ctx, m.gw
	q := m.composer.Query()
	seq := m.loads.Add(1)
	version := m.composer.Version()
	mark := m.board.Mark()
	return func() tea.Msg {
		rs, err := gw.FetchReports(ctx, q)
		return reportsLoadedMsg{seq: seq, version: version, mark: mark, reports: rs, err: err}
	}
}

func (m Model) requestMatches() tea.Cmd {
	rq := m.matchRq
	if rq == nil {
		return nil
	}
	return func() tea.Msg {
		rq.Request()
		return nil
	}
}

func (m Model) setStatus(id int64, status client.ReportStatus) tea.Cmd {
	ctx, gw := m.ctx, m.gw
	return func() tea.Msg {
		ack, err := gw.SetReportStatus(ctx, id, status)
		return statusUpdatedMsg{id: id, status: status, ack: ack, err: err}
	}
}

// ensureTick starts the frame ticker when something is animating and no
// tick is already pending.
func (m *Model) ensureTick() tea.Cmd {
	if m.ticking || !(m.reportsView.Fading() || m.statusBar.Retrying()) {
		return nil
	}
	m.ticking = true
	return tea.Tick(time.Second/reports.FrameRate, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

func errorText(err error) string {
	var rerr *client.RequestError
	if errors.As(err, &rerr) && rerr.Detail != "" {
		return rerr.Detail
	}
	return err.Error()
}

// --- view ---

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	sections := []string{
		m.statusBar.View(m.clock.Now()),
		m.dashboard.View(),
		filters.Bar(m.composer.Query(), m.width),
		m.renderTabs(),
	}

	if m.statusBar.State == client.StateGaveUp {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorDanger).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorDanger).
			Padding(0, 1).
			Render(fmt.Sprintf("DISCONNECTED: live updates stopped after %d attempts. Press r to reconnect.",
				m.statusBar.Attempts)))
	}

	switch m.overlay {
	case OverlayDetail:
		sections = append(sections, m.detailView.View())
	case OverlayFilters:
		sections = append(sections, m.picker.View(m.composer.Query()))
	case OverlayDebug:
		sections = append(sections, m.debugView.View(m.width, m.height-chrome))
	default:
		if m.tab == TabMatches {
			sections = append(sections, m.matchesView.View())
		} else {
			sections = append(sections, m.reportsView.View())
		}
	}

	if m.notice != "" {
		sections = append(sections, theme.StyleError.Render("  "+m.notice))
	}
	if m.matchesFailure != "" {
		sections = append(sections, theme.StyleError.Render("  "+m.matchesFailure))
	}
	sections = append(sections,
		theme.StyleDimmed.Render("  j/k:navigate  tab:reports/matches  enter:detail  f:filters  c:clear  a:advance  r:reconnect  R:reload  d:debug  q:quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTabs() string {
	tab := func(label string, active bool) string {
		if active {
			return theme.StyleSelected.Underline(true).Render(label)
		}
		return theme.StyleDimmed.Render(label)
	}
	return "  " + tab(fmt.Sprintf("Reports (%d)", m.reportsView.Len()), m.tab == TabReports) +
		"   " + tab(fmt.Sprintf("Matches (%d)", len(m.board.Matches())), m.tab == TabMatches)
}
