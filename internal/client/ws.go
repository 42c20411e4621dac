package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/lostfound/tui/internal/clock"
	"github.com/lostfound/tui/internal/metrics"
)

const (
	DefaultReconnectBase = 1 * time.Second
	DefaultReconnectMax  = 30 * time.Second
	DefaultMaxAttempts   = 10

	// AdminFeedPath is the event feed for the admin role.
	AdminFeedPath = "/ws/admin"
)

// State is the lifecycle state of the event-stream connection.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
	StateGaveUp
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateGaveUp:
		return "gave_up"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// StreamConfig configures a StreamClient. Zero durations and attempts
// fall back to the defaults above.
type StreamConfig struct {
	URL           string
	Token         string
	ReconnectBase time.Duration
	ReconnectMax  time.Duration
	MaxAttempts   int
}

// StreamOption customises a StreamClient.
type StreamOption func(*StreamClient)

// WithClock sets the clock used for reconnect timers.
func WithClock(c clock.Clock) StreamOption {
	return func(s *StreamClient) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) StreamOption {
	return func(s *StreamClient) { s.logger = l }
}

// StreamClient maintains one logical connection to the event feed and
// recovers from failures with capped exponential backoff.
//
// All connection state is owned by the goroutine running Run. Dial
// results, frames and closes reach it as messages tagged with the
// connection generation, so a superseded connection can never mutate
// state.
type StreamClient struct {
	cfg    StreamConfig
	header http.Header
	dialer Dialer
	clock  clock.Clock
	logger *slog.Logger

	events     chan Event
	inbox      chan any
	retryC     chan uint64
	connectReq chan struct{}
	started    atomic.Bool
	state      atomic.Int32

	// Owned by Run.
	attempt  int
	backoff  *backoff.ExponentialBackOff
	conn     Conn
	connGen  uint64
	timer    clock.Timer
	timerGen uint64
	deadline time.Time
}

type dialResult struct {
	gen  uint64
	conn Conn
	err  error
}

type frameMsg struct {
	gen  uint64
	data []byte
}

type closedMsg struct {
	gen uint64
	err error
}

// NewStreamClient creates a client for cfg.URL. Call Run to start it.
func NewStreamClient(cfg StreamConfig, dialer Dialer, opts ...StreamOption) *StreamClient {
	if cfg.ReconnectBase <= 0 {
		cfg.ReconnectBase = DefaultReconnectBase
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = DefaultReconnectMax
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	header := http.Header{}
	if cfg.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Token)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.ReconnectBase
	b.MaxInterval = cfg.ReconnectMax
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()

	s := &StreamClient{
		cfg:        cfg,
		header:     header,
		dialer:     dialer,
		clock:      clock.Real(),
		logger:     slog.Default(),
		events:     make(chan Event, 64),
		inbox:      make(chan any, 16),
		retryC:     make(chan uint64, 1),
		connectReq: make(chan struct{}, 1),
		backoff:    b,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "stream")
	return s
}

// Events returns the channel of connectivity events and decoded frames.
// It is closed when Run returns.
func (s *StreamClient) Events() <-chan Event {
	return s.events
}

// State returns the current connection state.
func (s *StreamClient) State() State {
	return State(s.state.Load())
}

// Connect asks the client to reconnect now, resetting the attempt
// counter. It is the only way out of StateGaveUp.
func (s *StreamClient) Connect() {
	select {
	case s.connectReq <- struct{}{}:
	default:
	}
}

// Run connects and services the connection until ctx is cancelled. On
// return every timer is stopped, the connection is closed and the events
// channel is closed. Run may only be called once.
func (s *StreamClient) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("stream client already started")
	}
	defer s.teardown()

	s.connect(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.connectReq:
			s.logger.Info("reconnect requested")
			s.attempt = 0
			s.backoff.Reset()
			s.connect(ctx)
		case gen := <-s.retryC:
			if s.timer == nil || gen != s.timerGen {
				continue
			}
			s.timer = nil
			s.deadline = time.Time{}
			s.connect(ctx)
		case m := <-s.inbox:
			s.handle(ctx, m)
		}
	}
}

// connect supersedes any existing connection and starts a handshake.
func (s *StreamClient) connect(ctx context.Context) {
	s.cancelTimer()
	s.dropConn()

	s.connGen++
	gen := s.connGen
	s.setState(StateConnecting)
	s.logger.Info("connecting", "url", s.cfg.URL, "attempt", s.attempt)
	s.emit(ctx, Connecting{Attempt: s.attempt})

	header := s.header.Clone()
	go func() {
		conn, err := s.dialer.Dial(ctx, s.cfg.URL, header)
		select {
		case s.inbox <- dialResult{gen: gen, conn: conn, err: err}:
		case <-ctx.Done():
			if conn != nil {
				conn.Close()
			}
		}
	}()
}

func (s *StreamClient) handle(ctx context.Context, m any) {
	switch m := m.(type) {
	case dialResult:
		if m.gen != s.connGen {
			if m.conn != nil {
				m.conn.Close()
			}
			return
		}
		if m.err != nil {
			s.fail(ctx, m.err)
			return
		}
		s.conn = m.conn
		s.attempt = 0
		s.backoff.Reset()
		s.setState(StateOpen)
		s.logger.Info("connected", "url", s.cfg.URL)
		s.emit(ctx, Connected{})
		go s.readLoop(ctx, m.gen, m.conn)

	case frameMsg:
		if m.gen != s.connGen || s.conn == nil {
			return
		}
		s.onFrame(ctx, m.data)

	case closedMsg:
		if m.gen != s.connGen || s.conn == nil {
			return
		}
		s.fail(ctx, m.err)
	}
}

func (s *StreamClient) readLoop(ctx context.Context, gen uint64, conn Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			select {
			case s.inbox <- closedMsg{gen: gen, err: err}:
			case <-ctx.Done():
			}
			return
		}
		select {
		case s.inbox <- frameMsg{gen: gen, data: data}:
		case <-ctx.Done():
			return
		}
	}
}

func (s *StreamClient) onFrame(ctx context.Context, data []byte) {
	ev, err := DecodeFrame(data)
	switch {
	case err != nil:
		metrics.ObserveFrame(metrics.FrameMalformed)
		s.logger.Warn("dropping frame", "error", err, "bytes", len(data))
	case ev == nil:
		metrics.ObserveFrame(metrics.FrameIgnored)
		s.logger.Debug("ignoring frame", "bytes", len(data))
	default:
		metrics.ObserveFrame(metrics.FrameAccepted)
		s.emit(ctx, ev)
	}
}

// fail is the single teardown path for handshake errors, transport
// errors and closes.
func (s *StreamClient) fail(ctx context.Context, err error) {
	s.dropConn()
	s.setState(StateClosed)
	s.logger.Warn("disconnected", "error", err)
	s.emit(ctx, Disconnected{Err: err})
	s.scheduleReconnect(ctx)
}

func (s *StreamClient) scheduleReconnect(ctx context.Context) {
	if s.attempt >= s.cfg.MaxAttempts {
		s.setState(StateGaveUp)
		s.logger.Warn("max reconnect attempts reached, stopping", "attempts", s.attempt)
		metrics.ObserveGaveUp()
		s.emit(ctx, GaveUp{Attempts: s.attempt})
		return
	}

	delay := s.backoff.NextBackOff()
	if delay < 0 || delay > s.cfg.ReconnectMax {
		delay = s.cfg.ReconnectMax
	}
	s.attempt++

	s.cancelTimer()
	s.timerGen++
	gen := s.timerGen
	s.deadline = s.clock.Now().Add(delay)
	s.timer = s.clock.AfterFunc(delay, func() {
		select {
		case s.retryC <- gen:
		default:
		}
	})

	metrics.ObserveReconnectScheduled()
	s.logger.Info("reconnect scheduled", "delay", delay, "attempt", s.attempt, "max_attempts", s.cfg.MaxAttempts)
	s.emit(ctx, ReconnectScheduled{Attempt: s.attempt, Delay: delay, At: s.deadline})
}

func (s *StreamClient) cancelTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.deadline = time.Time{}
	select {
	case <-s.retryC:
	default:
	}
}

func (s *StreamClient) dropConn() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

func (s *StreamClient) teardown() {
	s.cancelTimer()
	s.dropConn()
	s.setState(StateClosed)
	close(s.events)
	s.logger.Info("stopped")
}

func (s *StreamClient) setState(st State) {
	s.state.Store(int32(st))
	metrics.SetStreamState(int(st))
}

func (s *StreamClient) emit(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

// FeedURL converts an HTTP base URL (e.g. "http://127.0.0.1:8000") into
// the WebSocket URL of the feed at path.
func FeedURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = ""
	return u.String(), nil
}
