package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lostfound/tui/internal/clock"
)

// feedServer upgrades every request and hands the server side of the
// connection to the test.
func feedServer(t *testing.T) (*httptest.Server, <-chan *websocket.Conn, <-chan string) {
	t.Helper()
	conns := make(chan *websocket.Conn, 4)
	auth := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		auth <- r.Header.Get("Authorization")
		conns <- c
	}))
	t.Cleanup(srv.Close)
	return srv, conns, auth
}

func TestWebSocketDialerEndToEnd(t *testing.T) {
	srv, conns, auth := feedServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + AdminFeedPath

	clk := clock.Fake(time.Unix(0, 0))
	s := NewStreamClient(StreamConfig{URL: url, Token: "secret"},
		WebSocketDialer{HandshakeTimeout: 2 * time.Second}, WithClock(clk))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	expectConnected(t, s)
	if got := <-auth; got != "Bearer secret" {
		t.Errorf("Authorization = %q", got)
	}

	var server *websocket.Conn
	select {
	case server = <-conns:
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the connection")
	}

	frames := []string{
		`{"event":"ping_x"}`,
		`garbage`,
		`{"event":"new_report","report":{"id":11,"type":"found","status":"pending","item_name":"Calculator"},"high_matches":0}`,
	}
	for _, f := range frames {
		if err := server.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	ev := nextEvent(t, s)
	nr, ok := ev.(NewReport)
	if !ok {
		t.Fatalf("event = %#v, want NewReport", ev)
	}
	if nr.Report.ItemName != "Calculator" {
		t.Errorf("ItemName = %q", nr.Report.ItemName)
	}

	server.Close()
	rs := expectScheduled(t, s)
	if rs.Attempt != 1 || rs.Delay != time.Second {
		t.Errorf("retry = %+v", rs)
	}

	// The retry reaches the same server and reconnects.
	clk.Advance(rs.Delay)
	expectConnected(t, s)
}

func TestWebSocketDialerRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := WebSocketDialer{HandshakeTimeout: time.Second}
	_, err := d.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err == nil {
		t.Fatal("Dial() = nil error, want handshake failure")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error %q should mention the HTTP status", err)
	}
}
