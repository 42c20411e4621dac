package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is a receive-only view of one event-stream connection.
type Conn interface {
	// ReadMessage blocks until the next data frame arrives or the
	// connection fails.
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer opens event-stream connections.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// WebSocketDialer dials with gorilla/websocket. When PingInterval is set
// the connection sends protocol pings and fails the read side if no pong
// arrives within PongTimeout.
type WebSocketDialer struct {
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	PongTimeout      time.Duration
	WriteTimeout     time.Duration
}

// Dial performs the WebSocket handshake.
func (d WebSocketDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", url, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &wsConn{
		conn:         conn,
		pongTimeout:  d.PongTimeout,
		writeTimeout: d.WriteTimeout,
		done:         make(chan struct{}),
	}
	if c.writeTimeout <= 0 {
		c.writeTimeout = 10 * time.Second
	}
	if d.PongTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(d.PongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(d.PongTimeout))
		})
	}
	if d.PingInterval > 0 {
		go c.pingLoop(d.PingInterval)
	}
	return c, nil
}

type wsConn struct {
	conn         *websocket.Conn
	pongTimeout  time.Duration
	writeTimeout time.Duration

	writeMu   sync.Mutex // serialises ping and close writes
	done      chan struct{}
	closeOnce sync.Once
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if c.pongTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	}
	return data, nil
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// pingLoop sends periodic pings until the connection is closed.
func (c *wsConn) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
