package mockserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrTooManyConnections is returned by AddClient when the feed is full.
var ErrTooManyConnections = errors.New("too many connections")

// CloseTryAgainLater is the close code sent to clients refused because
// the feed is full.
const CloseTryAgainLater = 1013

const writeWait = 5 * time.Second

type peer struct {
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte
}

func (p *peer) writePump() {
	defer p.conn.Close()
	for msg := range p.send {
		p.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			p.b.RemoveClient(p)
			return
		}
	}
	p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// Broadcaster fans event frames out to every connected admin.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*peer]bool
	maxConns int
	log      *slog.Logger
}

// NewBroadcaster creates a broadcaster accepting at most maxConns clients;
// zero means unlimited.
func NewBroadcaster(maxConns int, log *slog.Logger) *Broadcaster {
	if log == nil {
		log = slog.Default()
	}
	return &Broadcaster{
		clients:  make(map[*peer]bool),
		maxConns: maxConns,
		log:      log.With("component", "broadcaster"),
	}
}

// AddClient registers conn and starts its writer.
func (b *Broadcaster) AddClient(conn *websocket.Conn) (*peer, error) {
	b.mu.Lock()
	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		b.mu.Unlock()
		return nil, ErrTooManyConnections
	}
	p := &peer{conn: conn, b: b, send: make(chan []byte, 64)}
	b.clients[p] = true
	n := len(b.clients)
	b.mu.Unlock()

	go p.writePump()
	b.log.Info("feed client connected", "clients", n)
	return p, nil
}

// RemoveClient unregisters p and stops its writer. Removing twice is safe.
func (b *Broadcaster) RemoveClient(p *peer) {
	b.mu.Lock()
	_, ok := b.clients[p]
	if ok {
		delete(b.clients, p)
		close(p.send)
	}
	n := len(b.clients)
	b.mu.Unlock()

	if ok {
		b.log.Info("feed client disconnected", "clients", n)
	}
}

// Broadcast sends v as JSON to every client. Clients that cannot keep up
// are disconnected.
func (b *Broadcaster) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		b.log.Error("broadcast marshal failed", "error", err)
		return
	}

	// Sends happen under the read lock so no channel is closed mid-send.
	var slow []*peer
	b.mu.RLock()
	for p := range b.clients {
		select {
		case p.send <- data:
		default:
			slow = append(slow, p)
		}
	}
	b.mu.RUnlock()

	for _, p := range slow {
		b.log.Warn("feed client too slow, disconnecting")
		b.RemoveClient(p)
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Stop disconnects every client.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	clients := b.clients
	b.clients = make(map[*peer]bool)
	b.mu.Unlock()

	for p := range clients {
		close(p.send)
	}
}
