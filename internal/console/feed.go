// Package console streams moderation-channel posts to connected moderator
// consoles over WebSocket. The feed is read-only for clients: frames sent by
// a console are discarded, and every mod.summary payload is broadcast to all
// connected consoles as a text frame.
package console

import (
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
)

// Feed is the moderator-console broadcast server. One goroutine per connection
// drains inbound frames (answering control frames) so that pings keep the
// connection alive; outbound writes are serialized per connection.
type Feed struct {
	mu     sync.RWMutex
	conns  map[string]*feedConn
	closed bool
}

type feedConn struct {
	id      string
	conn    net.Conn
	writeMu sync.Mutex
}

func (fc *feedConn) write(data []byte) error {
	fc.writeMu.Lock()
	defer fc.writeMu.Unlock()
	return wsutil.WriteServerMessage(fc.conn, ws.OpText, data)
}

// NewFeed returns an empty feed ready to accept console connections.
func NewFeed() *Feed {
	return &Feed{conns: make(map[string]*feedConn)}
}

// Handler returns the HTTP handler that upgrades console connections.
func (f *Feed) Handler() http.Handler {
	return http.HandlerFunc(f.handleUpgrade)
}

func (f *Feed) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.Printf("[console] upgrade failed: %v", err)
		return
	}

	fc := &feedConn{id: uuid.New().String(), conn: conn}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		conn.Close()
		return
	}
	f.conns[fc.id] = fc
	total := len(f.conns)
	f.mu.Unlock()

	log.Printf("[console] console connected id=%s (total=%d)", fc.id, total)
	go f.drain(fc)
}

// drain reads and discards inbound frames until the connection dies. Control
// frames (ping, close) are handled by the wsutil control handler so consoles
// behind proxies stay connected.
func (f *Feed) drain(fc *feedConn) {
	defer f.remove(fc.id)

	ctrl := wsutil.ControlFrameHandler(fc.conn, ws.StateServerSide)
	rd := wsutil.Reader{
		Source:         fc.conn,
		State:          ws.StateServerSide,
		OnIntermediate: ctrl,
	}

	for {
		header, err := rd.NextFrame()
		if err != nil {
			return
		}
		if header.OpCode.IsControl() {
			if err := ctrl(header, &rd); err != nil {
				return
			}
			continue
		}
		// Console frames carry nothing the engine acts on.
		if _, err := io.Copy(io.Discard, &rd); err != nil {
			return
		}
	}
}

func (f *Feed) remove(id string) {
	f.mu.Lock()
	fc, ok := f.conns[id]
	if ok {
		delete(f.conns, id)
	}
	total := len(f.conns)
	f.mu.Unlock()

	if ok {
		fc.conn.Close()
		log.Printf("[console] console disconnected id=%s (total=%d)", id, total)
	}
}

// Broadcast sends one moderation-channel payload to every connected console.
// Write errors evict the failed console; the remaining consoles still receive
// the payload.
func (f *Feed) Broadcast(data []byte) {
	f.mu.RLock()
	conns := make([]*feedConn, 0, len(f.conns))
	for _, fc := range f.conns {
		conns = append(conns, fc)
	}
	f.mu.RUnlock()

	for _, fc := range conns {
		if fc.conn != nil {
			_ = fc.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		}
		if err := fc.write(data); err != nil {
			log.Printf("[console] write to %s failed: %v", fc.id, err)
			f.remove(fc.id)
		}
	}
}

// Count returns the number of connected consoles.
func (f *Feed) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.conns)
}

// Close evicts every console and rejects new connections.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	conns := f.conns
	f.conns = make(map[string]*feedConn)
	f.mu.Unlock()

	for _, fc := range conns {
		fc.conn.Close()
	}
}
