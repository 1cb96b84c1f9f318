package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WebSocket reaches devices through a bridge that relays one binary frame
// per packet. Each address has its own bridge URL.
type WebSocket struct {
	mu        sync.Mutex
	endpoints map[string]string
	conns     map[string]*wsConn
	dialer    *websocket.Dialer
	log       zerolog.Logger
}

type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closing atomic.Bool
}

// NewWebSocket creates a transport for the given address -> URL endpoints
func NewWebSocket(endpoints map[string]string, log zerolog.Logger) *WebSocket {
	eps := make(map[string]string, len(endpoints))
	for addr, url := range endpoints {
		eps[addr] = url
	}
	return &WebSocket{
		endpoints: eps,
		conns:     make(map[string]*wsConn),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 15 * time.Second,
		},
		log: log.With().Str("transport", "websocket").Logger(),
	}
}

// Connect dials the bridge for address. An existing connection for the same
// address is closed first.
func (w *WebSocket) Connect(ctx context.Context, address string, link Link) error {
	w.mu.Lock()
	url, ok := w.endpoints[address]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAddress, address)
	}

	if err := w.Disconnect(address); err != nil {
		w.log.Warn().Err(err).Str("address", address).Msg("failed to close previous connection")
	}

	conn, resp, err := w.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection to %s failed (HTTP %d): %w", url, resp.StatusCode, err)
		}
		return fmt.Errorf("connection to %s failed: %w", url, err)
	}

	c := &wsConn{conn: conn}
	w.mu.Lock()
	w.conns[address] = c
	w.mu.Unlock()

	w.log.Info().Str("address", address).Str("url", url).Msg("connected")
	go w.receive(address, c, link)
	return nil
}

// receive reads frames until the connection ends
func (w *WebSocket) receive(address string, c *wsConn, link Link) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.closing.Load() {
				return
			}
			w.mu.Lock()
			if w.conns[address] == c {
				delete(w.conns, address)
			}
			w.mu.Unlock()
			c.conn.Close()
			w.log.Warn().Err(err).Str("address", address).Msg("connection lost")
			link.Fail(err)
			return
		}

		switch messageType {
		case websocket.BinaryMessage, websocket.TextMessage:
			link.Receive(data)
		}
	}
}

// Send writes packet as one binary frame
func (w *WebSocket) Send(address string, packet []byte) error {
	w.mu.Lock()
	c, ok := w.conns[address]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConnected, address)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.BinaryMessage, packet); err != nil {
		return fmt.Errorf("failed to send to %s: %w", address, err)
	}
	return nil
}

// Disconnect closes the connection for address. It does not wait for the
// reader goroutine, which may be blocked delivering to the caller. Unknown
// addresses are a no-op.
func (w *WebSocket) Disconnect(address string) error {
	w.mu.Lock()
	c, ok := w.conns[address]
	delete(w.conns, address)
	w.mu.Unlock()
	if !ok {
		return nil
	}

	c.closing.Store(true)
	c.writeMu.Lock()
	// Ignore close errors as the peer may already be gone
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	err := c.conn.Close()
	w.log.Info().Str("address", address).Msg("disconnected")
	return err
}
