package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// chanLink collects what a transport delivers
type chanLink struct {
	packets chan []byte
	fails   chan error
}

func newChanLink() *chanLink {
	return &chanLink{packets: make(chan []byte, 16), fails: make(chan error, 4)}
}

func (l *chanLink) Receive(packet []byte) { l.packets <- packet }
func (l *chanLink) Fail(err error)        { l.fails <- err }

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// TestWebSocket_RoundTrip tests that packets flow both ways
func TestWebSocket_RoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, append([]byte("echo:"), msg...)); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	ws := NewWebSocket(map[string]string{"tt": wsURL(server)}, zerolog.Nop())
	link := newChanLink()
	if err := ws.Connect(context.Background(), "tt", link); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer ws.Disconnect("tt")

	if err := ws.Send("tt", []byte("ping")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	select {
	case got := <-link.packets:
		if string(got) != "echo:ping" {
			t.Errorf("received %q, want echo:ping", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for echo")
	}
}

// TestWebSocket_ServerCloseFails tests that a lost connection is reported
func TestWebSocket_ServerCloseFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer server.Close()

	ws := NewWebSocket(map[string]string{"tt": wsURL(server)}, zerolog.Nop())
	link := newChanLink()
	if err := ws.Connect(context.Background(), "tt", link); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	select {
	case err := <-link.fails:
		if err == nil {
			t.Error("Fail called with nil error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for failure")
	}

	if err := ws.Send("tt", []byte("x")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send() after loss error = %v, want ErrNotConnected", err)
	}
}

// TestWebSocket_DisconnectIsQuiet tests that an explicit disconnect is not
// reported as a failure
func TestWebSocket_DisconnectIsQuiet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _, _ = conn.ReadMessage()
	}))
	defer server.Close()

	ws := NewWebSocket(map[string]string{"tt": wsURL(server)}, zerolog.Nop())
	link := newChanLink()
	if err := ws.Connect(context.Background(), "tt", link); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := ws.Disconnect("tt"); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}

	select {
	case err := <-link.fails:
		t.Errorf("unexpected failure after Disconnect: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	if err := ws.Disconnect("tt"); err != nil {
		t.Errorf("second Disconnect() error = %v, want nil", err)
	}
}

func TestWebSocket_Errors(t *testing.T) {
	ws := NewWebSocket(map[string]string{"tt": "ws://127.0.0.1:1/none"}, zerolog.Nop())

	if err := ws.Connect(context.Background(), "other", newChanLink()); !errors.Is(err, ErrUnknownAddress) {
		t.Errorf("Connect(unknown) error = %v, want ErrUnknownAddress", err)
	}
	if err := ws.Connect(context.Background(), "tt", newChanLink()); err == nil {
		t.Error("Connect() to a closed port should fail")
	}
	if err := ws.Send("tt", []byte("x")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send() error = %v, want ErrNotConnected", err)
	}
}
