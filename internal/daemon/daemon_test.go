package daemon

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/studiowebux/typeatron/internal/chord"
	"github.com/studiowebux/typeatron/internal/config"
	"github.com/studiowebux/typeatron/internal/device"
	"github.com/studiowebux/typeatron/internal/transport"
	"github.com/studiowebux/typeatron/internal/wire"
)

const benchAddr = "00:06:66:AA:BB:CC"

// fakeDevice answers pings like the firmware does
type fakeDevice struct {
	mu    sync.Mutex
	links map[string]transport.Link
	sent  []wire.Message
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{links: make(map[string]transport.Link)}
}

func (f *fakeDevice) Connect(_ context.Context, address string, link transport.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[address] = link
	return nil
}

func (f *fakeDevice) Send(address string, packet []byte) error {
	msg, err := wire.Decode(packet)
	if err != nil {
		return err
	}
	f.mu.Lock()
	link, ok := f.links[address]
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	if !ok {
		return transport.ErrNotConnected
	}

	if msg.Address == device.AddrPing {
		reply, err := wire.Encode(wire.NewMessage(device.AddrPingReply))
		if err != nil {
			return err
		}
		go link.Receive(reply)
	}
	return nil
}

func (f *fakeDevice) Disconnect(address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.links, address)
	return nil
}

func (f *fakeDevice) connected() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.links)
}

func (f *fakeDevice) lastSent(address string) (wire.Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].Address == address {
			return f.sent[i], true
		}
	}
	return wire.Message{}, false
}

func startDaemon(t *testing.T) (*Client, *fakeDevice) {
	t.Helper()

	table, err := chord.LoadTable("")
	if err != nil {
		t.Fatal(err)
	}
	fake := newFakeDevice()
	sock := filepath.Join(t.TempDir(), "typeatron.sock")

	d, err := New(Options{
		Devices: []config.DeviceConfig{
			{Name: "bench", Address: benchAddr, Transport: config.TransportWebSocket, URL: "ws://bridge"},
		},
		Transports: map[string]transport.Transport{benchAddr: fake},
		Table:      table,
		Socket:     sock,
		Log:        zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(3 * time.Second):
			t.Error("daemon did not stop")
		}
		if n := fake.connected(); n != 0 {
			t.Errorf("%d devices still connected after shutdown", n)
		}
	})

	client := NewClient(sock)
	waitFor(t, func() bool {
		resp, err := client.Call(context.Background(), Request{Command: CmdStatus})
		return err == nil && len(resp.Devices) == 1 && resp.Devices[0].State == "connected"
	})
	return client, fake
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestDaemon_Commands(t *testing.T) {
	client, fake := startDaemon(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     Request
		wantErr error
		sent    string
	}{
		{"vibrate", Request{Command: CmdVibrate, Millis: 250}, nil, device.AddrVibrate},
		{"vibrate zero", Request{Command: CmdVibrate, Millis: 0}, device.ErrInvalidArgument, ""},
		{"morse", Request{Command: CmdMorse, Text: "sos"}, nil, device.AddrMorse},
		{"laser", Request{Command: CmdLaser}, nil, device.AddrLaserTrigger},
		{"photo", Request{Command: CmdPhoto}, nil, device.AddrPhotoGet},
		{"point by name", Request{Command: CmdPoint, Device: "bench", Text: "door"}, nil, device.AddrLaserTrigger},
		{"point empty", Request{Command: CmdPoint, Text: "  "}, device.ErrInvalidArgument, ""},
		{"mode", Request{Command: CmdMode, Mode: "Numeric"}, nil, device.AddrMode},
		{"bad mode", Request{Command: CmdMode, Mode: "Braille"}, device.ErrInvalidArgument, ""},
		{"unknown device", Request{Command: CmdPing, Device: "left"}, ErrUnknownDevice, ""},
		{"unknown command", Request{Command: "dance"}, ErrBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Call(ctx, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Call() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Call() error = %v", err)
			}
			if _, ok := fake.lastSent(tt.sent); !ok {
				t.Errorf("nothing sent to %s", tt.sent)
			}
		})
	}

	resp, err := client.Call(ctx, Request{Command: CmdStatus, Device: benchAddr})
	if err != nil {
		t.Fatal(err)
	}
	if st := resp.Devices[0]; st.Mode != "Numeric" || st.Referent != "door" || st.Name != "bench" {
		t.Errorf("status = %+v", st)
	}
	if msg, _ := fake.lastSent(device.AddrMode); msg.Summary() != "/exo/tt/mode Numeric" {
		t.Errorf("mode message = %s", msg.Summary())
	}
}

func TestDaemon_DisconnectThenCommand(t *testing.T) {
	client, _ := startDaemon(t)
	ctx := context.Background()

	resp, err := client.Call(ctx, Request{Command: CmdDisconnect})
	if err != nil {
		t.Fatalf("disconnect error = %v", err)
	}
	if resp.Devices[0].State != "disconnected" {
		t.Errorf("state = %s", resp.Devices[0].State)
	}

	_, err = client.Call(ctx, Request{Command: CmdPing})
	if !errors.Is(err, device.ErrNotConnected) || !errors.Is(err, device.ErrTransportFailure) {
		t.Errorf("ping error = %v, want not connected", err)
	}

	resp, err = client.Call(ctx, Request{Command: CmdConnect})
	if err != nil || resp.Devices[0].State != "connected" {
		t.Errorf("reconnect = %+v, %v", resp, err)
	}
}

var errFound = errors.New("found")

func TestDaemon_WatchSeesPingReply(t *testing.T) {
	client, _ := startDaemon(t)

	if _, err := client.Call(context.Background(), Request{Command: CmdPing}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := client.Watch(ctx, "bench-unused", true, func(device.FeedEvent) error {
		return errFound
	})
	if err != nil {
		t.Errorf("watch filtered by another device returned %v", err)
	}

	ctx2, cancel2 := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel2()
	err = client.Watch(ctx2, benchAddr, true, func(ev device.FeedEvent) error {
		if ev.Kind == device.FeedPing {
			return errFound
		}
		return nil
	})
	if !errors.Is(err, errFound) {
		t.Errorf("Watch() error = %v, want a ping event", err)
	}
}

func TestHub_ReplayAndDrop(t *testing.T) {
	h := NewHub(zerolog.Nop())
	for i := 0; i < historySize+10; i++ {
		h.Publish(device.FeedEvent{Kind: device.FeedSymbol, Text: "x"})
	}

	ch, cancel := h.Subscribe(true)
	if got := len(ch); got != historySize {
		t.Errorf("replayed %d events, want %d", got, historySize)
	}
	if h.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d", h.Subscribers())
	}

	// fill the buffer; further events are dropped, not blocking
	for i := 0; i < subscriberBuf+10; i++ {
		h.Publish(device.FeedEvent{Kind: device.FeedInfo})
	}
	if got := len(ch); got != cap(ch) {
		t.Errorf("buffered %d, want full %d", got, cap(ch))
	}

	cancel()
	cancel()
	if h.Subscribers() != 0 {
		t.Errorf("Subscribers() after cancel = %d", h.Subscribers())
	}
}
