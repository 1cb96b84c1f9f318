package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/studiowebux/typeatron/internal/wire"
)

func TestSession_SerializesAndReleases(t *testing.T) {
	f := newFixture(t)
	s := NewSession(f.ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- s.Run(ctx) }()

	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if f.tr.link != s {
		t.Fatal("session should be the transport link")
	}

	packet, err := wire.Encode(wire.NewMessage(AddrPingReply))
	if err != nil {
		t.Fatal(err)
	}
	s.Receive(packet)

	// Do runs after the queued receive
	var pings int
	if err := s.Do(ctx, func(c *Controller) error {
		pings = len(f.rec.pings)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if pings != 1 {
		t.Errorf("pings recorded = %d, want 1", pings)
	}

	st, err := s.Status(ctx)
	if err != nil || st.State != "connected" {
		t.Errorf("Status() = %+v, %v", st, err)
	}

	cancel()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
	}
	if err := <-runErr; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if f.tr.disconnects == 0 {
		t.Error("transport not released on shutdown")
	}
	if f.ctrl.State() != StateDisconnected {
		t.Errorf("State() = %s after shutdown", f.ctrl.State())
	}

	if err := s.Do(context.Background(), func(*Controller) error { return nil }); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Do() after shutdown error = %v, want ErrSessionClosed", err)
	}
}

func TestSession_FailIsQueued(t *testing.T) {
	f := newFixture(t)
	s := NewSession(f.ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	if err := s.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	s.Fail(errors.New("link down"))

	st, err := s.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.State != "disconnected" {
		t.Errorf("State = %s, want disconnected", st.State)
	}
}
