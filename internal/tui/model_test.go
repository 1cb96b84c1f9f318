package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/typeatron/internal/daemon"
	"github.com/studiowebux/typeatron/internal/device"
)

type fakeCommander struct {
	reqs []daemon.Request
	resp daemon.Response
	err  error
}

func (f *fakeCommander) Call(_ context.Context, req daemon.Request) (daemon.Response, error) {
	f.reqs = append(f.reqs, req)
	return f.resp, f.err
}

func newTestModel(cmd Commander) (Model, chan device.FeedEvent) {
	events := make(chan device.FeedEvent, 10)
	m := New(cmd, "bench", events, make(chan error))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), events
}

func feed(m Model, ev device.FeedEvent) Model {
	updated, _ := m.Update(feedMsg(ev))
	return updated.(Model)
}

func TestModel_FeedUpdatesState(t *testing.T) {
	m, _ := newTestModel(&fakeCommander{})
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	addr := "00:06:66:AA:BB:CC"

	m = feed(m, device.FeedEvent{Time: at, Device: addr, Kind: device.FeedState, Text: "connected"})
	m = feed(m, device.FeedEvent{Time: at, Device: addr, Kind: device.FeedMode, Text: "Numeric"})
	for _, text := range []string{"h", "i", "x", "<DEL>", "!"} {
		m = feed(m, device.FeedEvent{Time: at, Device: addr, Kind: device.FeedSymbol, Text: text, Mode: "Text"})
	}
	m = feed(m, device.FeedEvent{Time: at, Device: addr, Kind: device.FeedGesture, Text: "door"})

	st := m.statuses[addr]
	if st.State != "connected" || st.Mode != "Text" || st.Referent != "door" {
		t.Errorf("status = %+v", st)
	}
	if got := m.typed[addr]; got != "hi!" {
		t.Errorf("typed = %q, want hi!", got)
	}
	if len(m.lines) != 8 {
		t.Errorf("lines = %d, want 8", len(m.lines))
	}

	m = feed(m, device.FeedEvent{Time: at, Device: addr, Kind: device.FeedSymbol, Text: "\n"})
	if got := m.typed[addr]; got != "" {
		t.Errorf("typed after newline = %q", got)
	}
}

func TestModel_FeedLinesAreBounded(t *testing.T) {
	m, _ := newTestModel(&fakeCommander{})
	for i := 0; i < maxFeedLines+20; i++ {
		m = feed(m, device.FeedEvent{Device: "a", Kind: device.FeedInfo, Text: "tick"})
	}
	if len(m.lines) != maxFeedLines {
		t.Errorf("lines = %d, want %d", len(m.lines), maxFeedLines)
	}
}

func TestModel_KeysSendCommands(t *testing.T) {
	tests := []struct {
		key  string
		want daemon.Request
	}{
		{"p", daemon.Request{Command: daemon.CmdPing, Device: "bench"}},
		{"l", daemon.Request{Command: daemon.CmdLaser, Device: "bench"}},
		{"g", daemon.Request{Command: daemon.CmdPhoto, Device: "bench"}},
		{"v", daemon.Request{Command: daemon.CmdVibrate, Device: "bench", Millis: defaultVibrateMs}},
		{"m", daemon.Request{Command: daemon.CmdMode, Device: "bench", Mode: "Numeric"}},
		{"d", daemon.Request{Command: daemon.CmdDisconnect, Device: "bench"}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			fc := &fakeCommander{}
			m, _ := newTestModel(fc)

			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(tt.key)})
			if cmd == nil {
				t.Fatal("key produced no command")
			}
			msg := cmd()
			res, ok := msg.(callResultMsg)
			if !ok {
				t.Fatalf("command returned %T", msg)
			}
			if res.err != nil {
				t.Errorf("call error = %v", res.err)
			}
			if len(fc.reqs) != 1 || fc.reqs[0] != tt.want {
				t.Errorf("requests = %+v, want %+v", fc.reqs, tt.want)
			}
		})
	}
}

func TestModel_CallFailureShown(t *testing.T) {
	fc := &fakeCommander{err: &daemon.RemoteError{Code: daemon.CodeNotConnected, Message: "not connected"}}
	m, _ := newTestModel(fc)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	updated, _ := m.Update(cmd())
	m = updated.(Model)

	if !m.isError || !strings.Contains(m.status, "ping failed") {
		t.Errorf("status = %q, isError = %v", m.status, m.isError)
	}
	if !strings.Contains(m.View(), "ping failed") {
		t.Error("view does not show the failure")
	}
}

func TestModel_WaitForEvent(t *testing.T) {
	m, events := newTestModel(&fakeCommander{})
	events <- device.FeedEvent{Device: "a", Kind: device.FeedPing, Text: "ping reply"}

	msg := m.waitForEvent()()
	if ev, ok := msg.(feedMsg); !ok || ev.Kind != device.FeedPing {
		t.Errorf("waitForEvent() = %#v", msg)
	}

	close(events)
	if _, ok := m.waitForEvent()().(watchEndedMsg); !ok {
		t.Error("closed channel should end the watch")
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(&fakeCommander{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
}
