// Package tui is a live monitor for the daemon's device feed, with keys for
// the common device commands.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/typeatron/internal/chord"
	"github.com/studiowebux/typeatron/internal/daemon"
	"github.com/studiowebux/typeatron/internal/device"
)

// Commander sends one request to the daemon
type Commander interface {
	Call(ctx context.Context, req daemon.Request) (daemon.Response, error)
}

// callTimeout bounds one command issued from the monitor
const callTimeout = 10 * time.Second

type feedMsg device.FeedEvent

type watchEndedMsg struct{ err error }

type callResultMsg struct {
	command string
	resp    daemon.Response
	err     error
}

// Model is the monitor state
type Model struct {
	cmd      Commander
	selector string
	events   <-chan device.FeedEvent
	ended    <-chan error

	view     viewport.Model
	lines    []string
	statuses map[string]device.Status
	typed    map[string]string
	status   string
	isError  bool
	width    int
	height   int
}

// New creates a monitor reading events and ended, sending commands through
// cmd to the device named by selector
func New(cmd Commander, selector string, events <-chan device.FeedEvent, ended <-chan error) Model {
	return Model{
		cmd:      cmd,
		selector: selector,
		events:   events,
		ended:    ended,
		view:     viewport.New(80, 20),
		statuses: make(map[string]device.Status),
		typed:    make(map[string]string),
		status:   "waiting for events",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.call(daemon.Request{Command: daemon.CmdStatus}))
}

// waitForEvent returns a Cmd that waits for the next feed event
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev, ok := <-m.events:
			if !ok {
				return watchEndedMsg{}
			}
			return feedMsg(ev)
		case err := <-m.ended:
			return watchEndedMsg{err: err}
		}
	}
}

func (m Model) call(req daemon.Request) tea.Cmd {
	if req.Command != daemon.CmdStatus {
		req.Device = m.selector
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		resp, err := m.cmd.Call(ctx, req)
		return callResultMsg{command: req.Command, resp: resp, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.view.Width = max(msg.Width-boxBorder, 10)
		m.view.Height = max(msg.Height-headerLines-footerLines-boxBorder, 3)
		m.view.SetContent(strings.Join(m.lines, "\n"))
		m.view.GotoBottom()
		return m, nil

	case feedMsg:
		m.apply(device.FeedEvent(msg))
		return m, m.waitForEvent()

	case watchEndedMsg:
		m.status = "watch ended"
		if msg.err != nil {
			m.status = "watch ended: " + msg.err.Error()
		}
		m.isError = true
		return m, nil

	case callResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.command, msg.err)
			m.isError = true
			return m, nil
		}
		for _, st := range msg.resp.Devices {
			m.statuses[st.Address] = st
		}
		if msg.command != daemon.CmdStatus {
			m.status = msg.command + " sent"
			m.isError = false
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "p":
		return m, m.call(daemon.Request{Command: daemon.CmdPing})
	case "l":
		return m, m.call(daemon.Request{Command: daemon.CmdLaser})
	case "g":
		return m, m.call(daemon.Request{Command: daemon.CmdPhoto})
	case "v":
		return m, m.call(daemon.Request{Command: daemon.CmdVibrate, Millis: defaultVibrateMs})
	case "c":
		return m, m.call(daemon.Request{Command: daemon.CmdConnect})
	case "d":
		return m, m.call(daemon.Request{Command: daemon.CmdDisconnect})
	case "r":
		return m, m.call(daemon.Request{Command: daemon.CmdStatus})
	case "m":
		return m, m.call(daemon.Request{Command: daemon.CmdMode, Mode: m.nextMode().String()})
	case "x":
		m.typed = make(map[string]string)
		return m, nil
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

// nextMode cycles the selected device, or the only known device, through
// the modes
func (m Model) nextMode() chord.Mode {
	current := chord.ModeText
	for _, st := range m.statuses {
		if m.selector == "" || strings.EqualFold(st.Address, m.selector) || st.Name == m.selector {
			if mode, err := chord.ParseMode(st.Mode); err == nil {
				current = mode
			}
			break
		}
	}
	for i, mode := range chord.Modes {
		if mode == current {
			return chord.Modes[(i+1)%len(chord.Modes)]
		}
	}
	return chord.ModeText
}

// apply folds one event into the monitor state
func (m *Model) apply(ev device.FeedEvent) {
	st := m.statuses[ev.Device]
	st.Address = ev.Device
	switch ev.Kind {
	case device.FeedState:
		st.State = ev.Text
	case device.FeedMode:
		st.Mode = ev.Text
	case device.FeedGesture:
		st.Referent = ev.Text
	case device.FeedSymbol:
		m.typed[ev.Device] = appendTyped(m.typed[ev.Device], ev.Text)
		if ev.Mode != "" {
			st.Mode = ev.Mode
		}
	}
	m.statuses[ev.Device] = st

	m.lines = append(m.lines, renderEvent(ev))
	if len(m.lines) > maxFeedLines {
		m.lines = m.lines[len(m.lines)-maxFeedLines:]
	}
	atBottom := m.view.AtBottom()
	m.view.SetContent(strings.Join(m.lines, "\n"))
	if atBottom {
		m.view.GotoBottom()
	}
}

// appendTyped keeps the current line of typed text
func appendTyped(line, text string) string {
	switch text {
	case "\n":
		return ""
	case "<" + chord.SymbolDelete + ">":
		r := []rune(line)
		if len(r) == 0 {
			return line
		}
		return string(r[:len(r)-1])
	}
	return line + text
}

func (m Model) deviceAddresses() []string {
	addrs := make([]string, 0, len(m.statuses))
	for a := range m.statuses {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)
	return addrs
}
