// Package output holds the notifiers and keystroke sinks a device session
// reports to.
package output

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"github.com/studiowebux/typeatron/internal/device"
)

// LogNotifier writes notices to the log. Show is for text a user should
// see; Log is diagnostic.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) LogNotifier {
	return LogNotifier{log: log}
}

func (n LogNotifier) Show(text string) {
	n.log.Info().Bool("notice", true).Msg(text)
}

func (n LogNotifier) Log(text string) {
	n.log.Debug().Msg(text)
}

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"

	notifyTimeoutMillis = int32(5000)
)

// DesktopNotifier shows notices through the freedesktop notification service
// on the session bus. Log lines are not shown.
type DesktopNotifier struct {
	conn *dbus.Conn
	log  zerolog.Logger
}

func NewDesktopNotifier(log zerolog.Logger) (*DesktopNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("session bus: %w", err)
	}
	return &DesktopNotifier{conn: conn, log: log}, nil
}

func (n *DesktopNotifier) Show(text string) {
	obj := n.conn.Object(notifyDest, dbus.ObjectPath(notifyPath))
	call := obj.Call(notifyMethod, 0,
		"typeatron", uint32(0), "", "Typeatron", text,
		[]string{}, map[string]dbus.Variant{}, notifyTimeoutMillis)
	if call.Err != nil {
		n.log.Debug().Err(call.Err).Msg("desktop notification failed")
	}
}

func (n *DesktopNotifier) Log(string) {}

func (n *DesktopNotifier) Close() error {
	return n.conn.Close()
}

// Notifiers fans every notice out to each notifier in order
type Notifiers []device.Notifier

func (ns Notifiers) Show(text string) {
	for _, n := range ns {
		n.Show(text)
	}
}

func (ns Notifiers) Log(text string) {
	for _, n := range ns {
		n.Log(text)
	}
}
