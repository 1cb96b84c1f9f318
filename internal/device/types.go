package device

import (
	"time"

	"github.com/studiowebux/typeatron/internal/keyer"
)

// State is the connection state of one device
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Notifier shows short messages to the user. Show is for things the user
// should notice, Log for the record only.
type Notifier interface {
	Show(msg string)
	Log(msg string)
}

// KeySink receives every recognized symbol
type KeySink interface {
	Key(ev keyer.Event) error
}

// PhotoObservation is one photoresistor summary reported by the device
type PhotoObservation struct {
	Device   string
	Start    time.Time
	End      time.Time
	Count    int64
	Min      float64
	Max      float64
	Mean     float64
	Variance float64
}

// Gesture is a laser pointing event tied to the referent armed at the time
type Gesture struct {
	Device       string
	Referent     string
	RecognizedAt time.Time
}

// PingSample is one ping round trip
type PingSample struct {
	Device string
	SentAt time.Time
	RTT    time.Duration
}

// Recorder persists device telemetry
type Recorder interface {
	RecordObservation(obs PhotoObservation) error
	RecordGesture(g Gesture) error
	RecordPing(p PingSample) error
}

// FeedKind classifies feed events
type FeedKind string

const (
	FeedSymbol  FeedKind = "symbol"
	FeedMode    FeedKind = "mode"
	FeedError   FeedKind = "error"
	FeedInfo    FeedKind = "info"
	FeedPing    FeedKind = "ping"
	FeedPhoto   FeedKind = "photo"
	FeedGesture FeedKind = "gesture"
	FeedState   FeedKind = "state"
)

// FeedEvent is what watchers of a device see
type FeedEvent struct {
	Time     time.Time `json:"time"`
	Device   string    `json:"device"`
	Kind     FeedKind  `json:"kind"`
	Text     string    `json:"text"`
	Mode     string    `json:"mode,omitempty"`
	Modifier string    `json:"modifier,omitempty"`
}

// Status is a snapshot of a device session
type Status struct {
	Address  string     `json:"address"`
	Name     string     `json:"name,omitempty"`
	State    string     `json:"state"`
	Mode     string     `json:"mode"`
	LastPing *time.Time `json:"last_ping,omitempty"`
	Referent string     `json:"referent,omitempty"`
}
