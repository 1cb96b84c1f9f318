package device

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/studiowebux/typeatron/internal/chord"
	"github.com/studiowebux/typeatron/internal/dispatch"
	"github.com/studiowebux/typeatron/internal/keyer"
	"github.com/studiowebux/typeatron/internal/transport"
	"github.com/studiowebux/typeatron/internal/wire"
)

// Options configures a Controller. Nil collaborators are replaced by no-ops.
type Options struct {
	Name     string
	Notifier Notifier
	Sink     KeySink
	Recorder Recorder
	Clock    func() time.Time
	Log      zerolog.Logger
	OnFeed   func(FeedEvent)
}

// Controller owns the protocol state of one device. It is not safe for
// concurrent use; a Session serializes every call.
type Controller struct {
	address    string
	name       string
	transport  transport.Transport
	dispatcher *dispatch.Dispatcher
	keyer      *keyer.Keyer

	notifier Notifier
	sink     KeySink
	recorder Recorder
	clock    func() time.Time
	log      zerolog.Logger
	onFeed   func(FeedEvent)

	state    State
	lastPing time.Time
	referent string
}

// NewController creates a disconnected controller for address and registers
// its inbound handlers
func NewController(address string, t transport.Transport, table *chord.Table, opts Options) *Controller {
	c := &Controller{
		address:   address,
		name:      opts.Name,
		transport: t,
		keyer:     keyer.New(table),
		notifier:  opts.Notifier,
		sink:      opts.Sink,
		recorder:  opts.Recorder,
		clock:     opts.Clock,
		log:       opts.Log.With().Str("device", address).Logger(),
		onFeed:    opts.OnFeed,
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.sink == nil {
		c.sink = nopSink{}
	}
	if c.recorder == nil {
		c.recorder = nopRecorder{}
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	if c.onFeed == nil {
		c.onFeed = func(FeedEvent) {}
	}

	c.dispatcher = dispatch.New(c.log)
	c.registerHandlers()
	return c
}

// Address returns the device address
func (c *Controller) Address() string {
	return c.address
}

// State returns the connection state
func (c *Controller) State() State {
	return c.state
}

// Mode returns the keyer's active mode
func (c *Controller) Mode() chord.Mode {
	return c.keyer.Mode()
}

// Dispatcher exposes the inbound routing table
func (c *Controller) Dispatcher() *dispatch.Dispatcher {
	return c.dispatcher
}

// Status returns a snapshot of the session
func (c *Controller) Status() Status {
	st := Status{
		Address:  c.address,
		Name:     c.name,
		State:    c.state.String(),
		Mode:     c.keyer.Mode().String(),
		Referent: c.referent,
	}
	if !c.lastPing.IsZero() {
		t := c.lastPing
		st.LastPing = &t
	}
	return st
}

func (c *Controller) feed(kind FeedKind, text string) {
	c.onFeed(FeedEvent{
		Time:   c.clock(),
		Device: c.address,
		Kind:   kind,
		Text:   text,
		Mode:   c.keyer.Mode().String(),
	})
}

// Connect opens the transport and pings the device. Inbound packets and
// failures go to link. There is no retry; on failure the controller stays
// disconnected.
func (c *Controller) Connect(ctx context.Context, link transport.Link) error {
	if c.state == StateConnected {
		return nil
	}
	c.state = StateConnecting
	c.feed(FeedState, c.state.String())

	if err := c.transport.Connect(ctx, c.address, link); err != nil {
		c.state = StateDisconnected
		c.release()
		c.feed(FeedState, c.state.String())
		c.log.Error().Err(err).Msg("connect failed")
		return fmt.Errorf("%w: connect %s: %w", ErrTransportFailure, c.address, err)
	}

	c.state = StateConnected
	c.log.Info().Msg("connected")
	c.feed(FeedState, c.state.String())

	if err := c.Ping(); err != nil {
		return err
	}
	return nil
}

// Disconnect closes the transport. It is safe to call in any state.
func (c *Controller) Disconnect() error {
	wasConnected := c.state != StateDisconnected
	c.state = StateDisconnected
	err := c.transport.Disconnect(c.address)
	if wasConnected {
		c.log.Info().Msg("disconnected")
		c.feed(FeedState, c.state.String())
	}
	if err != nil {
		return fmt.Errorf("%w: disconnect %s: %w", ErrTransportFailure, c.address, err)
	}
	return nil
}

// HandleFailure records a connection lost underneath the controller
func (c *Controller) HandleFailure(err error) {
	if c.state == StateDisconnected {
		return
	}
	c.state = StateDisconnected
	c.release()
	c.log.Error().Err(err).Msg("connection lost")
	c.notifier.Show(fmt.Sprintf("lost connection to Typeatron %s", c.address))
	c.feed(FeedState, c.state.String())
}

func (c *Controller) release() {
	if err := c.transport.Disconnect(c.address); err != nil {
		c.log.Debug().Err(err).Msg("transport release failed")
	}
}

func (c *Controller) send(msg wire.Message) error {
	if c.state != StateConnected {
		return fmt.Errorf("%w: %s", ErrNotConnected, msg.Address)
	}
	packet, err := wire.Encode(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if err := c.transport.Send(c.address, packet); err != nil {
		c.state = StateDisconnected
		c.release()
		c.feed(FeedState, c.state.String())
		c.log.Error().Err(err).Str("address", msg.Address).Msg("send failed")
		return fmt.Errorf("%w: send %s: %w", ErrTransportFailure, msg.Address, err)
	}
	c.log.Debug().Str("message", msg.Summary()).Msg("sent")
	return nil
}

// Ping records the send time and asks the device for a reply
func (c *Controller) Ping() error {
	c.lastPing = c.clock()
	return c.send(wire.NewMessage(AddrPing, c.lastPing))
}

// SendModeInfo tells the device which mode the keyer is in
func (c *Controller) SendModeInfo(mode chord.Mode) error {
	return c.send(wire.NewMessage(AddrMode, mode.String()))
}

// Vibrate runs the vibration motor for ms milliseconds
func (c *Controller) Vibrate(ms int) error {
	if ms < MinVibrateMillis || ms > MaxVibrateMillis {
		return fmt.Errorf("%w: vibration of %d ms outside [%d, %d]",
			ErrInvalidArgument, ms, MinVibrateMillis, MaxVibrateMillis)
	}
	return c.send(wire.NewMessage(AddrVibrate, int32(ms)))
}

// LaserTrigger fires the laser pointer
func (c *Controller) LaserTrigger() error {
	return c.send(wire.NewMessage(AddrLaserTrigger))
}

// Morse has the device play text in morse code
func (c *Controller) Morse(text string) error {
	return c.send(wire.NewMessage(AddrMorse, text))
}

// PhotoresistorRequest asks the device for a photoresistor summary
func (c *Controller) PhotoresistorRequest() error {
	return c.send(wire.NewMessage(AddrPhotoGet))
}

// PointTo arms referent for the next laser event, then fires the laser
func (c *Controller) PointTo(referent string) error {
	referent = strings.TrimSpace(referent)
	if referent == "" {
		return fmt.Errorf("%w: empty referent", ErrInvalidArgument)
	}
	c.referent = referent
	return c.LaserTrigger()
}

// SetMode switches the keyer from the host side and informs the device
func (c *Controller) SetMode(mode chord.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidArgument, int(mode))
	}
	c.keyer.SetMode(mode)
	c.log.Info().Str("mode", mode.String()).Msg("mode set by host")
	c.feed(FeedMode, mode.String())
	return c.SendModeInfo(mode)
}

// Receive decodes a packet read from the transport and dispatches each
// message in it. Undecodable packets are logged and dropped.
func (c *Controller) Receive(packet []byte) {
	msgs, err := wire.DecodeAll(packet)
	if err != nil {
		c.log.Warn().Err(fmt.Errorf("%w: %w", ErrMalformedMessage, err)).
			Int("bytes", len(packet)).
			Msg("dropping packet")
		return
	}
	for _, msg := range msgs {
		c.Dispatch(msg)
	}
}

// Dispatch routes one decoded message to its handlers
func (c *Controller) Dispatch(msg wire.Message) {
	c.log.Debug().Str("message", msg.Summary()).Msg("received")
	c.dispatcher.Dispatch(msg)
}

type nopNotifier struct{}

func (nopNotifier) Show(string) {}
func (nopNotifier) Log(string)  {}

type nopSink struct{}

func (nopSink) Key(keyer.Event) error { return nil }

type nopRecorder struct{}

func (nopRecorder) RecordObservation(PhotoObservation) error { return nil }
func (nopRecorder) RecordGesture(Gesture) error              { return nil }
func (nopRecorder) RecordPing(PingSample) error              { return nil }
