package device

import (
	"fmt"

	"github.com/studiowebux/typeatron/internal/keyer"
	"github.com/studiowebux/typeatron/internal/wire"
)

func (c *Controller) registerHandlers() {
	c.dispatcher.Register(AddrError, c.handleError)
	c.dispatcher.Register(AddrInfo, c.handleInfo)
	c.dispatcher.Register(AddrKeys, c.handleKeys)
	c.dispatcher.Register(AddrPhotoData, c.handlePhotoData)
	c.dispatcher.Register(AddrPingReply, c.handlePingReply)
	c.dispatcher.Register(AddrLaserEvent, c.handleLaserEvent)
}

func singleString(msg wire.Message) (string, error) {
	if msg.Len() != 1 {
		return "", fmt.Errorf("%w: %s expects 1 argument, got %d", ErrMalformedMessage, msg.Address, msg.Len())
	}
	s, err := msg.String(0)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	return s, nil
}

func (c *Controller) handleError(msg wire.Message) error {
	text, err := singleString(msg)
	if err != nil {
		return err
	}
	c.notifier.Show("error message from Typeatron: " + text)
	c.log.Error().Str("text", text).Msg("device reported an error")
	c.feed(FeedError, text)
	return nil
}

func (c *Controller) handleInfo(msg wire.Message) error {
	text, err := singleString(msg)
	if err != nil {
		return err
	}
	c.notifier.Log("info message from Typeatron: " + text)
	c.log.Info().Str("text", text).Msg("device info")
	c.feed(FeedInfo, text)
	return nil
}

func (c *Controller) handleKeys(msg wire.Message) error {
	raw, err := singleString(msg)
	if err != nil {
		return err
	}
	state, err := keyer.ParseState(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	ev, ok := c.keyer.Next(state)
	if !ok {
		return nil
	}

	if ev.Kind == keyer.KindModeChange {
		c.log.Info().Str("mode", ev.Mode.String()).Msg("entered mode")
		c.feed(FeedMode, ev.Mode.String())
		return c.SendModeInfo(ev.Mode)
	}

	c.log.Debug().
		Str("symbol", ev.Symbol).
		Str("modifier", ev.Modifier.String()).
		Str("mode", ev.Mode.String()).
		Msg("symbol")
	c.onFeed(FeedEvent{
		Time:     c.clock(),
		Device:   c.address,
		Kind:     FeedSymbol,
		Text:     keyer.Render(ev),
		Mode:     ev.Mode.String(),
		Modifier: ev.Modifier.String(),
	})
	if err := c.sink.Key(ev); err != nil {
		return fmt.Errorf("keystroke sink: %w", err)
	}
	return nil
}

func (c *Controller) handlePhotoData(msg wire.Message) error {
	if msg.Len() != photoDataArgs {
		return fmt.Errorf("%w: photoresistor observation has %d arguments, want %d",
			ErrMalformedMessage, msg.Len(), photoDataArgs)
	}

	obs := PhotoObservation{Device: c.address}
	var err error
	if obs.Start, err = msg.Time(0); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if obs.End, err = msg.Time(1); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if obs.Count, err = msg.Int(2); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	for i, dst := range []*float64{&obs.Min, &obs.Max, &obs.Mean, &obs.Variance} {
		if *dst, err = msg.Float(3 + i); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
	}

	c.log.Info().
		Int64("count", obs.Count).
		Float64("mean", obs.Mean).
		Float64("variance", obs.Variance).
		Msg("photoresistor observation")
	c.feed(FeedPhoto, fmt.Sprintf("n=%d min=%.2f max=%.2f mean=%.2f var=%.2f",
		obs.Count, obs.Min, obs.Max, obs.Mean, obs.Variance))
	if err := c.recorder.RecordObservation(obs); err != nil {
		return fmt.Errorf("record observation: %w", err)
	}
	return nil
}

// handlePingReply assumes the reply answers the latest ping
func (c *Controller) handlePingReply(msg wire.Message) error {
	if c.lastPing.IsZero() {
		c.log.Warn().Msg("ping reply received but no ping was sent")
		return nil
	}
	rtt := c.clock().Sub(c.lastPing)

	text := fmt.Sprintf("ping reply received from Typeatron %s in %dms", c.address, rtt.Milliseconds())
	c.notifier.Show(text)
	c.log.Info().Dur("rtt", rtt).Msg("ping reply")
	c.feed(FeedPing, text)

	if err := c.recorder.RecordPing(PingSample{Device: c.address, SentAt: c.lastPing, RTT: rtt}); err != nil {
		return fmt.Errorf("record ping: %w", err)
	}
	return nil
}

// handleLaserEvent records a pointing gesture. The armed referent is kept,
// so later events without a new PointTo reuse it.
func (c *Controller) handleLaserEvent(msg wire.Message) error {
	at := c.clock()
	if msg.Len() > 0 {
		if t, err := msg.Time(0); err == nil {
			at = t
		} else {
			c.log.Debug().Err(err).Msg("laser event without usable recognition time")
		}
	}

	g := Gesture{Device: c.address, Referent: c.referent, RecognizedAt: at}
	c.log.Info().Str("referent", g.Referent).Time("at", at).Msg("pointed")
	c.feed(FeedGesture, g.Referent)
	if err := c.recorder.RecordGesture(g); err != nil {
		return fmt.Errorf("record gesture: %w", err)
	}
	return nil
}
