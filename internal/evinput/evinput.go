// Package evinput turns five keys of an ordinary keyboard into Typeatron
// button snapshots, for practising chords without the device.
package evinput

import (
	"context"
	"errors"
	"fmt"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/rs/zerolog"

	"github.com/studiowebux/typeatron/internal/chord"
	"github.com/studiowebux/typeatron/internal/keyer"
)

// Mapper tracks the five mapped keys. Other keys and autorepeat are ignored.
type Mapper struct {
	keys  [chord.NumButtons]uint16
	state keyer.ButtonState
}

func NewMapper(keys []uint16) (*Mapper, error) {
	if len(keys) != chord.NumButtons {
		return nil, fmt.Errorf("need %d key codes, got %d", chord.NumButtons, len(keys))
	}
	m := &Mapper{}
	seen := make(map[uint16]bool)
	for i, k := range keys {
		if seen[k] {
			return nil, fmt.Errorf("key code %d mapped twice", k)
		}
		seen[k] = true
		m.keys[i] = k
	}
	return m, nil
}

// Apply records a key transition and returns the new snapshot. ok is false
// when the key is not mapped or the state did not change.
func (m *Mapper) Apply(code uint16, down bool) (keyer.ButtonState, bool) {
	for i, k := range m.keys {
		if k != code {
			continue
		}
		if m.state[i] == down {
			return m.state, false
		}
		m.state[i] = down
		return m.state, true
	}
	return m.state, false
}

// Source reads an evdev node and reports snapshots of the mapped keys
type Source struct {
	path   string
	mapper *Mapper
	grab   bool
	log    zerolog.Logger
}

func NewSource(path string, keys []uint16, grab bool, log zerolog.Logger) (*Source, error) {
	if path == "" {
		return nil, errors.New("no input device configured")
	}
	m, err := NewMapper(keys)
	if err != nil {
		return nil, err
	}
	return &Source{path: path, mapper: m, grab: grab, log: log}, nil
}

// Run calls fn with every changed snapshot until ctx ends or the device
// goes away
func (s *Source) Run(ctx context.Context, fn func(keyer.ButtonState)) error {
	kbd, err := evdev.Open(s.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer kbd.File.Close()

	if s.grab {
		if err := kbd.Grab(); err != nil {
			return fmt.Errorf("grab %s: %w", s.path, err)
		}
		defer kbd.Release()
	}
	s.log.Info().Str("path", s.path).Str("name", kbd.Name).Msg("attached")

	// closing the file unblocks ReadOne
	stop := context.AfterFunc(ctx, func() { kbd.File.Close() })
	defer stop()

	for {
		ev, err := kbd.ReadOne()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read %s: %w", s.path, err)
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		kev := evdev.NewKeyEvent(ev)
		var down bool
		switch kev.State {
		case evdev.KeyDown:
			down = true
		case evdev.KeyUp:
			down = false
		default:
			continue
		}
		if state, ok := s.mapper.Apply(kev.Scancode, down); ok {
			s.log.Debug().Str("state", state.String()).Msg("buttons")
			fn(state)
		}
	}
}
