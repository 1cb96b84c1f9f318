package keyer

import (
	"errors"
	"fmt"

	"github.com/studiowebux/typeatron/internal/chord"
)

// ErrMalformedState is returned for key-state vectors that are not exactly
// five characters of '0' and '1'
var ErrMalformedState = errors.New("keyer: malformed key state")

// ButtonState is one snapshot of the five buttons, 0 = thumb through 4 = pinky
type ButtonState [chord.NumButtons]bool

// ParseState decodes the device's wire form, e.g. "01000"
func ParseState(raw string) (ButtonState, error) {
	var s ButtonState
	if len(raw) != chord.NumButtons {
		return s, fmt.Errorf("%w: %q has length %d", ErrMalformedState, raw, len(raw))
	}
	for i := 0; i < chord.NumButtons; i++ {
		switch raw[i] {
		case '0':
		case '1':
			s[i] = true
		default:
			return ButtonState{}, fmt.Errorf("%w: %q has non-binary character %q", ErrMalformedState, raw, raw[i])
		}
	}
	return s, nil
}

// String returns the wire form of the snapshot
func (s ButtonState) String() string {
	b := make([]byte, chord.NumButtons)
	for i, pressed := range s {
		if pressed {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

// Count returns how many buttons are down
func (s ButtonState) Count() int {
	n := 0
	for _, pressed := range s {
		if pressed {
			n++
		}
	}
	return n
}
