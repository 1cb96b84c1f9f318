// Package keyer recognizes chords from successive five-button snapshots.
package keyer

import (
	"github.com/studiowebux/typeatron/internal/chord"
)

// EventKind tells a symbol apart from a mode change
type EventKind int

const (
	KindSymbol EventKind = iota
	KindModeChange
)

// Event is the outcome of a completed chord
type Event struct {
	Kind     EventKind
	Mode     chord.Mode // mode the symbol was typed in, or the new mode
	Symbol   string
	Modifier chord.Modifier
}

// HasSymbol reports whether the event carries a symbol
func (e Event) HasSymbol() bool {
	return e.Kind == KindSymbol
}

// Keyer turns button snapshots into chord events. A Keyer is owned by one
// goroutine; it does no locking.
type Keyer struct {
	table *chord.Table
	mode  chord.Mode

	node         *chord.Node
	unrecognized bool
	pressed      int
	last         ButtonState
}

// New creates a keyer in Text mode at the root of the table
func New(table *chord.Table) *Keyer {
	k := &Keyer{table: table, mode: chord.ModeText}
	k.reset()
	return k
}

// Mode returns the active mode
func (k *Keyer) Mode() chord.Mode {
	return k.mode
}

// Pressed returns the number of buttons currently counted as down
func (k *Keyer) Pressed() int {
	return k.pressed
}

// Unrecognized reports whether the sequence in progress has left the trie
func (k *Keyer) Unrecognized() bool {
	return k.unrecognized
}

// SetMode switches modes from the host side. A sequence in progress is
// discarded.
func (k *Keyer) SetMode(mode chord.Mode) {
	k.mode = mode
	k.reset()
}

// Next consumes one snapshot. Changed buttons are applied in ascending
// index order. An event is returned only when the pressed count returns to
// zero on a terminal node.
func (k *Keyer) Next(state ButtonState) (Event, bool) {
	var (
		ev  Event
		got bool
	)
	for i := 0; i < chord.NumButtons; i++ {
		if state[i] == k.last[i] {
			continue
		}
		if state[i] {
			k.pressed++
			k.advance(i)
			continue
		}

		if k.pressed == 0 {
			// a release nobody saw pressed, e.g. a key held at power-up
			k.unrecognized = true
			k.node = nil
			continue
		}
		k.pressed--
		k.advance(i)
		if k.pressed == 0 {
			if e, ok := k.resolve(); ok {
				ev, got = e, true
			}
			k.reset()
		}
	}
	k.last = state
	return ev, got
}

func (k *Keyer) advance(button int) {
	if k.unrecognized {
		return
	}
	next := k.node.Child(button)
	if next == nil {
		k.unrecognized = true
		k.node = nil
		return
	}
	k.node = next
}

func (k *Keyer) resolve() (Event, bool) {
	if k.unrecognized || k.node == nil {
		return Event{}, false
	}
	if symbol, ok := k.node.Symbol(); ok {
		return Event{
			Kind:     KindSymbol,
			Mode:     k.mode,
			Symbol:   symbol,
			Modifier: k.node.Modifier(),
		}, true
	}
	if mode, ok := k.node.SwitchMode(); ok {
		modifier := k.node.Modifier()
		k.mode = mode
		return Event{
			Kind:     KindModeChange,
			Mode:     mode,
			Modifier: modifier,
		}, true
	}
	return Event{}, false
}

func (k *Keyer) reset() {
	k.node = k.table.Root(k.mode)
	k.unrecognized = false
}
