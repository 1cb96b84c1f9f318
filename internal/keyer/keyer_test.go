package keyer

import (
	"errors"
	"testing"

	"github.com/studiowebux/typeatron/internal/chord"
)

func defaultTable(t *testing.T) *chord.Table {
	t.Helper()
	table, err := chord.LoadTable("")
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	return table
}

// play feeds the snapshots implied by a chord sequence, where each digit
// toggles one button, and collects the events.
func play(t *testing.T, k *Keyer, sequence string) []Event {
	t.Helper()
	var (
		state  ButtonState
		events []Event
	)
	for i := 0; i < len(sequence); i++ {
		idx := int(sequence[i] - '1')
		state[idx] = !state[idx]
		if ev, ok := k.Next(state); ok {
			events = append(events, ev)
		}
	}
	return events
}

func TestParseState(t *testing.T) {
	tests := []struct {
		raw     string
		want    ButtonState
		wantErr bool
	}{
		{raw: "00000", want: ButtonState{}},
		{raw: "10001", want: ButtonState{true, false, false, false, true}},
		{raw: "11111", want: ButtonState{true, true, true, true, true}},
		{raw: "0000", wantErr: true},
		{raw: "000000", wantErr: true},
		{raw: "00200", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseState(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedState) {
					t.Fatalf("ParseState(%q) error = %v, want ErrMalformedState", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseState(%q) unexpected error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseState(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			if got.String() != tt.raw {
				t.Errorf("String() = %q, want %q", got.String(), tt.raw)
			}
		})
	}
}

func TestNext_Space(t *testing.T) {
	k := New(defaultTable(t))

	events := play(t, k, "22")
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	want := Event{Kind: KindSymbol, Mode: chord.ModeText, Symbol: " ", Modifier: chord.ModifierNone}
	if events[0] != want {
		t.Errorf("event = %+v, want %+v", events[0], want)
	}
}

func TestNext_RepeatedSnapshotIsNoOp(t *testing.T) {
	k := New(defaultTable(t))
	down := ButtonState{false, true, false, false, false}

	if _, ok := k.Next(down); ok {
		t.Fatal("press should not produce an event")
	}
	if _, ok := k.Next(down); ok {
		t.Fatal("repeated snapshot should not produce an event")
	}
	if k.Pressed() != 1 {
		t.Errorf("Pressed() = %d, want 1", k.Pressed())
	}
	if _, ok := k.Next(ButtonState{}); !ok {
		t.Fatal("release should complete the chord")
	}
	if _, ok := k.Next(ButtonState{}); ok {
		t.Error("repeated empty snapshot should not produce an event")
	}
}

func TestNext_Letters(t *testing.T) {
	tests := []struct {
		sequence string
		symbol   string
		modifier chord.Modifier
	}{
		{"2332", "e", chord.ModifierNone},
		{"231132", "e", chord.ModifierControl},
		{"234432", "E", chord.ModifierNone},
		{"235532", "=", chord.ModifierNone},
		{"1331", "u", chord.ModifierNone},
		{"1212", "u", chord.ModifierControl},
		{"44", "DEL", chord.ModifierNone},
	}

	for _, tt := range tests {
		t.Run(tt.sequence, func(t *testing.T) {
			k := New(defaultTable(t))
			events := play(t, k, tt.sequence)
			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			if events[0].Symbol != tt.symbol || events[0].Modifier != tt.modifier {
				t.Errorf("event = %+v, want %q %s", events[0], tt.symbol, tt.modifier)
			}
		})
	}
}

func TestNext_ReturnToText(t *testing.T) {
	for _, mode := range []chord.Mode{chord.ModeText, chord.ModeNumeric, chord.ModeHardware} {
		t.Run(mode.String(), func(t *testing.T) {
			k := New(defaultTable(t))
			k.SetMode(mode)
			events := play(t, k, chord.ReturnToTextSequence)
			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			if events[0].Kind != KindModeChange || events[0].Mode != chord.ModeText {
				t.Errorf("event = %+v, want mode change to Text", events[0])
			}
			if k.Mode() != chord.ModeText {
				t.Errorf("Mode() = %s, want Text", k.Mode())
			}
		})
	}
}

func TestNext_Mash(t *testing.T) {
	k := New(defaultTable(t))
	k.SetMode(chord.ModeMash)

	if events := play(t, k, chord.ReturnToTextSequence); len(events) != 0 {
		t.Fatalf("Mash should ignore %s, got %+v", chord.ReturnToTextSequence, events)
	}
	if k.Mode() != chord.ModeMash {
		t.Fatalf("Mode() = %s, want Mash", k.Mode())
	}

	events := play(t, k, chord.ExitMashSequence)
	if len(events) != 1 || events[0].Mode != chord.ModeText {
		t.Fatalf("exit sequence events = %+v, want switch to Text", events)
	}
	if k.Mode() != chord.ModeText {
		t.Errorf("Mode() = %s, want Text", k.Mode())
	}
}

func TestNext_ModeChangeAffectsLaterInput(t *testing.T) {
	k := New(defaultTable(t))
	k.SetMode(chord.ModeHardware)

	if events := play(t, k, "22"); len(events) != 0 {
		t.Fatalf("Hardware has no 22, got %+v", events)
	}
	play(t, k, chord.ReturnToTextSequence)
	events := play(t, k, "22")
	if len(events) != 1 || events[0].Symbol != " " {
		t.Errorf("after switching to Text, 22 = %+v", events)
	}
}

func TestNext_UnrecognizedRecovers(t *testing.T) {
	k := New(defaultTable(t))

	// 12 is on the trie, 125 is not; the chord is lost
	if events := play(t, k, "125521"); len(events) != 0 {
		t.Fatalf("unknown sequence produced %+v", events)
	}
	if k.Pressed() != 0 {
		t.Fatalf("Pressed() = %d, want 0", k.Pressed())
	}
	if k.Unrecognized() {
		t.Fatal("position should reset at the sequence boundary")
	}

	events := play(t, k, "2442")
	if len(events) != 1 || events[0].Symbol != "a" {
		t.Errorf("recognition after a dead chord = %+v, want a", events)
	}
}

func TestNext_NonTerminalEmitsNothing(t *testing.T) {
	b := chord.NewBuilder()
	if err := b.AddChord(chord.ModeText, "122131", chord.Emit("x")); err != nil {
		t.Fatal(err)
	}
	if err := b.AddChord(chord.ModeText, "2332", chord.Emit("e")); err != nil {
		t.Fatal(err)
	}
	table, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	k := New(table)

	// 1221 stays on the trie but carries no outcome
	if events := play(t, k, "1221"); len(events) != 0 {
		t.Fatalf("1221 produced %+v", events)
	}
	if k.Unrecognized() || k.Pressed() != 0 {
		t.Fatalf("keyer not reset: unrecognized=%v pressed=%d", k.Unrecognized(), k.Pressed())
	}
	events := play(t, k, "2332")
	if len(events) != 1 || events[0].Symbol != "e" {
		t.Errorf("2332 = %+v, want e", events)
	}
}

func TestNext_BackToBackChords(t *testing.T) {
	k := New(defaultTable(t))

	events := play(t, k, "2233")
	if len(events) != 2 || events[0].Symbol != " " || events[1].Symbol != "\n" {
		t.Errorf("2233 = %+v, want space then newline", events)
	}
}

func TestNext_ReleaseAtZeroIsClamped(t *testing.T) {
	k := New(defaultTable(t))
	held := ButtonState{false, true, false, false, false}

	// the first snapshot the keyer sees is all-up while it believes 22 is held
	k.last = held
	if _, ok := k.Next(ButtonState{}); ok {
		t.Fatal("unexpected event from a stale release")
	}
	if k.Pressed() != 0 {
		t.Fatalf("Pressed() = %d, want 0", k.Pressed())
	}
	if !k.Unrecognized() {
		t.Fatal("stale release should leave the position unrecognized")
	}

	// the next chord completes the boundary without an event
	if events := play(t, k, "22"); len(events) != 0 {
		t.Fatalf("chord after stale release = %+v, want none", events)
	}
	events := play(t, k, "22")
	if len(events) != 1 || events[0].Symbol != " " {
		t.Errorf("second chord = %+v, want space", events)
	}
}

func TestNext_SimultaneousChangesAscending(t *testing.T) {
	k := New(defaultTable(t))

	// buttons 1 and 2 change together both ways, so the path is 2323
	both := ButtonState{false, true, true, false, false}
	if _, ok := k.Next(both); ok {
		t.Fatal("press should not produce an event")
	}
	ev, ok := k.Next(ButtonState{})
	if !ok || ev.Symbol != "k" {
		t.Errorf("simultaneous release = %+v (%v), want k", ev, ok)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"letter", Event{Kind: KindSymbol, Symbol: "e"}, "e"},
		{"space", Event{Kind: KindSymbol, Symbol: " "}, " "},
		{"named key", Event{Kind: KindSymbol, Symbol: "DEL"}, "<DEL>"},
		{"control letter", Event{Kind: KindSymbol, Symbol: "u", Modifier: chord.ModifierControl}, "<C-u>"},
		{"control named", Event{Kind: KindSymbol, Symbol: "ESC", Modifier: chord.ModifierControl}, "<ESC>"},
		{"control empty", Event{Kind: KindSymbol, Symbol: "", Modifier: chord.ModifierControl}, "<>"},
		{"multibyte rune", Event{Kind: KindSymbol, Symbol: "é"}, "é"},
		{"mode change", Event{Kind: KindModeChange, Mode: chord.ModeText}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.ev); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}
