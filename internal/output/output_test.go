package output

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/bendahl/uinput"

	"github.com/studiowebux/typeatron/internal/chord"
	"github.com/studiowebux/typeatron/internal/device"
	"github.com/studiowebux/typeatron/internal/keyer"
)

func symbol(s string, mod chord.Modifier) keyer.Event {
	return keyer.Event{Kind: keyer.KindSymbol, Mode: chord.ModeText, Symbol: s, Modifier: mod}
}

func TestTextSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTextSink(&buf)

	events := []keyer.Event{
		symbol("h", chord.ModifierNone),
		symbol("i", chord.ModifierNone),
		{Kind: keyer.KindModeChange, Mode: chord.ModeNumeric},
		symbol("u", chord.ModifierControl),
		symbol(chord.SymbolEscape, chord.ModifierNone),
		symbol("\n", chord.ModifierNone),
	}
	for _, ev := range events {
		if err := sink.Key(ev); err != nil {
			t.Fatalf("Key(%+v) error = %v", ev, err)
		}
	}

	if got, want := buf.String(), "hi<C-u><ESC>\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

type failingSink struct{ err error }

func (f failingSink) Key(keyer.Event) error { return f.err }

type countingSink struct{ n int }

func (c *countingSink) Key(keyer.Event) error {
	c.n++
	return nil
}

func TestMulti_ContinuesPastFailure(t *testing.T) {
	boom := errors.New("boom")
	after := &countingSink{}
	m := Multi{failingSink{err: boom}, after}

	err := m.Key(symbol("a", chord.ModifierNone))
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}
	if after.n != 1 {
		t.Errorf("second sink called %d times, want 1", after.n)
	}

	var _ device.KeySink = m
}

func TestClipboard_CopiesLines(t *testing.T) {
	var copied []string
	c := &Clipboard{write: func(s string) error {
		copied = append(copied, s)
		return nil
	}}

	typed := []keyer.Event{
		symbol("h", chord.ModifierNone),
		symbol("e", chord.ModifierNone),
		symbol("y", chord.ModifierNone),
		symbol(chord.SymbolDelete, chord.ModifierNone),
		symbol("s", chord.ModifierControl),
		symbol(" ", chord.ModifierNone),
		symbol("x", chord.ModifierNone),
		symbol("\n", chord.ModifierNone),
		symbol(" ", chord.ModifierNone),
		symbol("\n", chord.ModifierNone),
		symbol("z", chord.ModifierNone),
	}
	for _, ev := range typed {
		if err := c.Key(ev); err != nil {
			t.Fatalf("Key() error = %v", err)
		}
	}

	if want := []string{"he x"}; !reflect.DeepEqual(copied, want) {
		t.Errorf("copied = %q, want %q", copied, want)
	}
	if got := c.Pending(); got != "z" {
		t.Errorf("Pending() = %q, want z", got)
	}
}

type keyCall struct {
	down bool
	code int
}

type fakeKeys struct {
	calls []keyCall
}

func (f *fakeKeys) KeyDown(key int) error {
	f.calls = append(f.calls, keyCall{true, key})
	return nil
}

func (f *fakeKeys) KeyUp(key int) error {
	f.calls = append(f.calls, keyCall{false, key})
	return nil
}

func (f *fakeKeys) Close() error { return nil }

func TestKeyboard_Strokes(t *testing.T) {
	tests := []struct {
		name string
		ev   keyer.Event
		want []keyCall
	}{
		{
			name: "lowercase",
			ev:   symbol("e", chord.ModifierNone),
			want: []keyCall{{true, uinput.KeyE}, {false, uinput.KeyE}},
		},
		{
			name: "uppercase holds shift",
			ev:   symbol("E", chord.ModifierNone),
			want: []keyCall{
				{true, uinput.KeyLeftshift}, {true, uinput.KeyE},
				{false, uinput.KeyE}, {false, uinput.KeyLeftshift},
			},
		},
		{
			name: "control chord",
			ev:   symbol("u", chord.ModifierControl),
			want: []keyCall{
				{true, uinput.KeyLeftctrl}, {true, uinput.KeyU},
				{false, uinput.KeyU}, {false, uinput.KeyLeftctrl},
			},
		},
		{
			name: "control space",
			ev:   symbol("", chord.ModifierControl),
			want: []keyCall{
				{true, uinput.KeyLeftctrl}, {true, uinput.KeySpace},
				{false, uinput.KeySpace}, {false, uinput.KeyLeftctrl},
			},
		},
		{
			name: "shifted punctuation",
			ev:   symbol("@", chord.ModifierNone),
			want: []keyCall{
				{true, uinput.KeyLeftshift}, {true, uinput.Key2},
				{false, uinput.Key2}, {false, uinput.KeyLeftshift},
			},
		},
		{
			name: "delete",
			ev:   symbol(chord.SymbolDelete, chord.ModifierNone),
			want: []keyCall{{true, uinput.KeyBackspace}, {false, uinput.KeyBackspace}},
		},
		{
			name: "mode change types nothing",
			ev:   keyer.Event{Kind: keyer.KindModeChange, Mode: chord.ModeMash},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &fakeKeys{}
			kb := &Keyboard{dev: dev}
			if err := kb.Key(tt.ev); err != nil {
				t.Fatalf("Key() error = %v", err)
			}
			if !reflect.DeepEqual(dev.calls, tt.want) {
				t.Errorf("calls = %v, want %v", dev.calls, tt.want)
			}
		})
	}
}

func TestKeyboard_Unmapped(t *testing.T) {
	kb := &Keyboard{dev: &fakeKeys{}}
	err := kb.Key(symbol("é", chord.ModifierNone))
	if !errors.Is(err, ErrUnmappedSymbol) {
		t.Errorf("error = %v, want ErrUnmappedSymbol", err)
	}
}

type recordingNotifier struct{ shown, logged []string }

func (r *recordingNotifier) Show(s string) { r.shown = append(r.shown, s) }
func (r *recordingNotifier) Log(s string)  { r.logged = append(r.logged, s) }

func TestNotifiers_FanOut(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	ns := Notifiers{a, b}
	ns.Show("lost connection")
	ns.Log("info")

	for _, r := range []*recordingNotifier{a, b} {
		if len(r.shown) != 1 || len(r.logged) != 1 {
			t.Errorf("notifier saw shown=%v logged=%v", r.shown, r.logged)
		}
	}
}
