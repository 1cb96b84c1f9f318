package output

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bendahl/uinput"

	"github.com/studiowebux/typeatron/internal/chord"
	"github.com/studiowebux/typeatron/internal/keyer"
)

// ErrUnmappedSymbol is returned for symbols with no US-layout key
var ErrUnmappedSymbol = errors.New("symbol has no key mapping")

// DefaultUinputPath is the kernel's uinput node
const DefaultUinputPath = "/dev/uinput"

// keyDevice is the part of uinput.Keyboard the sink drives
type keyDevice interface {
	KeyDown(key int) error
	KeyUp(key int) error
	Close() error
}

type stroke struct {
	code  int
	shift bool
}

// Keyboard types symbols on a virtual uinput keyboard, as if typed on a
// US layout. Control chords hold left ctrl.
type Keyboard struct {
	mu  sync.Mutex
	dev keyDevice
}

// NewKeyboard creates the virtual keyboard at path
func NewKeyboard(path string) (*Keyboard, error) {
	if path == "" {
		path = DefaultUinputPath
	}
	kb, err := uinput.CreateKeyboard(path, []byte("typeatron"))
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard: %w", err)
	}
	return &Keyboard{dev: kb}, nil
}

func (k *Keyboard) Key(ev keyer.Event) error {
	if ev.Kind != keyer.KindSymbol {
		return nil
	}
	st, ok := strokeFor(ev.Symbol)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnmappedSymbol, ev.Symbol)
	}

	var held []int
	if ev.Modifier == chord.ModifierControl {
		held = append(held, uinput.KeyLeftctrl)
	}
	if st.shift {
		held = append(held, uinput.KeyLeftshift)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	return k.press(held, st.code)
}

func (k *Keyboard) press(held []int, code int) error {
	for _, m := range held {
		if err := k.dev.KeyDown(m); err != nil {
			return fmt.Errorf("key down %d: %w", m, err)
		}
	}
	// modifiers are released even when the key itself fails
	errDown := k.dev.KeyDown(code)
	var errUp error
	if errDown == nil {
		errUp = k.dev.KeyUp(code)
	}
	var errs []error
	for i := len(held) - 1; i >= 0; i-- {
		if err := k.dev.KeyUp(held[i]); err != nil {
			errs = append(errs, err)
		}
	}
	if errDown != nil {
		return fmt.Errorf("key down %d: %w", code, errDown)
	}
	if errUp != nil {
		return fmt.Errorf("key up %d: %w", code, errUp)
	}
	return errors.Join(errs...)
}

func (k *Keyboard) Close() error {
	return k.dev.Close()
}

// strokeFor maps a symbol to a key. The empty symbol is space, so a control
// chord with no symbol types ctrl-space.
func strokeFor(symbol string) (stroke, bool) {
	switch symbol {
	case "", " ":
		return stroke{code: uinput.KeySpace}, true
	case "\n":
		return stroke{code: uinput.KeyEnter}, true
	case chord.SymbolDelete:
		return stroke{code: uinput.KeyBackspace}, true
	case chord.SymbolEscape:
		return stroke{code: uinput.KeyEsc}, true
	}

	r := []rune(symbol)
	if len(r) != 1 {
		return stroke{}, false
	}
	c := r[0]
	switch {
	case c >= 'a' && c <= 'z':
		return stroke{code: letterKeys[c-'a']}, true
	case c >= 'A' && c <= 'Z':
		return stroke{code: letterKeys[c-'A'], shift: true}, true
	case c >= '1' && c <= '9':
		return stroke{code: uinput.Key1 + int(c-'1')}, true
	case c == '0':
		return stroke{code: uinput.Key0}, true
	}
	st, ok := punctuationKeys[c]
	return st, ok
}

var letterKeys = [26]int{
	uinput.KeyA, uinput.KeyB, uinput.KeyC, uinput.KeyD, uinput.KeyE,
	uinput.KeyF, uinput.KeyG, uinput.KeyH, uinput.KeyI, uinput.KeyJ,
	uinput.KeyK, uinput.KeyL, uinput.KeyM, uinput.KeyN, uinput.KeyO,
	uinput.KeyP, uinput.KeyQ, uinput.KeyR, uinput.KeyS, uinput.KeyT,
	uinput.KeyU, uinput.KeyV, uinput.KeyW, uinput.KeyX, uinput.KeyY,
	uinput.KeyZ,
}

var punctuationKeys = map[rune]stroke{
	'-':  {code: uinput.KeyMinus},
	'_':  {code: uinput.KeyMinus, shift: true},
	'=':  {code: uinput.KeyEqual},
	'+':  {code: uinput.KeyEqual, shift: true},
	'[':  {code: uinput.KeyLeftbrace},
	'{':  {code: uinput.KeyLeftbrace, shift: true},
	']':  {code: uinput.KeyRightbrace},
	'}':  {code: uinput.KeyRightbrace, shift: true},
	';':  {code: uinput.KeySemicolon},
	':':  {code: uinput.KeySemicolon, shift: true},
	'\'': {code: uinput.KeyApostrophe},
	'"':  {code: uinput.KeyApostrophe, shift: true},
	'`':  {code: uinput.KeyGrave},
	'~':  {code: uinput.KeyGrave, shift: true},
	'\\': {code: uinput.KeyBackslash},
	'|':  {code: uinput.KeyBackslash, shift: true},
	',':  {code: uinput.KeyComma},
	'<':  {code: uinput.KeyComma, shift: true},
	'.':  {code: uinput.KeyDot},
	'>':  {code: uinput.KeyDot, shift: true},
	'/':  {code: uinput.KeySlash},
	'?':  {code: uinput.KeySlash, shift: true},
	'!':  {code: uinput.Key1, shift: true},
	'@':  {code: uinput.Key2, shift: true},
	'#':  {code: uinput.Key3, shift: true},
	'$':  {code: uinput.Key4, shift: true},
	'%':  {code: uinput.Key5, shift: true},
	'^':  {code: uinput.Key6, shift: true},
	'&':  {code: uinput.Key7, shift: true},
	'*':  {code: uinput.Key8, shift: true},
	'(':  {code: uinput.Key9, shift: true},
	')':  {code: uinput.Key0, shift: true},
}
