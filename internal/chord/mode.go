package chord

import (
	"fmt"
	"strings"
)

// NumButtons is the number of physical buttons on the keyer (0 = thumb, 4 = pinky)
const NumButtons = 5

// Mode is a named grammar context selecting which chord trie is active
type Mode int

const (
	ModeText     Mode = iota // Letters, punctuation and editing keys
	ModeNumeric              // Numeric entry (shares editing keys with Text)
	ModeHardware             // Device control, no text entry
	ModeMash                 // Free play; only the long exit chord is recognized
)

// Modes lists every mode in declaration order
var Modes = []Mode{ModeText, ModeNumeric, ModeHardware, ModeMash}

var modeNames = map[Mode]string{
	ModeText:     "Text",
	ModeNumeric:  "Numeric",
	ModeHardware: "Hardware",
	ModeMash:     "Mash",
}

// String returns the wire name of the mode
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// IsTextEntry reports whether symbols typed in this mode are text
func (m Mode) IsTextEntry() bool {
	return m == ModeText || m == ModeNumeric
}

// Valid reports whether m is one of the declared modes
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode resolves a mode name, case-insensitively
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", name)
}

// Modifier alters how a recognized symbol is rendered downstream
type Modifier int

const (
	ModifierNone Modifier = iota
	ModifierControl
)

// String returns a human-readable modifier name
func (m Modifier) String() string {
	switch m {
	case ModifierControl:
		return "Control"
	case ModifierNone:
		return "None"
	default:
		return fmt.Sprintf("Modifier(%d)", int(m))
	}
}
