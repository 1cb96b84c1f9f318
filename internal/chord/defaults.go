package chord

// Sequences with fixed meaning in every table
const (
	ReturnToTextSequence = "123321"
	ExitMashSequence     = "1234554321"
)

// NewDefaultBuilder creates a builder holding the programmatic rules
func NewDefaultBuilder() (*Builder, error) {
	b := NewBuilder()
	if err := RegisterDefaultRules(b); err != nil {
		return nil, err
	}
	return b, nil
}

// RegisterDefaultRules installs the chords that do not come from the letter
// table
func RegisterDefaultRules(b *Builder) error {
	if err := registerControlBindings(b); err != nil {
		return err
	}
	if err := registerModeBindings(b); err != nil {
		return err
	}
	return registerEditingBindings(b)
}

// registerControlBindings sets up the control chords reserved for the host
func registerControlBindings(b *Builder) error {
	rules := []struct {
		sequence string
		symbol   string
	}{
		{"1212", "u"}, // uppercase text
		{"1313", "p"}, // punctuation
		{"1414", "n"}, // numbers
	}
	for _, r := range rules {
		if err := b.AddChord(ModeText, r.sequence, Emit(r.symbol).With(ModifierControl)); err != nil {
			return err
		}
	}
	return nil
}

// registerModeBindings sets up the ways back to Text mode
func registerModeBindings(b *Builder) error {
	for _, m := range Modes {
		if m == ModeMash {
			continue
		}
		if err := b.AddChord(m, ReturnToTextSequence, SwitchTo(ModeText).With(ModifierNone)); err != nil {
			return err
		}
	}
	return b.AddChord(ModeMash, ExitMashSequence, SwitchTo(ModeText).With(ModifierNone))
}

// Named keys emitted by the editing chords
const (
	SymbolDelete = "DEL"
	SymbolEscape = "ESC"
)

// registerEditingBindings sets up space, newline, delete and escape in both
// text-entry modes
func registerEditingBindings(b *Builder) error {
	for _, m := range []Mode{ModeText, ModeNumeric} {
		// control-space is the dictionary operator
		if err := b.AddChord(m, "11", Emit("").With(ModifierControl)); err != nil {
			return err
		}
		for seq, symbol := range map[string]string{
			"22": " ",
			"33": "\n",
			"44": SymbolDelete,
			"55": SymbolEscape,
		} {
			if err := b.AddChord(m, seq, Emit(symbol)); err != nil {
				return err
			}
		}
	}
	return nil
}

// NewTable builds a table from the default rules plus rows
func NewTable(rows []Row) (*Table, error) {
	b, err := NewDefaultBuilder()
	if err != nil {
		return nil, err
	}
	if err := b.AddRows(rows); err != nil {
		return nil, err
	}
	return b.Build()
}

// LoadTable builds the table from a letter file, or the built-in letters
// when path is empty
func LoadTable(path string) (*Table, error) {
	var (
		rows []Row
		err  error
	)
	if path == "" {
		rows, err = DefaultRows()
	} else {
		rows, err = LoadRows(path)
	}
	if err != nil {
		return nil, err
	}
	return NewTable(rows)
}
