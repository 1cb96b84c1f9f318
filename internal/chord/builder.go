package chord

import (
	"fmt"
	"strings"
)

// Builder accumulates chords into per-mode tries. It is not safe for
// concurrent use; build the table once at startup and share the result.
type Builder struct {
	roots       map[Mode]*Node
	punctuation map[string]string
	built       bool
}

// NewBuilder creates an empty builder with a root for every mode
func NewBuilder() *Builder {
	b := &Builder{
		roots:       make(map[Mode]*Node, len(Modes)),
		punctuation: make(map[string]string),
	}
	for _, m := range Modes {
		b.roots[m] = &Node{}
	}
	return b
}

// ButtonIndex maps a sequence character ('1'..'5') to a button index
func ButtonIndex(c byte) (int, error) {
	if c < '1' || c > '0'+NumButtons {
		return 0, fmt.Errorf("%w: character %q is not a button", ErrInvalidSequence, c)
	}
	return int(c - '1'), nil
}

// AddChord walks the trie for mode along sequence, creating nodes as needed,
// and assigns out to the final node. Assigning a different symbol, mode or
// modifier than one already present fails with ErrConflict; a node left with
// both a symbol and a mode fails with ErrInvalidState.
func (b *Builder) AddChord(mode Mode, sequence string, out Output) error {
	if b.built {
		return &BuildError{Kind: ErrSealed, Mode: mode, Sequence: sequence, Message: "table already built"}
	}
	root, ok := b.roots[mode]
	if !ok {
		return &BuildError{Kind: ErrInvalidSequence, Mode: mode, Sequence: sequence, Message: "unknown mode"}
	}
	if sequence == "" {
		return &BuildError{Kind: ErrInvalidSequence, Mode: mode, Sequence: sequence, Message: "empty sequence"}
	}

	// Validate the whole sequence before creating any nodes
	path := make([]int, len(sequence))
	for i := 0; i < len(sequence); i++ {
		idx, err := ButtonIndex(sequence[i])
		if err != nil {
			return &BuildError{Kind: ErrInvalidSequence, Mode: mode, Sequence: sequence, Message: err.Error()}
		}
		path[i] = idx
	}

	cur := root
	for _, idx := range path {
		next := cur.next[idx]
		if next == nil {
			next = &Node{}
			cur.next[idx] = next
		}
		cur = next
	}

	if out.symbol != nil {
		if cur.hasSymbol && cur.symbol != *out.symbol {
			return &BuildError{
				Kind:     ErrConflict,
				Mode:     mode,
				Sequence: sequence,
				Message:  fmt.Sprintf("conflicting symbols %q and %q", cur.symbol, *out.symbol),
			}
		}
		cur.symbol = *out.symbol
		cur.hasSymbol = true
	}

	if out.mode != nil {
		if cur.hasMode && cur.mode != *out.mode {
			return &BuildError{
				Kind:     ErrConflict,
				Mode:     mode,
				Sequence: sequence,
				Message:  fmt.Sprintf("conflicting output modes %s and %s", cur.mode, *out.mode),
			}
		}
		cur.mode = *out.mode
		cur.hasMode = true
	}

	if out.modifier != nil {
		if cur.hasModifier && cur.modifier != *out.modifier {
			return &BuildError{
				Kind:     ErrConflict,
				Mode:     mode,
				Sequence: sequence,
				Message:  fmt.Sprintf("conflicting output modifiers %s and %s", cur.modifier, *out.modifier),
			}
		}
		cur.modifier = *out.modifier
		cur.hasModifier = true
	}

	if cur.hasSymbol && cur.hasMode {
		return &BuildError{
			Kind:     ErrInvalidState,
			Mode:     mode,
			Sequence: sequence,
			Message:  "sequence has been assigned both an output symbol and an output mode",
		}
	}

	return nil
}

// AddRow installs a letter table row in Text mode: the base chord, its
// control and uppercase variants, and the punctuation variant when present.
func (b *Builder) AddRow(row Row) error {
	if len(row.Chord) < 2 {
		return &BuildError{Kind: ErrInvalidSequence, Mode: ModeText, Sequence: row.Chord, Message: "base chord needs at least two transitions"}
	}
	if err := b.AddChord(ModeText, row.Chord, Emit(row.Letter)); err != nil {
		return err
	}

	control, err := DerivedChord(row.Chord, DeriveControl)
	if err != nil {
		return &BuildError{Kind: ErrNoUnusedKey, Mode: ModeText, Sequence: row.Chord, Message: err.Error()}
	}
	if err := b.AddChord(ModeText, control, Emit(row.Letter).With(ModifierControl)); err != nil {
		return err
	}

	upper, err := DerivedChord(row.Chord, DeriveUppercase)
	if err != nil {
		return &BuildError{Kind: ErrNoUnusedKey, Mode: ModeText, Sequence: row.Chord, Message: err.Error()}
	}
	if err := b.AddChord(ModeText, upper, Emit(strings.ToUpper(row.Letter))); err != nil {
		return err
	}

	if row.Punctuation == "" {
		return nil
	}
	punc, err := DerivedChord(row.Chord, DerivePunctuation)
	if err != nil {
		return &BuildError{Kind: ErrNoUnusedKey, Mode: ModeText, Sequence: row.Chord, Message: err.Error()}
	}
	b.punctuation[row.Letter] = row.Punctuation
	return b.AddChord(ModeText, punc, Emit(row.Punctuation))
}

// AddRows installs every row, stopping at the first failure
func (b *Builder) AddRows(rows []Row) error {
	for i, row := range rows {
		if err := b.AddRow(row); err != nil {
			return fmt.Errorf("row %d (%s,%s): %w", i+1, row.Chord, row.Letter, err)
		}
	}
	return nil
}

// Build validates every node once and returns the immutable table. The
// builder is sealed afterwards; further AddChord calls fail with ErrSealed.
func (b *Builder) Build() (*Table, error) {
	if b.built {
		return nil, &BuildError{Kind: ErrSealed, Message: "table already built"}
	}
	for _, m := range Modes {
		if err := validateNode(m, "", b.roots[m]); err != nil {
			return nil, err
		}
	}
	b.built = true

	punctuation := make(map[string]string, len(b.punctuation))
	for k, v := range b.punctuation {
		punctuation[k] = v
	}
	return &Table{roots: b.roots, punctuation: punctuation}, nil
}

func validateNode(mode Mode, seq string, n *Node) error {
	if n.hasSymbol && n.hasMode {
		return &BuildError{
			Kind:     ErrInvalidState,
			Mode:     mode,
			Sequence: seq,
			Message:  "node carries both an output symbol and an output mode",
		}
	}
	for i, child := range n.next {
		if child == nil {
			continue
		}
		if err := validateNode(mode, seq+string(rune('1'+i)), child); err != nil {
			return err
		}
	}
	return nil
}
