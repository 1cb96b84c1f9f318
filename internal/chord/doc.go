/*
Package chord builds the per-mode chord tries used by the keyer.

# Overview

A chord is a sequence of button transitions across the five physical
buttons. Each press or release of button i moves one step along child slot i
of the active mode's trie. Reaching a terminal node after all buttons are
released either emits a symbol or switches mode.

# Modes

  - Text: letters, punctuation and editing keys
  - Numeric: editing keys only (shares space, newline, delete, escape with Text)
  - Hardware: device control, no text entry
  - Mash: free play; only the long exit sequence is recognized

Every mode except Mash returns to Text with "123321". Mash exits with
"1234554321".

# Letter Table

Letters are loaded from rows of the form:

	chordDigits,letter[,punctuation]

Each row installs four chords in Text mode:

  - the base chord, emitting the letter
  - a control chord, emitting the letter with the Control modifier
  - an uppercase chord, emitting the upper-cased letter
  - a punctuation chord, when the row names punctuation

Derived chords insert an unused button, pressed and released, after the
first two transitions of the base chord. The control chord uses the first
unused button, uppercase the second and punctuation the third, so derived
chords of one base never collide with each other or with the base.

# Validation

Builder.AddChord rejects:
  - a different symbol, mode or modifier on an already assigned node (ErrConflict)
  - a node carrying both a symbol and a mode (ErrInvalidState)
  - characters outside '1'..'5' (ErrInvalidSequence)

Builder.Build validates every node once more and returns an immutable Table.

# Example Usage

	table, err := chord.LoadTable("")
	if err != nil {
		log.Fatal(err)
	}
	for _, c := range table.Chords(chord.ModeText) {
		fmt.Println(c.Sequence, c.Describe())
	}
*/
package chord
