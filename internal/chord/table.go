package chord

import (
	"sort"
	"strings"
)

// Table maps each mode to the root of its chord trie. It is read-only and
// safe to share between keyers.
type Table struct {
	roots       map[Mode]*Node
	punctuation map[string]string
}

// Root returns the trie root for mode
func (t *Table) Root(mode Mode) *Node {
	return t.roots[mode]
}

// Lookup follows sequence from mode's root. Returns false if the sequence
// leaves the trie or contains a non-button character.
func (t *Table) Lookup(mode Mode, sequence string) (*Node, bool) {
	cur := t.roots[mode]
	for i := 0; i < len(sequence) && cur != nil; i++ {
		idx, err := ButtonIndex(sequence[i])
		if err != nil {
			return nil, false
		}
		cur = cur.Child(idx)
	}
	return cur, cur != nil
}

// Punctuation returns a copy of the letter -> punctuation mapping
func (t *Table) Punctuation() map[string]string {
	out := make(map[string]string, len(t.punctuation))
	for k, v := range t.punctuation {
		out[k] = v
	}
	return out
}

// Chord is one terminal entry of a mode's trie
type Chord struct {
	Mode      Mode
	Sequence  string
	Symbol    string
	HasSymbol bool
	SwitchTo  Mode
	HasSwitch bool
	Modifier  Modifier
}

// Describe returns a short human-readable outcome
func (c Chord) Describe() string {
	var sb strings.Builder
	if c.HasSwitch {
		sb.WriteString("-> ")
		sb.WriteString(c.SwitchTo.String())
	} else {
		sb.WriteString(displaySymbol(c.Symbol))
	}
	if c.Modifier == ModifierControl {
		sb.WriteString(" [control]")
	}
	return sb.String()
}

func displaySymbol(s string) string {
	switch s {
	case "":
		return "(empty)"
	case " ":
		return "SPACE"
	case "\n":
		return "RET"
	default:
		return s
	}
}

// Chords lists every terminal chord of mode, sorted by sequence
func (t *Table) Chords(mode Mode) []Chord {
	var chords []Chord
	var walk func(seq string, n *Node)
	walk = func(seq string, n *Node) {
		if n.Terminal() {
			chords = append(chords, Chord{
				Mode:      mode,
				Sequence:  seq,
				Symbol:    n.symbol,
				HasSymbol: n.hasSymbol,
				SwitchTo:  n.mode,
				HasSwitch: n.hasMode,
				Modifier:  n.Modifier(),
			})
		}
		for i, child := range n.next {
			if child != nil {
				walk(seq+string(rune('1'+i)), child)
			}
		}
	}
	if root := t.roots[mode]; root != nil {
		walk("", root)
	}
	sort.Slice(chords, func(i, j int) bool {
		if len(chords[i].Sequence) != len(chords[j].Sequence) {
			return len(chords[i].Sequence) < len(chords[j].Sequence)
		}
		return chords[i].Sequence < chords[j].Sequence
	})
	return chords
}
