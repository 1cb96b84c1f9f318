package chord

// Node is one state of a mode's chord trie. Each child slot corresponds to a
// button index; a transition (press or release) of that button moves to it.
// Nodes are only mutated by a Builder before Build returns.
type Node struct {
	next [NumButtons]*Node

	symbol    string
	hasSymbol bool

	mode    Mode
	hasMode bool

	modifier    Modifier
	hasModifier bool
}

// Child returns the node reached by a transition of button, or nil
func (n *Node) Child(button int) *Node {
	if n == nil || button < 0 || button >= NumButtons {
		return nil
	}
	return n.next[button]
}

// Symbol returns the symbol emitted at this node, if any
func (n *Node) Symbol() (string, bool) {
	return n.symbol, n.hasSymbol
}

// SwitchMode returns the mode entered at this node, if any
func (n *Node) SwitchMode() (Mode, bool) {
	return n.mode, n.hasMode
}

// Modifier returns the node's modifier, ModifierNone when unset
func (n *Node) Modifier() Modifier {
	if !n.hasModifier {
		return ModifierNone
	}
	return n.modifier
}

// Terminal reports whether reaching this node produces an outcome
func (n *Node) Terminal() bool {
	return n.hasSymbol || n.hasMode
}

// Output describes what a chord produces. Build one with Emit or SwitchTo.
type Output struct {
	symbol   *string
	mode     *Mode
	modifier *Modifier
}

// Emit returns an Output emitting symbol
func Emit(symbol string) Output {
	return Output{symbol: &symbol}
}

// SwitchTo returns an Output entering mode
func SwitchTo(mode Mode) Output {
	return Output{mode: &mode}
}

// With returns a copy of o carrying modifier
func (o Output) With(modifier Modifier) Output {
	o.modifier = &modifier
	return o
}
