package keyer

import (
	"unicode/utf8"

	"github.com/studiowebux/typeatron/internal/chord"
)

// Render formats a symbol event for a text stream: single characters as
// themselves, named keys in angle brackets, control chords as <C-x>.
// Mode changes render as "".
func Render(ev Event) string {
	if ev.Kind != KindSymbol {
		return ""
	}
	single := utf8.RuneCountInString(ev.Symbol) == 1
	if ev.Modifier == chord.ModifierControl {
		if single {
			return "<C-" + ev.Symbol + ">"
		}
		return "<" + ev.Symbol + ">"
	}
	if single {
		return ev.Symbol
	}
	return "<" + ev.Symbol + ">"
}
