package output

import (
	"fmt"
	"strings"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/studiowebux/typeatron/internal/chord"
	"github.com/studiowebux/typeatron/internal/keyer"
)

// Clipboard collects typed text and copies each line to the system clipboard
// when a newline is typed. DEL drops the last character; other named keys
// and control chords are ignored.
type Clipboard struct {
	mu    sync.Mutex
	line  []rune
	write func(string) error
}

func NewClipboard() *Clipboard {
	return &Clipboard{write: clipboard.WriteAll}
}

func (c *Clipboard) Key(ev keyer.Event) error {
	if ev.Kind != keyer.KindSymbol || ev.Modifier != chord.ModifierNone {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Symbol {
	case "\n":
		line := string(c.line)
		c.line = c.line[:0]
		if strings.TrimSpace(line) == "" {
			return nil
		}
		if err := c.write(line); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
	case chord.SymbolDelete:
		if n := len(c.line); n > 0 {
			c.line = c.line[:n-1]
		}
	default:
		if r := []rune(ev.Symbol); len(r) == 1 {
			c.line = append(c.line, r[0])
		}
	}
	return nil
}

// Pending returns the text typed since the last copied line
func (c *Clipboard) Pending() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.line)
}
