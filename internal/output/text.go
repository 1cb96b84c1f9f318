package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/studiowebux/typeatron/internal/keyer"
)

// TextSink writes each symbol to w in rendered form
type TextSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (s *TextSink) Key(ev keyer.Event) error {
	text := keyer.Render(ev)
	if text == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, text); err != nil {
		return fmt.Errorf("write symbol: %w", err)
	}
	return nil
}
