package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/jmespath/go-jmespath"
	"github.com/mattn/go-isatty"
)

// applyQuery runs a JMESPath expression over the JSON form of v
func applyQuery(v any, expression string) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	jp, err := jmespath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}
	result, err := jp.Search(data)
	if err != nil {
		return nil, fmt.Errorf("JMESPath search failed: %w", err)
	}
	return result, nil
}

// writeStructured writes json or yaml output, highlighted when w is a
// terminal
func writeStructured(w io.Writer, out, format string) error {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		if err := quick.Highlight(w, out, format, "terminal256", "monokai"); err == nil {
			return nil
		}
	}
	_, err := io.WriteString(w, out)
	return err
}
