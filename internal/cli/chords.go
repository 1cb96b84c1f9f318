package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/studiowebux/typeatron/internal/chord"
)

// chordRow is the serialisable form of one chord
type chordRow struct {
	Mode     string `json:"mode" yaml:"mode"`
	Sequence string `json:"sequence" yaml:"sequence"`
	Outcome  string `json:"outcome" yaml:"outcome"`
}

// ChordOptions select which chords to print
type ChordOptions struct {
	Mode   string // empty for every mode
	Search string // fuzzy match on the outcome
	Format string
	Query  string
}

// Chords prints the chord table
func Chords(env *Env, w io.Writer, opts ChordOptions) error {
	table, err := env.Table()
	if err != nil {
		return err
	}
	return writeChords(w, table, opts)
}

func writeChords(w io.Writer, table *chord.Table, opts ChordOptions) error {
	modes := chord.Modes
	if strings.TrimSpace(opts.Mode) != "" {
		m, err := chord.ParseMode(opts.Mode)
		if err != nil {
			return err
		}
		modes = []chord.Mode{m}
	}

	var rows []chordRow
	for _, m := range modes {
		for _, c := range table.Chords(m) {
			rows = append(rows, chordRow{Mode: m.String(), Sequence: c.Sequence, Outcome: c.Describe()})
		}
	}
	if opts.Search != "" {
		rows = searchChords(rows, opts.Search)
	}

	if out, ok, err := encode(rows, opts.Format, opts.Query); ok {
		if err != nil {
			return err
		}
		return writeStructured(w, out, structuredFormat(opts.Format))
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{r.Mode, r.Sequence, r.Outcome})
	}
	_, err := io.WriteString(w, renderTable([]string{"MODE", "CHORD", "OUTCOME"}, cells))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%d chords\n", len(rows))
	return err
}

// searchChords keeps rows whose outcome fuzzy-matches pattern, best first
func searchChords(rows []chordRow, pattern string) []chordRow {
	outcomes := make([]string, len(rows))
	for i, r := range rows {
		outcomes[i] = r.Outcome
	}
	matches := fuzzy.Find(pattern, outcomes)
	found := make([]chordRow, 0, len(matches))
	for _, m := range matches {
		found = append(found, rows[m.Index])
	}
	return found
}
