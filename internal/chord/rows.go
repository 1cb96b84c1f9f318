package chord

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed letters.csv
var defaultLetters string

// Row is one line of the letter table: chordDigits,letter[,punctuation]
type Row struct {
	Chord       string
	Letter      string
	Punctuation string
}

// ParseRows reads letter table rows, one per line. Blank lines and lines
// starting with '#' are skipped. The punctuation token COMMA stands for ','.
func ParseRows(r io.Reader) ([]Row, error) {
	var rows []Row
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("%w: line %d: expected 2 or 3 fields, got %d", ErrInvalidRow, lineNo, len(fields))
		}

		row := Row{
			Chord:  strings.TrimSpace(fields[0]),
			Letter: strings.TrimSpace(fields[1]),
		}
		if row.Chord == "" || row.Letter == "" {
			return nil, fmt.Errorf("%w: line %d: empty chord or letter", ErrInvalidRow, lineNo)
		}
		if len(fields) == 3 {
			row.Punctuation = strings.ReplaceAll(strings.TrimSpace(fields[2]), "COMMA", ",")
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read letter table: %w", err)
	}
	return rows, nil
}

// LoadRows reads a letter table file
func LoadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open letter table: %w", err)
	}
	defer f.Close()
	return ParseRows(f)
}

// DefaultRows returns the built-in letter table
func DefaultRows() ([]Row, error) {
	return ParseRows(strings.NewReader(defaultLetters))
}
