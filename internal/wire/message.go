// Package wire holds the addressed message envelope exchanged with the
// device and its two encodings: OSC packets, and SLIP frames for byte
// streams that carry them.
package wire

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hypebeast/go-osc/osc"
)

var (
	ErrArgIndex = errors.New("wire: argument index out of range")
	ErrArgType  = errors.New("wire: unexpected argument type")
	ErrDecode   = errors.New("wire: undecodable packet")
)

// Message is an address path with ordered typed arguments
type Message struct {
	Address string
	Args    []any
}

// NewMessage creates a message for address
func NewMessage(address string, args ...any) Message {
	return Message{Address: address, Args: args}
}

// Len returns the number of arguments
func (m Message) Len() int {
	return len(m.Args)
}

func (m Message) arg(i int) (any, error) {
	if i < 0 || i >= len(m.Args) {
		return nil, fmt.Errorf("%w: %s has %d args, wanted index %d", ErrArgIndex, m.Address, len(m.Args), i)
	}
	return m.Args[i], nil
}

// String returns argument i as a string
func (m Message) String(i int) (string, error) {
	v, err := m.arg(i)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s arg %d is %T, not string", ErrArgType, m.Address, i, v)
	}
	return s, nil
}

// Int returns argument i as an int64. Both OSC integer widths are accepted.
func (m Message) Int(i int) (int64, error) {
	v, err := m.arg(i)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: %s arg %d is %T, not an integer", ErrArgType, m.Address, i, v)
	}
}

// Float returns argument i as a float64. Integers are widened.
func (m Message) Float(i int) (float64, error) {
	v, err := m.arg(i)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %s arg %d is %T, not a number", ErrArgType, m.Address, i, v)
	}
}

// Time returns argument i as a timestamp. Integers are read as Unix
// milliseconds; OSC timetags are converted.
func (m Message) Time(i int) (time.Time, error) {
	v, err := m.arg(i)
	if err != nil {
		return time.Time{}, err
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case osc.Timetag:
		return t.Time(), nil
	case *osc.Timetag:
		return t.Time(), nil
	case int32:
		return time.UnixMilli(int64(t)), nil
	case int64:
		return time.UnixMilli(t), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s arg %d is %T, not a timestamp", ErrArgType, m.Address, i, v)
	}
}

// Summary renders the message for logs
func (m Message) Summary() string {
	var sb strings.Builder
	sb.WriteString(m.Address)
	for _, a := range m.Args {
		sb.WriteByte(' ')
		fmt.Fprintf(&sb, "%v", a)
	}
	return sb.String()
}
