package chord

import (
	"errors"
	"fmt"
)

var (
	ErrConflict        = errors.New("chord: conflicting assignment")
	ErrInvalidState    = errors.New("chord: invalid state")
	ErrInvalidSequence = errors.New("chord: invalid sequence")
	ErrNoUnusedKey     = errors.New("chord: no unused key")
	ErrSealed          = errors.New("chord: builder already built")
	ErrInvalidRow      = errors.New("chord: invalid table row")
)

// BuildError describes a failed table construction step
type BuildError struct {
	Kind     error // one of the sentinel errors above
	Mode     Mode
	Sequence string
	Message  string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("[%s] %s in mode '%s': %s", kindName(e.Kind), e.Sequence, e.Mode, e.Message)
}

func (e *BuildError) Unwrap() error {
	return e.Kind
}

func kindName(kind error) string {
	switch kind {
	case ErrConflict:
		return "conflict"
	case ErrInvalidState:
		return "invalid_state"
	case ErrInvalidSequence:
		return "invalid_sequence"
	case ErrNoUnusedKey:
		return "no_unused_key"
	case ErrSealed:
		return "sealed"
	default:
		return "error"
	}
}
