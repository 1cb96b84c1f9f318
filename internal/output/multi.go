package output

import (
	"errors"

	"github.com/studiowebux/typeatron/internal/device"
	"github.com/studiowebux/typeatron/internal/keyer"
)

// Multi passes every event to each sink. A failing sink does not stop the
// others; their errors are joined.
type Multi []device.KeySink

func (m Multi) Key(ev keyer.Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Key(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
