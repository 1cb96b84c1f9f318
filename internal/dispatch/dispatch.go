// Package dispatch routes decoded inbound messages to the handlers
// registered for their exact address.
package dispatch

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/studiowebux/typeatron/internal/wire"
)

// HandlerFunc handles one inbound message
type HandlerFunc func(msg wire.Message) error

// Dispatcher maps address strings to their handlers
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
	log      zerolog.Logger
}

// New creates an empty dispatcher
func New(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]HandlerFunc),
		log:      log,
	}
}

// Register appends handler to the set for address. Handlers of one address
// run in registration order.
func (d *Dispatcher) Register(address string, handler HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[address] = append(d.handlers[address], handler)
}

// Dispatch invokes every handler registered at msg.Address and returns how
// many ran. A failing or panicking handler is logged and does not stop the
// others. Messages for unknown addresses are dropped.
func (d *Dispatcher) Dispatch(msg wire.Message) int {
	d.mu.RLock()
	handlers := d.handlers[msg.Address]
	d.mu.RUnlock()

	if len(handlers) == 0 {
		d.log.Debug().Str("address", msg.Address).Msg("no handler for message")
		return 0
	}

	for i, h := range handlers {
		if err := d.invoke(h, msg); err != nil {
			d.log.Error().Err(err).
				Str("address", msg.Address).
				Int("handler", i).
				Msg("message handler failed")
		}
	}
	return len(handlers)
}

func (d *Dispatcher) invoke(h HandlerFunc, msg wire.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(msg)
}

// Addresses lists the registered addresses, sorted
func (d *Dispatcher) Addresses() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for addr := range d.handlers {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}
