package daemon

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/studiowebux/typeatron/internal/device"
)

const (
	historySize   = 128
	subscriberBuf = 256
)

// Hub fans feed events out to watchers and keeps a short backlog. A watcher
// that falls behind loses events rather than stalling a device session.
type Hub struct {
	mu      sync.Mutex
	subs    map[chan device.FeedEvent]struct{}
	history []device.FeedEvent
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subs: make(map[chan device.FeedEvent]struct{}),
		log:  log,
	}
}

// Publish never blocks
func (h *Hub) Publish(ev device.FeedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.history = append(h.history, ev)
	if len(h.history) > historySize {
		h.history = h.history[len(h.history)-historySize:]
	}
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Warn().Str("kind", string(ev.Kind)).Msg("watcher too slow, event dropped")
		}
	}
}

// Subscribe returns a channel of future events, optionally preceded by the
// backlog, and a func that ends the subscription
func (h *Hub) Subscribe(replay bool) (<-chan device.FeedEvent, func()) {
	ch := make(chan device.FeedEvent, subscriberBuf+historySize)

	h.mu.Lock()
	if replay {
		for _, ev := range h.history {
			ch <- ev
		}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active watchers
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
