// Package events implements the process-wide broadcast channel used to keep
// dashboard sessions in sync. Delivery is best-effort: a slow or disconnected
// subscriber misses events and re-polls the store, which stays the single
// source of truth.
package events

import (
	"sync"

	"github.com/vudy/otc-desk/internal/logger"
	"github.com/vudy/otc-desk/internal/models"
)

// Bus fans trade events out to all registered subscribers.
// Safe for concurrent use.
type Bus struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// Subscription is a registration handle on the bus. Events arrive on C until
// Close is called; Close always deregisters, so a disconnected session never
// leaks a registry entry.
type Subscription struct {
	C chan models.TradeEvent

	bus  *Bus
	once sync.Once
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new subscriber with the given channel buffer.
func (b *Bus) Subscribe(buffer int) *Subscription {
	s := &Subscription{
		C:   make(chan models.TradeEvent, buffer),
		bus: b,
	}

	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	return s
}

// Close deregisters the subscription and closes its channel. Idempotent.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
		close(s.C)
	})
}

// Publish delivers the event to every current subscriber without blocking.
// A subscriber whose buffer is full drops the event.
func (b *Bus) Publish(ev models.TradeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s := range b.subs {
		select {
		case s.C <- ev:
		default:
			logger.Log.Warnw("event dropped for slow subscriber",
				"event", ev.Event,
				"transaction_id", ev.TransactionID,
			)
		}
	}
}

// Len returns the number of registered subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
