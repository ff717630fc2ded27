// Package events implements the process-local event bus that keeps the
// peer graph consistent across subscribe/unsubscribe. Delivery is
// synchronous and happens strictly after the primary transaction has
// committed; listener failures are isolated from the caller and from
// each other.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/gridt-app/gridt/internal/observability"
)

// Event identifies a kind of lifecycle event.
type Event string

const (
	// EventSubscribe fires after a subscription row has committed.
	EventSubscribe Event = "subscribe"
	// EventUnsubscribe fires after a subscription has ended.
	EventUnsubscribe Event = "unsubscribe"
	// EventCreation fires after a creation row has committed.
	EventCreation Event = "creation"
	// EventRemoveCreation fires after a creation has ended.
	EventRemoveCreation Event = "remove_creation"
)

// Payload carries the subject of a lifecycle event.
type Payload struct {
	UserID     int64
	MovementID int64
}

// Listener handles a delivered event. Listeners open their own
// transactional scopes; errors are logged, never propagated.
type Listener func(ctx context.Context, p Payload) error

// Bus is an explicit listener registry passed through the composition
// root. Listeners are registered at startup; Emit may be called from
// any goroutine.
type Bus struct {
	mu        sync.RWMutex
	listeners map[Event][]Listener
	metrics   *observability.Metrics
}

// NewBus creates an empty bus.
func NewBus(metrics *observability.Metrics) *Bus {
	return &Bus{
		listeners: make(map[Event][]Listener),
		metrics:   metrics,
	}
}

// On registers a listener for an event kind.
func (b *Bus) On(event Event, l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[event] = append(b.listeners[event], l)
}

// Emit delivers the payload to every listener registered for the event.
// A failing or panicking listener does not abort its peers and never
// reaches the caller.
func (b *Bus) Emit(ctx context.Context, event Event, p Payload) {
	b.mu.RLock()
	// Copy the slice to avoid holding the lock during delivery
	listeners := make([]Listener, len(b.listeners[event]))
	copy(listeners, b.listeners[event])
	b.mu.RUnlock()

	b.metrics.EventEmitted(string(event))

	for _, l := range listeners {
		if err := b.deliver(ctx, event, l, p); err != nil {
			b.metrics.ListenerFailure(string(event))
			log.Error().
				Err(err).
				Str("event", string(event)).
				Int64("user_id", p.UserID).
				Int64("movement_id", p.MovementID).
				Msg("Event listener failed")
		}
	}
}

func (b *Bus) deliver(ctx context.Context, event Event, l Listener, p Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return l(ctx, p)
}
