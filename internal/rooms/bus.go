package rooms

import (
	"sync"
	"sync/atomic"

	"roomchat/internal/models"
)

// DefaultCapacity is the per-subscription buffer used when none is configured.
const DefaultCapacity = 1024

// Bus fans events out to independent subscriptions. Publish never blocks:
// a subscription whose buffer is full misses the event and counts it.
// Publishes are serialized, so every subscription sees events in emission order.
type Bus struct {
	mu       sync.Mutex
	capacity int
	subs     map[*Subscription]struct{}
	closed   bool
}

// Subscription is the receive side of a Bus.
type Subscription struct {
	bus    *Bus
	events chan models.ServerEvent
	missed atomic.Uint64
	closed bool // guarded by bus.mu
}

func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		capacity: capacity,
		subs:     make(map[*Subscription]struct{}),
	}
}

// Subscribe returns a subscription that receives every event published after
// this call. Subscribing to a closed bus yields an already-closed subscription.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{
		bus:    b,
		events: make(chan models.ServerEvent, b.capacity),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		sub.closed = true
		close(sub.events)
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Publish delivers event to every subscription with room in its buffer and
// returns how many received it.
func (b *Bus) Publish(event models.ServerEvent) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for sub := range b.subs {
		select {
		case sub.events <- event:
			delivered++
		default:
			sub.missed.Add(1)
		}
	}
	return delivered
}

// Subscribers returns the number of open subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes every subscription. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		sub.closed = true
		close(sub.events)
	}
	b.subs = make(map[*Subscription]struct{})
}

// Events is closed once the subscription or its bus is closed.
func (s *Subscription) Events() <-chan models.ServerEvent {
	return s.events
}

// TakeMissed returns the number of events dropped since the last call.
func (s *Subscription) TakeMissed() uint64 {
	return s.missed.Swap(0)
}

// Close detaches the subscription from its bus. It is safe to call more than once.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	delete(s.bus.subs, s)
	close(s.events)
}
