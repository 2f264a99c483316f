// Package event provides a deterministic notification bus for simulation
// entities. Handlers run synchronously in subscription order, so edge-triggered
// publishers (clock window transitions, terminal conditions) observe a
// documented firing order instead of racing listeners.
package event

import (
	"sync"
)

// Signal carries one notification through the bus.
type Signal struct {
	Topic  string
	Source string  // entity that published, e.g. "register:3"
	Day    int     // simulation day when published
	At     float64 // seconds into the day
	Data   any
}

// Handler receives published signals. Handlers must not block.
type Handler func(*Signal)

type subscription struct {
	id      string
	handler Handler
}

// Bus routes signals to subscribers by topic. Dispatch is synchronous and
// in subscription order; there is no queue and no dropped-signal path.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]subscription

	signalCount int64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers a handler for a topic. The id identifies the subscriber
// for later removal; multiple subscriptions per id are allowed.
func (b *Bus) Subscribe(id, topic string, h Handler) *Bus {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: h})
	return b
}

// Unsubscribe removes all of id's handlers for a topic.
func (b *Bus) Unsubscribe(id, topic string) *Bus {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	filtered := make([]subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.id != id {
			filtered = append(filtered, sub)
		}
	}
	b.subs[topic] = filtered
	return b
}

// UnsubscribeAll removes every subscription held by id.
func (b *Bus) UnsubscribeAll(id string) *Bus {
	b.mu.Lock()
	defer b.mu.Unlock()

	for topic, subs := range b.subs {
		filtered := make([]subscription, 0, len(subs))
		for _, sub := range subs {
			if sub.id != id {
				filtered = append(filtered, sub)
			}
		}
		b.subs[topic] = filtered
	}
	return b
}

// Publish delivers a signal to all handlers subscribed to its topic, in the
// order they subscribed. Safe for nil buses so optional collaborators can be
// absent.
func (b *Bus) Publish(sig *Signal) {
	if b == nil {
		return
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs[sig.Topic]))
	copy(subs, b.subs[sig.Topic])
	b.mu.RUnlock()

	b.mu.Lock()
	b.signalCount++
	b.mu.Unlock()

	for _, sub := range subs {
		sub.handler(sig)
	}
}

// SignalCount returns the number of signals published so far.
func (b *Bus) SignalCount() int64 {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.signalCount
}
