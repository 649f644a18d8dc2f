// Package events is a small in-process pub/sub bus used to push
// domain events (new signals, settlements, balance changes) to the
// websocket layer.
package events

import "sync"

// Topics published on the bus.
const (
	TopicSignalCreated  = "signal.created"
	TopicSignalSettled  = "signal.settled"
	TopicBalanceUpdated = "balance.updated"
)

// Event is one bus message. Payload is marshalled as-is to websocket
// clients.
type Event struct {
	Topic   string `json:"topic"`
	UserID  string `json:"userId"`
	Payload any    `json:"payload"`
}

// Bus fans events out to subscribers. Publish never blocks: slow
// subscribers drop events rather than stalling the publisher.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a buffered channel for all events. The returned
// cancel func must be called when the subscriber goes away.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers to every subscriber with room in its buffer.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Subscriber buffer full, drop.
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
