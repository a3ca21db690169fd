package events

import (
	"sync"
	"time"
)

// Topics published inside the booking flow.
const (
	TopicPickerDismiss = "picker.dismiss"
	TopicStateChanged  = "booking.state_changed"
	TopicSubmitted     = "booking.submitted"
)

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Source    string
	Payload   any
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event Event)

type subscriber struct {
	id      uint64
	handler EventHandler
}

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers map[string][]subscriber
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]subscriber)}
}

// Subscription is a handle to a registered handler. Close removes it.
type Subscription struct {
	bus       *EventBus
	eventType string
	id        uint64
	once      sync.Once
}

// Subscribe registers a handler for a given event type. The handler stays
// registered until the returned Subscription is closed.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subscribers[eventType] = append(b.subscribers[eventType], subscriber{id: b.nextID, handler: handler})
	return &Subscription{bus: b, eventType: eventType, id: b.nextID}
}

// Close unregisters the handler. Safe to call more than once and on nil.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.unsubscribe(s.eventType, s.id)
	})
}

func (b *EventBus) unsubscribe(eventType string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[eventType]
	for i, sub := range subs {
		if sub.id == id {
			b.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscribers[eventType]) == 0 {
		delete(b.subscribers, eventType)
	}
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	subs := append([]subscriber(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, sub := range subs {
		// Handlers run synchronously; caller decides concurrency model.
		sub.handler(event)
	}
}

// Len returns the number of handlers registered for eventType.
func (b *EventBus) Len(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[eventType])
}
