// Package events is a small in-process pub/sub bus decoupling pipeline
// runs from the components that react to them (notifications, API
// listeners).
package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventSignalGenerated  EventType = "SIGNAL_GENERATED"
	EventTradeClosed      EventType = "TRADE_CLOSED"
	EventBacktestComplete EventType = "BACKTEST_COMPLETE"
	EventOptimizeComplete EventType = "OPTIMIZE_COMPLETE"
	EventError            EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions. Delivery is
// synchronous and in subscription order.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
	}
}

// Subscribe registers a handler for one event type.
func (b *EventBus) Subscribe(t EventType, s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[t] = append(b.subscribers[t], s)
}

// SubscribeAll registers a handler for every event.
func (b *EventBus) SubscribeAll(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allSubs = append(b.allSubs, s)
}

// Publish delivers the event to every matching subscriber.
func (b *EventBus) Publish(t EventType, data map[string]interface{}) {
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subscribers[t])+len(b.allSubs))
	subs = append(subs, b.subscribers[t]...)
	subs = append(subs, b.allSubs...)
	b.mu.RUnlock()

	event := Event{Type: t, Timestamp: time.Now(), Data: data}
	for _, s := range subs {
		s(event)
	}
}
