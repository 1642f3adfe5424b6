package events

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EventBus delivers events synchronously, on the publishing goroutine and
// so inside the env's own Reset or Step call. Subscribers see events in
// the order they subscribed; a handler may subscribe or unsubscribe while
// an event is being delivered, the change applies from the next Publish.
type EventBus struct {
	mu       sync.RWMutex
	entries  []busEntry
	nextFunc int
	logger   zerolog.Logger
}

// busEntry is either an object subscriber or a function handler bound to
// one event type.
type busEntry struct {
	id        string
	sub       Subscriber
	eventType string
	fn        EventHandler
}

func (e busEntry) wants(eventType string) bool {
	if e.sub != nil {
		return e.sub.InterestedIn(eventType)
	}
	return e.eventType == eventType
}

// NewEventBus creates a bus logging through the global logger.
func NewEventBus() *EventBus {
	return NewEventBusWithLogger(log.Logger)
}

// NewEventBusWithLogger creates a bus logging through logger.
func NewEventBusWithLogger(logger zerolog.Logger) *EventBus {
	return &EventBus{logger: logger.With().Str("component", "event_bus").Logger()}
}

// Subscribe adds a subscriber. Subscribing an id again replaces the
// earlier subscriber in place.
func (eb *EventBus) Subscribe(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	entry := busEntry{id: subscriber.ID(), sub: subscriber}
	if i := eb.indexLocked(entry.id); i >= 0 {
		eb.entries[i] = entry
	} else {
		eb.entries = append(eb.entries, entry)
	}
	eb.logger.Debug().
		Str("subscriber_id", entry.id).
		Msg("Subscriber added to event bus")
}

// SubscribeFunc registers handler for one event type and returns an id
// that Unsubscribe accepts.
func (eb *EventBus) SubscribeFunc(eventType string, handler EventHandler) string {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextFunc++
	id := fmt.Sprintf("%s#%d", eventType, eb.nextFunc)
	eb.entries = append(eb.entries, busEntry{id: id, eventType: eventType, fn: handler})
	eb.logger.Debug().
		Str("event_type", eventType).
		Str("handler_id", id).
		Msg("Function handler added to event bus")
	return id
}

// Unsubscribe removes the subscriber or function handler with id.
func (eb *EventBus) Unsubscribe(id string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if i := eb.indexLocked(id); i >= 0 {
		eb.entries = slices.Delete(eb.entries, i, i+1)
		eb.logger.Debug().Str("subscriber_id", id).Msg("Subscriber removed from event bus")
	}
}

func (eb *EventBus) indexLocked(id string) int {
	return slices.IndexFunc(eb.entries, func(e busEntry) bool { return e.id == id })
}

// Publish delivers event to every interested subscriber and handler. A
// panicking handler is logged and skipped.
func (eb *EventBus) Publish(event Event) {
	eventType := event.Type()

	eb.mu.RLock()
	targets := make([]busEntry, 0, len(eb.entries))
	for _, e := range eb.entries {
		if e.wants(eventType) {
			targets = append(targets, e)
		}
	}
	eb.mu.RUnlock()

	eb.logger.Trace().
		Str("event_type", eventType).
		Str("env_id", event.EnvID()).
		Int("targets", len(targets)).
		Msg("Publishing event")

	for _, e := range targets {
		eb.deliver(e, event)
	}
}

func (eb *EventBus) deliver(e busEntry, event Event) {
	defer func() {
		if r := recover(); r != nil {
			eb.logger.Error().
				Str("subscriber_id", e.id).
				Str("event_type", event.Type()).
				Str("env_id", event.EnvID()).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()
	if e.sub != nil {
		e.sub.HandleEvent(event)
		return
	}
	e.fn(event)
}

// SubscriberCount returns the number of object subscribers.
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	n := 0
	for _, e := range eb.entries {
		if e.sub != nil {
			n++
		}
	}
	return n
}

// FuncHandlerCount returns the number of function handlers for eventType.
func (eb *EventBus) FuncHandlerCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	n := 0
	for _, e := range eb.entries {
		if e.sub == nil && e.eventType == eventType {
			n++
		}
	}
	return n
}
