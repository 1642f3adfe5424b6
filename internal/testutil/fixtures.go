package testutil

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/events"
)

// EventCollector is a Subscriber that keeps every event it receives
type EventCollector struct {
	mu     sync.Mutex
	id     string
	types  map[string]bool
	events []events.Event
}

// NewEventCollector collects the given event types, or all of them when
// none are named.
func NewEventCollector(id string, eventTypes ...string) *EventCollector {
	types := make(map[string]bool)
	for _, t := range eventTypes {
		types[t] = true
	}
	return &EventCollector{id: id, types: types}
}

func (c *EventCollector) ID() string { return c.id }

func (c *EventCollector) InterestedIn(eventType string) bool {
	return len(c.types) == 0 || c.types[eventType]
}

func (c *EventCollector) HandleEvent(e events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of everything collected so far
func (c *EventCollector) Events() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.Event, len(c.events))
	copy(out, c.events)
	return out
}

// OfType returns the collected events of one type
func (c *EventCollector) OfType(eventType string) []events.Event {
	var out []events.Event
	for _, e := range c.Events() {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// LogBuffer captures JSON log lines written through Logger
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Logger returns a debug-level logger writing into the buffer
func (b *LogBuffer) Logger() zerolog.Logger {
	return zerolog.New(b).Level(zerolog.DebugLevel)
}

// Lines decodes every captured log line
func (b *LogBuffer) Lines() []map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

// WithLevel returns the captured lines logged at level
func (b *LogBuffer) WithLevel(level string) []map[string]interface{} {
	var out []map[string]interface{}
	for _, l := range b.Lines() {
		if l["level"] == level {
			out = append(out, l)
		}
	}
	return out
}
