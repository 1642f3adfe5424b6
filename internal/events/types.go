// Package events carries environment lifecycle and episode events from
// envs and wrappers to recorders, indexes and loggers.
package events

import (
	"time"
)

// Event type names. Subscribers filter on these.
const (
	TypePhaseChanged   = "env.phase"
	TypeEpisodeStarted = "episode.started"
	TypeEpisodeStep    = "episode.step"
	TypeEpisodeEnded   = "episode.ended"
	TypeEnvClosed      = "env.closed"
)

// Event is anything published on a bus.
type Event interface {
	Type() string
	Timestamp() time.Time
	// EnvID is the instance id of the env that emitted the event
	EnvID() string
}

// BaseEvent is embedded by every concrete event.
type BaseEvent struct {
	EventType string    `json:"type"`
	Time      time.Time `json:"timestamp"`
	Env       string    `json:"env_id"`
}

func newBase(eventType, envID string) BaseEvent {
	return BaseEvent{EventType: eventType, Time: time.Now(), Env: envID}
}

func (e BaseEvent) Type() string         { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }
func (e BaseEvent) EnvID() string        { return e.Env }

// EventHandler handles events of the type it was subscribed for.
type EventHandler func(Event)

// Subscriber receives the event types it declares interest in.
type Subscriber interface {
	ID() string
	HandleEvent(Event)
	InterestedIn(eventType string) bool
}

// Publisher is what envs and wrappers need: a place to send events.
// A nil Publisher is valid wherever one is accepted and drops events.
type Publisher interface {
	Publish(Event)
}

// Bus is a Publisher that subscribers can attach to.
type Bus interface {
	Publisher
	Subscribe(Subscriber)
	// Unsubscribe takes a subscriber id or an id from SubscribeFunc
	Unsubscribe(id string)
	SubscribeFunc(eventType string, handler EventHandler) string
}

var _ Bus = (*EventBus)(nil)
