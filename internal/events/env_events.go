package events

import (
	"time"
)

// PhaseChangedEvent is published on every lifecycle transition
type PhaseChangedEvent struct {
	BaseEvent
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// NewPhaseChangedEvent creates a new PhaseChangedEvent
func NewPhaseChangedEvent(envID, from, to, reason string) *PhaseChangedEvent {
	return &PhaseChangedEvent{
		BaseEvent: newBase(TypePhaseChanged, envID),
		From:      from,
		To:        to,
		Reason:    reason,
	}
}

// EpisodeStartedEvent is published after a logged reset
type EpisodeStartedEvent struct {
	BaseEvent
	EpisodeID string `json:"episode_id"`
	SpecID    string `json:"spec_id"`
	Seed      *int64 `json:"seed,omitempty"`
}

// NewEpisodeStartedEvent creates a new EpisodeStartedEvent
func NewEpisodeStartedEvent(envID, episodeID, specID string, seed *int64) *EpisodeStartedEvent {
	return &EpisodeStartedEvent{
		BaseEvent: newBase(TypeEpisodeStarted, envID),
		EpisodeID: episodeID,
		SpecID:    specID,
		Seed:      seed,
	}
}

// EpisodeStepEvent carries one transition of a logged episode
type EpisodeStepEvent struct {
	BaseEvent
	EpisodeID    string         `json:"episode_id"`
	Step         int            `json:"step"`
	Action       any            `json:"action"`
	Observation  any            `json:"observation"`
	Reward       float64        `json:"reward"`
	ShapedReward float64        `json:"shaped_reward"`
	Terminated   bool           `json:"terminated"`
	Truncated    bool           `json:"truncated"`
	Info         map[string]any `json:"info,omitempty"`
}

// EpisodeEndedEvent summarises a logged episode once it terminates or truncates
type EpisodeEndedEvent struct {
	BaseEvent
	EpisodeID  string        `json:"episode_id"`
	SpecID     string        `json:"spec_id"`
	Seed       *int64        `json:"seed,omitempty"`
	Length     int           `json:"length"`
	Return     float64       `json:"return"`
	Terminated bool          `json:"terminated"`
	Truncated  bool          `json:"truncated"`
	Duration   time.Duration `json:"duration"`
}

// EnvClosedEvent is published once when an environment is closed
type EnvClosedEvent struct {
	BaseEvent
	Steps int `json:"steps"`
}

// NewEnvClosedEvent creates a new EnvClosedEvent
func NewEnvClosedEvent(envID string, steps int) *EnvClosedEvent {
	return &EnvClosedEvent{
		BaseEvent: newBase(TypeEnvClosed, envID),
		Steps:     steps,
	}
}
