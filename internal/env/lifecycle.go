package env

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/events"
)

const maxHistorySize = 256

// Transition records one phase change.
type Transition struct {
	From      Phase
	To        Phase
	Timestamp time.Time
	Reason    string
}

// Lifecycle enforces call ordering for one environment instance and keeps
// its transition history. Concrete environments embed it and call the
// guard methods at the top of Reset, Step and Render.
//
// Like the env that owns it, a Lifecycle is not safe for concurrent use.
type Lifecycle struct {
	id      string
	specID  string
	phase   Phase
	history []Transition
	steps   int
	logger  zerolog.Logger
	bus     events.Publisher
}

// NewLifecycle starts a lifecycle in PhaseUninitialized. bus may be nil.
func NewLifecycle(specID string, logger zerolog.Logger, bus events.Publisher) *Lifecycle {
	id := uuid.NewString()
	return &Lifecycle{
		id:      id,
		specID:  specID,
		phase:   PhaseUninitialized,
		history: make([]Transition, 0, 16),
		logger:  logger.With().Str("env_id", id).Logger(),
		bus:     bus,
	}
}

// ID returns the instance id.
func (l *Lifecycle) ID() string { return l.id }

// SpecID returns the registered id the env was made from.
func (l *Lifecycle) SpecID() string { return l.specID }

// SetSpecID is used by the registry after construction.
func (l *Lifecycle) SetSpecID(id string) { l.specID = id }

// Phase returns the current phase.
func (l *Lifecycle) Phase() Phase { return l.phase }

// Steps returns the number of steps taken over the instance's lifetime.
func (l *Lifecycle) Steps() int { return l.steps }

// Logger returns the env-scoped logger.
func (l *Lifecycle) Logger() zerolog.Logger { return l.logger }

// History returns a copy of the transition history
func (l *Lifecycle) History() []Transition {
	history := make([]Transition, len(l.history))
	copy(history, l.history)
	return history
}

// CheckReset guards Reset without changing phase. Envs call it before
// validating reset options so a rejected reset leaves the phase untouched.
func (l *Lifecycle) CheckReset() {
	if l.phase == PhaseClosed {
		Violate("reset", ErrClosed, "")
	}
}

// BeginReset moves to PhaseReady. Call it only once the new episode state
// is known to be valid.
func (l *Lifecycle) BeginReset() {
	l.CheckReset()
	l.transition(PhaseReady, "reset")
}

// BeginStep guards Step.
func (l *Lifecycle) BeginStep() {
	switch l.phase {
	case PhaseClosed:
		Violate("step", ErrClosed, "")
	case PhaseUninitialized:
		Violate("step", ErrResetNeeded, "")
	case PhaseEnded:
		l.logger.Warn().
			Str("spec_id", l.specID).
			Msg("Step called after the episode ended; call Reset to start a new episode")
	}
}

// EndStep records a completed step and moves to PhaseEnded when the
// episode is over.
func (l *Lifecycle) EndStep(terminated, truncated bool) {
	l.steps++
	if l.phase == PhaseReady && (terminated || truncated) {
		reason := "terminated"
		if !terminated {
			reason = "truncated"
		}
		l.transition(PhaseEnded, reason)
	}
}

// Truncate ends a running episode from outside the env, e.g. when a time
// limit wrapper cuts it short. It does nothing unless the phase is Ready.
func (l *Lifecycle) Truncate(reason string) {
	if l.phase == PhaseReady {
		l.transition(PhaseEnded, reason)
	}
}

// CheckRender guards Render.
func (l *Lifecycle) CheckRender() {
	switch l.phase {
	case PhaseClosed:
		Violate("render", ErrClosed, "")
	case PhaseUninitialized:
		Violate("render", ErrResetNeeded, "")
	}
}

// Close moves to PhaseClosed. It returns false if the lifecycle was
// already closed, in which case the caller must not release anything.
func (l *Lifecycle) Close() bool {
	if l.phase == PhaseClosed {
		return false
	}
	l.transition(PhaseClosed, "close")
	if l.bus != nil {
		l.bus.Publish(events.NewEnvClosedEvent(l.id, l.steps))
	}
	return true
}

func (l *Lifecycle) transition(to Phase, reason string) {
	from := l.phase
	if !from.CanTransitionTo(to) {
		// Guards above make this unreachable for well-formed envs
		Violate(reason, ErrClosed, "transition %s -> %s", from, to)
	}

	l.history = append(l.history, Transition{From: from, To: to, Timestamp: time.Now(), Reason: reason})
	if len(l.history) > maxHistorySize {
		l.history = l.history[len(l.history)-maxHistorySize:]
	}
	l.phase = to

	if l.bus != nil {
		l.bus.Publish(events.NewPhaseChangedEvent(l.id, from.String(), to.String(), reason))
	}

	l.logger.Debug().
		Str("from_phase", from.String()).
		Str("to_phase", to.String()).
		Str("reason", reason).
		Msg("Env phase transition")
}
