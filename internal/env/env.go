// Package env defines the environment lifecycle contract: reset, step,
// render and close, together with the lifecycle bookkeeping and render
// dispatch concrete environments build on.
//
// Misuse of the contract (illegal actions, unsupported render modes,
// stepping before reset, using a closed env) panics with a
// *ContractViolation. Boundaries that must not crash, like the gRPC
// server, convert those panics back into errors with Recover.
package env

import (
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/spaces"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/render"
)

// Info carries auxiliary diagnostics. The control loop never reads it.
type Info map[string]any

// ResetOptions are the arguments to Reset. A nil Seed keeps the current
// random source.
type ResetOptions struct {
	Seed    *int64
	Options map[string]any
}

// WithSeed returns ResetOptions that reseed the environment.
func WithSeed(seed int64) ResetOptions {
	return ResetOptions{Seed: &seed}
}

// Metadata is the static description of an environment class.
type Metadata struct {
	RenderModes []RenderMode
	RenderFPS   int
}

// Supports reports whether mode is one of the declared render modes.
func (m Metadata) Supports(mode RenderMode) bool {
	if mode == RenderNone {
		return true
	}
	for _, rm := range m.RenderModes {
		if rm == mode {
			return true
		}
	}
	return false
}

// Env is a reinforcement-learning environment with observations of type O
// and actions of type A. Implementations are single threaded: one
// goroutine drives an instance at a time.
type Env[O, A any] interface {
	// ID identifies this instance in logs and events.
	ID() string
	// SpecID is the registered id the env was made from, or "".
	SpecID() string

	ActionSpace() spaces.Space[A]
	ObservationSpace() spaces.Space[O]
	Metadata() Metadata
	RenderMode() RenderMode

	// Reset starts a new episode. In human mode it renders once before
	// returning.
	Reset(opts ResetOptions) (O, Info)

	// Step applies one action. The action must be a member of
	// ActionSpace; anything else panics. In human mode it renders once
	// after the transition.
	Step(action A) (obs O, reward float64, terminated, truncated bool, info Info)

	// Render produces output for the configured render mode. Only
	// rgb_array returns a frame.
	Render() (*render.Frame, error)

	// Close releases render resources. It is idempotent.
	Close() error
}

// Truncator is implemented by envs, and the wrappers around them, whose
// running episode can be ended by an outer wrapper.
type Truncator interface {
	Truncate(reason string)
}
