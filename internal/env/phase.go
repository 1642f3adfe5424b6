package env

import "fmt"

// Phase is the lifecycle phase of an environment instance.
type Phase int

const (
	// PhaseUninitialized - constructed, never reset
	PhaseUninitialized Phase = iota

	// PhaseReady - inside an episode, steps allowed
	PhaseReady

	// PhaseEnded - the episode terminated or was truncated
	PhaseEnded

	// PhaseClosed - render resources released, nothing but Close allowed
	PhaseClosed
)

// String returns the string representation of a Phase
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "Uninitialized"
	case PhaseReady:
		return "Ready"
	case PhaseEnded:
		return "Ended"
	case PhaseClosed:
		return "Closed"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// IsTerminal returns true if no further transitions are possible
func (p Phase) IsTerminal() bool {
	return p == PhaseClosed
}

// CanStep returns true if Step is defined in this phase. Stepping an
// ended episode is tolerated but logged.
func (p Phase) CanStep() bool {
	return p == PhaseReady || p == PhaseEnded
}

// AllowedTransitions returns the valid phases this phase can transition to
func (p Phase) AllowedTransitions() []Phase {
	switch p {
	case PhaseUninitialized:
		return []Phase{PhaseReady, PhaseClosed}
	case PhaseReady:
		return []Phase{PhaseReady, PhaseEnded, PhaseClosed}
	case PhaseEnded:
		return []Phase{PhaseReady, PhaseEnded, PhaseClosed}
	default:
		return []Phase{}
	}
}

// CanTransitionTo checks if a transition from this phase to the target phase is allowed
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, phase := range p.AllowedTransitions() {
		if phase == target {
			return true
		}
	}
	return false
}
