package env_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
)

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase    env.Phase
		expected string
	}{
		{env.PhaseUninitialized, "Uninitialized"},
		{env.PhaseReady, "Ready"},
		{env.PhaseEnded, "Ended"},
		{env.PhaseClosed, "Closed"},
		{env.Phase(42), "Unknown(42)"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.phase.String())
		})
	}
}

func TestPhaseTransitions(t *testing.T) {
	tests := []struct {
		from, to env.Phase
		allowed  bool
	}{
		{env.PhaseUninitialized, env.PhaseReady, true},
		{env.PhaseUninitialized, env.PhaseEnded, false},
		{env.PhaseUninitialized, env.PhaseClosed, true},
		{env.PhaseReady, env.PhaseReady, true},
		{env.PhaseReady, env.PhaseEnded, true},
		{env.PhaseEnded, env.PhaseReady, true},
		{env.PhaseEnded, env.PhaseEnded, true},
		{env.PhaseEnded, env.PhaseUninitialized, false},
		{env.PhaseClosed, env.PhaseReady, false},
		{env.PhaseClosed, env.PhaseClosed, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, env.PhaseClosed.IsTerminal())
	assert.False(t, env.PhaseEnded.IsTerminal())
	assert.True(t, env.PhaseEnded.CanStep())
	assert.False(t, env.PhaseUninitialized.CanStep())
}
