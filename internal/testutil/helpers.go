package testutil

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
)

// NewTestRNG creates a deterministic random number generator for tests
func NewTestRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NopLogger returns a no-op logger for tests
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// AssertPanic asserts that the given function panics
func AssertPanic(t *testing.T, f func(), msgAndArgs ...interface{}) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic but none occurred: %v", msgAndArgs)
		}
	}()
	f()
}

// AssertViolation asserts that f panics with a *env.ContractViolation
// wrapping target.
func AssertViolation(t *testing.T, target error, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Errorf("Expected contract violation %v but no panic occurred", target)
			return
		}
		v, ok := r.(*env.ContractViolation)
		if !ok {
			t.Errorf("Expected *env.ContractViolation, got %T: %v", r, r)
			return
		}
		if !errors.Is(v, target) {
			t.Errorf("Expected violation wrapping %v, got %v", target, v)
		}
	}()
	f()
}
