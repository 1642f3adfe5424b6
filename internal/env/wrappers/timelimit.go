package wrappers

import (
	"errors"
	"fmt"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
)

// ErrInvalidMaxSteps is returned for non-positive step limits
var ErrInvalidMaxSteps = errors.New("max episode steps must be positive")

// TimeLimit truncates episodes after MaxSteps steps.
type TimeLimit[O, A any] struct {
	env.Env[O, A]
	maxSteps int
	elapsed  int
}

func NewTimeLimit[O, A any](inner env.Env[O, A], maxSteps int) (*TimeLimit[O, A], error) {
	if maxSteps <= 0 {
		return nil, fmt.Errorf("max steps %d: %w", maxSteps, ErrInvalidMaxSteps)
	}
	return &TimeLimit[O, A]{Env: inner, maxSteps: maxSteps}, nil
}

// MaxSteps returns the configured limit.
func (w *TimeLimit[O, A]) MaxSteps() int { return w.maxSteps }

// Elapsed returns the steps taken since the last reset.
func (w *TimeLimit[O, A]) Elapsed() int { return w.elapsed }

func (w *TimeLimit[O, A]) Reset(opts env.ResetOptions) (O, env.Info) {
	w.elapsed = 0
	return w.Env.Reset(opts)
}

func (w *TimeLimit[O, A]) Step(action A) (O, float64, bool, bool, env.Info) {
	obs, reward, terminated, truncated, info := w.Env.Step(action)
	w.elapsed++
	if w.elapsed >= w.maxSteps {
		truncated = true
		truncate(w.Env, "time_limit")
	}
	return obs, reward, terminated, truncated, info
}

// Truncate forwards to the wrapped env.
func (w *TimeLimit[O, A]) Truncate(reason string) { truncate(w.Env, reason) }

// truncate ends the inner episode when the inner env supports it.
func truncate(inner any, reason string) {
	if t, ok := inner.(env.Truncator); ok {
		t.Truncate(reason)
	}
}

// Unwrap returns the wrapped env.
func (w *TimeLimit[O, A]) Unwrap() env.Env[O, A] {
	return w.Env
}
