// Package wrappers decorates environments: observation transforms, step
// bookkeeping with reward shaping, and time limits.
package wrappers

import (
	"errors"
	"fmt"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/spaces"
)

// DefaultScaleFactor divides raw grid coordinates into [0, 1].
const DefaultScaleFactor = 10

// ErrInvalidFactor is returned for non-positive scale factors
var ErrInvalidFactor = errors.New("scale factor must be positive")

// ObservationWrapper maps every observation of the inner env through a
// pure function and advertises the transformed space. Everything else
// delegates to the inner env.
type ObservationWrapper[O, P, A any] struct {
	env.Env[O, A]
	space spaces.Space[P]
	fn    func(O) P
}

// NewObservationWrapper wraps inner. fn must not keep state between calls.
func NewObservationWrapper[O, P, A any](inner env.Env[O, A], space spaces.Space[P], fn func(O) P) *ObservationWrapper[O, P, A] {
	return &ObservationWrapper[O, P, A]{Env: inner, space: space, fn: fn}
}

func (w *ObservationWrapper[O, P, A]) ObservationSpace() spaces.Space[P] {
	return w.space
}

// Observation applies the transform.
func (w *ObservationWrapper[O, P, A]) Observation(raw O) P {
	return w.fn(raw)
}

func (w *ObservationWrapper[O, P, A]) Reset(opts env.ResetOptions) (P, env.Info) {
	obs, info := w.Env.Reset(opts)
	return w.fn(obs), info
}

func (w *ObservationWrapper[O, P, A]) Step(action A) (P, float64, bool, bool, env.Info) {
	obs, reward, terminated, truncated, info := w.Env.Step(action)
	return w.fn(obs), reward, terminated, truncated, info
}

// Truncate forwards to the wrapped env.
func (w *ObservationWrapper[O, P, A]) Truncate(reason string) { truncate(w.Env, reason) }

// Unwrap returns the wrapped env.
func (w *ObservationWrapper[O, P, A]) Unwrap() env.Env[O, A] {
	return w.Env
}

// ScaleObservation divides each observation component by factor and
// advertises a Box over [0, 1] with the inner shape. factor 0 selects
// DefaultScaleFactor. The inner observation space must be a Box whose
// bounds lie inside [0, factor].
func ScaleObservation[A any](inner env.Env[[]float32, A], factor float32) (*ObservationWrapper[[]float32, []float32, A], error) {
	if factor == 0 {
		factor = DefaultScaleFactor
	}
	if factor < 0 {
		return nil, fmt.Errorf("factor %v: %w", factor, ErrInvalidFactor)
	}

	box, ok := inner.ObservationSpace().(*spaces.Box)
	if !ok {
		return nil, fmt.Errorf("scale observation needs a Box, got %s: %w", inner.ObservationSpace(), env.ErrIncompatibleSpace)
	}
	low, high := box.Low(), box.High()
	for i := range low {
		if low[i] < 0 || high[i] > factor {
			return nil, fmt.Errorf("bounds [%v, %v] at %d exceed [0, %v]: %w", low[i], high[i], i, factor, env.ErrIncompatibleSpace)
		}
	}

	scaled, err := spaces.NewBox(box.Shape(), 0, 1)
	if err != nil {
		return nil, err
	}

	fn := func(raw []float32) []float32 {
		out := make([]float32, len(raw))
		for i, v := range raw {
			out[i] = v / factor
		}
		return out
	}
	return NewObservationWrapper[[]float32, []float32, A](inner, scaled, fn), nil
}
