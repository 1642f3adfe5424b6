// Package spaces declares the domains of valid actions and observations.
package spaces

import (
	"errors"
	"math/rand"
	"time"
)

var (
	ErrEmptySpace    = errors.New("space must contain at least one value")
	ErrInvalidBounds = errors.New("low bound exceeds high bound")
	ErrShapeMismatch = errors.New("bounds do not match shape")
	ErrInvalidShape  = errors.New("shape dimensions must be positive")
	ErrNilSubspace   = errors.New("composite space member is nil")
)

// Space describes a set of values of type T supporting membership tests
// and uniform sampling.
type Space[T any] interface {
	// Contains reports whether x is a member of the space
	Contains(x T) bool

	// Sample draws a random member of the space
	Sample() T

	// Seed reseeds the sampler
	Seed(seed int64)

	// Shape returns the dimensions of a member, nil for scalars
	Shape() []int

	String() string
}

// AnySpace is a Space whose element type has been erased. Composite
// spaces hold their members as AnySpace values.
type AnySpace interface {
	ContainsAny(x any) bool
	SampleAny() any
	Seed(seed int64)
	Shape() []int
	String() string
}

type erased[T any] struct {
	space Space[T]
}

// Erase wraps a typed space so it can be a member of a Tuple or Dict.
func Erase[T any](s Space[T]) AnySpace {
	return erased[T]{space: s}
}

func (e erased[T]) ContainsAny(x any) bool {
	v, ok := x.(T)
	return ok && e.space.Contains(v)
}

func (e erased[T]) SampleAny() any  { return e.space.Sample() }
func (e erased[T]) Seed(seed int64) { e.space.Seed(seed) }
func (e erased[T]) Shape() []int    { return e.space.Shape() }
func (e erased[T]) String() string  { return e.space.String() }

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func seededRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func copyInts(s []int) []int {
	if s == nil {
		return nil
	}
	out := make([]int, len(s))
	copy(out, s)
	return out
}

func volume(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
