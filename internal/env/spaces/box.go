package spaces

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

var (
	posInf = float32(math.Inf(1))
	negInf = float32(math.Inf(-1))
)

// Box is a (possibly unbounded) box in R^n with per-element bounds.
// Members are flattened row-major []float32 slices of length
// prod(Shape()).
type Box struct {
	low   []float32
	high  []float32
	shape []int
	rng   *rand.Rand
}

// NewBox creates a box of the given shape where every element shares the
// same low and high bound.
func NewBox(shape []int, low, high float32) (*Box, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	n := volume(shape)
	lows := make([]float32, n)
	highs := make([]float32, n)
	for i := 0; i < n; i++ {
		lows[i] = low
		highs[i] = high
	}
	return newBox(shape, lows, highs)
}

// NewBoxFromBounds creates a box with explicit per-element bounds. When
// shape is nil the box is one-dimensional with len(low) elements.
func NewBoxFromBounds(shape []int, low, high []float32) (*Box, error) {
	if shape == nil {
		shape = []int{len(low)}
	}
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	n := volume(shape)
	if len(low) != n || len(high) != n {
		return nil, fmt.Errorf("shape %v wants %d bounds, got low=%d high=%d: %w",
			shape, n, len(low), len(high), ErrShapeMismatch)
	}
	lows := make([]float32, n)
	highs := make([]float32, n)
	copy(lows, low)
	copy(highs, high)
	return newBox(shape, lows, highs)
}

func newBox(shape []int, low, high []float32) (*Box, error) {
	for i := range low {
		if math.IsNaN(float64(low[i])) || math.IsNaN(float64(high[i])) {
			return nil, fmt.Errorf("element %d has NaN bound: %w", i, ErrInvalidBounds)
		}
		if low[i] > high[i] {
			return nil, fmt.Errorf("element %d: low %v > high %v: %w", i, low[i], high[i], ErrInvalidBounds)
		}
	}
	return &Box{
		low:   low,
		high:  high,
		shape: copyInts(shape),
		rng:   newRNG(),
	}, nil
}

func checkShape(shape []int) error {
	if len(shape) == 0 {
		return ErrInvalidShape
	}
	for _, d := range shape {
		if d <= 0 {
			return fmt.Errorf("shape %v: %w", shape, ErrInvalidShape)
		}
	}
	return nil
}

// Low returns a copy of the lower bounds.
func (b *Box) Low() []float32 {
	out := make([]float32, len(b.low))
	copy(out, b.low)
	return out
}

// High returns a copy of the upper bounds.
func (b *Box) High() []float32 {
	out := make([]float32, len(b.high))
	copy(out, b.high)
	return out
}

// IsBounded reports whether every element has finite bounds on both sides.
func (b *Box) IsBounded() bool {
	for i := range b.low {
		if b.low[i] == negInf || b.high[i] == posInf {
			return false
		}
	}
	return true
}

func (b *Box) Contains(x []float32) bool {
	if len(x) != len(b.low) {
		return false
	}
	for i, v := range x {
		if math.IsNaN(float64(v)) || v < b.low[i] || v > b.high[i] {
			return false
		}
	}
	return true
}

// Sample draws uniformly for bounded elements, from a shifted exponential
// for half-bounded elements and from a standard normal otherwise.
func (b *Box) Sample() []float32 {
	out := make([]float32, len(b.low))
	for i := range out {
		lo, hi := b.low[i], b.high[i]
		switch {
		case lo != negInf && hi != posInf:
			out[i] = lo + float32(b.rng.Float64())*(hi-lo)
		case lo != negInf:
			out[i] = lo + float32(b.rng.ExpFloat64())
		case hi != posInf:
			out[i] = hi - float32(b.rng.ExpFloat64())
		default:
			out[i] = float32(b.rng.NormFloat64())
		}
		// float32 rounding of lo + r*(hi-lo) can land on hi+ulp
		if out[i] > hi {
			out[i] = hi
		}
	}
	return out
}

func (b *Box) Seed(seed int64) {
	b.rng = seededRNG(seed)
}

func (b *Box) Shape() []int { return copyInts(b.shape) }

func (b *Box) String() string {
	dims := make([]string, len(b.shape))
	for i, d := range b.shape {
		dims[i] = fmt.Sprint(d)
	}
	shape := strings.Join(dims, ", ")
	if len(b.shape) == 1 {
		shape += ","
	}
	if lo, hi, ok := b.uniformBounds(); ok {
		return fmt.Sprintf("Box(%v, %v, (%s), float32)", lo, hi, shape)
	}
	return fmt.Sprintf("Box(%v, %v, (%s), float32)", b.low, b.high, shape)
}

func (b *Box) uniformBounds() (float32, float32, bool) {
	lo, hi := b.low[0], b.high[0]
	for i := range b.low {
		if b.low[i] != lo || b.high[i] != hi {
			return 0, 0, false
		}
	}
	return lo, hi, true
}
