package spaces

import (
	"fmt"
	"math/rand"
)

// Discrete is the integer range {Start, ..., Start+N-1}.
type Discrete struct {
	n     int
	start int
	rng   *rand.Rand
}

// NewDiscrete creates the space {0, ..., n-1}.
func NewDiscrete(n int) (*Discrete, error) {
	return NewDiscreteFrom(n, 0)
}

// NewDiscreteFrom creates the space {start, ..., start+n-1}.
func NewDiscreteFrom(n, start int) (*Discrete, error) {
	if n <= 0 {
		return nil, fmt.Errorf("discrete(%d): %w", n, ErrEmptySpace)
	}
	return &Discrete{n: n, start: start, rng: newRNG()}, nil
}

func (d *Discrete) N() int     { return d.n }
func (d *Discrete) Start() int { return d.start }

func (d *Discrete) Contains(x int) bool {
	return x >= d.start && x < d.start+d.n
}

func (d *Discrete) Sample() int {
	return d.start + d.rng.Intn(d.n)
}

func (d *Discrete) Seed(seed int64) {
	d.rng = seededRNG(seed)
}

func (d *Discrete) Shape() []int { return nil }

func (d *Discrete) String() string {
	if d.start == 0 {
		return fmt.Sprintf("Discrete(%d)", d.n)
	}
	return fmt.Sprintf("Discrete(%d, start=%d)", d.n, d.start)
}

// MultiDiscrete is a vector of independent discrete values, element i
// ranging over {0, ..., nvec[i]-1}.
type MultiDiscrete struct {
	nvec []int
	rng  *rand.Rand
}

// NewMultiDiscrete creates a MultiDiscrete space from the per-element counts.
func NewMultiDiscrete(nvec []int) (*MultiDiscrete, error) {
	if len(nvec) == 0 {
		return nil, ErrEmptySpace
	}
	for i, n := range nvec {
		if n <= 0 {
			return nil, fmt.Errorf("multidiscrete nvec[%d]=%d: %w", i, n, ErrEmptySpace)
		}
	}
	return &MultiDiscrete{nvec: copyInts(nvec), rng: newRNG()}, nil
}

func (m *MultiDiscrete) Contains(x []int) bool {
	if len(x) != len(m.nvec) {
		return false
	}
	for i, v := range x {
		if v < 0 || v >= m.nvec[i] {
			return false
		}
	}
	return true
}

func (m *MultiDiscrete) Sample() []int {
	out := make([]int, len(m.nvec))
	for i, n := range m.nvec {
		out[i] = m.rng.Intn(n)
	}
	return out
}

func (m *MultiDiscrete) Seed(seed int64) {
	m.rng = seededRNG(seed)
}

func (m *MultiDiscrete) Shape() []int { return []int{len(m.nvec)} }

func (m *MultiDiscrete) String() string {
	return fmt.Sprintf("MultiDiscrete(%v)", m.nvec)
}
