package spaces

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscrete(t *testing.T) {
	d, err := NewDiscrete(4)
	require.NoError(t, err)

	tests := []struct {
		name     string
		value    int
		expected bool
	}{
		{"lower edge", 0, true},
		{"upper edge", 3, true},
		{"below range", -1, false},
		{"above range", 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, d.Contains(tt.value))
		})
	}

	t.Run("sample is member", func(t *testing.T) {
		d.Seed(7)
		for i := 0; i < 200; i++ {
			assert.True(t, d.Contains(d.Sample()))
		}
	})

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "Discrete(4)", d.String())
		shifted, err := NewDiscreteFrom(3, -1)
		require.NoError(t, err)
		assert.Equal(t, "Discrete(3, start=-1)", shifted.String())
		assert.True(t, shifted.Contains(-1))
		assert.False(t, shifted.Contains(2))
	})

	t.Run("empty rejected", func(t *testing.T) {
		_, err := NewDiscrete(0)
		assert.ErrorIs(t, err, ErrEmptySpace)
	})
}

func TestDiscreteSeedDeterminism(t *testing.T) {
	a, _ := NewDiscrete(100)
	b, _ := NewDiscrete(100)
	a.Seed(42)
	b.Seed(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Sample(), b.Sample())
	}
}

func TestBox(t *testing.T) {
	box, err := NewBox([]int{4}, 0, 10)
	require.NoError(t, err)

	tests := []struct {
		name     string
		value    []float32
		expected bool
	}{
		{"origin", []float32{0, 0, 0, 0}, true},
		{"upper corner", []float32{10, 10, 10, 10}, true},
		{"interior", []float32{1.5, 2, 9.99, 0.1}, true},
		{"negative element", []float32{-0.1, 0, 0, 0}, false},
		{"above high", []float32{0, 10.01, 0, 0}, false},
		{"wrong length", []float32{0, 0, 0}, false},
		{"nan", []float32{float32(math.NaN()), 0, 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, box.Contains(tt.value))
		})
	}

	assert.Equal(t, []int{4}, box.Shape())
	assert.True(t, box.IsBounded())
	assert.Equal(t, "Box(0, 10, (4,), float32)", box.String())
}

func TestBoxSampling(t *testing.T) {
	t.Run("bounded samples stay inside", func(t *testing.T) {
		box, err := NewBox([]int{2, 3}, -1, 1)
		require.NoError(t, err)
		box.Seed(3)
		for i := 0; i < 500; i++ {
			s := box.Sample()
			require.Len(t, s, 6)
			assert.True(t, box.Contains(s))
		}
	})

	t.Run("half bounded", func(t *testing.T) {
		inf := float32(math.Inf(1))
		box, err := NewBoxFromBounds(nil, []float32{2, float32(math.Inf(-1))}, []float32{inf, -3})
		require.NoError(t, err)
		assert.False(t, box.IsBounded())
		box.Seed(11)
		for i := 0; i < 200; i++ {
			s := box.Sample()
			assert.GreaterOrEqual(t, s[0], float32(2))
			assert.LessOrEqual(t, s[1], float32(-3))
		}
	})

	t.Run("unbounded", func(t *testing.T) {
		box, err := NewBox([]int{3}, float32(math.Inf(-1)), float32(math.Inf(1)))
		require.NoError(t, err)
		assert.True(t, box.Contains(box.Sample()))
	})
}

func TestBoxConstructionErrors(t *testing.T) {
	_, err := NewBox([]int{2}, 5, 1)
	assert.ErrorIs(t, err, ErrInvalidBounds)

	_, err = NewBox([]int{0}, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = NewBox(nil, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = NewBoxFromBounds([]int{3}, []float32{0, 0}, []float32{1, 1})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestBoxBoundsAreCopies(t *testing.T) {
	box, err := NewBox([]int{2}, 0, 1)
	require.NoError(t, err)
	low := box.Low()
	low[0] = -100
	assert.Equal(t, []float32{0, 0}, box.Low())
}

func TestMultiDiscrete(t *testing.T) {
	md, err := NewMultiDiscrete([]int{2, 3})
	require.NoError(t, err)

	assert.True(t, md.Contains([]int{1, 2}))
	assert.False(t, md.Contains([]int{2, 0}))
	assert.False(t, md.Contains([]int{0}))
	assert.Equal(t, []int{2}, md.Shape())

	md.Seed(1)
	for i := 0; i < 100; i++ {
		assert.True(t, md.Contains(md.Sample()))
	}

	_, err = NewMultiDiscrete([]int{2, 0})
	assert.ErrorIs(t, err, ErrEmptySpace)
}

func TestTuple(t *testing.T) {
	d, _ := NewDiscrete(3)
	b, _ := NewBox([]int{2}, 0, 1)
	tuple, err := NewTuple(Erase[int](d), Erase[[]float32](b))
	require.NoError(t, err)

	assert.True(t, tuple.Contains([]any{2, []float32{0.5, 0.5}}))
	assert.False(t, tuple.Contains([]any{3, []float32{0.5, 0.5}}))
	assert.False(t, tuple.Contains([]any{"2", []float32{0.5, 0.5}}), "wrong member type")
	assert.False(t, tuple.Contains([]any{2}))

	tuple.Seed(9)
	for i := 0; i < 50; i++ {
		assert.True(t, tuple.Contains(tuple.Sample()))
	}
	assert.Equal(t, "Tuple(Discrete(3), Box(0, 1, (2,), float32))", tuple.String())

	_, err = NewTuple(nil)
	assert.ErrorIs(t, err, ErrNilSubspace)
}

func TestDict(t *testing.T) {
	agent, _ := NewBox([]int{2}, 0, 4)
	target, _ := NewBox([]int{2}, 0, 4)
	mode, _ := NewDiscrete(2)
	dict, err := NewDict(map[string]AnySpace{
		"target": Erase[[]float32](target),
		"agent":  Erase[[]float32](agent),
		"mode":   Erase[int](mode),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"agent", "mode", "target"}, dict.Keys())

	valid := map[string]any{"agent": []float32{1, 1}, "target": []float32{4, 0}, "mode": 1}
	assert.True(t, dict.Contains(valid))

	missing := map[string]any{"agent": []float32{1, 1}, "mode": 1}
	assert.False(t, dict.Contains(missing))

	extra := map[string]any{"agent": []float32{1, 1}, "target": []float32{4, 0}, "mode": 1, "x": 0}
	assert.False(t, dict.Contains(extra))

	dict.Seed(5)
	for i := 0; i < 50; i++ {
		assert.True(t, dict.Contains(dict.Sample()))
	}

	_, ok := dict.Get("agent")
	assert.True(t, ok)
	_, err = NewDict(nil)
	assert.ErrorIs(t, err, ErrEmptySpace)
}
