package gridworld_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/common"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/gridworld"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/events"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/render"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/testutil"
)

func newGrid(t *testing.T, cfg gridworld.Config) *gridworld.GridWorld {
	t.Helper()
	cfg.Logger = testutil.NopLogger()
	g, err := gridworld.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func pinned(agent, target [2]int) env.ResetOptions {
	return env.ResetOptions{Options: map[string]any{"agent": agent, "target": target}}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		g := newGrid(t, gridworld.Config{})
		assert.Equal(t, gridworld.DefaultSize, g.Size())
		assert.Equal(t, env.RenderNone, g.RenderMode())
		assert.Equal(t, "Discrete(4)", g.ActionSpace().String())
		assert.Equal(t, "Box(0, 10, (4,), float32)", g.ObservationSpace().String())
		assert.Equal(t, gridworld.RenderFPS, g.Metadata().RenderFPS)
		assert.ElementsMatch(t, env.AllRenderModes, g.Metadata().RenderModes)
	})

	t.Run("invalid render mode panics", func(t *testing.T) {
		testutil.AssertViolation(t, env.ErrInvalidRenderMode, func() {
			_, _ = gridworld.New(gridworld.Config{RenderMode: "rgb"})
		})
	})

	t.Run("grid too small", func(t *testing.T) {
		_, err := gridworld.New(gridworld.Config{Size: 1})
		assert.ErrorIs(t, err, gridworld.ErrInvalidSize)
	})

	t.Run("human mode needs a backend", func(t *testing.T) {
		_, err := gridworld.New(gridworld.Config{RenderMode: env.RenderHuman})
		assert.ErrorIs(t, err, render.ErrNotAcquired)
	})
}

func TestResetObservation(t *testing.T) {
	g := newGrid(t, gridworld.Config{Size: 5})

	for seed := int64(0); seed < 50; seed++ {
		obs, info := g.Reset(env.WithSeed(seed))
		require.True(t, g.ObservationSpace().Contains(obs), "seed %d: %v", seed, obs)
		assert.NotEqual(t, g.Agent(), g.Target(), "target distinct from agent")
		assert.Equal(t, 0, info["steps"])
		assert.Greater(t, info["distance"], 0)
	}
}

func TestResetSeedIsDeterministic(t *testing.T) {
	a := newGrid(t, gridworld.Config{})
	b := newGrid(t, gridworld.Config{})

	obsA, _ := a.Reset(env.WithSeed(123))
	obsB, _ := b.Reset(env.WithSeed(123))
	assert.Equal(t, obsA, obsB)

	// Without a seed the random source carries on
	nextA, _ := a.Reset(env.ResetOptions{})
	nextB, _ := b.Reset(env.ResetOptions{})
	assert.Equal(t, nextA, nextB)
}

func TestResetOptions(t *testing.T) {
	g := newGrid(t, gridworld.Config{Size: 5})

	obs, info := g.Reset(pinned([2]int{0, 0}, [2]int{4, 3}))
	assert.Equal(t, []float32{0, 0, 4, 3}, obs)
	assert.Equal(t, 7, info["distance"])

	obs, _ = g.Reset(env.ResetOptions{Options: map[string]any{"agent": []int{2, 2}, "target": gridworld.Position{X: 1, Y: 2}}})
	assert.Equal(t, []float32{2, 2, 1, 2}, obs)

	t.Run("out of grid", func(t *testing.T) {
		testutil.AssertViolation(t, env.ErrInvalidOption, func() {
			g.Reset(pinned([2]int{5, 0}, [2]int{1, 1}))
		})
	})

	t.Run("wrong type", func(t *testing.T) {
		testutil.AssertViolation(t, env.ErrInvalidOption, func() {
			g.Reset(env.ResetOptions{Options: map[string]any{"agent": "corner"}})
		})
	})

	t.Run("agent and target on the same cell", func(t *testing.T) {
		testutil.AssertViolation(t, env.ErrInvalidOption, func() {
			g.Reset(pinned([2]int{2, 2}, [2]int{2, 2}))
		})
	})
}

func TestResetWithOnePinnedCell(t *testing.T) {
	g := newGrid(t, gridworld.Config{Size: 2})

	for seed := int64(0); seed < 50; seed++ {
		opts := env.WithSeed(seed)
		opts.Options = map[string]any{"target": [2]int{0, 0}}
		g.Reset(opts)
		assert.Equal(t, gridworld.Position{}, g.Target())
		assert.NotEqual(t, g.Target(), g.Agent(), "seed %d", seed)

		opts.Options = map[string]any{"agent": [2]int{1, 1}}
		g.Reset(opts)
		assert.Equal(t, gridworld.Position{X: 1, Y: 1}, g.Agent())
		assert.NotEqual(t, g.Target(), g.Agent(), "seed %d", seed)
	}
}

func TestRejectedResetChangesNothing(t *testing.T) {
	bad := pinned([2]int{9, 9}, [2]int{1, 1})

	t.Run("before the first reset", func(t *testing.T) {
		g := newGrid(t, gridworld.Config{Size: 5})
		testutil.AssertViolation(t, env.ErrInvalidOption, func() { g.Reset(bad) })
		assert.Equal(t, env.PhaseUninitialized, g.Phase())
		testutil.AssertViolation(t, env.ErrResetNeeded, func() { g.Step(gridworld.Left) })
		testutil.AssertViolation(t, env.ErrResetNeeded, func() { _, _ = g.Render() })
	})

	t.Run("during an episode", func(t *testing.T) {
		g := newGrid(t, gridworld.Config{Size: 5})
		g.Reset(pinned([2]int{0, 0}, [2]int{4, 4}))
		g.Step(gridworld.Right)
		history := len(g.History())

		seed := int64(3)
		bad.Seed = &seed
		testutil.AssertViolation(t, env.ErrInvalidOption, func() { g.Reset(bad) })
		assert.Equal(t, env.PhaseReady, g.Phase())
		assert.Len(t, g.History(), history)
		assert.Equal(t, gridworld.Position{X: 1, Y: 0}, g.Agent())
		assert.Equal(t, gridworld.Position{X: 4, Y: 4}, g.Target())

		obs, _, _, _, info := g.Step(gridworld.Down)
		assert.Equal(t, []float32{1, 1, 4, 4}, obs)
		assert.Equal(t, 2, info["steps"])
	})
}

func TestResetSeedsSpaces(t *testing.T) {
	a := newGrid(t, gridworld.Config{})
	b := newGrid(t, gridworld.Config{})

	a.Reset(env.WithSeed(42))
	b.Reset(env.WithSeed(42))
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.ObservationSpace().Sample(), b.ObservationSpace().Sample())
		assert.Equal(t, a.ActionSpace().Sample(), b.ActionSpace().Sample())
	}
}

func TestStep(t *testing.T) {
	tests := []struct {
		name     string
		agent    [2]int
		action   int
		expected []float32
	}{
		{"right", [2]int{1, 1}, gridworld.Right, []float32{2, 1, 4, 4}},
		{"down", [2]int{1, 1}, gridworld.Down, []float32{1, 2, 4, 4}},
		{"left", [2]int{1, 1}, gridworld.Left, []float32{0, 1, 4, 4}},
		{"up", [2]int{1, 1}, gridworld.Up, []float32{1, 0, 4, 4}},
		{"clipped at left wall", [2]int{0, 2}, gridworld.Left, []float32{0, 2, 4, 4}},
		{"clipped at top wall", [2]int{3, 0}, gridworld.Up, []float32{3, 0, 4, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGrid(t, gridworld.Config{Size: 5})
			g.Reset(pinned(tt.agent, [2]int{4, 4}))

			obs, reward, terminated, truncated, info := g.Step(tt.action)
			assert.Equal(t, tt.expected, obs)
			assert.Equal(t, 0.0, reward)
			assert.False(t, terminated)
			assert.False(t, truncated)
			assert.Equal(t, 1, info["steps"])
			assert.True(t, g.ObservationSpace().Contains(obs))
		})
	}
}

func TestStepReachesTarget(t *testing.T) {
	g := newGrid(t, gridworld.Config{Size: 5})
	g.Reset(pinned([2]int{2, 2}, [2]int{3, 2}))

	obs, reward, terminated, truncated, info := g.Step(gridworld.Right)
	assert.Equal(t, 1.0, reward)
	assert.True(t, terminated)
	assert.False(t, truncated)
	assert.Equal(t, 0, info["distance"])
	assert.True(t, gridworld.ReachedTarget(obs, info))
	assert.Equal(t, env.PhaseEnded, g.Phase())
}

func TestStepContract(t *testing.T) {
	t.Run("invalid action", func(t *testing.T) {
		g := newGrid(t, gridworld.Config{})
		g.Reset(env.WithSeed(1))
		for _, a := range []int{-1, 4, 100} {
			testutil.AssertViolation(t, env.ErrInvalidAction, func() { g.Step(a) })
		}
	})

	t.Run("step before reset", func(t *testing.T) {
		g := newGrid(t, gridworld.Config{})
		testutil.AssertViolation(t, env.ErrResetNeeded, func() { g.Step(0) })
	})

	t.Run("step after close", func(t *testing.T) {
		g := newGrid(t, gridworld.Config{})
		g.Reset(env.WithSeed(1))
		require.NoError(t, g.Close())
		testutil.AssertViolation(t, env.ErrClosed, func() { g.Step(0) })
		testutil.AssertViolation(t, env.ErrClosed, func() { g.Reset(env.ResetOptions{}) })
		testutil.AssertViolation(t, env.ErrClosed, func() { _, _ = g.Render() })
	})

	t.Run("step after episode end warns", func(t *testing.T) {
		logs := &testutil.LogBuffer{}
		g, err := gridworld.New(gridworld.Config{Size: 3, Logger: logs.Logger()})
		require.NoError(t, err)
		g.Reset(pinned([2]int{0, 0}, [2]int{1, 0}))
		_, _, terminated, _, _ := g.Step(gridworld.Right)
		require.True(t, terminated)

		assert.NotPanics(t, func() { g.Step(gridworld.Right) })
		assert.Len(t, logs.WithLevel("warn"), 1)
	})
}

func TestRenderRGBArrayEndToEnd(t *testing.T) {
	g := newGrid(t, gridworld.Config{RenderMode: env.RenderRGBArray})
	g.Reset(pinned([2]int{1, 0}, [2]int{5, 5}))
	g.Step(gridworld.Left)

	frame, err := g.Render()
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, [3]int{gridworld.DefaultWindowSize, gridworld.DefaultWindowSize, 3}, frame.Shape())
	assert.Len(t, frame.Pix, 512*512*3)

	// Agent disc centred in cell (0,0), target square at (5,5)
	assert.Equal(t, common.AgentColor, frame.RGB(23, 23))
	assert.Equal(t, common.TargetColor, frame.RGB(240, 240))
	assert.Equal(t, render.ShiftColor(common.TargetColor, common.TargetHueShift), frame.RGB(256, 256))
	assert.Equal(t, common.BackgroundColor, frame.RGB(120, 300))
}

func TestRenderANSI(t *testing.T) {
	var out bytes.Buffer
	g := newGrid(t, gridworld.Config{
		Size:       3,
		RenderMode: env.RenderANSI,
		Output:     &out,
		Formatter:  func(obs []float32) string { return gridworld.FormatBoard(3, obs, false) },
	})
	g.Reset(pinned([2]int{0, 0}, [2]int{2, 1}))

	frame, err := g.Render()
	require.NoError(t, err)
	assert.Nil(t, frame)

	expected := strings.Join([]string{
		"+-------+",
		"| A . . |",
		"| . . T |",
		"| . . . |",
		"+-------+",
	}, "\n") + "\n"
	assert.Equal(t, expected, out.String())
}

func TestRenderWithoutModeWarns(t *testing.T) {
	logs := &testutil.LogBuffer{}
	g, err := gridworld.New(gridworld.Config{Logger: logs.Logger(), SpecID: "GridWorld-v0"})
	require.NoError(t, err)
	g.Reset(env.WithSeed(3))

	frame, err := g.Render()
	assert.NoError(t, err)
	assert.Nil(t, frame)

	warns := logs.WithLevel("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, "GridWorld-v0", warns[0]["spec_id"])
}

func TestHumanModeRendersOncePerCall(t *testing.T) {
	backend := render.NewHeadless()
	clock := &fakeClock{}
	g := newGrid(t, gridworld.Config{
		Size:       4,
		WindowSize: 64,
		RenderMode: env.RenderHuman,
		Backend:    backend,
		Clock:      clock,
	})

	g.Reset(env.WithSeed(5))
	_, presents, _ := backend.Counts()
	assert.Equal(t, 1, presents, "reset renders exactly once")

	g.Step(gridworld.Down)
	_, presents, _ = backend.Counts()
	assert.Equal(t, 2, presents, "step renders exactly once")
	assert.Equal(t, 2, clock.ticks)

	last := backend.Last()
	require.NotNil(t, last)
	w, h := backend.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 64, h)

	frame, err := g.Render()
	assert.NoError(t, err)
	assert.Nil(t, frame, "human mode returns nothing")
}

func TestCloseIsIdempotent(t *testing.T) {
	backend := render.NewHeadless()
	bus := events.NewEventBus()
	collector := testutil.NewEventCollector("closed", events.TypeEnvClosed)
	bus.Subscribe(collector)

	g, err := gridworld.New(gridworld.Config{
		RenderMode: env.RenderHuman,
		Backend:    backend,
		Clock:      &fakeClock{},
		Bus:        bus,
		Logger:     testutil.NopLogger(),
	})
	require.NoError(t, err)
	g.Reset(env.WithSeed(1))

	require.NoError(t, g.Close())
	require.NoError(t, g.Close())

	acquires, _, releases := backend.Counts()
	assert.Equal(t, 1, acquires)
	assert.Equal(t, 1, releases, "no duplicate release")
	assert.Len(t, collector.Events(), 1)
}

func TestReachedTarget(t *testing.T) {
	assert.True(t, gridworld.ReachedTarget([]float32{0.2, 0.3, 0.2, 0.3}, nil))
	assert.False(t, gridworld.ReachedTarget([]float32{0.2, 0.3, 0.3, 0.3}, nil))
	assert.False(t, gridworld.ReachedTarget([]float32{1}, nil))
	assert.True(t, gridworld.ReachedTarget(nil, env.Info{"distance": 0}))
	assert.False(t, gridworld.ReachedTarget([]float32{1, 1, 1, 1}, env.Info{"distance": 2}), "info wins")
}

func TestFormatBoardColours(t *testing.T) {
	plain := gridworld.FormatBoard(2, []float32{1, 1, 1, 1}, false)
	assert.Contains(t, plain, "*")

	coloured := gridworld.FormatBoard(2, []float32{0, 0, 1, 1}, true)
	assert.Contains(t, coloured, "\x1b[")
	assert.Empty(t, gridworld.FormatBoard(2, []float32{0}, true))
}

func TestDrawUsesPalette(t *testing.T) {
	g := newGrid(t, gridworld.Config{Size: 2, WindowSize: 40, RenderMode: env.RenderRGBArray})
	g.Reset(pinned([2]int{0, 0}, [2]int{1, 1}))
	frame, err := g.Render()
	require.NoError(t, err)
	assert.Equal(t, common.AgentColor, frame.RGB(10, 10))
	assert.Equal(t, common.TargetColor, frame.RGB(22, 22))
}

type fakeClock struct{ ticks int }

func (c *fakeClock) Tick(int) time.Duration {
	c.ticks++
	return 0
}
