package env_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/events"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/testutil"
)

func newLifecycle(t *testing.T) (*env.Lifecycle, *testutil.EventCollector, *testutil.LogBuffer) {
	t.Helper()
	bus := events.NewEventBus()
	collector := testutil.NewEventCollector("collector")
	bus.Subscribe(collector)
	logs := &testutil.LogBuffer{}
	return env.NewLifecycle("Test-v0", logs.Logger(), bus), collector, logs
}

func TestLifecycleOrdering(t *testing.T) {
	t.Run("step before reset", func(t *testing.T) {
		lc, _, _ := newLifecycle(t)
		testutil.AssertViolation(t, env.ErrResetNeeded, lc.BeginStep)
	})

	t.Run("render before reset", func(t *testing.T) {
		lc, _, _ := newLifecycle(t)
		testutil.AssertViolation(t, env.ErrResetNeeded, lc.CheckRender)
	})

	t.Run("use after close", func(t *testing.T) {
		lc, _, _ := newLifecycle(t)
		lc.BeginReset()
		require.True(t, lc.Close())
		testutil.AssertViolation(t, env.ErrClosed, lc.BeginReset)
		testutil.AssertViolation(t, env.ErrClosed, lc.BeginStep)
		testutil.AssertViolation(t, env.ErrClosed, lc.CheckRender)
	})

	t.Run("close before reset", func(t *testing.T) {
		lc, _, _ := newLifecycle(t)
		assert.True(t, lc.Close())
		assert.Equal(t, env.PhaseClosed, lc.Phase())
	})
}

func TestLifecycleEpisode(t *testing.T) {
	lc, collector, logs := newLifecycle(t)
	assert.NotEmpty(t, lc.ID())
	assert.Equal(t, "Test-v0", lc.SpecID())
	assert.Equal(t, env.PhaseUninitialized, lc.Phase())

	lc.BeginReset()
	assert.Equal(t, env.PhaseReady, lc.Phase())

	lc.BeginStep()
	lc.EndStep(false, false)
	assert.Equal(t, env.PhaseReady, lc.Phase())

	lc.BeginStep()
	lc.EndStep(false, true)
	assert.Equal(t, env.PhaseEnded, lc.Phase())
	assert.Equal(t, 2, lc.Steps())

	// Stepping an ended episode is tolerated with a warning
	assert.NotPanics(t, lc.BeginStep)
	lc.EndStep(true, false)
	assert.Equal(t, env.PhaseEnded, lc.Phase())
	assert.Len(t, logs.WithLevel("warn"), 1)

	lc.BeginReset()
	assert.Equal(t, env.PhaseReady, lc.Phase())

	history := lc.History()
	require.Len(t, history, 3)
	assert.Equal(t, "reset", history[0].Reason)
	assert.Equal(t, env.PhaseEnded, history[1].To)
	assert.Equal(t, "truncated", history[1].Reason)
	assert.Equal(t, env.PhaseEnded, history[2].From)

	phases := collector.OfType(events.TypePhaseChanged)
	require.Len(t, phases, 3)
	first := phases[0].(*events.PhaseChangedEvent)
	assert.Equal(t, "Uninitialized", first.From)
	assert.Equal(t, "Ready", first.To)
	assert.Equal(t, lc.ID(), first.EnvID())
}

func TestLifecycleTruncate(t *testing.T) {
	lc, _, _ := newLifecycle(t)

	lc.Truncate("time_limit")
	assert.Equal(t, env.PhaseUninitialized, lc.Phase(), "nothing to end before reset")

	lc.CheckReset()
	assert.Equal(t, env.PhaseUninitialized, lc.Phase(), "CheckReset only guards")

	lc.BeginReset()
	lc.Truncate("time_limit")
	assert.Equal(t, env.PhaseEnded, lc.Phase())
	lc.Truncate("time_limit")

	history := lc.History()
	require.Len(t, history, 2)
	assert.Equal(t, "time_limit", history[1].Reason)

	require.True(t, lc.Close())
	testutil.AssertViolation(t, env.ErrClosed, lc.CheckReset)
	assert.NotPanics(t, func() { lc.Truncate("time_limit") })
}

func TestLifecycleCloseIsIdempotent(t *testing.T) {
	lc, collector, _ := newLifecycle(t)
	lc.BeginReset()

	assert.True(t, lc.Close())
	assert.False(t, lc.Close())
	assert.False(t, lc.Close())

	closed := collector.OfType(events.TypeEnvClosed)
	assert.Len(t, closed, 1, "closed event published once")
}

func TestLifecycleWithoutBus(t *testing.T) {
	lc := env.NewLifecycle("", testutil.NopLogger(), nil)
	assert.NotPanics(t, func() {
		lc.BeginReset()
		lc.BeginStep()
		lc.EndStep(true, false)
		lc.Close()
	})
}
