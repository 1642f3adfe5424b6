package registry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/gridworld"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/registry"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/wrappers"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/testutil"
)

func TestMakeGridWorld(t *testing.T) {
	e, err := registry.Make(registry.GridWorldID, registry.MakeConfig{
		RenderMode: env.RenderRGBArray,
		Size:       5,
		Logger:     testutil.NopLogger(),
	})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, registry.GridWorldID, e.SpecID())
	limited, ok := e.(*wrappers.TimeLimit[[]float32, int])
	require.True(t, ok, "default spec wraps in a time limit")
	assert.Equal(t, 100, limited.MaxSteps())

	obs, _ := e.Reset(env.WithSeed(4))
	assert.Len(t, obs, 4)
	frame, err := e.Render()
	require.NoError(t, err)
	assert.Equal(t, [3]int{gridworld.DefaultWindowSize, gridworld.DefaultWindowSize, 3}, frame.Shape())
}

func TestMakeOverridesEpisodeLimit(t *testing.T) {
	e, err := registry.Make(registry.GridWorldID, registry.MakeConfig{MaxEpisodeSteps: 2, Logger: testutil.NopLogger()})
	require.NoError(t, err)

	e.Reset(env.ResetOptions{Options: map[string]any{"agent": [2]int{0, 0}, "target": [2]int{5, 5}}})
	_, _, _, truncated, _ := e.Step(gridworld.Up)
	assert.False(t, truncated)
	_, _, _, truncated, _ = e.Step(gridworld.Up)
	assert.True(t, truncated)
}

func TestMakeErrors(t *testing.T) {
	_, err := registry.Make("Nope-v0", registry.MakeConfig{})
	assert.ErrorIs(t, err, registry.ErrUnknownEnv)

	_, err = registry.Make(registry.GridWorldID, registry.MakeConfig{Size: 1})
	assert.ErrorIs(t, err, gridworld.ErrInvalidSize)

	testutil.AssertViolation(t, env.ErrInvalidRenderMode, func() {
		_, _ = registry.Make(registry.GridWorldID, registry.MakeConfig{RenderMode: "hologram"})
	})
}

func TestRegistryRegister(t *testing.T) {
	r := registry.New()
	boom := errors.New("factory failed")
	spec := registry.Spec{ID: "Broken-v0", Factory: func(registry.MakeConfig) (registry.GridEnv, error) { return nil, boom }}

	require.NoError(t, r.Register(spec))
	assert.ErrorIs(t, r.Register(spec), registry.ErrDuplicateEnv)
	assert.Equal(t, []string{"Broken-v0"}, r.IDs())

	_, err := r.Make("Broken-v0", registry.MakeConfig{})
	assert.ErrorIs(t, err, boom)

	unlimited := registry.Spec{ID: "Plain-v0", Factory: func(cfg registry.MakeConfig) (registry.GridEnv, error) {
		cfg.Logger = testutil.NopLogger()
		return gridworld.New(gridworld.Config{Size: 3, Logger: cfg.Logger})
	}}
	require.NoError(t, r.Register(unlimited))
	e, err := r.Make("Plain-v0", registry.MakeConfig{})
	require.NoError(t, err)
	_, isGrid := e.(*gridworld.GridWorld)
	assert.True(t, isGrid, "no limit means no wrapper")
	assert.Equal(t, "Plain-v0", e.SpecID())
}

func TestDefaultRegistryIDs(t *testing.T) {
	assert.Contains(t, registry.Default.IDs(), registry.GridWorldID)
}
