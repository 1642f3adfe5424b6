// Package gridworld is the reference environment: an agent on a square
// grid moves towards a target cell.
package gridworld

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/common"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/spaces"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/render"
)

// Action ids of the Discrete(4) action space, in screen axes.
const (
	Right = iota
	Down
	Left
	Up
)

// ErrInvalidSize is returned for grids smaller than MinSize
var ErrInvalidSize = errors.New("grid size too small")

var directions = [4][2]int{
	Right: {1, 0},
	Down:  {0, 1},
	Left:  {-1, 0},
	Up:    {0, -1},
}

var metadata = env.Metadata{
	RenderModes: env.AllRenderModes,
	RenderFPS:   RenderFPS,
}

// Position is a grid cell.
type Position struct {
	X, Y int
}

// GridWorld implements env.Env[[]float32, int].
type GridWorld struct {
	*env.Lifecycle

	size       int
	windowSize int
	rng        *rand.Rand
	actions    *spaces.Discrete
	obsSpace   *spaces.Box
	renderer   *env.Renderer
	formatter  Formatter

	agent  Position
	target Position
	steps  int
}

// New builds a GridWorld. A render mode outside the declared set panics
// with a contract violation; other configuration problems are errors.
func New(cfg Config) (*GridWorld, error) {
	cfg.applyDefaults()
	env.MustSupportRenderMode(metadata, cfg.RenderMode)

	if cfg.Size < MinSize {
		return nil, fmt.Errorf("size %d: %w", cfg.Size, ErrInvalidSize)
	}

	actions, err := spaces.NewDiscrete(len(directions))
	if err != nil {
		return nil, err
	}
	obsSpace, err := spaces.NewBox([]int{4}, 0, float32(cfg.Size-1))
	if err != nil {
		return nil, err
	}

	lc := env.NewLifecycle(cfg.SpecID, cfg.Logger.With().Str("component", "gridworld").Logger(), cfg.Bus)
	renderer, err := env.NewRenderer(env.RenderConfig{
		Mode:    cfg.RenderMode,
		Width:   cfg.WindowSize,
		Height:  cfg.WindowSize,
		FPS:     metadata.RenderFPS,
		Backend: cfg.Backend,
		Clock:   cfg.Clock,
		Output:  cfg.Output,
	}, lc.Logger())
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g := &GridWorld{
		Lifecycle:  lc,
		size:       cfg.Size,
		windowSize: cfg.WindowSize,
		rng:        rand.New(rand.NewSource(seed)),
		actions:    actions,
		obsSpace:   obsSpace,
		renderer:   renderer,
		formatter:  cfg.Formatter,
	}

	logger := lc.Logger()
	logger.Debug().
		Int("size", g.size).
		Str("render_mode", cfg.RenderMode.String()).
		Msg("Grid world created")

	return g, nil
}

func (g *GridWorld) ActionSpace() spaces.Space[int]            { return g.actions }
func (g *GridWorld) ObservationSpace() spaces.Space[[]float32] { return g.obsSpace }
func (g *GridWorld) Metadata() env.Metadata                    { return metadata }
func (g *GridWorld) RenderMode() env.RenderMode                { return g.renderer.Mode() }

// Size returns the grid side length.
func (g *GridWorld) Size() int { return g.size }

// Agent returns the agent cell.
func (g *GridWorld) Agent() Position { return g.agent }

// Target returns the target cell.
func (g *GridWorld) Target() Position { return g.target }

// Reset places the agent and the target. Options "agent" and "target"
// ([2]int) pin their cells; unpinned cells are drawn uniformly and the
// two never coincide. Options are validated before anything changes, so
// a rejected reset leaves the previous episode (or none) in place.
func (g *GridWorld) Reset(opts env.ResetOptions) ([]float32, env.Info) {
	g.CheckReset()

	agent, pinnedAgent := g.positionOption(opts.Options, "agent")
	target, pinnedTarget := g.positionOption(opts.Options, "target")
	if pinnedAgent && pinnedTarget && agent == target {
		env.Violate("reset", env.ErrInvalidOption, "agent and target both pinned to (%d,%d)", agent.X, agent.Y)
	}

	rng := g.rng
	if opts.Seed != nil {
		rng = rand.New(rand.NewSource(*opts.Seed))
	}
	switch {
	case pinnedAgent && !pinnedTarget:
		target = g.cellOtherThan(rng, agent)
	case !pinnedAgent && pinnedTarget:
		agent = g.cellOtherThan(rng, target)
	case !pinnedAgent && !pinnedTarget:
		agent = g.randomCell(rng)
		target = g.cellOtherThan(rng, agent)
	}

	g.BeginReset()
	if opts.Seed != nil {
		g.rng = rng
		g.actions.Seed(*opts.Seed)
		g.obsSpace.Seed(*opts.Seed)
	}
	g.agent, g.target = agent, target
	g.steps = 0

	obs, info := g.observation(), g.info()
	g.renderer.RenderHumanFrame(g.drawFrame)
	return obs, info
}

// Step moves the agent one cell, clipped to the grid.
func (g *GridWorld) Step(action int) ([]float32, float64, bool, bool, env.Info) {
	g.BeginStep()
	if !g.actions.Contains(action) {
		env.Violate("step", env.ErrInvalidAction, "%d not in %s", action, g.actions)
	}

	d := directions[action]
	g.agent = Position{
		X: common.Clamp(g.agent.X+d[0], 0, g.size-1),
		Y: common.Clamp(g.agent.Y+d[1], 0, g.size-1),
	}
	g.steps++

	terminated := g.agent == g.target
	reward := 0.0
	if terminated {
		reward = 1
	}
	g.EndStep(terminated, false)

	obs, info := g.observation(), g.info()
	g.renderer.RenderHumanFrame(g.drawFrame)
	return obs, reward, terminated, false, info
}

// Render draws the current state in the configured mode.
func (g *GridWorld) Render() (*render.Frame, error) {
	g.CheckRender()
	return g.renderer.Render(g.SpecID(), g.drawFrame, func() string {
		return g.formatter(g.observation())
	})
}

// Close releases the render backend. Repeated calls do nothing.
func (g *GridWorld) Close() error {
	if !g.Lifecycle.Close() {
		return nil
	}
	return g.renderer.Close()
}

func (g *GridWorld) observation() []float32 {
	return []float32{
		float32(g.agent.X), float32(g.agent.Y),
		float32(g.target.X), float32(g.target.Y),
	}
}

func (g *GridWorld) info() env.Info {
	return env.Info{
		"distance": common.ManhattanDistance(g.agent.X, g.agent.Y, g.target.X, g.target.Y),
		"steps":    g.steps,
	}
}

func (g *GridWorld) randomCell(rng *rand.Rand) Position {
	return Position{X: rng.Intn(g.size), Y: rng.Intn(g.size)}
}

func (g *GridWorld) cellOtherThan(rng *rand.Rand, taken Position) Position {
	p := g.randomCell(rng)
	for p == taken {
		p = g.randomCell(rng)
	}
	return p
}

func (g *GridWorld) positionOption(options map[string]any, key string) (Position, bool) {
	raw, ok := options[key]
	if !ok {
		return Position{}, false
	}
	var p Position
	switch v := raw.(type) {
	case [2]int:
		p = Position{X: v[0], Y: v[1]}
	case []int:
		if len(v) != 2 {
			env.Violate("reset", env.ErrInvalidOption, "%s: want 2 coordinates, got %d", key, len(v))
		}
		p = Position{X: v[0], Y: v[1]}
	case Position:
		p = v
	case []any:
		// decoded JSON, e.g. options from the remote env service
		if len(v) != 2 {
			env.Violate("reset", env.ErrInvalidOption, "%s: want 2 coordinates, got %d", key, len(v))
		}
		x, xok := v[0].(float64)
		y, yok := v[1].(float64)
		if !xok || !yok || x != float64(int(x)) || y != float64(int(y)) {
			env.Violate("reset", env.ErrInvalidOption, "%s: coordinates must be integers", key)
		}
		p = Position{X: int(x), Y: int(y)}
	default:
		env.Violate("reset", env.ErrInvalidOption, "%s: unsupported type %T", key, raw)
	}
	if !common.IsValidCoordinate(p.X, p.Y, g.size, g.size) {
		env.Violate("reset", env.ErrInvalidOption, "%s (%d,%d) outside %dx%d grid", key, p.X, p.Y, g.size, g.size)
	}
	return p, true
}

// ReachedTarget is the goal predicate: the agent stands on the target.
// It reads the distance from info when present and otherwise compares
// the agent and target halves of the observation, which also holds for
// scaled observations.
func ReachedTarget(obs []float32, info env.Info) bool {
	if d, ok := info["distance"].(int); ok {
		return d == 0
	}
	if len(obs) != 4 {
		return false
	}
	return obs[0] == obs[2] && obs[1] == obs[3]
}
