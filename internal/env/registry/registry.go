// Package registry maps environment ids to factories, the way training
// code refers to environments by name.
package registry

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/gridworld"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/wrappers"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/events"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/render"
)

// GridWorldID is the id the reference environment is registered under.
const GridWorldID = "GridWorld-v0"

var (
	// ErrUnknownEnv is returned by Make for ids never registered
	ErrUnknownEnv = errors.New("unknown environment id")
	// ErrDuplicateEnv is returned when an id is registered twice
	ErrDuplicateEnv = errors.New("environment id already registered")
)

// GridEnv is the env type every registered factory produces.
type GridEnv = env.Env[[]float32, int]

// MakeConfig carries construction options through a factory.
type MakeConfig struct {
	RenderMode env.RenderMode
	// Size overrides the factory's grid size when non-zero
	Size int
	// WindowSize overrides the frame side length when non-zero
	WindowSize int
	// MaxEpisodeSteps overrides the registered limit when non-zero
	MaxEpisodeSteps int
	Seed            int64

	Backend render.Backend
	Clock   render.Clock
	Output  io.Writer
	Logger  zerolog.Logger
	Bus     events.Publisher
}

// Factory builds a fresh, unwrapped environment.
type Factory func(cfg MakeConfig) (GridEnv, error)

// Spec describes a registered environment.
type Spec struct {
	ID              string
	Factory         Factory
	MaxEpisodeSteps int
}

// Registry holds environment specs.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

// Register adds a spec.
func (r *Registry) Register(spec Spec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.specs[spec.ID]; exists {
		return fmt.Errorf("%s: %w", spec.ID, ErrDuplicateEnv)
	}
	r.specs[spec.ID] = spec
	return nil
}

// IDs lists the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.specs))
	for id := range r.specs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Make builds the env registered under id, wrapped in a TimeLimit when
// the effective episode limit is positive.
func (r *Registry) Make(id string, cfg MakeConfig) (GridEnv, error) {
	r.mu.RLock()
	spec, ok := r.specs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownEnv)
	}

	e, err := spec.Factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("make %s: %w", id, err)
	}
	if s, ok := e.(interface{ SetSpecID(string) }); ok {
		s.SetSpecID(id)
	}

	maxSteps := spec.MaxEpisodeSteps
	if cfg.MaxEpisodeSteps > 0 {
		maxSteps = cfg.MaxEpisodeSteps
	}
	if maxSteps <= 0 {
		return e, nil
	}
	return wrappers.NewTimeLimit[[]float32, int](e, maxSteps)
}

// Default is the process-wide registry with the built-in environments.
var Default = newDefault()

func newDefault() *Registry {
	r := New()
	if err := r.Register(Spec{ID: GridWorldID, Factory: newGridWorld, MaxEpisodeSteps: 100}); err != nil {
		panic(err)
	}
	return r
}

func newGridWorld(cfg MakeConfig) (GridEnv, error) {
	g, err := gridworld.New(gridworld.Config{
		Size:       cfg.Size,
		WindowSize: cfg.WindowSize,
		RenderMode: cfg.RenderMode,
		Backend:    cfg.Backend,
		Clock:      cfg.Clock,
		Output:     cfg.Output,
		Logger:     cfg.Logger,
		Bus:        cfg.Bus,
		Seed:       cfg.Seed,
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Register adds a spec to the Default registry.
func Register(spec Spec) error { return Default.Register(spec) }

// Make builds an env from the Default registry.
func Make(id string, cfg MakeConfig) (GridEnv, error) { return Default.Make(id, cfg) }
