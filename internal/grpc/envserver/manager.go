package envserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/registry"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/wrappers"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/events"
)

var (
	// ErrEnvNotFound is returned for unknown or already closed instance ids
	ErrEnvNotFound = errors.New("env instance not found")
	// ErrAtCapacity is returned by Create when MaxEnvs instances are live
	ErrAtCapacity = errors.New("server at capacity")
)

// Defaults for ManagerConfig.
const (
	DefaultIdleTimeout   = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// MaxEnvs caps live instances; 0 means unlimited
	MaxEnvs     int
	IdleTimeout time.Duration
	Registry    *registry.Registry
	// Bus receives lifecycle events and, with LogEpisodes, episode events
	Bus         events.Publisher
	LogEpisodes bool
	Logger      zerolog.Logger
}

// Instance is one remote environment. Its mutex serialises every call,
// since envs are single threaded.
type Instance struct {
	id      string
	specID  string
	mode    env.RenderMode
	env     registry.GridEnv
	text    *bytes.Buffer
	created time.Time

	mu           sync.Mutex
	lastActivity time.Time
	steps        int
}

// ID returns the instance id handed to clients.
func (i *Instance) ID() string { return i.id }

// Manager owns the live instances.
type Manager struct {
	cfg    ManagerConfig
	logger zerolog.Logger

	mu        sync.RWMutex
	instances map[string]*Instance
}

// NewManager creates a manager. A nil Registry uses registry.Default.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Registry == nil {
		cfg.Registry = registry.Default
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	return &Manager{
		cfg:       cfg,
		logger:    cfg.Logger.With().Str("component", "env_manager").Logger(),
		instances: make(map[string]*Instance),
	}
}

// Create makes a new instance from opts.
func (m *Manager) Create(opts MakeOptions) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.MaxEnvs > 0 && len(m.instances) >= m.cfg.MaxEnvs {
		m.logger.Warn().
			Int("current_envs", len(m.instances)).
			Int("max_envs", m.cfg.MaxEnvs).
			Msg("Rejecting env creation - server at capacity")
		return nil, fmt.Errorf("%w: %d/%d envs active", ErrAtCapacity, len(m.instances), m.cfg.MaxEnvs)
	}

	text := &bytes.Buffer{}
	e, err := m.build(opts, text)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inst := &Instance{
		id:           uuid.NewString(),
		specID:       opts.ID,
		mode:         opts.RenderMode,
		env:          e,
		text:         text,
		created:      now,
		lastActivity: now,
	}
	m.instances[inst.id] = inst

	m.logger.Info().
		Str("instance_id", inst.id).
		Str("spec_id", opts.ID).
		Str("env_id", e.ID()).
		Str("render_mode", opts.RenderMode.String()).
		Int("active_envs", len(m.instances)).
		Msg("Created env instance")
	return inst, nil
}

func (m *Manager) build(opts MakeOptions, text *bytes.Buffer) (e registry.GridEnv, err error) {
	// factories may reject options by panicking
	defer env.Recover(&err)

	e, err = m.cfg.Registry.Make(opts.ID, registry.MakeConfig{
		RenderMode:      opts.RenderMode,
		Size:            opts.Size,
		MaxEpisodeSteps: opts.MaxEpisodeSteps,
		Seed:            opts.Seed,
		Output:          text,
		Logger:          m.cfg.Logger,
		Bus:             m.cfg.Bus,
	})
	if err != nil {
		return nil, err
	}
	if opts.ScaleFactor > 0 {
		scaled, serr := wrappers.ScaleObservation[int](e, opts.ScaleFactor)
		if serr != nil {
			_ = e.Close()
			return nil, serr
		}
		e = scaled
	}
	if m.cfg.LogEpisodes {
		e = wrappers.NewStepWrapper[[]float32, int](e, wrappers.StepConfig[[]float32]{
			Log:    true,
			Logger: m.cfg.Logger,
			Bus:    m.cfg.Bus,
		})
	}
	return e, nil
}

// Get returns the live instance with id.
func (m *Manager) Get(id string) (*Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEnvNotFound, id)
	}
	return inst, nil
}

// Remove closes and forgets an instance.
func (m *Manager) Remove(id string) (*Instance, error) {
	m.mu.Lock()
	inst, ok := m.instances[id]
	delete(m.instances, id)
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEnvNotFound, id)
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()
	if err := inst.env.Close(); err != nil {
		m.logger.Warn().Err(err).Str("instance_id", id).Msg("Error closing env instance")
	}
	return inst, nil
}

// Count returns the number of live instances.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.instances)
}

// Sweep closes instances idle for longer than the idle timeout and
// returns how many it removed.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.RLock()
	refs := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		refs = append(refs, inst)
	}
	m.mu.RUnlock()

	var idle []string
	for _, inst := range refs {
		inst.mu.Lock()
		last := inst.lastActivity
		inst.mu.Unlock()
		if now.Sub(last) > m.cfg.IdleTimeout {
			idle = append(idle, inst.id)
		}
	}

	removed := 0
	for _, id := range idle {
		if _, err := m.Remove(id); err == nil {
			removed++
			m.logger.Info().Str("instance_id", id).Msg("Closed idle env instance")
		}
	}
	return removed
}

// RunSweeper sweeps every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

// CloseAll closes every instance, e.g. on shutdown.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.instances))
	for id := range m.instances {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		_, _ = m.Remove(id)
	}
	m.logger.Info().Int("closed", len(ids)).Msg("Closed all env instances")
}
