// Package monitoring samples process health for long running servers.
package monitoring

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Defaults for a Monitor.
const (
	DefaultInterval       = 30 * time.Second
	DefaultAlertThreshold = 1000
	DefaultAlertCooldown  = 5 * time.Minute
)

// Gauge reports one named quantity, e.g. the number of live envs.
type Gauge func() int

// Metrics is one snapshot of the monitored values.
type Metrics struct {
	Goroutines int            `json:"goroutines"`
	Baseline   int            `json:"baseline"`
	Peak       int            `json:"peak"`
	Growth     int            `json:"growth"`
	Gauges     map[string]int `json:"gauges"`
}

// Monitor tracks the goroutine count against a baseline and samples
// registered gauges. A goroutine count that keeps growing while the
// gauges stay flat usually means leaked env handlers.
type Monitor struct {
	mu        sync.RWMutex
	baseline  int
	current   int
	peak      int
	lastAlert time.Time
	gauges    map[string]Gauge
	last      map[string]int

	interval       time.Duration
	alertThreshold int
	alertCooldown  time.Duration
	numGoroutine   func() int
	logger         zerolog.Logger
}

// New creates a monitor using the current goroutine count as baseline.
func New(logger zerolog.Logger) *Monitor {
	m := &Monitor{
		gauges:         make(map[string]Gauge),
		last:           make(map[string]int),
		interval:       DefaultInterval,
		alertThreshold: DefaultAlertThreshold,
		alertCooldown:  DefaultAlertCooldown,
		numGoroutine:   runtime.NumGoroutine,
		logger:         logger.With().Str("component", "monitor").Logger(),
	}
	m.baseline = m.numGoroutine()
	m.current = m.baseline
	m.peak = m.baseline
	return m
}

// SetInterval changes the sampling period. Non-positive values are ignored.
func (m *Monitor) SetInterval(d time.Duration) {
	if d > 0 {
		m.interval = d
	}
}

// SetAlertThreshold sets the goroutine count above which Sample warns.
func (m *Monitor) SetAlertThreshold(n int) {
	m.mu.Lock()
	m.alertThreshold = n
	m.mu.Unlock()
}

// Register adds a gauge sampled on every tick.
func (m *Monitor) Register(name string, g Gauge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = g
}

// Run samples every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info().
		Int("baseline", m.baseline).
		Dur("interval", m.interval).
		Msg("Started monitoring")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sample(now)
		}
	}
}

// Sample takes one measurement, logs it and returns the snapshot.
func (m *Monitor) Sample(now time.Time) Metrics {
	current := m.numGoroutine()

	m.mu.Lock()
	gauges := make(map[string]Gauge, len(m.gauges))
	for name, g := range m.gauges {
		gauges[name] = g
	}
	m.mu.Unlock()

	// gauges may take their own locks, so they run outside ours
	values := make(map[string]int, len(gauges))
	for name, g := range gauges {
		values[name] = g()
	}

	m.mu.Lock()
	m.current = current
	if current > m.peak {
		m.peak = current
	}
	m.last = values
	alert := current > m.alertThreshold && now.Sub(m.lastAlert) > m.alertCooldown
	if alert {
		m.lastAlert = now
	}
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	ev := m.logger.Debug().
		Int("goroutines", snapshot.Goroutines).
		Int("baseline", snapshot.Baseline).
		Int("peak", snapshot.Peak)
	for name, v := range snapshot.Gauges {
		ev = ev.Int(name, v)
	}
	ev.Msg("Process metrics")

	if alert {
		m.logger.Warn().
			Int("goroutines", current).
			Int("threshold", m.alertThreshold).
			Int("growth", snapshot.Growth).
			Msg("High goroutine count detected - possible leak")
	}
	return snapshot
}

// Metrics returns the most recent snapshot.
func (m *Monitor) Metrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Monitor) snapshotLocked() Metrics {
	gauges := make(map[string]int, len(m.last))
	for k, v := range m.last {
		gauges[k] = v
	}
	return Metrics{
		Goroutines: m.current,
		Baseline:   m.baseline,
		Peak:       m.peak,
		Growth:     m.current - m.baseline,
		Gauges:     gauges,
	}
}
