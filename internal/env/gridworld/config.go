package gridworld

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/events"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/render"
)

const (
	DefaultSize       = 11
	DefaultWindowSize = 512
	RenderFPS         = 10
	// MinSize leaves room for distinct agent and target cells
	MinSize = 2
)

// Formatter turns an observation into the ansi rendering.
type Formatter func(obs []float32) string

// Config holds construction options for a GridWorld.
type Config struct {
	// Size is the side length of the square grid
	Size int
	// WindowSize is the side length of rendered frames in pixels
	WindowSize int
	RenderMode env.RenderMode

	// Formatter renders ansi output; defaults to a coloured board
	Formatter Formatter
	// Output receives ansi renderings; defaults to stdout
	Output io.Writer
	// Backend presents human mode frames
	Backend render.Backend
	// Clock paces human mode; defaults to a wall clock
	Clock render.Clock

	Logger zerolog.Logger
	Bus    events.Publisher
	SpecID string
	// Seed seeds the initial random source. Zero means time seeded.
	Seed int64
}

func (c *Config) applyDefaults() {
	if c.Size == 0 {
		c.Size = DefaultSize
	}
	if c.WindowSize == 0 {
		c.WindowSize = DefaultWindowSize
	}
	if c.Formatter == nil {
		size := c.Size
		c.Formatter = func(obs []float32) string { return FormatBoard(size, obs, true) }
	}
}
