package env

import (
	"fmt"
	"image"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/render"
)

// RenderConfig configures a Renderer.
type RenderConfig struct {
	Mode RenderMode
	// Width and Height of the drawn canvas in pixels.
	Width  int
	Height int
	// FPS paces human mode; see Metadata.RenderFPS.
	FPS int
	// Backend presents human mode frames. Required for human mode.
	Backend render.Backend
	// Clock paces human mode. Defaults to a wall clock.
	Clock render.Clock
	// Output receives ansi renderings. Defaults to stdout.
	Output io.Writer
}

// Renderer dispatches Render calls over the closed set of render modes.
// The environment supplies the drawing; the Renderer owns the backend
// handle and the frame clock.
type Renderer struct {
	mode   RenderMode
	width  int
	height int
	fps    int
	handle *render.Handle
	clock  render.Clock
	out    io.Writer
	logger zerolog.Logger
}

// NewRenderer validates the configuration. Human mode without a backend
// is a configuration error.
func NewRenderer(cfg RenderConfig, logger zerolog.Logger) (*Renderer, error) {
	if cfg.Mode == RenderHuman && cfg.Backend == nil {
		return nil, fmt.Errorf("human render mode requires a backend: %w", render.ErrNotAcquired)
	}
	if cfg.Mode != RenderNone && (cfg.Width <= 0 || cfg.Height <= 0) {
		return nil, fmt.Errorf("canvas %dx%d: %w", cfg.Width, cfg.Height, render.ErrInvalidSize)
	}
	if cfg.Clock == nil {
		cfg.Clock = render.NewClock()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	return &Renderer{
		mode:   cfg.Mode,
		width:  cfg.Width,
		height: cfg.Height,
		fps:    cfg.FPS,
		handle: render.NewHandle(cfg.Backend, logger),
		clock:  cfg.Clock,
		out:    cfg.Output,
		logger: logger,
	}, nil
}

// Mode returns the configured render mode.
func (r *Renderer) Mode() RenderMode { return r.mode }

// Render produces output for the configured mode. draw is only called
// for pixel modes and text only for ansi.
func (r *Renderer) Render(specID string, draw func() *image.RGBA, text func() string) (*render.Frame, error) {
	switch r.mode {
	case RenderNone:
		if specID == "" {
			specID = "<env id>"
		}
		r.logger.Warn().
			Str("spec_id", specID).
			Msgf("Render called without a render mode. Set it at construction, e.g. registry.Make(%q, registry.MakeConfig{RenderMode: \"rgb_array\"})", specID)
		return nil, nil

	case RenderANSI:
		if _, err := fmt.Fprintln(r.out, text()); err != nil {
			return nil, fmt.Errorf("write ansi rendering: %w", err)
		}
		return nil, nil

	case RenderRGBArray:
		return render.FrameFromRGBA(draw()), nil

	case RenderHuman:
		return nil, r.present(draw)
	}
	return nil, nil
}

// RenderHumanFrame renders from Reset or Step when in human mode. Errors
// cannot be returned from there, so they are logged.
func (r *Renderer) RenderHumanFrame(draw func() *image.RGBA) {
	if r.mode != RenderHuman {
		return
	}
	if err := r.present(draw); err != nil {
		r.logger.Error().Err(err).Msg("Human mode render failed")
	}
}

func (r *Renderer) present(draw func() *image.RGBA) error {
	if err := r.handle.Acquire(r.width, r.height); err != nil {
		return err
	}
	if err := r.handle.Present(draw()); err != nil {
		return err
	}
	r.clock.Tick(r.fps)
	return nil
}

// Close releases the backend if it was acquired. Safe to call repeatedly.
func (r *Renderer) Close() error {
	return r.handle.Release()
}
