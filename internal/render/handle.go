package render

import (
	"fmt"
	"image"

	"github.com/rs/zerolog"
)

// Handle scopes one owner's acquisition of a Backend. Acquire is
// idempotent and Release only tears down what this handle acquired, so
// an owner can call both freely from reset/render/close paths.
type Handle struct {
	backend  Backend
	logger   zerolog.Logger
	acquired bool
	width    int
	height   int
}

// NewHandle wraps a backend. A nil backend yields a handle whose
// operations fail with ErrNotAcquired.
func NewHandle(backend Backend, logger zerolog.Logger) *Handle {
	return &Handle{
		backend: backend,
		logger:  logger.With().Str("component", "render_handle").Logger(),
	}
}

// Acquire acquires the backend on first use.
func (h *Handle) Acquire(width, height int) error {
	if h.acquired {
		return nil
	}
	if h.backend == nil {
		return ErrNotAcquired
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("acquire %dx%d: %w", width, height, ErrInvalidSize)
	}
	if err := h.backend.Acquire(width, height); err != nil {
		return fmt.Errorf("acquire render backend: %w", err)
	}
	h.acquired = true
	h.width, h.height = width, height
	h.logger.Debug().
		Int("width", width).
		Int("height", height).
		Msg("Render backend acquired")
	return nil
}

// Acquired reports whether the backend is currently held.
func (h *Handle) Acquired() bool { return h.acquired }

// Size returns the surface dimensions of the current acquisition.
func (h *Handle) Size() (width, height int) { return h.width, h.height }

// Present forwards the canvas to the acquired backend and pumps events.
func (h *Handle) Present(canvas *image.RGBA) error {
	if !h.acquired {
		return ErrNotAcquired
	}
	if err := h.backend.Present(canvas); err != nil {
		return fmt.Errorf("present frame: %w", err)
	}
	return h.backend.PumpEvents()
}

// Release tears the backend down if this handle acquired it. Calling it
// again is a no-op.
func (h *Handle) Release() error {
	if !h.acquired {
		return nil
	}
	h.acquired = false
	if err := h.backend.Release(); err != nil {
		return fmt.Errorf("release render backend: %w", err)
	}
	h.logger.Debug().Msg("Render backend released")
	return nil
}
