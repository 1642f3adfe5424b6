// Package render holds the drawing surface, pixel frames and the
// presentation backends environments render through.
package render

import (
	"errors"
	"image"
)

var (
	// ErrNotAcquired is returned when presenting through a backend that was never acquired
	ErrNotAcquired = errors.New("render backend not acquired")
	// ErrWindowClosed is returned by PumpEvents once the user closed the window
	ErrWindowClosed = errors.New("render window closed")
	// ErrInvalidSize is returned for non-positive surface dimensions
	ErrInvalidSize = errors.New("surface dimensions must be positive")
)

// Backend is the windowing/display collaborator. Environments draw into
// an *image.RGBA canvas themselves and only ever hand finished canvases
// to the backend.
type Backend interface {
	// Acquire creates the display surface of the given size. Backends may
	// assume it is called at most once between Release calls; Handle
	// enforces that.
	Acquire(width, height int) error

	// Present shows the canvas on the display.
	Present(canvas *image.RGBA) error

	// PumpEvents processes pending platform events.
	PumpEvents() error

	// Release tears down the display.
	Release() error
}
