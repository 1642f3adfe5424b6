package render

import (
	"image"
	"image/draw"
	"sync"
)

// Headless is a Backend with no display. It keeps the most recent frame
// and counts calls, which makes it the backend of choice for tests and
// for human mode on machines without a window system.
type Headless struct {
	mu       sync.Mutex
	width    int
	height   int
	acquired bool
	last     *image.RGBA

	acquires int
	presents int
	releases int
}

// NewHeadless returns an unacquired headless backend.
func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) Acquire(width, height int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}
	h.width, h.height = width, height
	h.acquired = true
	h.acquires++
	return nil
}

func (h *Headless) Present(canvas *image.RGBA) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.acquired {
		return ErrNotAcquired
	}
	cp := image.NewRGBA(canvas.Bounds())
	draw.Draw(cp, cp.Bounds(), canvas, canvas.Bounds().Min, draw.Src)
	h.last = cp
	h.presents++
	return nil
}

func (h *Headless) PumpEvents() error {
	return nil
}

func (h *Headless) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.acquired = false
	h.releases++
	return nil
}

// Last returns a copy of the last presented canvas, or nil.
func (h *Headless) Last() *image.RGBA {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return nil
	}
	out := image.NewRGBA(h.last.Rect)
	copy(out.Pix, h.last.Pix)
	return out
}

// Size returns the dimensions passed to the last Acquire.
func (h *Headless) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

// Counts returns how many times Acquire, Present and Release ran.
func (h *Headless) Counts() (acquires, presents, releases int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.acquires, h.presents, h.releases
}
