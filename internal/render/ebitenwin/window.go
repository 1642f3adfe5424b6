// Package ebitenwin presents frames in a desktop window using Ebitengine.
//
// Ebitengine owns the main goroutine: the caller runs Window.Run from main
// and drives the environment from a second goroutine. The environment only
// ever sees the render.Backend methods, which are safe to call from there.
package ebitenwin

import (
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/render"
)

// Window is a render.Backend and an ebiten.Game.
type Window struct {
	mu       sync.Mutex
	title    string
	width    int
	height   int
	pix      []byte
	status   string
	acquired bool
	closed   bool
	quit     bool

	controls *Controls
	logger   zerolog.Logger
}

// NewWindow creates a window that opens at the given size once Run is
// called. Acquire may resize it later.
func NewWindow(title string, width, height int, logger zerolog.Logger) *Window {
	return &Window{
		title:    title,
		width:    width,
		height:   height,
		controls: NewControls(),
		logger:   logger.With().Str("component", "ebiten_window").Logger(),
	}
}

// Run opens the window and blocks until it is closed or released. It must
// be called from the main goroutine.
func (w *Window) Run() error {
	w.mu.Lock()
	width, height := w.width, w.height
	w.mu.Unlock()

	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle(w.title)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(60)

	w.logger.Info().Int("width", width).Int("height", height).Msg("Opening window")
	err := ebiten.RunGame(w)

	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return err
}

// Actions delivers actions chosen with the keyboard.
func (w *Window) Actions() <-chan int {
	return w.controls.Actions()
}

// SetStatus sets the one-line overlay drawn over the frame.
func (w *Window) SetStatus(s string) {
	w.mu.Lock()
	w.status = s
	w.mu.Unlock()
}

// Quit asks the event loop to stop at the next update.
func (w *Window) Quit() {
	w.mu.Lock()
	w.quit = true
	w.mu.Unlock()
}

func (w *Window) Acquire(width, height int) error {
	if width <= 0 || height <= 0 {
		return render.ErrInvalidSize
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return render.ErrWindowClosed
	}
	if width != w.width || height != w.height {
		w.width, w.height = width, height
		ebiten.SetWindowSize(width, height)
	}
	w.acquired = true
	w.pix = nil
	return nil
}

func (w *Window) Present(canvas *image.RGBA) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.acquired {
		return render.ErrNotAcquired
	}
	b := canvas.Bounds()
	if b.Dx() != w.width || b.Dy() != w.height {
		return render.ErrInvalidSize
	}
	if len(w.pix) != len(canvas.Pix) {
		w.pix = make([]byte, 4*w.width*w.height)
	}
	for y := 0; y < b.Dy(); y++ {
		src := canvas.Pix[canvas.PixOffset(b.Min.X, b.Min.Y+y):]
		copy(w.pix[y*4*w.width:(y+1)*4*w.width], src[:4*w.width])
	}
	return nil
}

func (w *Window) PumpEvents() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return render.ErrWindowClosed
	}
	return nil
}

// Release ends the event loop; Run returns shortly after.
func (w *Window) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.acquired = false
	w.quit = true
	return nil
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	if ebiten.IsWindowBeingClosed() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		w.logger.Info().Msg("Window closed by user")
		return ebiten.Termination
	}

	w.controls.Update()

	w.mu.Lock()
	quit := w.quit
	w.mu.Unlock()
	if quit {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pix != nil && screen.Bounds().Dx() == w.width && screen.Bounds().Dy() == w.height {
		screen.WritePixels(w.pix)
	}
	if w.status != "" {
		ebitenutil.DebugPrintAt(screen, w.status, 4, 4)
	}
}

// Layout implements ebiten.Game.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}
