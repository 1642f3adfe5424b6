// Package wsstream is a render backend that streams frames to browsers
// over websockets, for human mode on headless machines.
package wsstream

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/render"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 2 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Frames buffered per viewer before new ones are dropped.
	viewerBuffer = 4
)

// Streamer is a render.Backend. Every presented canvas is PNG encoded once
// and fanned out to all connected viewers.
type Streamer struct {
	mu       sync.Mutex
	width    int
	height   int
	acquired bool
	latest   []byte
	viewers  map[chan []byte]struct{}

	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewStreamer(logger zerolog.Logger) *Streamer {
	return &Streamer{
		viewers: make(map[chan []byte]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.With().Str("component", "frame_streamer").Logger(),
	}
}

// Handler routes the viewer endpoints:
//
//	GET /frames     websocket, one binary PNG message per frame
//	GET /frame.png  the most recent frame
//	GET /healthz    liveness
func (s *Streamer) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/frames", s.serveFrames).Methods(http.MethodGet)
	r.HandleFunc("/frame.png", s.serveLatest).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}

func (s *Streamer) Acquire(width, height int) error {
	if width <= 0 || height <= 0 {
		return render.ErrInvalidSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	s.acquired = true
	return nil
}

func (s *Streamer) Present(canvas *image.RGBA) error {
	s.mu.Lock()
	acquired := s.acquired
	s.mu.Unlock()
	if !acquired {
		return render.ErrNotAcquired
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return err
	}
	frame := buf.Bytes()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = frame
	for ch := range s.viewers {
		select {
		case ch <- frame:
		default:
			// Slow viewer, drop the frame
		}
	}
	return nil
}

func (s *Streamer) PumpEvents() error {
	return nil
}

// Release stops accepting frames. Connected viewers stay connected and
// keep the last frame.
func (s *Streamer) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquired = false
	return nil
}

// Viewers returns the number of connected websocket viewers.
func (s *Streamer) Viewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewers)
}

func (s *Streamer) subscribe() (chan []byte, []byte) {
	ch := make(chan []byte, viewerBuffer)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewers[ch] = struct{}{}
	return ch, s.latest
}

func (s *Streamer) unsubscribe(ch chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.viewers, ch)
}

func (s *Streamer) serveFrames(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	frames, latest := s.subscribe()
	defer s.unsubscribe(frames)
	s.logger.Info().Str("remote", r.RemoteAddr).Msg("Viewer connected")

	// Reader: handles pongs and notices the peer going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(kind int, data []byte) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(kind, data) == nil
	}

	if latest != nil && !write(websocket.BinaryMessage, latest) {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			s.logger.Info().Str("remote", r.RemoteAddr).Msg("Viewer disconnected")
			return
		case frame := <-frames:
			if !write(websocket.BinaryMessage, frame) {
				return
			}
		case <-ticker.C:
			if !write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (s *Streamer) serveLatest(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()
	if latest == nil {
		http.Error(w, "no frame yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(latest)
}
