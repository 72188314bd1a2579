// Package host provides stdlib.Host implementations that need no display.
package host

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/canvaz-lang/canvaz/stdlib"
)

// DefaultFrames is how many updates a Headless window stays open for when
// Frames is zero.
const DefaultFrames = 60

// ErrNotStarted is returned by Update before Start.
var ErrNotStarted = errors.New("engine is not started")

// Headless pretends to drive a window. The window stays open for Frames
// calls to Update and then closes.
type Headless struct {
	Frames int
	Logger *slog.Logger

	mu       sync.Mutex
	settings stdlib.EngineSettings
	started  bool
	frame    int
}

var _ stdlib.Host = (*Headless)(nil)

// NewHeadless returns a headless host that closes after frames updates.
func NewHeadless(frames int, logger *slog.Logger) *Headless {
	return &Headless{Frames: frames, Logger: logger}
}

func (h *Headless) logger() *slog.Logger {
	if h.Logger == nil {
		h.Logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	return h.Logger
}

func (h *Headless) frames() int {
	if h.Frames <= 0 {
		return DefaultFrames
	}
	return h.Frames
}

// Start opens the window. Starting twice is an error.
func (h *Headless) Start(settings stdlib.EngineSettings) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return fmt.Errorf("engine %q is already started", h.settings.WindowTitle)
	}
	h.settings = settings
	h.started = true
	h.frame = 0
	h.logger().Info("window opened", "title", settings.WindowTitle, "width", settings.Width, "height", settings.Height, "frames", h.frames())
	return nil
}

// Update advances one frame.
func (h *Headless) Update() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started {
		return ErrNotStarted
	}
	if h.frame < h.frames() {
		h.frame++
		h.logger().Debug("frame", "n", h.frame)
		if h.frame == h.frames() {
			h.logger().Info("window closed", "title", h.settings.WindowTitle, "frames", h.frame)
		}
	}
	return nil
}

// IsOpen reports whether the window is still open.
func (h *Headless) IsOpen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started && h.frame < h.frames()
}

// Settings returns the settings passed to Start.
func (h *Headless) Settings() stdlib.EngineSettings {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.settings
}

// Frame returns the number of updates since Start.
func (h *Headless) Frame() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame
}
