package graphics

import (
	"errors"
	"fmt"

	"gosms/internal/debug"

	"github.com/retroenv/retrogolib/log"
)

// defaultDumpInterval is the frame distance between headless frame dumps
const defaultDumpInterval = 60

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow implements the Window interface for headless operation
type HeadlessWindow struct {
	title      string
	width      int
	height     int
	running    bool
	frameCount int
	maxFrames  int
	dumper     *debug.FrameDumper
	logger     *log.Logger
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return errors.New("headless backend already initialized")
	}

	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a headless "window" that optionally dumps frames
// to the configured directory.
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, errors.New("backend not initialized")
	}

	w := &HeadlessWindow{
		title:     title,
		width:     width,
		height:    height,
		running:   true,
		maxFrames: b.config.MaxFrames,
		logger:    b.config.Logger,
	}

	if b.config.DumpDir != "" {
		w.dumper = debug.NewFrameDumper(b.config.DumpDir)
		interval := b.config.DumpInterval
		if interval == 0 {
			interval = defaultDumpInterval
		}
		w.dumper.SetDumpInterval(interval)
		if err := w.dumper.Enable(); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle sets the window title (for logging purposes)
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// GetSize returns window dimensions
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true once the frame limit has been rendered
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns empty events list (no input in headless mode)
func (w *HeadlessWindow) PollEvents() []InputEvent {
	return nil
}

// RenderFrame counts the frame and dumps it when selected
func (w *HeadlessWindow) RenderFrame(frame Frame) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	w.frameCount++

	if w.dumper != nil {
		path, err := w.dumper.DumpFrame(frame.Pixels, frame.Width, frame.Height, uint64(w.frameCount))
		if err != nil {
			return fmt.Errorf("dumping frame %d: %w", w.frameCount, err)
		}
		if path != "" && w.logger != nil {
			w.logger.Info("Frame dumped", log.Int("frame", w.frameCount), log.String("path", path))
		}
	}

	if w.maxFrames > 0 && w.frameCount >= w.maxFrames {
		w.running = false
	}
	return nil
}

// Cleanup releases window resources
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}

// GetFrameCount returns the number of frames rendered
func (w *HeadlessWindow) GetFrameCount() int {
	return w.frameCount
}

// SetDumpInterval changes the frame distance between dumps
func (w *HeadlessWindow) SetDumpInterval(interval uint64) {
	if w.dumper != nil {
		w.dumper.SetDumpInterval(interval)
	}
}
