//go:build !headless

package graphics

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/retroenv/retrogolib/log"
)

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
	game        *EbitengineGame
}

// EbitengineWindow implements the Window interface for Ebitengine
type EbitengineWindow struct {
	backend            *EbitengineBackend
	title              string
	width              int
	height             int
	game               *EbitengineGame
	running            bool
	events             []InputEvent
	emulatorUpdateFunc func() error
}

// EbitengineGame implements ebiten.Game for the emulator
type EbitengineGame struct {
	window       *EbitengineWindow
	logger       *log.Logger
	frameImage   *ebiten.Image
	windowWidth  int
	windowHeight int
	filter       ebiten.Filter

	// Reusable conversion buffer, reallocated when the active display height changes
	imageBuffer *image.RGBA
}

var ebitenKeys = map[ebiten.Key]Key{
	ebiten.KeyEscape:     KeyEscape,
	ebiten.KeyEnter:      KeyEnter,
	ebiten.KeySpace:      KeySpace,
	ebiten.KeyBackspace:  KeyBackspace,
	ebiten.KeyArrowUp:    KeyUp,
	ebiten.KeyArrowDown:  KeyDown,
	ebiten.KeyArrowLeft:  KeyLeft,
	ebiten.KeyArrowRight: KeyRight,
	ebiten.KeyW:          KeyW,
	ebiten.KeyA:          KeyA,
	ebiten.KeyS:          KeyS,
	ebiten.KeyD:          KeyD,
	ebiten.KeyZ:          KeyZ,
	ebiten.KeyX:          KeyX,
	ebiten.KeyN:          KeyN,
	ebiten.KeyM:          KeyM,
	ebiten.KeyP:          KeyP,
	ebiten.KeyF5:         KeyF5,
	ebiten.KeyF12:        KeyF12,
}

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return errors.New("ebitengine backend already initialized")
	}

	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates an Ebitengine window
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, errors.New("backend not initialized")
	}

	game := &EbitengineGame{
		logger:       b.config.Logger,
		windowWidth:  width,
		windowHeight: height,
		filter:       ebiten.FilterNearest,
	}
	if b.config.Filter == "linear" {
		game.filter = ebiten.FilterLinear
	}

	window := &EbitengineWindow{
		backend: b,
		title:   title,
		width:   width,
		height:  height,
		game:    game,
		running: true,
	}
	game.window = window
	b.game = game

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)
	if b.config.Fullscreen {
		ebiten.SetFullscreen(true)
	}

	return window, nil
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false, Ebitengine always opens a window
func (b *EbitengineBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// SetTitle sets the window title
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns the input events collected since the last call
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame uploads an emulator frame to the GPU image drawn by Draw
func (w *EbitengineWindow) RenderFrame(frame Frame) error {
	if w.game == nil {
		return errors.New("game not initialized")
	}

	g := w.game
	img, err := frame.ToRGBA(g.imageBuffer)
	if err != nil {
		return fmt.Errorf("converting frame: %w", err)
	}
	g.imageBuffer = img

	if g.frameImage == nil || g.frameImage.Bounds() != img.Bounds() {
		if g.frameImage != nil {
			g.frameImage.Deallocate()
		}
		g.frameImage = ebiten.NewImage(frame.Width, frame.Height)
	}
	g.frameImage.WritePixels(img.Pix)
	return nil
}

// Cleanup releases window resources
func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Run starts the Ebitengine game loop and blocks until the window closes
func (w *EbitengineWindow) Run() error {
	if w.game == nil {
		return errors.New("game not initialized")
	}
	return ebiten.RunGame(w.game)
}

// SetTicksPerSecond sets how often the emulator update function is called
func (w *EbitengineWindow) SetTicksPerSecond(tps int) {
	ebiten.SetTPS(tps)
}

// ActualFPS returns the measured presentation rate
func (w *EbitengineWindow) ActualFPS() float64 {
	return ebiten.ActualFPS()
}

// SetEmulatorUpdateFunc sets the function called once per Ebitengine tick
func (w *EbitengineWindow) SetEmulatorUpdateFunc(updateFunc func() error) {
	w.emulatorUpdateFunc = updateFunc
}

// Update implements ebiten.Game.Update
func (g *EbitengineGame) Update() error {
	if g.window == nil {
		return nil
	}
	if !g.window.running || ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}

	g.processInput()

	if g.window.emulatorUpdateFunc != nil {
		if err := g.window.emulatorUpdateFunc(); err != nil {
			return err
		}
	}
	if !g.window.running {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game.Draw
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	if g.frameImage == nil {
		return
	}

	bounds := g.frameImage.Bounds()
	frameWidth, frameHeight := float64(bounds.Dx()), float64(bounds.Dy())

	// scale to fit while keeping the aspect ratio, then center
	scale := min(float64(g.windowWidth)/frameWidth, float64(g.windowHeight)/frameHeight)
	offsetX := (float64(g.windowWidth) - frameWidth*scale) / 2
	offsetY := (float64(g.windowHeight) - frameHeight*scale) / 2

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	op.Filter = g.filter
	screen.DrawImage(g.frameImage, op)
}

// Layout implements ebiten.Game.Layout
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}

// processInput converts key transitions of this tick into input events
func (g *EbitengineGame) processInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.window.events = append(g.window.events, InputEvent{
			Type:    InputEventTypeQuit,
			Pressed: true,
		})
	}

	for ebitenKey, key := range ebitenKeys {
		switch {
		case inpututil.IsKeyJustPressed(ebitenKey):
			g.window.events = append(g.window.events, keyEvent(key, true))
		case inpututil.IsKeyJustReleased(ebitenKey):
			g.window.events = append(g.window.events, keyEvent(key, false))
		}
	}

	if g.logger != nil && len(g.window.events) > 0 {
		g.logger.Debug("Input events", log.Int("count", len(g.window.events)))
	}
}
