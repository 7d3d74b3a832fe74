package app

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"gosms/internal/debug"
	"gosms/internal/graphics"
	"gosms/internal/input"
	"gosms/internal/system"

	"github.com/retroenv/retrogolib/log"
)

// ErrNoGame is returned when running the application without a loaded game.
var ErrNoGame = errors.New("no game loaded")

const windowTitle = "gosms"

// Application represents the emulator host application
type Application struct {
	system *system.System

	// Graphics backend
	graphicsBackend graphics.Backend
	window          graphics.Window
	videoProcessor  *graphics.VideoProcessor

	config   *Config
	logger   *log.Logger
	emulator *Emulator
	states   *StateManager

	running     bool
	initialized bool
	romPath     string

	// FPS tracking
	startTime       time.Time
	lastFPSTime     time.Time
	framesSinceLast uint64
	currentFPS      float64
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// New creates the application with the system and graphics backend
// selected by the configuration.
func New(config *Config, logger *log.Logger) (*Application, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if err := config.createDirectories(); err != nil {
		return nil, &ApplicationError{Component: "config", Operation: "directory setup", Err: err}
	}

	app := &Application{
		config: config,
		logger: logger,
		states: NewStateManager(config.Paths.Dumps),
	}

	var options []system.Option
	region, err := ParseRegion(config.Emulation.Region)
	if err != nil {
		return nil, err
	}
	if region != nil {
		options = append(options, system.WithRegion(*region))
	}

	app.system = system.New(logger, options...)
	app.system.EnableCPUDebug(config.Debug.CPUTracing)
	app.system.EnableInputDebug(config.Debug.InputDebugging)
	app.emulator = NewEmulator(app.system, config)

	if err := app.initializeGraphicsBackend(); err != nil {
		return nil, &ApplicationError{Component: "graphics", Operation: "backend setup", Err: err}
	}

	app.initialized = true
	return app, nil
}

// initializeGraphicsBackend creates the configured backend and its window
func (app *Application) initializeGraphicsBackend() error {
	backendType := graphics.BackendType(app.config.Video.Backend)
	backend, err := graphics.CreateBackend(backendType)
	if err != nil {
		return err
	}

	width, height := app.config.Window.Width, app.config.Window.Height
	graphicsConfig := graphics.Config{
		WindowTitle:  windowTitle,
		WindowWidth:  width,
		WindowHeight: height,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Video.VSync,
		Filter:       app.config.Video.Filter,
		MaxFrames:    app.config.Emulation.Frames,
		DumpInterval: uint64(app.config.Debug.DumpInterval),
		Logger:       app.logger,
		Debug:        app.config.Debug.LogLevel == "debug",
	}
	if app.config.Debug.DumpFrames {
		graphicsConfig.DumpDir = app.config.Paths.Dumps
	}

	if err := backend.Initialize(graphicsConfig); err != nil {
		if backendType != graphics.BackendEbitengine {
			return err
		}

		app.logger.Warn("Ebitengine backend failed, falling back to headless mode", log.Err(err))
		backend = graphics.NewHeadlessBackend()
		if err := backend.Initialize(graphicsConfig); err != nil {
			return err
		}
	}
	app.graphicsBackend = backend

	app.window, err = backend.CreateWindow(graphicsConfig.WindowTitle, width, height)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}

	app.videoProcessor = graphics.NewVideoProcessor(
		app.config.Video.Brightness,
		app.config.Video.Contrast,
		app.config.Video.Saturation,
	)
	return nil
}

// LoadROM loads a cartridge image and starts emulation
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	if err := app.system.LoadGame(romPath); err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}
	app.romPath = romPath

	info := app.system.SystemInfo()
	app.window.SetTitle(fmt.Sprintf("%s - %s", windowTitle, filepath.Base(romPath)))
	if ebitengineWindow, ok := graphics.AsEbitengineWindow(app.window); ok {
		ebitengineWindow.SetTicksPerSecond(int(math.Round(info.FPS)))
	}

	app.emulator.Reset()
	app.emulator.Start()
	return nil
}

// Run starts the main application loop and returns when the window closes,
// the frame limit is reached or emulation fails.
func (app *Application) Run() error {
	if !app.initialized {
		return errors.New("application not initialized")
	}
	if app.system.State() != system.Running {
		return ErrNoGame
	}

	app.running = true
	app.startTime = time.Now()
	app.lastFPSTime = app.startTime
	app.logger.Debug("Starting emulation", log.String("backend", app.graphicsBackend.GetName()))

	if ebitengineWindow, ok := graphics.AsEbitengineWindow(app.window); ok {
		ebitengineWindow.SetEmulatorUpdateFunc(app.step)
		err := ebitengineWindow.Run()
		app.running = false
		return err
	}

	for app.running {
		if err := app.step(); err != nil {
			app.running = false
			return err
		}
		app.emulator.WaitForNextFrame()
	}
	return nil
}

// step handles input, emulates one frame and presents it
func (app *Application) step() error {
	app.processInput()
	if !app.running {
		return app.window.Cleanup()
	}

	if err := app.emulator.Update(); err != nil {
		return &ApplicationError{Component: "emulator", Operation: "frame", Err: err}
	}

	if err := app.render(); err != nil {
		return &ApplicationError{Component: "graphics", Operation: "render", Err: err}
	}
	app.updateFPS(time.Now())

	if app.window.ShouldClose() {
		app.Stop()
	}
	return nil
}

// processInput applies window events to the joypads and host functions
func (app *Application) processInput() {
	for _, event := range app.window.PollEvents() {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			app.Stop()

		case graphics.InputEventTypeButton:
			app.applyButton(event.Button, event.Pressed)

		case graphics.InputEventTypeKey:
			if event.Pressed {
				app.handleKeyInput(event.Key)
			}
		}
	}
}

// applyButton updates the joypad state for a pressed or released button
func (app *Application) applyButton(button graphics.Button, pressed bool) {
	joypad := app.system.Joypad()
	if button == graphics.ButtonReset {
		joypad.SetReset(pressed)
		return
	}

	pad, padButton, ok := joypadButton(button)
	if !ok {
		return
	}
	controller := joypad.Controller1
	if pad == 2 {
		controller = joypad.Controller2
	}
	controller.SetButton(padButton, pressed)
}

// joypadButton maps a graphics button to a control pad and its button
func joypadButton(button graphics.Button) (pad int, padButton input.Button, ok bool) {
	switch button {
	case graphics.ButtonUp:
		return 1, input.ButtonUp, true
	case graphics.ButtonDown:
		return 1, input.ButtonDown, true
	case graphics.ButtonLeft:
		return 1, input.ButtonLeft, true
	case graphics.ButtonRight:
		return 1, input.ButtonRight, true
	case graphics.Button1:
		return 1, input.Button1, true
	case graphics.Button2:
		return 1, input.Button2, true
	case graphics.Button2Up:
		return 2, input.ButtonUp, true
	case graphics.Button2Down:
		return 2, input.ButtonDown, true
	case graphics.Button2Left:
		return 2, input.ButtonLeft, true
	case graphics.Button2Right:
		return 2, input.ButtonRight, true
	case graphics.Button2One:
		return 2, input.Button1, true
	case graphics.Button2Two:
		return 2, input.Button2, true
	default:
		return 0, 0, false
	}
}

// handleKeyInput handles host function keys
func (app *Application) handleKeyInput(key graphics.Key) {
	switch key {
	case graphics.KeyEscape:
		app.Stop()

	case graphics.KeyP:
		if app.emulator.TogglePause() {
			app.logger.Info("Emulation paused")
		} else {
			app.logger.Info("Emulation resumed")
		}

	case graphics.KeyF5:
		path, err := app.SaveSnapshot()
		if err != nil {
			app.logger.Error("Saving state snapshot failed", log.Err(err))
			return
		}
		app.logger.Info("State snapshot saved", log.String("path", path))

	case graphics.KeyF12:
		path, err := app.Screenshot()
		if err != nil {
			app.logger.Error("Saving screenshot failed", log.Err(err))
			return
		}
		app.logger.Info("Screenshot saved", log.String("path", path))
	}
}

// render presents the current framebuffer
func (app *Application) render() error {
	frame := graphics.Frame{
		Pixels: app.videoProcessor.Process(app.system.Framebuffer()),
		Width:  app.system.Width(),
		Height: app.system.Height(),
		Status: app.statusLine(),
	}
	return app.window.RenderFrame(frame)
}

func (app *Application) statusLine() string {
	var status string
	if app.config.Video.ShowFPS {
		status = fmt.Sprintf("%s %.1f FPS", app.system.SystemInfo().Region, app.currentFPS)
	}
	if app.emulator.IsPaused() {
		status += " PAUSED"
	}
	return status
}

// updateFPS recomputes the presented frame rate once per second
func (app *Application) updateFPS(now time.Time) {
	app.framesSinceLast++
	elapsed := now.Sub(app.lastFPSTime)
	if elapsed < time.Second {
		return
	}

	app.currentFPS = float64(app.framesSinceLast) / elapsed.Seconds()
	app.framesSinceLast = 0
	app.lastFPSTime = now

	stats := app.emulator.GetPerformanceStats()
	app.logger.Debug("Performance",
		log.String("fps", fmt.Sprintf("%.2f", app.currentFPS)),
		log.String("speed", fmt.Sprintf("%.0f%%", stats.EmulationSpeed)),
		log.String("jitter", stats.FrameJitter.String()),
		log.Int("capped_frames", int(stats.CappedFrames)))
}

// Screenshot saves the current frame as a BMP file
func (app *Application) Screenshot() (string, error) {
	if app.system.State() != system.Running {
		return "", ErrNoGame
	}
	return debug.SaveScreenshot(app.config.Paths.Screenshots,
		app.system.Framebuffer(), app.system.Width(), app.system.Height())
}

// SaveSnapshot writes the machine state to the dump directory
func (app *Application) SaveSnapshot() (string, error) {
	return app.states.SaveSnapshot(app.system, app.romPath)
}

// Stop stops the application
func (app *Application) Stop() {
	app.running = false
}

// Reset restarts the loaded game
func (app *Application) Reset() error {
	if err := app.system.Reset(); err != nil {
		return err
	}
	app.emulator.Reset()
	return nil
}

// IsRunning returns whether the application is running
func (app *Application) IsRunning() bool {
	return app.running
}

// GetFPS returns the measured frame rate
func (app *Application) GetFPS() float64 {
	return app.currentFPS
}

// GetFrameCount returns the number of frames emulated since the game was loaded
func (app *Application) GetFrameCount() uint64 {
	return app.emulator.GetFrameCount()
}

// GetROMPath returns the currently loaded ROM path
func (app *Application) GetROMPath() string {
	return app.romPath
}

// GetConfig returns the application configuration
func (app *Application) GetConfig() *Config {
	return app.config
}

// System returns the emulated console
func (app *Application) System() *system.System {
	return app.system
}

// Cleanup releases all resources and shuts down the application
func (app *Application) Cleanup() error {
	var errs []error

	app.emulator.Stop()
	if app.window != nil {
		errs = append(errs, app.window.Cleanup())
	}
	if app.graphicsBackend != nil {
		errs = append(errs, app.graphicsBackend.Cleanup())
	}

	app.initialized = false
	return errors.Join(errs...)
}
