package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gosms/internal/cartridge"
	"gosms/internal/graphics"
	"gosms/internal/input"
	"gosms/internal/system"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	config := NewConfig()
	config.Video.Backend = string(graphics.BackendHeadless)
	config.Emulation.FrameLimit = false
	config.Emulation.Frames = 3
	config.Paths.Screenshots = filepath.Join(dir, "screenshots")
	config.Paths.Dumps = filepath.Join(dir, "dumps")
	return config
}

func writeROM(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game.sms")
	assert.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func newTestApp(t *testing.T, config *Config) *Application {
	t.Helper()
	app, err := New(config, log.NewTestLogger(t))
	assert.NoError(t, err)
	return app
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	config := newTestConfig(t)
	config.Video.Backend = "sdl2"
	_, err := New(config, log.NewTestLogger(t))
	assert.True(t, errors.Is(err, errUnknownBackend))
}

func TestRunWithoutGame(t *testing.T) {
	app := newTestApp(t, newTestConfig(t))
	assert.True(t, errors.Is(app.Run(), ErrNoGame))
}

func TestRunHeadless(t *testing.T) {
	app := newTestApp(t, newTestConfig(t))
	path := writeROM(t, haltROM())

	assert.NoError(t, app.LoadROM(path))
	assert.Equal(t, path, app.GetROMPath())
	assert.NoError(t, app.Run())

	assert.False(t, app.IsRunning())
	assert.Equal(t, uint64(3), app.GetFrameCount())
	assert.Equal(t, uint64(3), app.System().FrameCount())
	assert.NoError(t, app.Cleanup())
}

func TestRunHeadlessDumpsFrames(t *testing.T) {
	config := newTestConfig(t)
	config.Debug.DumpFrames = true
	config.Debug.DumpInterval = 1
	app := newTestApp(t, config)

	assert.NoError(t, app.LoadROM(writeROM(t, haltROM())))
	assert.NoError(t, app.Run())

	entries, err := os.ReadDir(config.Paths.Dumps)
	assert.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRunForcedRegion(t *testing.T) {
	config := newTestConfig(t)
	config.Emulation.Region = "pal"
	app := newTestApp(t, config)

	assert.NoError(t, app.LoadROM(writeROM(t, haltROM())))
	assert.Equal(t, system.PAL, app.System().SystemInfo().Region)
}

func TestLoadROMInvalid(t *testing.T) {
	app := newTestApp(t, newTestConfig(t))
	err := app.LoadROM(writeROM(t, make([]byte, 0x4000)))

	var appErr *ApplicationError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "cartridge", appErr.Component)
	assert.True(t, errors.Is(err, system.ErrInvalidGame))
}

func TestRunStopsOnOpcodeError(t *testing.T) {
	app := newTestApp(t, newTestConfig(t))
	rom := cartridge.NewTestROMBuilder().WithCode(0, 0xED, 0x00).Build()
	assert.NoError(t, app.LoadROM(writeROM(t, rom)))

	err := app.Run()
	assert.Error(t, err)
	assert.ErrorContains(t, err, "emulator")
	assert.False(t, app.IsRunning())
}

func TestJoypadButton(t *testing.T) {
	tests := []struct {
		button graphics.Button
		pad    int
		input  input.Button
		ok     bool
	}{
		{graphics.ButtonUp, 1, input.ButtonUp, true},
		{graphics.Button1, 1, input.Button1, true},
		{graphics.Button2, 1, input.Button2, true},
		{graphics.Button2Left, 2, input.ButtonLeft, true},
		{graphics.Button2Two, 2, input.Button2, true},
		{graphics.ButtonReset, 0, 0, false},
		{graphics.ButtonUnknown, 0, 0, false},
	}

	for _, tt := range tests {
		pad, button, ok := joypadButton(tt.button)
		assert.Equal(t, tt.pad, pad)
		assert.Equal(t, tt.input, button)
		assert.Equal(t, tt.ok, ok)
	}
}

func TestApplyButton(t *testing.T) {
	app := newTestApp(t, newTestConfig(t))
	joypad := app.System().Joypad()

	app.applyButton(graphics.ButtonRight, true)
	assert.Equal(t, uint8(0xF7), joypad.PortA())

	app.applyButton(graphics.Button2Left, true)
	app.applyButton(graphics.ButtonReset, true)
	assert.Equal(t, uint8(0xEE), joypad.PortB())

	app.applyButton(graphics.ButtonRight, false)
	app.applyButton(graphics.Button2Left, false)
	app.applyButton(graphics.ButtonReset, false)
	assert.Equal(t, uint8(0xFF), joypad.PortA())
	assert.Equal(t, uint8(0xFF), joypad.PortB())
}

func TestFunctionKeys(t *testing.T) {
	config := newTestConfig(t)
	app := newTestApp(t, config)
	assert.NoError(t, app.LoadROM(writeROM(t, haltROM())))

	app.handleKeyInput(graphics.KeyF12)
	shots, err := os.ReadDir(config.Paths.Screenshots)
	assert.NoError(t, err)
	assert.Len(t, shots, 1)

	app.handleKeyInput(graphics.KeyF5)
	states, err := app.states.ListSnapshots()
	assert.NoError(t, err)
	assert.Len(t, states, 1)

	app.handleKeyInput(graphics.KeyP)
	assert.True(t, app.emulator.IsPaused())
	assert.Contains(t, app.statusLine(), "PAUSED")

	app.running = true
	app.handleKeyInput(graphics.KeyEscape)
	assert.False(t, app.IsRunning())
}

func TestScreenshotWithoutGame(t *testing.T) {
	app := newTestApp(t, newTestConfig(t))
	_, err := app.Screenshot()
	assert.True(t, errors.Is(err, ErrNoGame))
}

func TestReset(t *testing.T) {
	app := newTestApp(t, newTestConfig(t))
	assert.NoError(t, app.LoadROM(writeROM(t, haltROM())))
	assert.NoError(t, app.emulator.StepFrame())

	assert.NoError(t, app.Reset())
	assert.Equal(t, uint64(0), app.GetFrameCount())
	assert.Equal(t, uint64(0), app.System().FrameCount())
}
