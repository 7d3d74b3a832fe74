// Package graphics provides an abstraction layer for different rendering backends
package graphics

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
)

// Backend represents a graphics rendering backend (Ebitengine, terminal, etc.)
type Backend interface {
	// Initialize initializes the graphics backend
	Initialize(config Config) error

	// CreateWindow creates a window for rendering
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if running without a display
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window represents a rendering window
type Window interface {
	// SetTitle sets the window title
	SetTitle(title string)

	// GetSize returns window dimensions
	GetSize() (width, height int)

	// ShouldClose returns true if window should close
	ShouldClose() bool

	// PollEvents processes input events
	PollEvents() []InputEvent

	// RenderFrame presents an emulator frame
	RenderFrame(frame Frame) error

	// Cleanup releases window resources
	Cleanup() error
}

// Config contains configuration for graphics backends
type Config struct {
	// Window configuration
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Fullscreen   bool
	VSync        bool

	// Rendering configuration
	Filter string // "nearest", "linear"

	// Headless options
	DumpDir      string
	DumpInterval uint64
	MaxFrames    int

	Logger *log.Logger
	Debug  bool
}

// InputEvent represents an input event from the window
type InputEvent struct {
	Type    InputEventType
	Key     Key
	Button  Button
	Pressed bool
}

// InputEventType represents the type of input event
type InputEventType int

const (
	InputEventTypeKey InputEventType = iota
	InputEventTypeButton
	InputEventTypeQuit
)

// Key represents keyboard keys
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeySpace
	KeyBackspace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyW
	KeyA
	KeyS
	KeyD
	KeyZ
	KeyX
	KeyN
	KeyM
	KeyP
	KeyF5
	KeyF12
)

// Button represents control pad and console buttons
type Button int

const (
	ButtonUnknown Button = iota
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
	Button1
	Button2
	// Player 2 control pad
	Button2Up
	Button2Down
	Button2Left
	Button2Right
	Button2One
	Button2Two
	// Console reset button
	ButtonReset
)

var keyButtons = map[Key]Button{
	KeyUp:        ButtonUp,
	KeyDown:      ButtonDown,
	KeyLeft:      ButtonLeft,
	KeyRight:     ButtonRight,
	KeyZ:         Button1,
	KeyX:         Button2,
	KeyW:         Button2Up,
	KeyS:         Button2Down,
	KeyA:         Button2Left,
	KeyD:         Button2Right,
	KeyN:         Button2One,
	KeyM:         Button2Two,
	KeyBackspace: ButtonReset,
}

// ButtonForKey returns the pad button mapped to a keyboard key
func ButtonForKey(key Key) (Button, bool) {
	button, ok := keyButtons[key]
	return button, ok
}

// keyEvent converts a key transition into an input event, reporting mapped
// keys as button events.
func keyEvent(key Key, pressed bool) InputEvent {
	if button, ok := ButtonForKey(key); ok {
		return InputEvent{Type: InputEventTypeButton, Key: key, Button: button, Pressed: pressed}
	}
	return InputEvent{Type: InputEventTypeKey, Key: key, Pressed: pressed}
}

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine, "":
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	default:
		return nil, fmt.Errorf("unknown graphics backend %q", backendType)
	}
}

// AsEbitengineWindow tries to cast a Window to EbitengineWindow
func AsEbitengineWindow(window Window) (*EbitengineWindow, bool) {
	if ebitengineWindow, ok := window.(*EbitengineWindow); ok {
		return ebitengineWindow, true
	}
	return nil, false
}
