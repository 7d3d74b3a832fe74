// Package input implements the Master System control pads.
package input

import (
	"github.com/retroenv/retrogolib/log"
)

// Button represents a control pad button
type Button uint8

const (
	ButtonUp Button = 1 << iota
	ButtonDown
	ButtonLeft
	ButtonRight
	Button1
	Button2
)

// Convenience constants for shorter names used in key mappings
const (
	Up    = ButtonUp
	Down  = ButtonDown
	Left  = ButtonLeft
	Right = ButtonRight
)

const buttonMask = 0x3F

// Controller represents one control pad
type Controller struct {
	// pressed buttons, one bit per Button
	buttons uint8
}

// New creates a new Controller instance
func New() *Controller {
	return &Controller{}
}

// SetButton sets the state of a button
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons sets all button states at once in the order
// Up, Down, Left, Right, 1, 2.
func (c *Controller) SetButtons(buttons [6]bool) {
	c.buttons = 0
	for i, pressed := range buttons {
		if pressed {
			c.buttons |= 1 << i
		}
	}
}

// IsPressed returns true if the button is currently pressed
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&uint8(button) != 0
}

// Buttons returns the pressed button bits
func (c *Controller) Buttons() uint8 {
	return c.buttons & buttonMask
}

// Reset releases all buttons
func (c *Controller) Reset() {
	c.buttons = 0
}

// InputState represents both pads and the console reset button
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller

	reset bool

	logger       *log.Logger
	debugEnabled bool
}

// NewInputState creates a new input state with two controllers
func NewInputState() *InputState {
	return &InputState{
		Controller1: New(),
		Controller2: New(),
	}
}

// Reset releases all buttons
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
	is.reset = false
}

// SetLogger sets the logger used for debug output
func (is *InputState) SetLogger(logger *log.Logger) {
	is.logger = logger
}

// EnableDebug enables logging of port reads
func (is *InputState) EnableDebug(enable bool) {
	is.debugEnabled = enable
}

// SetButtons1 sets all button states for controller 1
func (is *InputState) SetButtons1(buttons [6]bool) {
	is.Controller1.SetButtons(buttons)
}

// SetButtons2 sets all button states for controller 2
func (is *InputState) SetButtons2(buttons [6]bool) {
	is.Controller2.SetButtons(buttons)
}

// SetReset sets the state of the console reset button
func (is *InputState) SetReset(pressed bool) {
	is.reset = pressed
}

// PortA returns the active low byte read from port 0xDC: pad 1 in bits 0-5,
// pad 2 up and down in bits 6-7.
func (is *InputState) PortA() uint8 {
	pressed := is.Controller1.Buttons() | is.Controller2.Buttons()&0x03<<6
	value := ^pressed
	is.trace("port A read", value)
	return value
}

// PortB returns the active low byte read from port 0xDD: pad 2 left, right,
// 1 and 2 in bits 0-3 and reset in bit 4. Bits 5-7 read high.
func (is *InputState) PortB() uint8 {
	pressed := is.Controller2.Buttons() >> 2
	if is.reset {
		pressed |= 0x10
	}
	value := ^pressed
	is.trace("port B read", value)
	return value
}

func (is *InputState) trace(msg string, value uint8) {
	if is.debugEnabled && is.logger != nil {
		is.logger.Debug(msg, log.Hex("value", value))
	}
}
