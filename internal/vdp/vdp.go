// Package vdp implements the Sega Master System Video Display Processor.
package vdp

import (
	"github.com/retroenv/retrogolib/log"
)

// Screen geometry
const (
	Width     = 256
	MaxHeight = 240

	vramSize = 0x4000
	cramSize = 32
)

// Region selects the video timing standard.
type Region uint8

const (
	NTSC Region = iota
	PAL
)

func (r Region) String() string {
	if r == PAL {
		return "PAL"
	}
	return "NTSC"
}

// LinesPerFrame returns the total scanline count of the region.
func (r Region) LinesPerFrame() int {
	if r == PAL {
		return 313
	}
	return 262
}

// command codes held in the top two bits of the command word
const (
	codeVRAMRead  = 0
	codeVRAMWrite = 1
	codeRegister  = 2
	codeCRAMWrite = 3

	lastRegister = 10
)

// Status register bits
const (
	StatusFrameInterrupt  uint8 = 0x80
	StatusSpriteOverflow  uint8 = 0x40
	StatusSpriteCollision uint8 = 0x20
)

// power-on register values
var resetRegisters = [16]uint8{
	0: 0x36,
	1: 0x80,
	2: 0xFF,
	3: 0x07,
	4: 0xFF,
	5: 0xFF,
	10: 0xFF,
}

// VDP represents the Master System video chip
type VDP struct {
	registers [16]uint8
	vram      [vramSize]uint8
	cram      [cramSize]uint8

	// 14 bit address plus 2 bit code
	commandWord   uint16
	secondPending bool
	readBuffer    uint8
	status        uint8

	region   Region
	lineMode LineMode
	// set when register 0 or 1 changed since lineMode was derived
	lineModeDirty bool
	vcounter      []uint8

	// horizontal accumulator in master clock units
	hcount     int
	line       int
	frameCount uint64

	framebuffer [Width * MaxHeight * 3]uint8

	frameCompleteCallback func()
	logger                *log.Logger
}

// New creates a new VDP for the given region
func New(region Region) *VDP {
	v := &VDP{region: region}
	v.Reset()
	return v
}

// Reset restores the power-on state
func (v *VDP) Reset() {
	v.registers = resetRegisters
	v.vram = [vramSize]uint8{}
	v.cram = [cramSize]uint8{}
	v.commandWord = 0
	v.secondPending = false
	v.readBuffer = 0
	v.status = 0
	v.hcount = 0
	v.line = 0
	v.frameCount = 0
	v.framebuffer = [Width * MaxHeight * 3]uint8{}
	v.lineModeDirty = true
	v.updateLineMode()
}

// SetRegion switches between NTSC and PAL timing
func (v *VDP) SetRegion(region Region) {
	v.region = region
	v.lineModeDirty = true
	v.updateLineMode()
	if v.line >= region.LinesPerFrame() {
		v.line = 0
	}
}

// Region returns the active timing standard
func (v *VDP) Region() Region {
	return v.region
}

// SetLogger sets the logger used for diagnostics
func (v *VDP) SetLogger(logger *log.Logger) {
	v.logger = logger
}

// SetFrameCompleteCallback sets a function called whenever vblank starts
func (v *VDP) SetFrameCompleteCallback(callback func()) {
	v.frameCompleteCallback = callback
}

// WriteControl handles a write to the control port
func (v *VDP) WriteControl(value uint8) {
	if !v.secondPending {
		v.commandWord = v.commandWord&0xFF00 | uint16(value)
		v.secondPending = true
		return
	}

	v.secondPending = false
	v.commandWord = v.commandWord&0x00FF | uint16(value)<<8

	switch v.Code() {
	case codeVRAMRead:
		v.readBuffer = v.vram[v.AddressRegister()]
		v.incrementAddress()

	case codeRegister:
		v.writeRegister(int(value&0x0F), uint8(v.commandWord))
	}
}

func (v *VDP) writeRegister(index int, value uint8) {
	if index > lastRegister {
		if v.logger != nil {
			v.logger.Debug("Ignoring write to unused VDP register",
				log.Int("register", index), log.Hex("value", value))
		}
		return
	}
	v.registers[index] = value
	if index == 0 || index == 1 {
		v.lineModeDirty = true
	}
}

// ReadControl returns the status register and clears its flags
func (v *VDP) ReadControl() uint8 {
	status := v.status
	v.status = 0
	v.secondPending = false
	return status
}

// WriteData handles a write to the data port
func (v *VDP) WriteData(value uint8) {
	v.secondPending = false
	if v.Code() == codeCRAMWrite {
		v.cram[v.AddressRegister()&(cramSize-1)] = value
	} else {
		v.vram[v.AddressRegister()] = value
	}
	v.readBuffer = value
	v.incrementAddress()
}

// ReadData returns the read buffer and refills it from VRAM
func (v *VDP) ReadData() uint8 {
	v.secondPending = false
	value := v.readBuffer
	v.readBuffer = v.vram[v.AddressRegister()]
	v.incrementAddress()
	return value
}

// incrementAddress advances the command word. When the low 10 bits are
// clear the whole word becomes 0xC000.
func (v *VDP) incrementAddress() {
	if v.commandWord&0x3FF != 0 {
		v.commandWord++
	} else {
		v.commandWord = 0xC000
	}
}

// CommandWord returns the full 16 bit command word
func (v *VDP) CommandWord() uint16 {
	return v.commandWord
}

// AddressRegister returns the 14 bit address register
func (v *VDP) AddressRegister() uint16 {
	return v.commandWord & 0x3FFF
}

// Code returns the 2 bit code register
func (v *VDP) Code() uint8 {
	return uint8(v.commandWord >> 14)
}

// Register returns the value of register i
func (v *VDP) Register(i int) uint8 {
	return v.registers[i&0x0F]
}

// VRAM returns the byte at a VRAM address
func (v *VDP) VRAM(address uint16) uint8 {
	return v.vram[address&(vramSize-1)]
}

// CRAM returns a palette entry
func (v *VDP) CRAM(index int) uint8 {
	return v.cram[index&(cramSize-1)]
}

// Status returns the status register without clearing it
func (v *VDP) Status() uint8 {
	return v.status
}

// SetSpriteOverflow raises the sprite overflow status flag
func (v *VDP) SetSpriteOverflow() {
	v.status |= StatusSpriteOverflow
}

// SetSpriteCollision raises the sprite collision status flag
func (v *VDP) SetSpriteCollision() {
	v.status |= StatusSpriteCollision
}

// DisplayEnabled reports whether register 1 enables the display
func (v *VDP) DisplayEnabled() bool {
	return v.registers[1]&0x40 != 0
}

// Framebuffer returns the RGB24 pixels of the active display area
func (v *VDP) Framebuffer() []uint8 {
	return v.framebuffer[:Width*v.ActiveHeight()*3]
}

// Line returns the current scanline
func (v *VDP) Line() int {
	return v.line
}

// FrameCount returns the number of frames completed since reset
func (v *VDP) FrameCount() uint64 {
	return v.frameCount
}
