// Package iodevice implements the Master System I/O port decoder.
package iodevice

import (
	"gosms/internal/input"
	"gosms/internal/vdp"

	"github.com/retroenv/retrogolib/log"
)

// Port ranges decoded from the top two address bits
const (
	rangeMemoryControl = 0x00
	rangeCounters      = 0x40
	rangeVDP           = 0x80
	rangeJoypad        = 0xC0
)

// IODevice routes CPU port accesses to the VDP and the control pads.
// Only the top two bits and bit 0 of the port number are decoded.
type IODevice struct {
	vdp    *vdp.VDP
	joypad *input.InputState
	logger *log.Logger
}

// New creates a decoder for the given VDP and pads
func New(v *vdp.VDP, joypad *input.InputState) *IODevice {
	return &IODevice{
		vdp:    v,
		joypad: joypad,
	}
}

// SetLogger sets the logger used for unmapped access diagnostics
func (d *IODevice) SetLogger(logger *log.Logger) {
	d.logger = logger
}

// In returns the value read from a port
func (d *IODevice) In(port uint8) uint8 {
	odd := port&0x01 != 0

	switch port & 0xC0 {
	case rangeMemoryControl:
		return 0xFF

	case rangeCounters:
		if odd {
			return d.vdp.HCounter()
		}
		return d.vdp.VCounter()

	case rangeVDP:
		if odd {
			return d.vdp.ReadControl()
		}
		return d.vdp.ReadData()

	default:
		if odd {
			return d.joypad.PortB()
		}
		return d.joypad.PortA()
	}
}

// Out writes a value to a port. Writes to the memory control, PSG and
// joypad ranges are ignored.
func (d *IODevice) Out(port, value uint8) {
	if port&0xC0 != rangeVDP {
		if d.logger != nil {
			d.logger.Debug("Ignoring port write",
				log.Hex("port", port), log.Hex("value", value))
		}
		return
	}

	if port&0x01 != 0 {
		d.vdp.WriteControl(value)
	} else {
		d.vdp.WriteData(value)
	}
}
