package system

import (
	"gosms/internal/cpu"
	"gosms/internal/vdp"
)

// CPUState represents a CPU register snapshot
type CPUState struct {
	PC, SP         uint16
	AF, BC, DE, HL uint16
	IX, IY         uint16
	I, R           uint8
	IFF1, IFF2     bool
	IM             cpu.InterruptMode
	Halted         bool
	Cycles         uint64
	Flags          string
}

// CPUState returns the current CPU state
func (s *System) CPUState() CPUState {
	c := s.CPU
	return CPUState{
		PC:     c.PC,
		SP:     c.SP,
		AF:     c.AF(),
		BC:     c.BC(),
		DE:     c.DE(),
		HL:     c.HL(),
		IX:     c.IX,
		IY:     c.IY,
		I:      c.I,
		R:      c.R,
		IFF1:   c.IFF1,
		IFF2:   c.IFF2,
		IM:     c.IM,
		Halted: c.Halted(),
		Cycles: c.Cycles(),
		Flags:  c.FlagsString(),
	}
}

// VDPState represents a VDP snapshot
type VDPState struct {
	Line           int
	VCounter       uint8
	HCounter       uint8
	Status         uint8
	LineMode       vdp.LineMode
	DisplayEnabled bool
	FrameCount     uint64
	Registers      [11]uint8
	Region         Region
}

// VDPState returns the current VDP state without side effects on the status flags
func (s *System) VDPState() VDPState {
	v := s.VDP
	state := VDPState{
		Line:           v.Line(),
		VCounter:       v.VCounter(),
		HCounter:       v.HCounter(),
		Status:         v.Status(),
		LineMode:       v.LineMode(),
		DisplayEnabled: v.DisplayEnabled(),
		FrameCount:     v.FrameCount(),
		Region:         v.Region(),
	}
	for i := range state.Registers {
		state.Registers[i] = v.Register(i)
	}
	return state
}
