package system

import (
	"time"

	"gosms/internal/cartridge"
	"gosms/internal/vdp"
)

// Region selects NTSC or PAL timing.
type Region = vdp.Region

const (
	NTSC = vdp.NTSC
	PAL  = vdp.PAL
)

// Z80 cycles needed to process one scanline
const cyclesPerLine = 228

// master clock rates in Hz, three times the Z80 clock
const (
	ntscMasterClock = 10738635
	palMasterClock  = 10640679
)

// SystemInfo holds the timing constants of a region. It is computed once
// when a game is loaded.
type SystemInfo struct {
	Region        Region
	MasterClock   int // Hz
	LinesPerFrame int
	FPS           float64

	CyclesPerLine     int
	MaxCyclesPerFrame int // Z80 cycles
	FrameTargetTime   time.Duration
}

// NewSystemInfo returns the timing constants for a region.
func NewSystemInfo(region Region) SystemInfo {
	info := SystemInfo{
		Region:        region,
		MasterClock:   ntscMasterClock,
		LinesPerFrame: region.LinesPerFrame(),
		CyclesPerLine: cyclesPerLine,
	}
	if region == PAL {
		info.MasterClock = palMasterClock
	}

	info.MaxCyclesPerFrame = info.CyclesPerLine * info.LinesPerFrame
	masterPerFrame := info.MaxCyclesPerFrame * machinePerCPUCycle
	info.FPS = float64(info.MasterClock) / float64(masterPerFrame)
	info.FrameTargetTime = time.Duration(float64(time.Second) / info.FPS)
	return info
}

// IsNTSC reports whether a cartridge expects NTSC timing. The header carries
// no reliable video standard so every cartridge is treated as NTSC.
func IsNTSC(_ *cartridge.GameRom) bool {
	return true
}
