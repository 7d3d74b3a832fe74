// Package system connects the Master System components and drives them
// frame by frame.
package system

import (
	"errors"
	"fmt"

	"gosms/internal/cartridge"
	"gosms/internal/cpu"
	"gosms/internal/input"
	"gosms/internal/iodevice"
	"gosms/internal/memory"
	"gosms/internal/vdp"

	"github.com/retroenv/retrogolib/log"
)

// clock ratios between the Z80, the master clock and the VDP
const (
	machinePerCPUCycle = 3
	machinePerVDPCycle = 2
)

// State is the lifecycle state of the console
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// ErrInvalidGame is returned when a cartridge image can not be used.
var ErrInvalidGame = errors.New("invalid game image")

// FrameResult describes the work done by one Tick.
type FrameResult struct {
	// Z80 cycles executed
	Cycles int
	// VBlank is set when the VDP finished the active display
	VBlank bool
	// CapReached is set when the frame ended on the cycle limit instead
	CapReached bool
}

// Option configures a System
type Option func(*System)

// WithRegion forces the timing standard instead of detecting it from the cartridge.
func WithRegion(region Region) Option {
	return func(s *System) {
		s.forcedRegion = &region
	}
}

// System connects all Master System components together
type System struct {
	// Core components
	CPU    *cpu.CPU
	VDP    *vdp.VDP
	Memory *memory.Memory
	IO     *iodevice.IODevice
	Input  *input.InputState

	logger *log.Logger

	state        State
	rom          *cartridge.GameRom
	info         SystemInfo
	forcedRegion *Region

	// machine cycles not yet handed to the VDP
	vdpRemainder int
	totalCycles  uint64
}

// New creates a new idle system with all components wired together
func New(logger *log.Logger, options ...Option) *System {
	s := &System{
		VDP:    vdp.New(NTSC),
		Memory: memory.New(),
		Input:  input.NewInputState(),
		logger: logger,
		info:   NewSystemInfo(NTSC),
	}
	for _, option := range options {
		option(s)
	}

	s.IO = iodevice.New(s.VDP, s.Input)
	s.CPU = cpu.New(s.Memory)
	s.CPU.SetPortBus(s.IO)

	s.CPU.SetLogger(logger)
	s.VDP.SetLogger(logger)
	s.IO.SetLogger(logger)
	s.Input.SetLogger(logger)

	if s.forcedRegion != nil {
		s.info = NewSystemInfo(*s.forcedRegion)
		s.VDP.SetRegion(*s.forcedRegion)
	}
	return s
}

// LoadGame loads a cartridge image from disk and starts it
func (s *System) LoadGame(path string) error {
	rom, err := cartridge.LoadFromFile(path)
	if err != nil {
		s.unload()
		return fmt.Errorf("%w: %s: %w", ErrInvalidGame, path, err)
	}
	return s.load(rom)
}

// LoadGameData loads a cartridge image from memory and starts it
func (s *System) LoadGameData(data []byte) error {
	rom := cartridge.New(data)
	if !rom.IsValid() {
		s.unload()
		return fmt.Errorf("%w: %w", ErrInvalidGame, rom.Err())
	}
	return s.load(rom)
}

func (s *System) load(rom *cartridge.GameRom) error {
	s.unload()

	region := NTSC
	switch {
	case s.forcedRegion != nil:
		region = *s.forcedRegion
	case !IsNTSC(rom):
		region = PAL
	}
	s.info = NewSystemInfo(region)
	s.VDP.SetRegion(region)

	if err := s.CPU.LoadGame(rom); err != nil {
		s.unload()
		return fmt.Errorf("%w: %w", ErrInvalidGame, err)
	}

	if !rom.BankCountIsPowerOfTwo() {
		s.logger.Warn("Cartridge bank count is not a power of two, page selection wraps modulo the bank count",
			log.Int("banks", rom.BankCount()))
	}

	s.rom = rom
	s.state = Running
	s.logger.Info("Game loaded",
		log.String("region", region.String()),
		log.String("mapper", rom.MapperKind().String()),
		log.String("cartridge_region", rom.Region().String()),
		log.Int("size", rom.Size()),
		log.Int("banks", rom.BankCount()))
	return nil
}

// unload resets all components and returns to the idle state
func (s *System) unload() {
	s.state = Idle
	s.rom = nil
	s.Memory.Reset()
	s.CPU.Reset()
	s.VDP.Reset()
	s.vdpRemainder = 0
	s.totalCycles = 0
}

// Reset restarts the loaded game
func (s *System) Reset() error {
	if s.rom == nil {
		return nil
	}
	return s.load(s.rom)
}

// Tick runs the CPU and VDP until the VDP enters vblank or a frame worth of
// cycles has been executed. An idle system returns immediately.
func (s *System) Tick() (FrameResult, error) {
	var result FrameResult
	if s.state != Running {
		return result, nil
	}

	for {
		cycles, err := s.CPU.Tick()
		if err != nil {
			s.totalCycles += uint64(result.Cycles)
			return result, fmt.Errorf("frame %d: %w", s.VDP.FrameCount(), err)
		}
		result.Cycles += cycles

		machine := cycles*machinePerCPUCycle + s.vdpRemainder
		s.vdpRemainder = machine % machinePerVDPCycle
		if s.VDP.Tick(machine / machinePerVDPCycle) {
			result.VBlank = true
			break
		}

		if result.Cycles >= s.info.MaxCyclesPerFrame {
			result.CapReached = true
			break
		}
	}

	s.totalCycles += uint64(result.Cycles)
	return result, nil
}

// State returns the lifecycle state
func (s *System) State() State {
	return s.state
}

// Game returns the loaded cartridge or nil when idle
func (s *System) Game() *cartridge.GameRom {
	return s.rom
}

// SystemInfo returns the timing constants of the loaded game
func (s *System) SystemInfo() SystemInfo {
	return s.info
}

// Framebuffer returns the RGB24 pixels of the active display
func (s *System) Framebuffer() []uint8 {
	return s.VDP.Framebuffer()
}

// Width returns the framebuffer width in pixels
func (s *System) Width() int {
	return vdp.Width
}

// Height returns the framebuffer height in pixels
func (s *System) Height() int {
	return s.VDP.ActiveHeight()
}

// FrameCount returns the number of frames completed since the game was loaded
func (s *System) FrameCount() uint64 {
	return s.VDP.FrameCount()
}

// CycleCount returns the Z80 cycles executed since the game was loaded
func (s *System) CycleCount() uint64 {
	return s.totalCycles
}

// Joypad returns the control pad state read through the I/O ports
func (s *System) Joypad() *input.InputState {
	return s.Input
}

// EnableCPUDebug enables CPU instruction tracing and loop detection
func (s *System) EnableCPUDebug(enable bool) {
	s.CPU.EnableDebugLogging(enable)
	s.CPU.EnableLoopDetection(enable)
}

// EnableInputDebug enables logging of joypad port reads
func (s *System) EnableInputDebug(enable bool) {
	s.Input.EnableDebug(enable)
}
