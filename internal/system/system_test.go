package system

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gosms/internal/cartridge"
	"gosms/internal/cpu"
	"gosms/internal/input"
	"gosms/internal/vdp"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func newSystem(t *testing.T, options ...Option) *System {
	t.Helper()
	return New(log.NewTestLogger(t), options...)
}

// haltROM loads A with 0x42 and halts.
func haltROM() []byte {
	return cartridge.NewTestROMBuilder().
		WithCode(0, 0x3E, 0x42, 0x76).
		Build()
}

// loopROM enables the display and spins forever.
func loopROM() []byte {
	return cartridge.NewTestROMBuilder().
		WithCode(0,
			0x3E, 0xC0, // LD A,0xC0
			0xD3, 0xBF, // OUT (0xBF),A
			0x3E, 0x81, // LD A,0x81
			0xD3, 0xBF, // OUT (0xBF),A
			0x18, 0xFE, // JR -2
		).
		Build()
}

func TestNewSystemIsIdle(t *testing.T) {
	s := newSystem(t)
	assert.Equal(t, Idle, s.State())
	assert.Nil(t, s.Game())

	result, err := s.Tick()
	assert.NoError(t, err)
	assert.Equal(t, 0, result.Cycles)
	assert.Equal(t, uint64(0), s.CycleCount())
}

func TestLoadGameDataRunsProgram(t *testing.T) {
	s := newSystem(t)
	assert.NoError(t, s.LoadGameData(haltROM()))
	assert.Equal(t, Running, s.State())
	assert.Equal(t, NTSC, s.SystemInfo().Region)

	result, err := s.Tick()
	assert.NoError(t, err)
	assert.True(t, result.VBlank)
	assert.False(t, result.CapReached)

	state := s.CPUState()
	assert.Equal(t, uint16(0x42), state.AF>>8)
	assert.True(t, state.Halted)
	assert.Equal(t, uint16(0x0002), state.PC)
	assert.Equal(t, uint64(1), s.FrameCount())
}

func TestLoadGameFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.sms")
	assert.NoError(t, os.WriteFile(path, haltROM(), 0o644))

	s := newSystem(t)
	assert.NoError(t, s.LoadGame(path))
	assert.Equal(t, Running, s.State())
	assert.Equal(t, cartridge.MapperRomOnly, s.Game().MapperKind())
}

func TestLoadGameInvalid(t *testing.T) {
	s := newSystem(t)

	err := s.LoadGameData(make([]byte, 0x8000))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidGame))
	assert.True(t, errors.Is(err, cartridge.ErrNoHeader))
	assert.Equal(t, Idle, s.State())

	err = s.LoadGame(filepath.Join(t.TempDir(), "missing.sms"))
	assert.True(t, errors.Is(err, ErrInvalidGame))
	assert.Equal(t, Idle, s.State())
}

func TestInvalidReloadReturnsToIdle(t *testing.T) {
	s := newSystem(t)
	assert.NoError(t, s.LoadGameData(haltROM()))
	_, err := s.Tick()
	assert.NoError(t, err)

	assert.Error(t, s.LoadGameData(nil))
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, uint16(0), s.CPUState().PC)
	assert.Equal(t, uint8(0), s.Memory.Read(0x0000))
}

func TestReloadResetsState(t *testing.T) {
	s := newSystem(t)
	assert.NoError(t, s.LoadGameData(haltROM()))
	s.Memory.Write(0xC000, 0x99)
	_, err := s.Tick()
	assert.NoError(t, err)

	assert.NoError(t, s.LoadGameData(loopROM()))
	assert.Equal(t, uint8(0), s.Memory.Read(0xC000))
	assert.Equal(t, uint16(0), s.CPUState().PC)
	assert.False(t, s.CPUState().Halted)
	assert.Equal(t, uint64(0), s.FrameCount())
	assert.Equal(t, 0, s.VDPState().Line)
}

func TestFrameIsBounded(t *testing.T) {
	for _, region := range []Region{NTSC, PAL} {
		s := newSystem(t, WithRegion(region))
		assert.NoError(t, s.LoadGameData(loopROM()))
		info := s.SystemInfo()

		for frame := 0; frame < 3; frame++ {
			result, err := s.Tick()
			assert.NoError(t, err)
			assert.True(t, result.VBlank)
			// the frame may overrun by at most one instruction
			assert.True(t, result.Cycles < info.MaxCyclesPerFrame+23)
		}
		assert.True(t, s.VDPState().DisplayEnabled)
		assert.Equal(t, vdp.LineMode192, s.VDPState().LineMode)
	}
}

func TestCycleCapEndsFrame(t *testing.T) {
	s := newSystem(t)
	assert.NoError(t, s.LoadGameData(loopROM()))
	s.info.MaxCyclesPerFrame = 1000

	result, err := s.Tick()
	assert.NoError(t, err)
	assert.True(t, result.CapReached)
	assert.False(t, result.VBlank)
	assert.True(t, result.Cycles >= 1000)
	assert.True(t, result.Cycles < 1000+23)
}

func TestVDPClockConversion(t *testing.T) {
	// a run of 7 cycle LD A,n instructions leaves half a VDP cycle after
	// every instruction, which must be carried into the next one
	code := make([]byte, 0x4000)
	for i := range code {
		code[i] = 0x3E
	}
	s := newSystem(t)
	assert.NoError(t, s.LoadGameData(cartridge.NewTestROMBuilder().WithCode(0, code...).Build()))

	result, err := s.Tick()
	assert.NoError(t, err)
	assert.True(t, result.VBlank)
	assert.Equal(t, 6254*7, result.Cycles)
	assert.Equal(t, uint16(6254*2), s.CPUState().PC)
}

func TestOpcodeErrorStopsFrame(t *testing.T) {
	s := newSystem(t)
	rom := cartridge.NewTestROMBuilder().
		WithCode(0, 0x00, 0xED, 0x00).
		Build()
	assert.NoError(t, s.LoadGameData(rom))

	_, err := s.Tick()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, cpu.ErrUnimplementedOpcode))

	var opErr *cpu.OpcodeError
	assert.True(t, errors.As(err, &opErr))
	assert.Equal(t, uint16(0x0001), opErr.PC)
	assert.Equal(t, uint64(4), s.CycleCount())
}

func TestForcedRegion(t *testing.T) {
	s := newSystem(t, WithRegion(PAL))
	assert.Equal(t, PAL, s.SystemInfo().Region)
	assert.NoError(t, s.LoadGameData(haltROM()))
	assert.Equal(t, PAL, s.VDP.Region())
	assert.Equal(t, 313, s.SystemInfo().LinesPerFrame)
}

func TestSystemInfo(t *testing.T) {
	ntsc := NewSystemInfo(NTSC)
	assert.Equal(t, 228, ntsc.CyclesPerLine)
	assert.Equal(t, 262, ntsc.LinesPerFrame)
	assert.Equal(t, 228*262, ntsc.MaxCyclesPerFrame)
	assert.True(t, ntsc.FPS > 59.9 && ntsc.FPS < 60.0)
	assert.Equal(t, int64(16688), ntsc.FrameTargetTime.Microseconds())

	pal := NewSystemInfo(PAL)
	assert.Equal(t, 228*313, pal.MaxCyclesPerFrame)
	assert.True(t, pal.FPS > 49.6 && pal.FPS < 49.8)
}

func TestDimensions(t *testing.T) {
	s := newSystem(t)
	assert.Equal(t, 256, s.Width())
	assert.Equal(t, 192, s.Height())
	assert.Len(t, s.Framebuffer(), 256*192*3)
}

func TestJoypadWiredToPorts(t *testing.T) {
	s := newSystem(t)
	rom := cartridge.NewTestROMBuilder().
		WithCode(0, 0xDB, 0xDC, 0x76). // IN A,(0xDC); HALT
		Build()
	assert.NoError(t, s.LoadGameData(rom))
	s.Joypad().Controller1.SetButton(input.ButtonUp, true)

	_, err := s.Tick()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0xFE), s.CPUState().AF>>8)
}
