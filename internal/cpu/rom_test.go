package cpu

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"gosms/internal/cartridge"
	"gosms/internal/memory"
)

func TestLoadGameRunsFromResetVector(t *testing.T) {
	rom := cartridge.NewTestROMBuilder().
		WithCode(0x0000, 0x3E, 0x42, 0x76). // LD A,0x42; HALT
		BuildROM()

	mem := memory.New()
	c := New(mem)
	c.A = 0x99
	c.PC = 0x1234
	assert.NoError(t, c.LoadGame(rom))
	assert.Equal(t, uint16(0), c.PC)

	cycles, err := c.Tick()
	assert.NoError(t, err)
	assert.Equal(t, 7, cycles)
	assert.Equal(t, uint8(0x42), c.A)
	assert.Equal(t, uint16(2), c.PC)

	_, err = c.Tick()
	assert.NoError(t, err)
	assert.True(t, c.Halted())
	assert.Equal(t, uint16(2), c.PC)

	_, err = c.Tick()
	assert.NoError(t, err)
	assert.Equal(t, uint16(2), c.PC)
}

func TestLoadGameInvalidROM(t *testing.T) {
	c := New(memory.New())
	err := c.LoadGame(cartridge.NewTestROMBuilder().WithoutHeader().BuildROM())
	assert.True(t, errors.Is(err, memory.ErrInvalidROM))
}

func TestLoadGameNeedsRomLoader(t *testing.T) {
	c := New(NewMockMemory())
	err := c.LoadGame(cartridge.NewTestROMBuilder().BuildROM())
	assert.True(t, errors.Is(err, ErrNoRomLoader))
}

func TestStackInWorkRAM(t *testing.T) {
	rom := cartridge.NewTestROMBuilder().
		WithCode(0x0000,
			0x01, 0xCD, 0xAB, // LD BC,0xABCD
			0xC5, // PUSH BC
			0xE1, // POP HL
		).
		BuildROM()
	mem := memory.New()
	c := New(mem)
	assert.NoError(t, c.LoadGame(rom))

	for i := 0; i < 3; i++ {
		_, err := c.Tick()
		assert.NoError(t, err)
	}
	assert.Equal(t, uint16(0xABCD), c.HL())
	// 0xDFEE and its mirror hold the pushed low byte
	assert.Equal(t, uint8(0xCD), mem.Read(0xDFEE))
	assert.Equal(t, uint8(0xCD), mem.Read(0xFFEE))
}
