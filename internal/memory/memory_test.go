package memory

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"gosms/internal/cartridge"
)

func loadMemory(t *testing.T, builder *cartridge.TestROMBuilder) *Memory {
	t.Helper()
	mem := New()
	assert.NoError(t, mem.LoadRom(builder.BuildROM()))
	return mem
}

func TestLoadRomCopiesImage(t *testing.T) {
	mem := loadMemory(t, cartridge.NewTestROMBuilder().WithCode(0, 0x3E, 0x42).WithCode(0x7000, 0xAB))

	assert.Equal(t, uint8(0x3E), mem.Read(0x0000))
	assert.Equal(t, uint8(0x42), mem.Read(0x0001))
	assert.Equal(t, uint8(0xAB), mem.Read(0x7000))
	assert.Equal(t, cartridge.MapperRomOnly, mem.Mapper().Kind())
}

func TestLoadRomInvalid(t *testing.T) {
	mem := New()
	err := mem.LoadRom(cartridge.NewTestROMBuilder().WithoutHeader().BuildROM())
	assert.True(t, errors.Is(err, ErrInvalidROM))
	assert.Nil(t, mem.Mapper())
}

func TestLoadRomResets(t *testing.T) {
	mem := loadMemory(t, cartridge.NewTestROMBuilder())
	mem.Write(0xC123, 0x55)
	assert.NoError(t, mem.LoadRom(cartridge.NewTestROMBuilder().BuildROM()))
	assert.Equal(t, uint8(0), mem.Read(0xC123))
}

func TestNoCartridgeDropsWrites(t *testing.T) {
	mem := New()
	mem.Write(0xC000, 0x12)
	assert.Equal(t, uint8(0), mem.Read(0xC000))
}

func TestRAMMirror(t *testing.T) {
	builders := map[string]*cartridge.TestROMBuilder{
		"rom-only": cartridge.NewTestROMBuilder(),
		"sega":     cartridge.NewTestROMBuilder().WithBanks(8, 0xF),
	}

	for name, builder := range builders {
		t.Run(name, func(t *testing.T) {
			mem := loadMemory(t, builder)

			for address := 0xC000; address < 0xE000; address += 0x1FF {
				value := uint8(address >> 3)
				mem.Write(uint16(address), value)
				assert.Equal(t, value, mem.Read(uint16(address)))
				assert.Equal(t, value, mem.Read(uint16(address+0x2000)))
			}

			for address := 0xE000; address < 0xFFFC; address += 0x1FF {
				value := uint8(address>>5) | 1
				mem.Write(uint16(address), value)
				assert.Equal(t, value, mem.Read(uint16(address)))
				assert.Equal(t, value, mem.Read(uint16(address-0x2000)))
			}

			mem.Write(0xDFFB, 0x77)
			assert.Equal(t, uint8(0x77), mem.Read(0xFFFB))
			mem.Write(0xFFFB, 0x78)
			assert.Equal(t, uint8(0x78), mem.Read(0xDFFB))
		})
	}
}

func TestRomOnlyRejectsROMWrites(t *testing.T) {
	mem := loadMemory(t, cartridge.NewTestROMBuilder().WithCode(0x1000, 0x99))
	for _, address := range []uint16{0x0000, 0x03FF, 0x1000, 0x8000, 0xBFFF} {
		before := mem.Read(address)
		mem.Write(address, before+1)
		assert.Equal(t, before, mem.Read(address))
	}
}

func TestSetBytes(t *testing.T) {
	mem := New()
	mem.SetBytes(0x0100, []uint8{1, 2, 3})
	assert.Equal(t, uint8(2), mem.Read(0x0101))
}
