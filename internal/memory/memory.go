// Package memory implements the Master System address space and cartridge mappers.
package memory

import (
	"errors"
	"fmt"

	"gosms/internal/cartridge"
)

const (
	// Size of the flat CPU address space
	Size = 0x10000
	// UnbankedEnd is the first address served through the mapper
	UnbankedEnd = 0x0400
	// RAMStart is the start of the 8KB work RAM
	RAMStart = 0xC000
	// MirrorStart is the start of the work RAM mirror
	MirrorStart = 0xE000
	// CartridgeRAMPageSize is the size of one cartridge RAM page
	CartridgeRAMPageSize = 0x2000
	// maxInitialCopy limits how much of the image is copied on load
	maxInitialCopy = 0xC000
)

// Control bytes of the Sega mapper
const (
	RAMSelectRegister uint16 = 0xFFFC
	Slot0Register     uint16 = 0xFFFD
	Slot1Register     uint16 = 0xFFFE
	Slot2Register     uint16 = 0xFFFF
)

var (
	// ErrInvalidROM is returned when loading a cartridge whose header did not parse.
	ErrInvalidROM = errors.New("invalid cartridge")
	// ErrUnsupportedMapper is returned for a mapper kind with no implementation.
	ErrUnsupportedMapper = errors.New("unsupported mapper")
)

// Mapper translates writes into the live address array. Implementations
// never own memory, they only reference the arrays held by Memory.
type Mapper interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	Kind() cartridge.MapperKind
	// Page returns the ROM page mapped into slot 0, 1 or 2.
	Page(slot int) int
}

// Memory represents the 64KB Master System memory map
type Memory struct {
	data [Size]uint8

	// battery-less cartridge RAM, two 8KB pages
	cartRAM [2][CartridgeRAMPageSize]uint8

	mapper Mapper
}

// New creates a new Memory instance with no cartridge inserted
func New() *Memory {
	return &Memory{}
}

// Reset clears the address space and cartridge RAM and removes the mapper
func (m *Memory) Reset() {
	m.data = [Size]uint8{}
	m.cartRAM = [2][CartridgeRAMPageSize]uint8{}
	m.mapper = nil
}

// LoadRom resets memory, copies the start of the image into the address
// space and installs the mapper the cartridge requires.
func (m *Memory) LoadRom(rom *cartridge.GameRom) error {
	if rom == nil || !rom.IsValid() {
		return ErrInvalidROM
	}

	m.Reset()
	image := rom.Data()
	n := len(image)
	if n > maxInitialCopy {
		n = maxInitialCopy
	}
	copy(m.data[:], image[:n])

	switch rom.MapperKind() {
	case cartridge.MapperRomOnly:
		m.mapper = newRomOnly(&m.data)
	case cartridge.MapperSegaBanked:
		m.mapper = newSegaBanked(&m.data, &m.cartRAM, image, rom.BankCount())
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedMapper, rom.MapperKind())
	}
	return nil
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) uint8 {
	if address < UnbankedEnd || m.mapper == nil {
		return m.data[address]
	}
	return m.mapper.Read(address)
}

// Write writes a byte to the given address. Without a cartridge every write is dropped.
func (m *Memory) Write(address uint16, value uint8) {
	if m.mapper == nil {
		return
	}
	m.mapper.Write(address, value)
}

// Mapper returns the active mapper, nil when no cartridge is loaded
func (m *Memory) Mapper() Mapper {
	return m.mapper
}

// SetBytes places bytes directly into the address space, bypassing the mapper
func (m *Memory) SetBytes(address uint16, data []uint8) {
	for i, b := range data {
		m.data[address+uint16(i)] = b
	}
}

// CartridgeRAM returns one page of the cartridge RAM backing store
func (m *Memory) CartridgeRAM(page int) []uint8 {
	return m.cartRAM[page&1][:]
}

// mirrorRAM keeps the 0xC000 and 0xE000 windows identical. The four mapper
// control bytes are not mirrored back down.
func mirrorRAM(data *[Size]uint8, address uint16, value uint8) {
	switch {
	case address >= RAMStart && address < MirrorStart:
		data[address+0x2000] = value
	case address >= MirrorStart && address < RAMSelectRegister:
		data[address-0x2000] = value
	}
}
