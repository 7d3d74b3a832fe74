package memory

import "gosms/internal/cartridge"

// RomOnly maps cartridges of 32KB or less with no bank switching.
type RomOnly struct {
	data *[Size]uint8
}

func newRomOnly(data *[Size]uint8) *RomOnly {
	return &RomOnly{data: data}
}

// Read returns the byte at address.
func (r *RomOnly) Read(address uint16) uint8 {
	return r.data[address]
}

// Write stores into work RAM and its mirror; ROM writes are dropped.
func (r *RomOnly) Write(address uint16, value uint8) {
	if address < RAMStart {
		return
	}
	mirrorRAM(r.data, address, value)
	r.data[address] = value
}

// Kind returns cartridge.MapperRomOnly.
func (r *RomOnly) Kind() cartridge.MapperKind {
	return cartridge.MapperRomOnly
}

// Page returns the fixed page of a slot.
func (r *RomOnly) Page(slot int) int {
	return slot
}
