package memory

import "gosms/internal/cartridge"

const (
	slotSize   = cartridge.BankSize
	slot1Start = 0x4000
	slot2Start = 0x8000

	ramEnableBit = 1 << 3
	ramPageBit   = 1 << 2
)

// SegaBanked implements the standard Sega mapper: three 16KB slots selected
// through the control bytes at 0xFFFD-0xFFFF, slot 2 optionally backed by
// cartridge RAM via 0xFFFC. The first 1KB of slot 0 never pages.
type SegaBanked struct {
	data    *[Size]uint8
	cartRAM *[2][CartridgeRAMPageSize]uint8
	rom     []uint8

	bankCount  int
	pages      [3]int
	ramEnabled bool
	ramPage    int
}

func newSegaBanked(data *[Size]uint8, cartRAM *[2][CartridgeRAMPageSize]uint8, rom []uint8, bankCount int) *SegaBanked {
	if bankCount < 1 {
		bankCount = 1
	}
	s := &SegaBanked{
		data:      data,
		cartRAM:   cartRAM,
		rom:       rom,
		bankCount: bankCount,
	}
	for slot := range s.pages {
		s.pages[slot] = slot % bankCount
	}
	return s
}

// Read returns the byte at address.
func (s *SegaBanked) Read(address uint16) uint8 {
	return s.data[address]
}

// Write applies a CPU write. ROM-backed areas reject writes.
func (s *SegaBanked) Write(address uint16, value uint8) {
	switch {
	case address < slot2Start:
		return

	case address < RAMStart:
		if !s.ramEnabled {
			return
		}
		// the 8KB page appears twice in the 16KB slot
		offset := address & (CartridgeRAMPageSize - 1)
		s.cartRAM[s.ramPage][offset] = value
		s.data[slot2Start+offset] = value
		s.data[slot2Start+CartridgeRAMPageSize+offset] = value

	default:
		mirrorRAM(s.data, address, value)
		s.data[address] = value

		switch address {
		case RAMSelectRegister:
			s.selectRAM(value)
		case Slot0Register:
			s.selectPage(0, value)
		case Slot1Register:
			s.selectPage(1, value)
		case Slot2Register:
			s.selectPage(2, value)
		}
	}
}

func (s *SegaBanked) selectRAM(value uint8) {
	page := 0
	if value&ramPageBit != 0 {
		page = 1
	}

	if value&ramEnableBit != 0 {
		s.ramEnabled = true
		s.ramPage = page
		ram := s.cartRAM[page][:]
		copy(s.data[slot2Start:], ram)
		copy(s.data[slot2Start+CartridgeRAMPageSize:], ram)
		return
	}

	if s.ramEnabled {
		s.ramEnabled = false
		s.copyPage(slot2Start, s.pages[2]*slotSize, slotSize)
	}
	s.ramPage = page
}

func (s *SegaBanked) selectPage(slot int, value uint8) {
	page := int(value) % s.bankCount
	s.pages[slot] = page

	switch slot {
	case 0:
		s.copyPage(UnbankedEnd, page*slotSize+UnbankedEnd, slotSize-UnbankedEnd)
	case 1:
		s.copyPage(slot1Start, page*slotSize, slotSize)
	case 2:
		if !s.ramEnabled {
			s.copyPage(slot2Start, page*slotSize, slotSize)
		}
	}
}

// copyPage copies from the cartridge image, zero filling whatever lies past its end.
func (s *SegaBanked) copyPage(dst, src, length int) {
	window := s.data[dst : dst+length]
	n := 0
	if src < len(s.rom) {
		n = copy(window, s.rom[src:])
	}
	for i := n; i < length; i++ {
		window[i] = 0
	}
}

// Kind returns cartridge.MapperSegaBanked.
func (s *SegaBanked) Kind() cartridge.MapperKind {
	return cartridge.MapperSegaBanked
}

// Page returns the ROM page selected for a slot.
func (s *SegaBanked) Page(slot int) int {
	return s.pages[slot]
}

// RAMEnabled reports whether slot 2 is backed by cartridge RAM.
func (s *SegaBanked) RAMEnabled() bool {
	return s.ramEnabled
}

// BankCount returns the number of ROM pages.
func (s *SegaBanked) BankCount() int {
	return s.bankCount
}
