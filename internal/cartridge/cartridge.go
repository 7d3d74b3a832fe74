// Package cartridge implements ROM loading and header parsing for Sega Master System cartridges.
package cartridge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// BankSize is the size of one switchable ROM page.
const BankSize = 0x4000

// HeaderSignature marks a valid cartridge header.
const HeaderSignature = "TMR SEGA"

// headerOffsets are searched in order; most cartridges place the header at 0x7FF0.
var headerOffsets = [...]int{0x7FF0, 0x3FF0, 0x1FF0}

var (
	// ErrNoHeader is returned when none of the header offsets holds the signature.
	ErrNoHeader = errors.New("cartridge header not found")
	// ErrEmptyImage is returned for a zero length ROM image.
	ErrEmptyImage = errors.New("empty ROM image")
)

// MapperKind selects the memory mapper a cartridge needs.
type MapperKind uint8

const (
	MapperNone MapperKind = iota
	MapperRomOnly
	MapperSegaBanked
)

func (k MapperKind) String() string {
	switch k {
	case MapperRomOnly:
		return "rom-only"
	case MapperSegaBanked:
		return "sega"
	default:
		return "none"
	}
}

// RegionCode is the high nibble of the header size/region byte.
type RegionCode uint8

const (
	RegionSMSJapan        RegionCode = 3
	RegionSMSExport       RegionCode = 4
	RegionGameGearJapan   RegionCode = 5
	RegionGameGearExport  RegionCode = 6
	RegionGameGearInternl RegionCode = 7
)

func (r RegionCode) String() string {
	switch r {
	case RegionSMSJapan:
		return "SMS Japan"
	case RegionSMSExport:
		return "SMS Export"
	case RegionGameGearJapan:
		return "GG Japan"
	case RegionGameGearExport:
		return "GG Export"
	case RegionGameGearInternl:
		return "GG International"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// GameRom is an immutable cartridge image plus the values derived from its header.
type GameRom struct {
	data []byte

	headerOffset  int
	regionAndSize uint8
	bankCount     int
	mapperKind    MapperKind

	err error
}

// LoadFromFile loads a cartridge image from disk.
func LoadFromFile(filename string) (*GameRom, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader reads a complete cartridge image. A parse failure still
// returns the GameRom, with IsValid reporting false.
func LoadFromReader(r io.Reader) (*GameRom, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading ROM image: %w", err)
	}
	rom := New(data)
	return rom, rom.Err()
}

// New parses an in-memory cartridge image. The slice is retained, not copied.
func New(data []byte) *GameRom {
	rom := &GameRom{
		data:         data,
		headerOffset: -1,
	}
	rom.readHeader()
	return rom
}

func (g *GameRom) readHeader() {
	if len(g.data) == 0 {
		g.err = ErrEmptyImage
		return
	}

	offset, ok := findHeader(g.data)
	if !ok {
		g.err = ErrNoHeader
		return
	}
	g.headerOffset = offset
	g.regionAndSize = g.data[offset+15]

	size := g.regionAndSize & 0x0F
	if size >= 0xA && size <= 0xC {
		g.mapperKind = MapperRomOnly
	} else {
		g.mapperKind = MapperSegaBanked
	}

	// unknown size codes fall back to the image length
	declared := g.Size()
	if declared == 0 {
		declared = len(g.data)
	}
	g.bankCount = (declared + BankSize - 1) / BankSize
	if g.bankCount == 0 {
		g.bankCount = 1
	}
}

func findHeader(data []byte) (int, bool) {
	for _, offset := range headerOffsets {
		if offset+16 > len(data) {
			continue
		}
		if bytes.Equal(data[offset:offset+len(HeaderSignature)], []byte(HeaderSignature)) {
			return offset, true
		}
	}
	return 0, false
}

// SizeInBytes maps a header size code to the ROM size it declares.
func SizeInBytes(code uint8) int {
	switch code & 0x0F {
	case 0x0:
		return 256 * 1024
	case 0x1:
		return 512 * 1024
	case 0x2:
		return 1024 * 1024
	case 0xA:
		return 8 * 1024
	case 0xB:
		return 16 * 1024
	case 0xC:
		return 32 * 1024
	case 0xD:
		return 48 * 1024
	case 0xE:
		return 64 * 1024
	case 0xF:
		return 128 * 1024
	default:
		return 0
	}
}

// IsValid reports whether a header was found.
func (g *GameRom) IsValid() bool {
	return g.err == nil
}

// Err returns the parse error, if any.
func (g *GameRom) Err() error {
	return g.err
}

// Data returns the raw image.
func (g *GameRom) Data() []byte {
	return g.data
}

// Len returns the length of the raw image.
func (g *GameRom) Len() int {
	return len(g.data)
}

// HeaderOffset returns the location of the header, or -1.
func (g *GameRom) HeaderOffset() int {
	return g.headerOffset
}

// Size returns the ROM size declared by the header.
func (g *GameRom) Size() int {
	return SizeInBytes(g.regionAndSize)
}

// SizeCode returns the low nibble of the size/region byte.
func (g *GameRom) SizeCode() uint8 {
	return g.regionAndSize & 0x0F
}

// Region returns the region code from the header.
func (g *GameRom) Region() RegionCode {
	return RegionCode(g.regionAndSize >> 4)
}

// BankCount returns the number of 16KB pages.
func (g *GameRom) BankCount() int {
	return g.bankCount
}

// BankCountIsPowerOfTwo reports whether page selection can be done with a mask.
func (g *GameRom) BankCountIsPowerOfTwo() bool {
	return g.bankCount > 0 && g.bankCount&(g.bankCount-1) == 0
}

// MapperKind returns the mapper the cartridge requires.
func (g *GameRom) MapperKind() MapperKind {
	return g.mapperKind
}
