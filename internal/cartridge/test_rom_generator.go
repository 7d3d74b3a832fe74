package cartridge

import (
	"bytes"
	"fmt"
	"io"
)

// TestROMBuilder builds synthetic cartridge images for tests.
type TestROMBuilder struct {
	banks        int
	sizeCode     uint8
	region       RegionCode
	headerOffset int
	noHeader     bool
	markBanks    bool
	code         map[int][]byte
}

// NewTestROMBuilder returns a builder for a 32KB ROM-only export cartridge.
func NewTestROMBuilder() *TestROMBuilder {
	return &TestROMBuilder{
		banks:        2,
		sizeCode:     0xC,
		region:       RegionSMSExport,
		headerOffset: 0x7FF0,
		code:         make(map[int][]byte),
	}
}

// WithBanks sets the image length in 16KB pages and the header size code.
func (b *TestROMBuilder) WithBanks(banks int, sizeCode uint8) *TestROMBuilder {
	b.banks = banks
	b.sizeCode = sizeCode
	return b
}

// WithRegion sets the header region code.
func (b *TestROMBuilder) WithRegion(region RegionCode) *TestROMBuilder {
	b.region = region
	return b
}

// WithHeaderAt places the header at one of the searched offsets.
func (b *TestROMBuilder) WithHeaderAt(offset int) *TestROMBuilder {
	b.headerOffset = offset
	return b
}

// WithoutHeader omits the signature.
func (b *TestROMBuilder) WithoutHeader() *TestROMBuilder {
	b.noHeader = true
	return b
}

// WithBankMarkers fills every page with its own index so bank switching is observable.
func (b *TestROMBuilder) WithBankMarkers() *TestROMBuilder {
	b.markBanks = true
	return b
}

// WithCode places bytes at an image offset.
func (b *TestROMBuilder) WithCode(offset int, code ...byte) *TestROMBuilder {
	b.code[offset] = append([]byte(nil), code...)
	return b
}

// Build returns the raw image.
func (b *TestROMBuilder) Build() []byte {
	size := b.banks * BankSize
	if size < 0x2000 {
		size = 0x2000
	}
	data := make([]byte, size)

	if b.markBanks {
		for i := range data {
			data[i] = byte(i / BankSize)
		}
	}

	if !b.noHeader && b.headerOffset+16 <= len(data) {
		copy(data[b.headerOffset:], HeaderSignature)
		data[b.headerOffset+15] = byte(b.region)<<4 | b.sizeCode&0x0F
	}

	for offset, code := range b.code {
		copy(data[offset:], code)
	}
	return data
}

// BuildROM parses the built image.
func (b *TestROMBuilder) BuildROM() *GameRom {
	return New(b.Build())
}

// Reader returns the built image as a stream.
func (b *TestROMBuilder) Reader() io.Reader {
	return bytes.NewReader(b.Build())
}

// String describes the builder configuration.
func (b *TestROMBuilder) String() string {
	return fmt.Sprintf("rom(banks=%d size=%X region=%s header=%04X)", b.banks, b.sizeCode, b.region, b.headerOffset)
}
