package cartridge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestHeaderParsing(t *testing.T) {
	tests := []struct {
		name       string
		builder    *TestROMBuilder
		valid      bool
		offset     int
		size       int
		banks      int
		region     RegionCode
		mapperKind MapperKind
	}{
		{
			name:       "32KB export at 0x7FF0",
			builder:    NewTestROMBuilder(),
			valid:      true,
			offset:     0x7FF0,
			size:       32 * 1024,
			banks:      2,
			region:     RegionSMSExport,
			mapperKind: MapperRomOnly,
		},
		{
			name:       "16KB japan at 0x3FF0",
			builder:    NewTestROMBuilder().WithBanks(1, 0xB).WithHeaderAt(0x3FF0).WithRegion(RegionSMSJapan),
			valid:      true,
			offset:     0x3FF0,
			size:       16 * 1024,
			banks:      1,
			region:     RegionSMSJapan,
			mapperKind: MapperRomOnly,
		},
		{
			name:       "8KB at 0x1FF0",
			builder:    NewTestROMBuilder().WithBanks(0, 0xA).WithHeaderAt(0x1FF0),
			valid:      true,
			offset:     0x1FF0,
			size:       8 * 1024,
			banks:      1,
			region:     RegionSMSExport,
			mapperKind: MapperRomOnly,
		},
		{
			name:       "128KB banked",
			builder:    NewTestROMBuilder().WithBanks(8, 0xF),
			valid:      true,
			offset:     0x7FF0,
			size:       128 * 1024,
			banks:      8,
			region:     RegionSMSExport,
			mapperKind: MapperSegaBanked,
		},
		{
			name:       "256KB banked",
			builder:    NewTestROMBuilder().WithBanks(16, 0x0),
			valid:      true,
			offset:     0x7FF0,
			size:       256 * 1024,
			banks:      16,
			region:     RegionSMSExport,
			mapperKind: MapperSegaBanked,
		},
		{
			name:    "no header",
			builder: NewTestROMBuilder().WithoutHeader(),
			offset:  -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rom := tt.builder.BuildROM()
			assert.Equal(t, tt.valid, rom.IsValid())
			assert.Equal(t, tt.offset, rom.HeaderOffset())
			if !tt.valid {
				assert.True(t, errors.Is(rom.Err(), ErrNoHeader))
				assert.Equal(t, MapperNone, rom.MapperKind())
				return
			}
			assert.NoError(t, rom.Err())
			assert.Equal(t, tt.size, rom.Size())
			assert.Equal(t, tt.banks, rom.BankCount())
			assert.Equal(t, tt.region, rom.Region())
			assert.Equal(t, tt.mapperKind, rom.MapperKind())
		})
	}
}

func TestHeaderSearchOrder(t *testing.T) {
	// a signature at 0x3FF0 must lose against one at 0x7FF0
	data := NewTestROMBuilder().WithRegion(RegionSMSExport).Build()
	copy(data[0x3FF0:], HeaderSignature)
	data[0x3FF0+15] = byte(RegionSMSJapan)<<4 | 0xB

	rom := New(data)
	assert.True(t, rom.IsValid())
	assert.Equal(t, 0x7FF0, rom.HeaderOffset())
	assert.Equal(t, RegionSMSExport, rom.Region())
}

func TestEmptyImage(t *testing.T) {
	rom := New(nil)
	assert.False(t, rom.IsValid())
	assert.True(t, errors.Is(rom.Err(), ErrEmptyImage))
}

func TestTruncatedImage(t *testing.T) {
	rom := New([]byte("TMR SEGA"))
	assert.False(t, rom.IsValid())
}

func TestBankCountPowerOfTwo(t *testing.T) {
	rom := NewTestROMBuilder().WithBanks(3, 0xD).BuildROM()
	assert.True(t, rom.IsValid())
	assert.Equal(t, 3, rom.BankCount())
	assert.False(t, rom.BankCountIsPowerOfTwo())

	rom = NewTestROMBuilder().WithBanks(8, 0xF).BuildROM()
	assert.True(t, rom.BankCountIsPowerOfTwo())
}

func TestUnknownSizeCodeUsesImageLength(t *testing.T) {
	rom := NewTestROMBuilder().WithBanks(4, 0x5).BuildROM()
	assert.True(t, rom.IsValid())
	assert.Equal(t, 0, rom.Size())
	assert.Equal(t, 4, rom.BankCount())
	assert.Equal(t, MapperSegaBanked, rom.MapperKind())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.sms")
	assert.NoError(t, os.WriteFile(path, NewTestROMBuilder().Build(), 0o644))

	rom, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.True(t, rom.IsValid())
	assert.Equal(t, 2*BankSize, rom.Len())

	_, err = LoadFromFile(filepath.Join(dir, "missing.sms"))
	assert.Error(t, err)
}

func TestLoadFromReaderInvalid(t *testing.T) {
	rom, err := LoadFromReader(NewTestROMBuilder().WithoutHeader().Reader())
	assert.True(t, errors.Is(err, ErrNoHeader))
	assert.NotNil(t, rom)
	assert.False(t, rom.IsValid())
}
