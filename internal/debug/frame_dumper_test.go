package debug

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"golang.org/x/image/bmp"
)

func testFrame(width, height int) []uint8 {
	pixels := make([]uint8, width*height*3)
	for i := 0; i < len(pixels); i += 3 {
		pixels[i] = 0xFF // red
	}
	return pixels
}

func TestWritePPM(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WritePPM(&buf, testFrame(2, 2), 2, 2))

	header := "P6\n2 2\n255\n"
	assert.True(t, strings.HasPrefix(buf.String(), header))
	assert.Equal(t, len(header)+12, buf.Len())
}

func TestWriteBMPDecodes(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteBMP(&buf, testFrame(4, 3), 4, 3))

	img, err := bmp.Decode(&buf)
	assert.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())

	r, g, b, _ := img.At(3, 2).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
}

func TestBufferSizeMismatch(t *testing.T) {
	var buf bytes.Buffer
	err := WritePPM(&buf, make([]uint8, 5), 2, 2)
	assert.True(t, errors.Is(err, ErrBufferSize))

	_, err = ToRGBA(make([]uint8, 5), 2, 2)
	assert.True(t, errors.Is(err, ErrBufferSize))
}

func TestToRGBA(t *testing.T) {
	img, err := ToRGBA([]uint8{1, 2, 3}, 1, 1)
	assert.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 0xFF}, img.RGBAAt(0, 0))
}

func TestFrameDumperInterval(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	fd := NewFrameDumper(dir)
	fd.SetFormat(FormatPPM)
	fd.SetDumpInterval(2)
	fd.SetMaxDumps(2)

	path, err := fd.DumpFrame(testFrame(2, 2), 2, 2, 0)
	assert.NoError(t, err)
	assert.Equal(t, "", path)

	assert.NoError(t, fd.Enable())
	for frame := uint64(1); frame <= 8; frame++ {
		_, err := fd.DumpFrame(testFrame(2, 2), 2, 2, frame)
		assert.NoError(t, err)
	}
	assert.Equal(t, 2, fd.DumpCount())

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "frame_000002.ppm", entries[0].Name())
	assert.Equal(t, "frame_000004.ppm", entries[1].Name())
}

func TestFrameDumperSelectedFrames(t *testing.T) {
	dir := t.TempDir()
	fd := NewFrameDumper(dir)
	fd.SetFrames(31, 61)
	assert.NoError(t, fd.Enable())

	for frame := uint64(1); frame <= 70; frame++ {
		_, err := fd.DumpFrame(testFrame(2, 2), 2, 2, frame)
		assert.NoError(t, err)
	}
	assert.Equal(t, 2, fd.DumpCount())

	_, err := os.Stat(filepath.Join(dir, "frame_000061.bmp"))
	assert.NoError(t, err)
}

func TestSaveScreenshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	path, err := SaveScreenshot(dir, testFrame(8, 8), 8, 8)
	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".bmp"))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "BM", string(data[:2]))
}
