// Package debug provides frame buffer dumping utilities
package debug

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/bmp"
)

// Format selects the image encoding of dumped frames
type Format string

const (
	FormatBMP Format = "bmp"
	FormatPPM Format = "ppm"
)

// ErrBufferSize is returned when a pixel buffer does not match its dimensions.
var ErrBufferSize = errors.New("pixel buffer does not match frame dimensions")

// FrameDumper writes selected frames of an RGB24 framebuffer to disk
type FrameDumper struct {
	outputDir    string
	format       Format
	dumpEnabled  bool
	dumpCount    int
	maxDumps     int
	dumpInterval uint64 // Dump every N frames
	frames       map[uint64]bool
}

// NewFrameDumper creates a new frame dumper
func NewFrameDumper(outputDir string) *FrameDumper {
	return &FrameDumper{
		outputDir:    outputDir,
		format:       FormatBMP,
		maxDumps:     10,
		dumpInterval: 1,
	}
}

// Enable activates frame dumping and creates the output directory
func (fd *FrameDumper) Enable() error {
	if err := os.MkdirAll(fd.outputDir, 0755); err != nil {
		return fmt.Errorf("creating dump directory: %w", err)
	}
	fd.dumpEnabled = true
	return nil
}

// Disable deactivates frame dumping
func (fd *FrameDumper) Disable() {
	fd.dumpEnabled = false
}

// Enabled returns whether frames are being dumped
func (fd *FrameDumper) Enabled() bool {
	return fd.dumpEnabled
}

// SetFormat sets the image format of dumped frames
func (fd *FrameDumper) SetFormat(format Format) {
	fd.format = format
}

// SetMaxDumps sets the maximum number of frames to dump, 0 means no limit
func (fd *FrameDumper) SetMaxDumps(max int) {
	fd.maxDumps = max
}

// SetDumpInterval sets the interval between frame dumps
func (fd *FrameDumper) SetDumpInterval(interval uint64) {
	if interval == 0 {
		interval = 1
	}
	fd.dumpInterval = interval
}

// SetFrames restricts dumping to the given frame numbers
func (fd *FrameDumper) SetFrames(frames ...uint64) {
	fd.frames = make(map[uint64]bool, len(frames))
	for _, frame := range frames {
		fd.frames[frame] = true
	}
}

// DumpCount returns the number of frames written
func (fd *FrameDumper) DumpCount() int {
	return fd.dumpCount
}

func (fd *FrameDumper) shouldDump(frameNum uint64) bool {
	if !fd.dumpEnabled {
		return false
	}
	if fd.maxDumps > 0 && fd.dumpCount >= fd.maxDumps {
		return false
	}
	if fd.frames != nil {
		return fd.frames[frameNum]
	}
	return frameNum%fd.dumpInterval == 0
}

// DumpFrame writes the frame if it is selected and returns the file path,
// or an empty path when the frame was skipped.
func (fd *FrameDumper) DumpFrame(pixels []uint8, width, height int, frameNum uint64) (string, error) {
	if !fd.shouldDump(frameNum) {
		return "", nil
	}

	filename := fmt.Sprintf("frame_%06d.%s", frameNum, fd.format)
	path := filepath.Join(fd.outputDir, filename)
	if err := WriteFile(path, fd.format, pixels, width, height); err != nil {
		return "", err
	}

	fd.dumpCount++
	return path, nil
}

// SaveScreenshot writes the frame as a BMP file with a timestamped name
func SaveScreenshot(dir string, pixels []uint8, width, height int) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating screenshot directory: %w", err)
	}

	filename := fmt.Sprintf("screenshot_%s.bmp", time.Now().Format("20060102_150405.000"))
	path := filepath.Join(dir, filename)
	if err := WriteFile(path, FormatBMP, pixels, width, height); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile encodes an RGB24 frame into a new file
func WriteFile(path string, format Format, pixels []uint8, width, height int) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating frame dump file: %w", err)
	}

	w := bufio.NewWriter(file)
	switch format {
	case FormatPPM:
		err = WritePPM(w, pixels, width, height)
	default:
		err = WriteBMP(w, pixels, width, height)
	}
	if err == nil {
		err = w.Flush()
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteBMP encodes an RGB24 frame as a BMP image
func WriteBMP(w io.Writer, pixels []uint8, width, height int) error {
	img, err := ToRGBA(pixels, width, height)
	if err != nil {
		return err
	}
	return bmp.Encode(w, img)
}

// WritePPM encodes an RGB24 frame as a binary PPM image
func WritePPM(w io.Writer, pixels []uint8, width, height int) error {
	if len(pixels) != width*height*3 {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrBufferSize, len(pixels), width, height)
	}
	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", width, height); err != nil {
		return err
	}
	_, err := w.Write(pixels)
	return err
}

// ToRGBA converts an RGB24 frame into an opaque RGBA image
func ToRGBA(pixels []uint8, width, height int) (*image.RGBA, error) {
	if len(pixels) != width*height*3 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrBufferSize, len(pixels), width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < len(pixels); i, j = i+3, j+4 {
		img.Pix[j] = pixels[i]
		img.Pix[j+1] = pixels[i+1]
		img.Pix[j+2] = pixels[i+2]
		img.Pix[j+3] = 0xFF
	}
	return img, nil
}
