package graphics

import (
	"image"
	"image/color"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func solidFrame(width, height int, r, g, b uint8) Frame {
	pixels := make([]uint8, width*height*3)
	for i := 0; i < len(pixels); i += 3 {
		pixels[i], pixels[i+1], pixels[i+2] = r, g, b
	}
	return Frame{Pixels: pixels, Width: width, Height: height}
}

func TestFrameValidate(t *testing.T) {
	assert.NoError(t, solidFrame(4, 4, 0, 0, 0).Validate())
	assert.Error(t, Frame{Pixels: make([]uint8, 10), Width: 4, Height: 4}.Validate())
	assert.Error(t, Frame{}.Validate())
}

func TestFrameToRGBA(t *testing.T) {
	frame := solidFrame(8, 4, 0x10, 0x20, 0x30)
	img, err := frame.ToRGBA(nil)
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())
	assert.Equal(t, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF}, img.RGBAAt(7, 3))

	reused, err := frame.ToRGBA(img)
	assert.NoError(t, err)
	assert.True(t, reused == img)

	// a different active height needs a new image
	resized, err := solidFrame(8, 6, 0, 0, 0).ToRGBA(img)
	assert.NoError(t, err)
	assert.Equal(t, 6, resized.Bounds().Dy())
}

func TestFrameStatusOverlay(t *testing.T) {
	frame := solidFrame(64, 16, 0, 0, 0)
	frame.Status = "NTSC"
	img, err := frame.ToRGBA(nil)
	assert.NoError(t, err)

	textPixels := 0
	for y := 0; y < 16; y++ {
		for x := 0; x < 64; x++ {
			c := img.RGBAAt(x, y)
			if c.R == 0xFF && c.G == 0xFF && c.B == 0 {
				textPixels++
			}
		}
	}
	assert.True(t, textPixels > 0)
	// the overlay is limited to the text box
	assert.Equal(t, color.RGBA{A: 0xFF}, img.RGBAAt(63, 15))
}
