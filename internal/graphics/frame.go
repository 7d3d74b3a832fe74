package graphics

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Frame is one emulator frame of RGB24 pixels
type Frame struct {
	Pixels []uint8
	Width  int
	Height int

	// Status is drawn as an overlay in the top left corner when set
	Status string
}

// Validate checks that the pixel buffer matches the frame dimensions
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", f.Width, f.Height)
	}
	if len(f.Pixels) != f.Width*f.Height*3 {
		return fmt.Errorf("frame buffer has %d bytes, expected %d", len(f.Pixels), f.Width*f.Height*3)
	}
	return nil
}

// ToRGBA copies the frame into dst, reallocating it when the size changed,
// and draws the status overlay.
func (f Frame) ToRGBA(dst *image.RGBA) (*image.RGBA, error) {
	if err := f.Validate(); err != nil {
		return dst, err
	}

	bounds := image.Rect(0, 0, f.Width, f.Height)
	if dst == nil || dst.Bounds() != bounds {
		dst = image.NewRGBA(bounds)
	}

	for i, j := 0, 0; i < len(f.Pixels); i, j = i+3, j+4 {
		dst.Pix[j] = f.Pixels[i]
		dst.Pix[j+1] = f.Pixels[i+1]
		dst.Pix[j+2] = f.Pixels[i+2]
		dst.Pix[j+3] = 0xFF
	}

	if f.Status != "" {
		drawStatus(dst, f.Status)
	}
	return dst, nil
}

var (
	overlayBackground = image.NewUniform(color.RGBA{A: 0xA0})
	overlayText       = image.NewUniform(color.RGBA{R: 0xFF, G: 0xFF, B: 0x00, A: 0xFF})
)

// drawStatus renders a single line of text on a dark box
func drawStatus(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  overlayText,
		Face: face,
	}

	width := d.MeasureString(text).Ceil()
	box := image.Rect(0, 0, width+4, face.Height+2).Intersect(img.Bounds())
	draw.Draw(img, box, overlayBackground, image.Point{}, draw.Over)

	d.Dot = fixed.P(2, face.Ascent+1)
	d.DrawString(text)
}
