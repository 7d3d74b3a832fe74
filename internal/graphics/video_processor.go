package graphics

import "math"

// VideoProcessor adjusts brightness, contrast and saturation of RGB24 frames
type VideoProcessor struct {
	brightness float64
	contrast   float64
	saturation float64

	buffer []uint8
}

// NewVideoProcessor creates a new video processor, 1.0 leaves a value unchanged
func NewVideoProcessor(brightness, contrast, saturation float64) *VideoProcessor {
	return &VideoProcessor{
		brightness: brightness,
		contrast:   contrast,
		saturation: saturation,
	}
}

// IsNeutral returns true if processing would not change any pixel
func (vp *VideoProcessor) IsNeutral() bool {
	return vp.brightness == 1 && vp.contrast == 1 && vp.saturation == 1
}

// Process returns the adjusted pixels. The source is returned unchanged when
// all settings are neutral, otherwise the result is stored in a buffer that is
// reused by the next call.
func (vp *VideoProcessor) Process(pixels []uint8) []uint8 {
	if vp.IsNeutral() {
		return pixels
	}

	if cap(vp.buffer) < len(pixels) {
		vp.buffer = make([]uint8, len(pixels))
	}
	out := vp.buffer[:len(pixels)]

	for i := 0; i+2 < len(pixels); i += 3 {
		r, g, b := vp.adjust(float64(pixels[i]), float64(pixels[i+1]), float64(pixels[i+2]))
		out[i] = r
		out[i+1] = g
		out[i+2] = b
	}
	return out
}

func (vp *VideoProcessor) adjust(r, g, b float64) (uint8, uint8, uint8) {
	r, g, b = r*vp.brightness, g*vp.brightness, b*vp.brightness

	r = ((r/255-0.5)*vp.contrast + 0.5) * 255
	g = ((g/255-0.5)*vp.contrast + 0.5) * 255
	b = ((b/255-0.5)*vp.contrast + 0.5) * 255

	if vp.saturation != 1 {
		h, s, l := rgbToHSL(clamp(r/255, 0, 1), clamp(g/255, 0, 1), clamp(b/255, 0, 1))
		s = math.Min(s*vp.saturation, 1)
		r, g, b = hslToRGB(h, s, l)
		r, g, b = r*255, g*255, b*255
	}

	return channel(r), channel(g), channel(b)
}

func channel(value float64) uint8 {
	return uint8(math.Round(clamp(value, 0, 255)))
}

func clamp(value, low, high float64) float64 {
	return math.Max(low, math.Min(high, value))
}

func rgbToHSL(r, g, b float64) (h, s, l float64) {
	high := math.Max(r, math.Max(g, b))
	low := math.Min(r, math.Min(g, b))
	l = (high + low) / 2
	if high == low {
		return 0, 0, l
	}

	d := high - low
	if l > 0.5 {
		s = d / (2 - high - low)
	} else {
		s = d / (high + low)
	}

	switch high {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h / 6, s, l
}

func hslToRGB(h, s, l float64) (r, g, b float64) {
	if s == 0 {
		return l, l, l
	}

	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	return hueToRGB(p, q, h+1.0/3), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3)
}

func hueToRGB(p, q, t float64) float64 {
	switch {
	case t < 0:
		t++
	case t > 1:
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

// SetBrightness updates the brightness value
func (vp *VideoProcessor) SetBrightness(brightness float64) {
	vp.brightness = brightness
}

// SetContrast updates the contrast value
func (vp *VideoProcessor) SetContrast(contrast float64) {
	vp.contrast = contrast
}

// SetSaturation updates the saturation value
func (vp *VideoProcessor) SetSaturation(saturation float64) {
	vp.saturation = saturation
}
