package graphics

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestVideoProcessorNeutral(t *testing.T) {
	vp := NewVideoProcessor(1, 1, 1)
	pixels := []uint8{1, 2, 3}
	out := vp.Process(pixels)
	assert.True(t, &out[0] == &pixels[0])
}

func TestVideoProcessorAdjust(t *testing.T) {
	tests := []struct {
		name                           string
		brightness, contrast, saturate float64
		in                             [3]uint8
		out                            [3]uint8
	}{
		{"darker", 0.5, 1, 1, [3]uint8{200, 100, 0}, [3]uint8{100, 50, 0}},
		{"clamped", 2, 1, 1, [3]uint8{200, 100, 0}, [3]uint8{255, 200, 0}},
		{"greyscale", 1, 1, 0, [3]uint8{255, 0, 0}, [3]uint8{128, 128, 128}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := NewVideoProcessor(tt.brightness, tt.contrast, tt.saturate)
			out := vp.Process(tt.in[:])
			assert.Equal(t, tt.out, [3]uint8(out))
		})
	}
}
