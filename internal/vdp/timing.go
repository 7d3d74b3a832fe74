package vdp

// LineMode is the number of active display lines.
type LineMode int

const (
	LineMode192 LineMode = 192
	LineMode224 LineMode = 224
	LineMode240 LineMode = 240
)

const (
	// master clock units per scanline
	lineThreshold = 684
	// VDP cycles are counted at half the master clock
	masterPerVDPCycle = 2
	// horizontal pixel positions per line
	pixelsPerLine = 342
)

// a run of consecutive V counter values
type span struct {
	from, to int
}

var vcounterSpans = map[Region]map[LineMode][]span{
	NTSC: {
		LineMode192: {{0x00, 0xDA}, {0xD5, 0xFF}},
		LineMode224: {{0x00, 0xEA}, {0xE5, 0xFF}},
		LineMode240: {{0x00, 0xFF}, {0x00, 0x06}},
	},
	PAL: {
		LineMode192: {{0x00, 0xF2}, {0xBA, 0xFF}},
		LineMode224: {{0x00, 0xFF}, {0x00, 0x02}, {0xCA, 0xFF}},
		LineMode240: {{0x00, 0xFF}, {0x00, 0x0A}, {0xD2, 0xFF}},
	},
}

// vcounterTables holds one V counter value per scanline, built from vcounterSpans.
var vcounterTables = map[Region]map[LineMode][]uint8{}

func init() {
	for region, modes := range vcounterSpans {
		vcounterTables[region] = map[LineMode][]uint8{}
		for mode, spans := range modes {
			table := make([]uint8, 0, region.LinesPerFrame())
			for _, s := range spans {
				for value := s.from; value <= s.to; value++ {
					table = append(table, uint8(value))
				}
			}
			vcounterTables[region][mode] = table
		}
	}
}

// LineMode returns the line mode selected by registers 0 and 1
func (v *VDP) LineMode() LineMode {
	v.updateLineMode()
	return v.lineMode
}

// ActiveHeight returns the number of visible lines
func (v *VDP) ActiveHeight() int {
	return int(v.LineMode())
}

func (v *VDP) updateLineMode() {
	if !v.lineModeDirty {
		return
	}
	v.lineModeDirty = false

	m2 := v.registers[0]&0x02 != 0
	m1 := v.registers[1]&0x10 != 0
	m3 := v.registers[1]&0x08 != 0

	switch {
	case m2 && m1:
		v.lineMode = LineMode224
	case m2 && m3:
		v.lineMode = LineMode240
	default:
		v.lineMode = LineMode192
	}
	v.vcounter = vcounterTables[v.region][v.lineMode]
}

// Tick advances the VDP by the given number of VDP cycles. Completed lines
// are rendered. It returns true when the line counter enters vblank.
func (v *VDP) Tick(cycles int) bool {
	v.hcount += cycles * masterPerVDPCycle
	vblank := false

	for v.hcount >= lineThreshold {
		v.hcount -= lineThreshold

		height := v.ActiveHeight()
		if v.line < height {
			v.renderLine(v.line)
		}

		v.line++
		if v.line >= v.region.LinesPerFrame() {
			v.line = 0
		}

		if v.line == height {
			v.status |= StatusFrameInterrupt
			v.frameCount++
			vblank = true
			if v.frameCompleteCallback != nil {
				v.frameCompleteCallback()
			}
		}
	}
	return vblank
}

// VCounter returns the remapped vertical counter of the current line
func (v *VDP) VCounter() uint8 {
	v.updateLineMode()
	if v.line < len(v.vcounter) {
		return v.vcounter[v.line]
	}
	return uint8(v.line)
}

// HCounter returns the upper 8 bits of the 9 bit horizontal pixel position
func (v *VDP) HCounter() uint8 {
	pixel := v.hcount * pixelsPerLine / lineThreshold
	return uint8(pixel >> 1)
}
