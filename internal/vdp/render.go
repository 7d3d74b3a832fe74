package vdp

// name table entry fields
type tileEntry struct {
	pattern  uint16
	hflip    bool
	vflip    bool
	palette  bool
	priority bool
}

func decodeTileEntry(lo, hi uint8) tileEntry {
	word := uint16(hi)<<8 | uint16(lo)
	return tileEntry{
		pattern:  word & 0x01FF,
		hflip:    word&0x0200 != 0,
		vflip:    word&0x0400 != 0,
		palette:  word&0x0800 != 0,
		priority: word&0x1000 != 0,
	}
}

// paletteScale expands a 2 bit color component to 8 bits
var paletteScale = [4]uint8{0, 85, 170, 255}

// ColorToRGB converts a 6 bit --BBGGRR value to 8 bit components.
func ColorToRGB(color uint8) (r, g, b uint8) {
	return paletteScale[color&0x03], paletteScale[(color>>2)&0x03], paletteScale[(color>>4)&0x03]
}

// nameTableBase returns the VRAM address of the background map.
func (v *VDP) nameTableBase(height int) uint16 {
	if height == int(LineMode192) {
		return uint16(v.registers[2]&0x0E) << 10
	}
	return uint16(v.registers[2]&0x0C)<<10 | 0x0700
}

// renderLine draws the background layer of one active scanline.
func (v *VDP) renderLine(line int) {
	row := v.framebuffer[line*Width*3 : (line+1)*Width*3]

	if !v.DisplayEnabled() {
		for i := range row {
			row[i] = 0
		}
		return
	}

	height := v.ActiveHeight()
	nameBase := v.nameTableBase(height)

	hscroll := int(v.registers[8])
	if v.registers[0]&0x40 != 0 && line < 16 {
		hscroll = 0
	}
	maskColumn := v.registers[0]&0x20 != 0
	backdrop := v.cram[16+int(v.registers[7]&0x0F)]

	for x := 0; x < Width; x++ {
		color := backdrop
		if !maskColumn || x >= 8 {
			color = v.backgroundPixel(x, line, hscroll, height, nameBase)
		}

		r, g, b := ColorToRGB(color)
		row[x*3] = r
		row[x*3+1] = g
		row[x*3+2] = b
	}
}

// backgroundPixel resolves the CRAM color of one background pixel.
func (v *VDP) backgroundPixel(x, line, hscroll, height int, nameBase uint16) uint8 {
	vscroll := int(v.registers[9])
	if v.registers[0]&0x80 != 0 && x >= 192 {
		vscroll = 0
	}

	y := line + vscroll
	if height == int(LineMode192) {
		y %= 224
	} else {
		y &= 0xFF
	}
	effectiveX := (x - hscroll) & 0xFF

	entryAddress := nameBase + uint16(y/8)*64 + uint16(effectiveX/8)*2
	entry := decodeTileEntry(v.VRAM(entryAddress), v.VRAM(entryAddress+1))

	tileRow := y & 7
	if entry.vflip {
		tileRow = 7 - tileRow
	}
	column := effectiveX & 7
	if !entry.hflip {
		column = 7 - column
	}

	patternAddress := entry.pattern*32 + uint16(tileRow)*4
	var index uint8
	for plane := 0; plane < 4; plane++ {
		bits := v.VRAM(patternAddress + uint16(plane))
		index |= (bits >> column) & 1 << plane
	}
	if entry.palette {
		index += 16
	}
	return v.cram[index]
}
