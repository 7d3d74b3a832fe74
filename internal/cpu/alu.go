package cpu

// Status register bit masks
const (
	FlagC  uint8 = 0x01 // carry
	FlagN  uint8 = 0x02 // add/subtract
	FlagPV uint8 = 0x04 // parity/overflow
	flagX  uint8 = 0x08 // undocumented copy of result bit 3
	FlagH  uint8 = 0x10 // half carry
	flagY  uint8 = 0x20 // undocumented copy of result bit 5
	FlagZ  uint8 = 0x40 // zero
	FlagS  uint8 = 0x80 // sign

	flagsXY = flagX | flagY
)

var (
	// sign, zero and undocumented bits for every byte value
	szTable [256]uint8
	// szTable plus even parity
	szpTable [256]uint8
)

func init() {
	for i := 0; i < 256; i++ {
		v := uint8(i)
		f := v & (FlagS | flagsXY)
		if v == 0 {
			f |= FlagZ
		}
		szTable[i] = f

		bits := 0
		for b := v; b != 0; b >>= 1 {
			bits += int(b & 1)
		}
		if bits%2 == 0 {
			f |= FlagPV
		}
		szpTable[i] = f
	}
}

func boolFlag(cond bool, flag uint8) uint8 {
	if cond {
		return flag
	}
	return 0
}

// add8 returns a+b+carry and the resulting flags.
func add8(a, b, carry uint8) (uint8, uint8) {
	sum := uint16(a) + uint16(b) + uint16(carry)
	r := uint8(sum)
	f := szTable[r]
	f |= boolFlag((a^b^r)&0x10 != 0, FlagH)
	f |= boolFlag((a^b^0x80)&(a^r)&0x80 != 0, FlagPV)
	f |= boolFlag(sum > 0xFF, FlagC)
	return r, f
}

// sub8 returns a-b-carry and the resulting flags.
func sub8(a, b, carry uint8) (uint8, uint8) {
	diff := int(a) - int(b) - int(carry)
	r := uint8(diff)
	f := szTable[r] | FlagN
	f |= boolFlag((a^b^r)&0x10 != 0, FlagH)
	f |= boolFlag((a^b)&(a^r)&0x80 != 0, FlagPV)
	f |= boolFlag(diff < 0, FlagC)
	return r, f
}

func (c *CPU) aluAdd(v uint8) { c.A, c.F = add8(c.A, v, 0) }
func (c *CPU) aluAdc(v uint8) { c.A, c.F = add8(c.A, v, c.F&FlagC) }
func (c *CPU) aluSub(v uint8) { c.A, c.F = sub8(c.A, v, 0) }
func (c *CPU) aluSbc(v uint8) { c.A, c.F = sub8(c.A, v, c.F&FlagC) }

func (c *CPU) aluAnd(v uint8) {
	c.A &= v
	c.F = szpTable[c.A] | FlagH
}

func (c *CPU) aluXor(v uint8) {
	c.A ^= v
	c.F = szpTable[c.A]
}

func (c *CPU) aluOr(v uint8) {
	c.A |= v
	c.F = szpTable[c.A]
}

// aluCp compares without storing; bits 3 and 5 come from the operand.
func (c *CPU) aluCp(v uint8) {
	_, f := sub8(c.A, v, 0)
	c.F = f&^flagsXY | v&flagsXY
}

// alu dispatches the eight accumulator operations in opcode order.
func (c *CPU) alu(op int, v uint8) {
	switch op {
	case 0:
		c.aluAdd(v)
	case 1:
		c.aluAdc(v)
	case 2:
		c.aluSub(v)
	case 3:
		c.aluSbc(v)
	case 4:
		c.aluAnd(v)
	case 5:
		c.aluXor(v)
	case 6:
		c.aluOr(v)
	case 7:
		c.aluCp(v)
	}
}

func (c *CPU) inc8(v uint8) uint8 {
	r := v + 1
	f := c.F&FlagC | szTable[r]
	f |= boolFlag(v&0x0F == 0x0F, FlagH)
	f |= boolFlag(v == 0x7F, FlagPV)
	c.F = f
	return r
}

func (c *CPU) dec8(v uint8) uint8 {
	r := v - 1
	f := c.F&FlagC | szTable[r] | FlagN
	f |= boolFlag(v&0x0F == 0, FlagH)
	f |= boolFlag(v == 0x80, FlagPV)
	c.F = f
	return r
}

// add16 implements ADD HL,rr; S, Z and P/V are preserved.
func (c *CPU) add16(a, b uint16) uint16 {
	sum := uint32(a) + uint32(b)
	r := uint16(sum)
	f := c.F & (FlagS | FlagZ | FlagPV)
	f |= uint8(r>>8) & flagsXY
	f |= boolFlag((a^b^r)&0x1000 != 0, FlagH)
	f |= boolFlag(sum > 0xFFFF, FlagC)
	c.F = f
	return r
}

func (c *CPU) adc16(a, b uint16) uint16 {
	sum := uint32(a) + uint32(b) + uint32(c.F&FlagC)
	r := uint16(sum)
	f := uint8(r>>8) & (FlagS | flagsXY)
	f |= boolFlag(r == 0, FlagZ)
	f |= boolFlag((a^b^r)&0x1000 != 0, FlagH)
	f |= boolFlag((a^b^0x8000)&(a^r)&0x8000 != 0, FlagPV)
	f |= boolFlag(sum > 0xFFFF, FlagC)
	c.F = f
	return r
}

func (c *CPU) sbc16(a, b uint16) uint16 {
	diff := int32(a) - int32(b) - int32(c.F&FlagC)
	r := uint16(diff)
	f := uint8(r>>8)&(FlagS|flagsXY) | FlagN
	f |= boolFlag(r == 0, FlagZ)
	f |= boolFlag((a^b^r)&0x1000 != 0, FlagH)
	f |= boolFlag((a^b)&(a^r)&0x8000 != 0, FlagPV)
	f |= boolFlag(diff < 0, FlagC)
	c.F = f
	return r
}

// daa adjusts A after a BCD addition or subtraction.
func (c *CPU) daa() {
	a := c.A
	var correction uint8
	carry := c.F&FlagC != 0

	if c.F&FlagH != 0 || a&0x0F > 9 {
		correction |= 0x06
	}
	if carry || a > 0x99 {
		correction |= 0x60
		carry = true
	}

	var r uint8
	var half bool
	if c.F&FlagN != 0 {
		r = a - correction
		half = c.F&FlagH != 0 && a&0x0F < 6
	} else {
		r = a + correction
		half = a&0x0F > 9
	}

	c.A = r
	c.F = szpTable[r] | c.F&FlagN | boolFlag(half, FlagH) | boolFlag(carry, FlagC)
}

// rotate/shift operations of the CB table, in opcode order.
func (c *CPU) shift(op int, v uint8) uint8 {
	var r, carry uint8
	switch op {
	case 0: // RLC
		carry = v >> 7
		r = v<<1 | carry
	case 1: // RRC
		carry = v & 1
		r = v>>1 | carry<<7
	case 2: // RL
		carry = v >> 7
		r = v<<1 | c.F&FlagC
	case 3: // RR
		carry = v & 1
		r = v>>1 | (c.F&FlagC)<<7
	case 4: // SLA
		carry = v >> 7
		r = v << 1
	case 5: // SRA
		carry = v & 1
		r = v>>1 | v&0x80
	case 6: // SLL, undocumented
		carry = v >> 7
		r = v<<1 | 1
	case 7: // SRL
		carry = v & 1
		r = v >> 1
	}
	c.F = szpTable[r] | carry
	return r
}

func (c *CPU) bit(n uint, v uint8) {
	f := c.F&FlagC | FlagH | v&flagsXY
	if v&(1<<n) == 0 {
		f |= FlagZ | FlagPV
	} else if n == 7 {
		f |= FlagS
	}
	c.F = f
}

// accumulator rotates keep S, Z and P/V.
func (c *CPU) rotateA(op int) {
	keep := c.F & (FlagS | FlagZ | FlagPV)
	c.A = c.shift(op, c.A)
	c.F = keep | c.A&flagsXY | c.F&FlagC
}
