package cpu

// executeED runs an ED prefixed instruction. A preceding DD/FD prefix has no effect.
func (c *CPU) executeED() int {
	c.index = indexHL
	opcode := c.fetchOpcode()
	if op := c.edOps[opcode]; op != nil {
		return op(c)
	}
	return c.unimplemented(0xED, opcode)
}

func (c *CPU) initEDOps() {
	t := &c.edOps

	for r := 0; r < 8; r++ {
		r := r
		t[0x40|r<<3] = func(c *CPU) int { // IN r,(C)
			if c.ports == nil {
				return c.unimplemented(0xED, uint8(0x40|r<<3))
			}
			v := c.ports.In(c.C)
			c.F = c.F&FlagC | szpTable[v]
			if r != 6 {
				c.setReg8(r, v)
			}
			return 12
		}
		t[0x41|r<<3] = func(c *CPU) int { // OUT (C),r
			if c.ports == nil {
				return c.unimplemented(0xED, uint8(0x41|r<<3))
			}
			var v uint8
			if r != 6 {
				v = c.reg8(r)
			}
			c.ports.Out(c.C, v)
			return 12
		}
	}

	for p := 0; p < 4; p++ {
		p := p
		t[0x42|p<<4] = func(c *CPU) int { // SBC HL,rr
			c.SetHL(c.sbc16(c.HL(), c.reg16(p)))
			return 15
		}
		t[0x4A|p<<4] = func(c *CPU) int { // ADC HL,rr
			c.SetHL(c.adc16(c.HL(), c.reg16(p)))
			return 15
		}
		t[0x43|p<<4] = func(c *CPU) int { // LD (nn),rr
			c.write16(c.fetch16(), c.reg16(p))
			return 20
		}
		t[0x4B|p<<4] = func(c *CPU) int { // LD rr,(nn)
			c.setReg16(p, c.read16(c.fetch16()))
			return 20
		}
	}

	for i := 0; i < 8; i++ {
		t[0x44|i<<3] = func(c *CPU) int { // NEG
			c.A, c.F = sub8(0, c.A, 0)
			return 8
		}
		if i == 1 {
			t[0x4D] = func(c *CPU) int { // RETI
				c.PC = c.pop()
				c.IFF1 = c.IFF2
				return 14
			}
			continue
		}
		t[0x45|i<<3] = func(c *CPU) int { // RETN
			c.PC = c.pop()
			c.IFF1 = c.IFF2
			return 14
		}
	}

	modes := [8]InterruptMode{
		InterruptMode0, InterruptMode0, InterruptMode1, InterruptMode2,
		InterruptMode0, InterruptMode0, InterruptMode1, InterruptMode2,
	}
	for i, mode := range modes {
		mode := mode
		t[0x46|i<<3] = func(c *CPU) int {
			c.IM = mode
			return 8
		}
	}

	t[0x47] = func(c *CPU) int { c.I = c.A; return 9 } // LD I,A
	t[0x4F] = func(c *CPU) int { c.R = c.A; return 9 } // LD R,A
	t[0x57] = func(c *CPU) int { // LD A,I
		c.A = c.I
		c.F = c.F&FlagC | szTable[c.A] | boolFlag(c.IFF2, FlagPV)
		return 9
	}
	t[0x5F] = func(c *CPU) int { // LD A,R
		c.A = c.R
		c.F = c.F&FlagC | szTable[c.A] | boolFlag(c.IFF2, FlagPV)
		return 9
	}

	t[0x67] = func(c *CPU) int { // RRD
		address := c.HL()
		v := c.memory.Read(address)
		c.memory.Write(address, c.A<<4|v>>4)
		c.A = c.A&0xF0 | v&0x0F
		c.F = c.F&FlagC | szpTable[c.A]
		return 18
	}
	t[0x6F] = func(c *CPU) int { // RLD
		address := c.HL()
		v := c.memory.Read(address)
		c.memory.Write(address, v<<4|c.A&0x0F)
		c.A = c.A&0xF0 | v>>4
		c.F = c.F&FlagC | szpTable[c.A]
		return 18
	}

	// block transfer, compare and I/O
	t[0xA0] = func(c *CPU) int { c.ldi(1); return 16 }
	t[0xA8] = func(c *CPU) int { c.ldi(-1); return 16 }
	t[0xB0] = func(c *CPU) int { return c.repeat(c.ldi(1)) }
	t[0xB8] = func(c *CPU) int { return c.repeat(c.ldi(-1)) }

	t[0xA1] = func(c *CPU) int { c.cpi(1); return 16 }
	t[0xA9] = func(c *CPU) int { c.cpi(-1); return 16 }
	t[0xB1] = func(c *CPU) int { return c.repeat(c.cpi(1)) }
	t[0xB9] = func(c *CPU) int { return c.repeat(c.cpi(-1)) }

	blockIO := []struct {
		opcode uint8
		input  bool
		step   int
		repeat bool
	}{
		{0xA2, true, 1, false}, {0xAA, true, -1, false},
		{0xB2, true, 1, true}, {0xBA, true, -1, true},
		{0xA3, false, 1, false}, {0xAB, false, -1, false},
		{0xB3, false, 1, true}, {0xBB, false, -1, true},
	}
	for _, op := range blockIO {
		op := op
		t[op.opcode] = func(c *CPU) int {
			if c.ports == nil {
				return c.unimplemented(0xED, op.opcode)
			}
			var more bool
			if op.input {
				more = c.ini(op.step)
			} else {
				more = c.outi(op.step)
			}
			if op.repeat {
				return c.repeat(more)
			}
			return 16
		}
	}
}

// repeat rewinds PC onto the ED prefix while a block instruction has work left.
func (c *CPU) repeat(more bool) int {
	if more {
		c.PC -= 2
		return 21
	}
	return 16
}

// ldi copies (HL) to (DE) and steps both; it reports whether BC is non-zero.
func (c *CPU) ldi(step int) bool {
	v := c.memory.Read(c.HL())
	c.memory.Write(c.DE(), v)
	c.SetHL(c.HL() + uint16(step))
	c.SetDE(c.DE() + uint16(step))
	c.SetBC(c.BC() - 1)

	n := v + c.A
	c.F = c.F&(FlagS|FlagZ|FlagC) | n&flagX | (n<<4)&flagY | boolFlag(c.BC() != 0, FlagPV)
	return c.BC() != 0
}

// cpi compares A with (HL); it reports whether the search should continue.
func (c *CPU) cpi(step int) bool {
	v := c.memory.Read(c.HL())
	r, f := sub8(c.A, v, 0)
	c.SetHL(c.HL() + uint16(step))
	c.SetBC(c.BC() - 1)

	n := r
	if f&FlagH != 0 {
		n--
	}
	c.F = c.F&FlagC | f&(FlagS|FlagZ|FlagH) | FlagN | n&flagX | (n<<4)&flagY | boolFlag(c.BC() != 0, FlagPV)
	return c.BC() != 0 && r != 0
}

// ini reads port C into (HL); it reports whether B is non-zero.
func (c *CPU) ini(step int) bool {
	v := c.ports.In(c.C)
	c.memory.Write(c.HL(), v)
	c.SetHL(c.HL() + uint16(step))
	c.B--
	c.F = c.F&FlagC | szTable[c.B] | FlagN
	return c.B != 0
}

// outi writes (HL) to port C; it reports whether B is non-zero.
func (c *CPU) outi(step int) bool {
	v := c.memory.Read(c.HL())
	c.B--
	c.ports.Out(c.C, v)
	c.SetHL(c.HL() + uint16(step))
	c.F = c.F&FlagC | szTable[c.B] | FlagN
	return c.B != 0
}
