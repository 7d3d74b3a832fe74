package cpu

// initInstructions builds the base, CB and ED dispatch tables.
func (c *CPU) initInstructions() {
	c.initBaseOps()
	c.initCBOps()
	c.initEDOps()
}

func (c *CPU) initBaseOps() {
	t := &c.baseOps

	t[0x00] = func(c *CPU) int { return 4 } // NOP

	// 16-bit loads, increments and HL additions
	for p := 0; p < 4; p++ {
		p := p
		t[0x01|p<<4] = func(c *CPU) int { // LD rr,nn
			c.setReg16(p, c.fetch16())
			return 10
		}
		t[0x03|p<<4] = func(c *CPU) int { // INC rr
			c.setReg16(p, c.reg16(p)+1)
			return 6
		}
		t[0x0B|p<<4] = func(c *CPU) int { // DEC rr
			c.setReg16(p, c.reg16(p)-1)
			return 6
		}
		t[0x09|p<<4] = func(c *CPU) int { // ADD HL,rr
			c.setHLIndexed(c.add16(c.hl(), c.reg16(p)))
			return 11
		}
	}

	t[0x02] = func(c *CPU) int { c.memory.Write(c.BC(), c.A); return 7 }
	t[0x12] = func(c *CPU) int { c.memory.Write(c.DE(), c.A); return 7 }
	t[0x0A] = func(c *CPU) int { c.A = c.memory.Read(c.BC()); return 7 }
	t[0x1A] = func(c *CPU) int { c.A = c.memory.Read(c.DE()); return 7 }

	t[0x22] = func(c *CPU) int { c.write16(c.fetch16(), c.hl()); return 16 }
	t[0x2A] = func(c *CPU) int { c.setHLIndexed(c.read16(c.fetch16())); return 16 }
	t[0x32] = func(c *CPU) int { c.memory.Write(c.fetch16(), c.A); return 13 }
	t[0x3A] = func(c *CPU) int { c.A = c.memory.Read(c.fetch16()); return 13 }

	// 8-bit increments, decrements and immediate loads
	for r := 0; r < 8; r++ {
		r := r
		if r == 6 {
			t[0x34] = func(c *CPU) int { // INC (HL)
				address := c.addrHL()
				c.memory.Write(address, c.inc8(c.memory.Read(address)))
				return 11 + c.indexPenalty()
			}
			t[0x35] = func(c *CPU) int { // DEC (HL)
				address := c.addrHL()
				c.memory.Write(address, c.dec8(c.memory.Read(address)))
				return 11 + c.indexPenalty()
			}
			t[0x36] = func(c *CPU) int { // LD (HL),n
				address := c.addrHL()
				c.memory.Write(address, c.fetch())
				if c.index != indexHL {
					return 15
				}
				return 10
			}
			continue
		}
		t[0x04|r<<3] = func(c *CPU) int { c.setReg8(r, c.inc8(c.reg8(r))); return 4 }
		t[0x05|r<<3] = func(c *CPU) int { c.setReg8(r, c.dec8(c.reg8(r))); return 4 }
		t[0x06|r<<3] = func(c *CPU) int { c.setReg8(r, c.fetch()); return 7 }
	}

	// accumulator rotates
	t[0x07] = func(c *CPU) int { c.rotateA(0); return 4 } // RLCA
	t[0x0F] = func(c *CPU) int { c.rotateA(1); return 4 } // RRCA
	t[0x17] = func(c *CPU) int { c.rotateA(2); return 4 } // RLA
	t[0x1F] = func(c *CPU) int { c.rotateA(3); return 4 } // RRA

	t[0x08] = func(c *CPU) int { // EX AF,AF'
		c.A, c.A2 = c.A2, c.A
		c.F, c.F2 = c.F2, c.F
		return 4
	}

	// relative jumps
	t[0x10] = func(c *CPU) int { // DJNZ e
		offset := int8(c.fetch())
		c.B--
		if c.B != 0 {
			c.PC += uint16(int16(offset))
			return 13
		}
		return 8
	}
	t[0x18] = func(c *CPU) int { // JR e
		offset := int8(c.fetch())
		c.PC += uint16(int16(offset))
		return 12
	}
	for cc := 0; cc < 4; cc++ {
		cc := cc
		t[0x20|cc<<3] = func(c *CPU) int { // JR cc,e
			offset := int8(c.fetch())
			if c.condition(cc) {
				c.PC += uint16(int16(offset))
				return 12
			}
			return 7
		}
	}

	t[0x27] = func(c *CPU) int { c.daa(); return 4 }
	t[0x2F] = func(c *CPU) int { // CPL
		c.A = ^c.A
		c.F = c.F&(FlagS|FlagZ|FlagPV|FlagC) | FlagH | FlagN | c.A&flagsXY
		return 4
	}
	t[0x37] = func(c *CPU) int { // SCF
		c.F = c.F&(FlagS|FlagZ|FlagPV) | FlagC | c.A&flagsXY
		return 4
	}
	t[0x3F] = func(c *CPU) int { // CCF
		carry := c.F & FlagC
		c.F = c.F&(FlagS|FlagZ|FlagPV) | c.A&flagsXY | boolFlag(carry != 0, FlagH) | (carry ^ FlagC)
		return 4
	}

	// LD r,r' block with HALT in the (HL),(HL) slot
	for dst := 0; dst < 8; dst++ {
		for src := 0; src < 8; src++ {
			dst, src := dst, src
			opcode := 0x40 | dst<<3 | src
			switch {
			case dst == 6 && src == 6:
				t[opcode] = func(c *CPU) int { // HALT
					c.halted = true
					c.PC--
					return 4
				}
			case src == 6:
				t[opcode] = func(c *CPU) int {
					c.setRawReg8(dst, c.memory.Read(c.addrHL()))
					return 7 + c.indexPenalty()
				}
			case dst == 6:
				t[opcode] = func(c *CPU) int {
					address := c.addrHL()
					c.memory.Write(address, c.rawReg8(src))
					return 7 + c.indexPenalty()
				}
			default:
				t[opcode] = func(c *CPU) int {
					c.setReg8(dst, c.reg8(src))
					return 4
				}
			}
		}
	}

	// 8-bit arithmetic and logic
	for op := 0; op < 8; op++ {
		op := op
		for src := 0; src < 8; src++ {
			src := src
			if src == 6 {
				t[0x80|op<<3|6] = func(c *CPU) int {
					c.alu(op, c.memory.Read(c.addrHL()))
					return 7 + c.indexPenalty()
				}
				continue
			}
			t[0x80|op<<3|src] = func(c *CPU) int {
				c.alu(op, c.reg8(src))
				return 4
			}
		}
		t[0xC6|op<<3] = func(c *CPU) int {
			c.alu(op, c.fetch())
			return 7
		}
	}

	// conditional control flow
	for cc := 0; cc < 8; cc++ {
		cc := cc
		t[0xC0|cc<<3] = func(c *CPU) int { // RET cc
			if c.condition(cc) {
				c.PC = c.pop()
				return 11
			}
			return 5
		}
		t[0xC2|cc<<3] = func(c *CPU) int { // JP cc,nn
			address := c.fetch16()
			if c.condition(cc) {
				c.PC = address
			}
			return 10
		}
		t[0xC4|cc<<3] = func(c *CPU) int { // CALL cc,nn
			address := c.fetch16()
			if c.condition(cc) {
				c.push(c.PC)
				c.PC = address
				return 17
			}
			return 10
		}
		t[0xC7|cc<<3] = func(c *CPU) int { // RST
			c.push(c.PC)
			c.PC = uint16(cc) << 3
			return 11
		}
	}

	// stack
	for p := 0; p < 4; p++ {
		p := p
		t[0xC1|p<<4] = func(c *CPU) int { // POP
			v := c.pop()
			if p == 3 {
				c.SetAF(v)
			} else {
				c.setReg16(p, v)
			}
			return 10
		}
		t[0xC5|p<<4] = func(c *CPU) int { // PUSH
			if p == 3 {
				c.push(c.AF())
			} else {
				c.push(c.reg16(p))
			}
			return 11
		}
	}

	t[0xC3] = func(c *CPU) int { c.PC = c.fetch16(); return 10 } // JP nn
	t[0xC9] = func(c *CPU) int { c.PC = c.pop(); return 10 }     // RET
	t[0xCD] = func(c *CPU) int { // CALL nn
		address := c.fetch16()
		c.push(c.PC)
		c.PC = address
		return 17
	}

	t[0xCB] = (*CPU).executeCB
	t[0xED] = (*CPU).executeED

	t[0xD3] = func(c *CPU) int { // OUT (n),A
		if c.ports == nil {
			return c.unimplemented(0, 0xD3)
		}
		c.ports.Out(c.fetch(), c.A)
		return 11
	}
	t[0xDB] = func(c *CPU) int { // IN A,(n)
		if c.ports == nil {
			return c.unimplemented(0, 0xDB)
		}
		c.A = c.ports.In(c.fetch())
		return 11
	}

	t[0xD9] = func(c *CPU) int { // EXX
		c.B, c.B2 = c.B2, c.B
		c.C, c.C2 = c.C2, c.C
		c.D, c.D2 = c.D2, c.D
		c.E, c.E2 = c.E2, c.E
		c.H, c.H2 = c.H2, c.H
		c.L, c.L2 = c.L2, c.L
		return 4
	}
	t[0xE3] = func(c *CPU) int { // EX (SP),HL
		v := c.read16(c.SP)
		c.write16(c.SP, c.hl())
		c.setHLIndexed(v)
		return 19
	}
	t[0xE9] = func(c *CPU) int { c.PC = c.hl(); return 4 } // JP (HL)
	t[0xEB] = func(c *CPU) int { // EX DE,HL
		c.D, c.H = c.H, c.D
		c.E, c.L = c.L, c.E
		return 4
	}
	t[0xF9] = func(c *CPU) int { c.SP = c.hl(); return 6 } // LD SP,HL

	t[0xF3] = func(c *CPU) int { // DI
		c.IFF1 = false
		c.IFF2 = false
		return 4
	}
	t[0xFB] = func(c *CPU) int { // EI
		c.IFF1 = true
		c.IFF2 = true
		c.afterEI = true
		return 4
	}
}
