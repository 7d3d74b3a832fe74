package cpu

// executeCB runs a CB prefixed instruction. With an index prefix the
// displacement byte precedes the opcode and the operand is always (IX+d).
func (c *CPU) executeCB() int {
	if c.index != indexHL {
		c.addrHL()
		return c.cbOps[c.fetch()](c)
	}
	return c.cbOps[c.fetchOpcode()](c)
}

func (c *CPU) initCBOps() {
	for opcode := 0; opcode < 256; opcode++ {
		group := opcode >> 6
		n := uint(opcode>>3) & 7
		r := opcode & 7

		c.cbOps[opcode] = func(c *CPU) int {
			indexed := c.index != indexHL
			if !indexed && r != 6 {
				v := c.rawReg8(r)
				if group == 1 {
					c.bit(n, v)
					return 8
				}
				c.setRawReg8(r, c.cbResult(group, n, v))
				return 8
			}

			address := c.addrHL()
			v := c.memory.Read(address)
			if group == 1 {
				c.bit(n, v)
				if indexed {
					return 16
				}
				return 12
			}

			result := c.cbResult(group, n, v)
			c.memory.Write(address, result)
			if !indexed {
				return 15
			}
			// undocumented: the result is also copied into r
			if r != 6 {
				c.setRawReg8(r, result)
			}
			return 19
		}
	}
}

// cbResult computes rotate/shift, RES and SET results.
func (c *CPU) cbResult(group int, n uint, v uint8) uint8 {
	switch group {
	case 0:
		return c.shift(int(n), v)
	case 2:
		return v &^ (1 << n)
	default:
		return v | 1<<n
	}
}
