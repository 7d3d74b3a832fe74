// Package cpu implements the Z80 CPU emulation for the Sega Master System.
package cpu

import (
	"errors"
	"fmt"

	"github.com/retroenv/retrogolib/log"

	"gosms/internal/cartridge"
)

// Power-on register values
const (
	resetAF = 0x0040
	resetIX = 0xFFFF
	resetIY = 0xFFFF
	resetSP = 0xDFF0

	// cycles consumed per tick while halted
	haltCycles = 4
	// consecutive ticks on one PC before the loop detector reports
	loopThreshold = 100
)

// InterruptMode is the mode selected by IM 0/1/2.
type InterruptMode uint8

const (
	InterruptMode0 InterruptMode = iota
	InterruptMode1
	InterruptMode2
)

// index register selected by a DD/FD prefix
type indexMode uint8

const (
	indexHL indexMode = iota
	indexIX
	indexIY
)

var (
	// ErrUnimplementedOpcode is wrapped by every OpcodeError.
	ErrUnimplementedOpcode = errors.New("unimplemented opcode")
	// ErrNoRomLoader is returned by LoadGame when the attached memory cannot load cartridges.
	ErrNoRomLoader = errors.New("memory does not support loading cartridges")
)

// OpcodeError reports an opcode the CPU refuses to execute.
type OpcodeError struct {
	PC     uint16
	Prefix uint8 // 0, 0xCB or 0xED
	Opcode uint8
}

func (e *OpcodeError) Error() string {
	if e.Prefix != 0 {
		return fmt.Sprintf("%s 0x%02X 0x%02X at 0x%04X", ErrUnimplementedOpcode, e.Prefix, e.Opcode, e.PC)
	}
	return fmt.Sprintf("%s 0x%02X at 0x%04X", ErrUnimplementedOpcode, e.Opcode, e.PC)
}

func (e *OpcodeError) Unwrap() error {
	return ErrUnimplementedOpcode
}

// MemoryInterface defines the interface for CPU memory access
type MemoryInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// RomLoader is implemented by memory that can install a cartridge.
type RomLoader interface {
	LoadRom(rom *cartridge.GameRom) error
}

// PortBus is the I/O port space reached by IN and OUT.
type PortBus interface {
	In(port uint8) uint8
	Out(port uint8, value uint8)
}

type opFunc func(c *CPU) int

// CPU represents the Z80 processor
type CPU struct {
	// Registers
	A, F uint8
	B, C uint8
	D, E uint8
	H, L uint8

	// Shadow registers
	A2, F2 uint8
	B2, C2 uint8
	D2, E2 uint8
	H2, L2 uint8

	IX, IY uint16
	SP, PC uint16
	I, R   uint8

	// Interrupt state. Vector dispatch is not performed.
	IFF1, IFF2 bool
	IM         InterruptMode
	afterEI    bool
	halted     bool

	memory MemoryInterface
	ports  PortBus

	cycles uint64

	// Instruction lookup tables
	baseOps [256]opFunc
	cbOps   [256]opFunc
	edOps   [256]opFunc

	// per instruction decode state
	index     indexMode
	opcodePC  uint16
	err       error
	displaced bool
	disp      uint16

	// Debug and loop detection fields
	logger              *log.Logger
	enableDebugLogging  bool
	enableLoopDetection bool
	lastPC              uint16
	pcStayCount         int
}

// New creates a new CPU instance
func New(memory MemoryInterface) *CPU {
	cpu := &CPU{
		memory: memory,
	}
	cpu.initInstructions()
	cpu.Reset()
	return cpu
}

// Reset sets the power-on register state
func (c *CPU) Reset() {
	c.SetAF(resetAF)
	c.SetBC(0)
	c.SetDE(0)
	c.SetHL(0)
	c.A2, c.F2, c.B2, c.C2, c.D2, c.E2, c.H2, c.L2 = 0, 0, 0, 0, 0, 0, 0, 0
	c.IX = resetIX
	c.IY = resetIY
	c.SP = resetSP
	c.PC = 0
	c.I = 0
	c.R = 0
	c.IFF1 = false
	c.IFF2 = false
	c.IM = InterruptMode0
	c.afterEI = false
	c.halted = false
	c.cycles = 0
	c.index = indexHL
	c.err = nil
	c.pcStayCount = 0
}

// LoadGame resets the attached memory, installs the cartridge mapper and resets the CPU.
func (c *CPU) LoadGame(rom *cartridge.GameRom) error {
	loader, ok := c.memory.(RomLoader)
	if !ok {
		return ErrNoRomLoader
	}
	if err := loader.LoadRom(rom); err != nil {
		return fmt.Errorf("loading cartridge: %w", err)
	}
	c.Reset()
	return nil
}

// SetPortBus attaches the I/O port space used by IN and OUT.
func (c *CPU) SetPortBus(ports PortBus) {
	c.ports = ports
}

// SetLogger sets the logger used for instruction tracing.
func (c *CPU) SetLogger(logger *log.Logger) {
	c.logger = logger
}

// Tick executes a single instruction and returns the cycles it took.
// An opcode that cannot be executed returns an *OpcodeError and leaves PC
// on the failing instruction.
func (c *CPU) Tick() (int, error) {
	// EI takes effect once the following instruction has completed
	c.afterEI = false

	if c.halted {
		c.incrementRefresh()
		c.cycles += haltCycles
		return haltCycles, nil
	}

	c.opcodePC = c.PC
	c.index = indexHL
	c.displaced = false
	c.err = nil

	cycles := 0
	opcode := c.fetchOpcode()
	for opcode == 0xDD || opcode == 0xFD {
		if opcode == 0xDD {
			c.index = indexIX
		} else {
			c.index = indexIY
		}
		cycles += 4
		opcode = c.fetchOpcode()
	}

	if c.enableLoopDetection {
		c.detectInfiniteLoop(c.opcodePC, opcode)
	}
	if c.enableDebugLogging {
		c.logInstruction(c.opcodePC, opcode)
	}

	cycles += c.baseOps[opcode](c)
	c.index = indexHL

	if c.err != nil {
		c.PC = c.opcodePC
		return 0, c.err
	}

	c.cycles += uint64(cycles)
	return cycles, nil
}

// Halted reports whether a HALT instruction is holding the CPU.
func (c *CPU) Halted() bool {
	return c.halted
}

// InterruptsEnabled reports whether a maskable interrupt would be accepted now.
func (c *CPU) InterruptsEnabled() bool {
	return c.IFF1 && !c.afterEI
}

// Cycles returns the total cycles executed since reset.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// unimplemented records an OpcodeError for the current instruction.
func (c *CPU) unimplemented(prefix, opcode uint8) int {
	c.err = &OpcodeError{PC: c.opcodePC, Prefix: prefix, Opcode: opcode}
	return 0
}

// incrementRefresh advances the low 7 bits of R.
func (c *CPU) incrementRefresh() {
	c.R = (c.R+1)&0x7F | c.R&0x80
}

func (c *CPU) fetchOpcode() uint8 {
	c.incrementRefresh()
	return c.fetch()
}

func (c *CPU) fetch() uint8 {
	v := c.memory.Read(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch()
	hi := c.fetch()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) read16(address uint16) uint16 {
	lo := c.memory.Read(address)
	hi := c.memory.Read(address + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) write16(address, value uint16) {
	c.memory.Write(address, uint8(value))
	c.memory.Write(address+1, uint8(value>>8))
}

func (c *CPU) push(value uint16) {
	c.SP--
	c.memory.Write(c.SP, uint8(value>>8))
	c.SP--
	c.memory.Write(c.SP, uint8(value))
}

func (c *CPU) pop() uint16 {
	lo := c.memory.Read(c.SP)
	c.SP++
	hi := c.memory.Read(c.SP)
	c.SP++
	return uint16(hi)<<8 | uint16(lo)
}

// Register pair accessors

// AF returns the accumulator and flags pair.
func (c *CPU) AF() uint16 { return uint16(c.A)<<8 | uint16(c.F) }

// BC returns the BC pair.
func (c *CPU) BC() uint16 { return uint16(c.B)<<8 | uint16(c.C) }

// DE returns the DE pair.
func (c *CPU) DE() uint16 { return uint16(c.D)<<8 | uint16(c.E) }

// HL returns the HL pair, ignoring any index prefix.
func (c *CPU) HL() uint16 { return uint16(c.H)<<8 | uint16(c.L) }

func (c *CPU) SetAF(v uint16) { c.A, c.F = uint8(v>>8), uint8(v) }
func (c *CPU) SetBC(v uint16) { c.B, c.C = uint8(v>>8), uint8(v) }
func (c *CPU) SetDE(v uint16) { c.D, c.E = uint8(v>>8), uint8(v) }
func (c *CPU) SetHL(v uint16) { c.H, c.L = uint8(v>>8), uint8(v) }

// hl returns HL, IX or IY depending on the active prefix.
func (c *CPU) hl() uint16 {
	switch c.index {
	case indexIX:
		return c.IX
	case indexIY:
		return c.IY
	default:
		return c.HL()
	}
}

func (c *CPU) setHLIndexed(v uint16) {
	switch c.index {
	case indexIX:
		c.IX = v
	case indexIY:
		c.IY = v
	default:
		c.SetHL(v)
	}
}

// addrHL returns the memory operand address for (HL), (IX+d) or (IY+d).
// The displacement is fetched once per instruction.
func (c *CPU) addrHL() uint16 {
	if c.index == indexHL {
		return c.HL()
	}
	if !c.displaced {
		d := int8(c.fetch())
		c.disp = c.hl() + uint16(int16(d))
		c.displaced = true
	}
	return c.disp
}

// indexPenalty is the extra cost of an (IX+d) memory operand over (HL).
func (c *CPU) indexPenalty() int {
	if c.index == indexHL {
		return 0
	}
	return 8
}

// reg8 reads register r in opcode encoding B,C,D,E,H,L,-,A.
// H and L honor the index prefix.
func (c *CPU) reg8(r int) uint8 {
	switch r {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return uint8(c.hl() >> 8)
	case 5:
		return uint8(c.hl())
	case 7:
		return c.A
	}
	panic(fmt.Sprintf("invalid register index %d", r))
}

func (c *CPU) setReg8(r int, v uint8) {
	switch r {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.setHLIndexed(c.hl()&0x00FF | uint16(v)<<8)
	case 5:
		c.setHLIndexed(c.hl()&0xFF00 | uint16(v))
	case 7:
		c.A = v
	default:
		panic(fmt.Sprintf("invalid register index %d", r))
	}
}

// rawReg8 and setRawReg8 ignore the prefix; used next to an (IX+d) operand.
func (c *CPU) rawReg8(r int) uint8 {
	switch r {
	case 4:
		return c.H
	case 5:
		return c.L
	}
	return c.reg8(r)
}

func (c *CPU) setRawReg8(r int, v uint8) {
	switch r {
	case 4:
		c.H = v
	case 5:
		c.L = v
	default:
		c.setReg8(r, v)
	}
}

// reg16 reads pair p in encoding BC,DE,HL,SP.
func (c *CPU) reg16(p int) uint16 {
	switch p {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.hl()
	default:
		return c.SP
	}
}

func (c *CPU) setReg16(p int, v uint16) {
	switch p {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.setHLIndexed(v)
	default:
		c.SP = v
	}
}

// condition evaluates cc in encoding NZ,Z,NC,C,PO,PE,P,M.
func (c *CPU) condition(cc int) bool {
	switch cc {
	case 0:
		return c.F&FlagZ == 0
	case 1:
		return c.F&FlagZ != 0
	case 2:
		return c.F&FlagC == 0
	case 3:
		return c.F&FlagC != 0
	case 4:
		return c.F&FlagPV == 0
	case 5:
		return c.F&FlagPV != 0
	case 6:
		return c.F&FlagS == 0
	default:
		return c.F&FlagS != 0
	}
}

// EnableDebugLogging enables/disables CPU instruction logging
func (c *CPU) EnableDebugLogging(enable bool) {
	c.enableDebugLogging = enable
}

// EnableLoopDetection enables/disables stuck PC detection
func (c *CPU) EnableLoopDetection(enable bool) {
	c.enableLoopDetection = enable
}

// detectInfiniteLoop reports when the CPU keeps executing the same address
func (c *CPU) detectInfiniteLoop(pc uint16, opcode uint8) {
	if pc != c.lastPC {
		c.lastPC = pc
		c.pcStayCount = 0
		return
	}
	c.pcStayCount++
	if c.pcStayCount == loopThreshold && c.logger != nil {
		c.logger.Warn("CPU stuck on one instruction",
			log.Hex("pc", pc),
			log.Hex("opcode", opcode),
			log.Int("count", c.pcStayCount))
	}
}

// logInstruction logs CPU instruction execution
func (c *CPU) logInstruction(pc uint16, opcode uint8) {
	if c.logger == nil {
		return
	}
	c.logger.Debug("CPU",
		log.Hex("pc", pc),
		log.Hex("opcode", opcode),
		log.Hex("af", c.AF()),
		log.Hex("bc", c.BC()),
		log.Hex("de", c.DE()),
		log.Hex("hl", c.HL()),
		log.Hex("ix", c.IX),
		log.Hex("iy", c.IY),
		log.Hex("sp", c.SP),
		log.String("flags", c.FlagsString()))
}

// FlagsString renders F as SZ-H-PNC with unset flags in lower case.
func (c *CPU) FlagsString() string {
	names := []struct {
		mask uint8
		set  byte
	}{
		{FlagS, 'S'}, {FlagZ, 'Z'}, {flagY, '-'}, {FlagH, 'H'},
		{flagX, '-'}, {FlagPV, 'P'}, {FlagN, 'N'}, {FlagC, 'C'},
	}
	out := make([]byte, len(names))
	for i, n := range names {
		switch {
		case n.set == '-':
			out[i] = '-'
		case c.F&n.mask != 0:
			out[i] = n.set
		default:
			out[i] = n.set + ('a' - 'A')
		}
	}
	return string(out)
}
