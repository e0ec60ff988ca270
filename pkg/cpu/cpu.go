package cpu

import "fmt"

// Well-known RAM addresses used by the VM calling convention.
const (
	RegSP   = 0
	RegLCL  = 1
	RegARG  = 2
	RegTHIS = 3
	RegTHAT = 4

	// StackBase is where the runtime stack begins.
	StackBase = 256
)

const ramSize = 32768

// CPU emulates the Hack machine: A and D registers, a program counter,
// instruction ROM and data RAM. Words are 16-bit two's complement.
type CPU struct {
	A  uint16
	D  uint16
	PC uint16

	ROM []uint16
	RAM [ramSize]uint16

	Halted bool
}

func NewCPU() *CPU {
	return &CPU{}
}

// Load installs a program and resets the machine state.
func (c *CPU) Load(program []uint16) {
	c.ROM = program
	c.A = 0
	c.D = 0
	c.PC = 0
	c.Halted = false
	for i := range c.RAM {
		c.RAM[i] = 0
	}
}

// Step executes one instruction. Running off the end of the program halts.
func (c *CPU) Step() {
	if int(c.PC) >= len(c.ROM) {
		c.Halted = true
		return
	}
	instr := c.ROM[c.PC]

	if instr&0x8000 == 0 {
		// A-instruction: @value
		c.A = instr & 0x7FFF
		c.PC++
		return
	}
	c.executeCompute(instr)
}

// Run executes until halt or maxCycles steps. A tight spin loop (an
// unconditional jump back to the preceding address load, the conventional
// way a Hack program ends) counts as a halt.
func (c *CPU) Run(maxCycles int) {
	for i := 0; i < maxCycles; i++ {
		if c.Halted {
			return
		}
		if c.spinning() {
			c.Halted = true
			return
		}
		c.Step()
	}
}

// spinning reports whether PC sits on the jump half of a two-instruction
// "@HERE / 0;JMP" end loop.
func (c *CPU) spinning() bool {
	if int(c.PC) >= len(c.ROM) {
		return false
	}
	instr := c.ROM[c.PC]
	if instr&0x8000 == 0 || instr&0b111 != 0b111 {
		return false
	}
	return c.A+1 == c.PC
}

func (c *CPU) executeCompute(instr uint16) {
	compBits := (instr >> 6) & 0x7F
	destBits := (instr >> 3) & 0x7
	jumpBits := instr & 0x7

	result := c.alu(compBits)

	if destBits&0b100 != 0 {
		c.A = result
	}
	if destBits&0b010 != 0 {
		c.D = result
	}
	if destBits&0b001 != 0 {
		c.RAM[c.A&(ramSize-1)] = result
	}

	if jumped(jumpBits, result) {
		c.PC = c.A
	} else {
		c.PC++
	}
}

// alu evaluates the 7-bit comp field (a-bit plus cccccc). The a-bit selects
// between A and M as the second operand.
func (c *CPU) alu(compBits uint16) uint16 {
	y := c.A
	if compBits&0b1000000 != 0 {
		y = c.RAM[c.A&(ramSize-1)]
	}
	d := c.D

	switch compBits & 0b0111111 {
	case 0b101010: // 0
		return 0
	case 0b111111: // 1
		return 1
	case 0b111010: // -1
		return 0xFFFF
	case 0b001100: // D
		return d
	case 0b110000: // A or M
		return y
	case 0b001101: // !D
		return ^d
	case 0b110001: // !A / !M
		return ^y
	case 0b001111: // -D
		return -d
	case 0b110011: // -A / -M
		return -y
	case 0b011111: // D+1
		return d + 1
	case 0b110111: // A+1 / M+1
		return y + 1
	case 0b001110: // D-1
		return d - 1
	case 0b110010: // A-1 / M-1
		return y - 1
	case 0b000010: // D+A / D+M
		return d + y
	case 0b010011: // D-A / D-M
		return d - y
	case 0b000111: // A-D / M-D
		return y - d
	case 0b000000: // D&A / D&M
		return d & y
	case 0b010101: // D|A / D|M
		return d | y
	}
	return 0
}

func jumped(jumpBits, value uint16) bool {
	if jumpBits == 0 {
		return false
	}
	negative := value&0x8000 != 0
	zero := value == 0
	positive := !negative && !zero

	switch jumpBits {
	case 0b001: // JGT
		return positive
	case 0b010: // JEQ
		return zero
	case 0b011: // JGE
		return !negative
	case 0b100: // JLT
		return negative
	case 0b101: // JNE
		return !zero
	case 0b110: // JLE
		return negative || zero
	case 0b111: // JMP
		return true
	}
	return false
}

// SP returns the current stack pointer.
func (c *CPU) SP() uint16 {
	return c.RAM[RegSP]
}

// Stack returns the live stack contents (RAM[256..SP)) as signed words.
func (c *CPU) Stack() []int16 {
	sp := int(c.SP())
	if sp < StackBase || sp > ramSize {
		return nil
	}
	values := make([]int16, 0, sp-StackBase)
	for i := StackBase; i < sp; i++ {
		values = append(values, int16(c.RAM[i]))
	}
	return values
}

// Top returns the topmost stack value.
func (c *CPU) Top() (int16, error) {
	sp := c.SP()
	if sp <= StackBase {
		return 0, fmt.Errorf("stack is empty (SP=%d)", sp)
	}
	return int16(c.RAM[sp-1]), nil
}
