package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// compTable maps a comp mnemonic to its a+cccccc bits.
var compTable = map[string]uint16{
	"0":   0b0101010,
	"1":   0b0111111,
	"-1":  0b0111010,
	"D":   0b0001100,
	"A":   0b0110000,
	"!D":  0b0001101,
	"!A":  0b0110001,
	"-D":  0b0001111,
	"-A":  0b0110011,
	"D+1": 0b0011111,
	"A+1": 0b0110111,
	"D-1": 0b0001110,
	"A-1": 0b0110010,
	"D+A": 0b0000010,
	"D-A": 0b0010011,
	"A-D": 0b0000111,
	"D&A": 0b0000000,
	"D|A": 0b0010101,

	"M":   0b1110000,
	"!M":  0b1110001,
	"-M":  0b1110011,
	"M+1": 0b1110111,
	"M-1": 0b1110010,
	"D+M": 0b1000010,
	"D-M": 0b1010011,
	"M-D": 0b1000111,
	"D&M": 0b1000000,
	"D|M": 0b1010101,
}

var destTable = map[string]uint16{
	"":    0b000,
	"M":   0b001,
	"D":   0b010,
	"MD":  0b011,
	"A":   0b100,
	"AM":  0b101,
	"AD":  0b110,
	"AMD": 0b111,
}

var jumpTable = map[string]uint16{
	"":    0b000,
	"JGT": 0b001,
	"JEQ": 0b010,
	"JGE": 0b011,
	"JLT": 0b100,
	"JNE": 0b101,
	"JLE": 0b110,
	"JMP": 0b111,
}

// The first RAM address handed to a fresh variable symbol. Addresses below
// it are the registers and the temp window.
const firstVariableAddress = 16

// Assembler translates Hack assembly text into 16-bit machine words.
type Assembler struct {
	symbols map[string]uint16
}

func NewAssembler() *Assembler {
	a := &Assembler{symbols: make(map[string]uint16)}
	for i := uint16(0); i < 16; i++ {
		a.symbols[fmt.Sprintf("R%d", i)] = i
	}
	a.symbols["SP"] = 0
	a.symbols["LCL"] = 1
	a.symbols["ARG"] = 2
	a.symbols["THIS"] = 3
	a.symbols["THAT"] = 4
	a.symbols["SCREEN"] = 16384
	a.symbols["KBD"] = 24576
	return a
}

func Assemble(code string) ([]uint16, map[uint16]int, error) {
	return NewAssembler().Assemble(code)
}

// Assemble runs both passes and returns the machine words plus a source map
// from instruction address to source line number.
func (a *Assembler) Assemble(code string) ([]uint16, map[uint16]int, error) {
	lines := strings.Split(code, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}

	return a.pass2(lines)
}

// pass1 records the instruction address of every (Label) declaration.
func (a *Assembler) pass1(lines []string) error {
	var address uint16

	for i, raw := range lines {
		lineNo := i + 1
		line := cleanLine(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "(") {
			if !strings.HasSuffix(line, ")") {
				return fmt.Errorf("unterminated label on line %d: %s", lineNo, line)
			}
			label := line[1 : len(line)-1]
			if !isSymbol(label) {
				return fmt.Errorf("invalid label '%s' on line %d", label, lineNo)
			}
			if _, exists := a.symbols[label]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", label, lineNo)
			}
			a.symbols[label] = address
			continue
		}

		address++
	}

	return nil
}

// pass2 encodes every A- and C-instruction, allocating RAM addresses for
// variable symbols on first use.
func (a *Assembler) pass2(lines []string) ([]uint16, map[uint16]int, error) {
	program := make([]uint16, 0)
	sourceMap := make(map[uint16]int)
	nextVariable := uint16(firstVariableAddress)

	for i, raw := range lines {
		lineNo := i + 1
		line := cleanLine(raw)
		if line == "" || strings.HasPrefix(line, "(") {
			continue
		}

		sourceMap[uint16(len(program))] = lineNo

		if strings.HasPrefix(line, "@") {
			symbol := line[1:]

			if value, err := strconv.ParseUint(symbol, 10, 32); err == nil {
				if value > 0x7FFF {
					return nil, nil, fmt.Errorf("address %d out of range on line %d", value, lineNo)
				}
				program = append(program, uint16(value))
				continue
			}

			if !isSymbol(symbol) {
				return nil, nil, fmt.Errorf("invalid symbol '%s' on line %d", symbol, lineNo)
			}

			address, ok := a.symbols[symbol]
			if !ok {
				address = nextVariable
				a.symbols[symbol] = address
				nextVariable++
			}
			program = append(program, address)
			continue
		}

		word, err := encodeCompute(line, lineNo)
		if err != nil {
			return nil, nil, err
		}
		program = append(program, word)
	}

	return program, sourceMap, nil
}

// encodeCompute encodes a dest=comp;jump instruction as 111accccccdddjjj.
func encodeCompute(line string, lineNo int) (uint16, error) {
	dest, comp, jump := "", line, ""

	if eq := strings.IndexByte(comp, '='); eq >= 0 {
		dest = strings.TrimSpace(comp[:eq])
		comp = comp[eq+1:]
	}
	if semi := strings.IndexByte(comp, ';'); semi >= 0 {
		jump = strings.TrimSpace(comp[semi+1:])
		comp = comp[:semi]
	}
	comp = strings.TrimSpace(comp)

	compBits, ok := compTable[comp]
	if !ok {
		return 0, fmt.Errorf("invalid comp '%s' on line %d", comp, lineNo)
	}
	destBits, ok := destTable[dest]
	if !ok {
		return 0, fmt.Errorf("invalid dest '%s' on line %d", dest, lineNo)
	}
	jumpBits, ok := jumpTable[jump]
	if !ok {
		return 0, fmt.Errorf("invalid jump '%s' on line %d", jump, lineNo)
	}

	return 0b111<<13 | compBits<<6 | destBits<<3 | jumpBits, nil
}

func cleanLine(raw string) string {
	line := raw
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}

// isSymbol reports whether s is a legal Hack symbol: no leading digit, and
// only letters, digits, '_', '.', '$', ':'.
func isSymbol(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r == '_', r == '.', r == '$', r == ':':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
