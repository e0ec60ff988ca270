package vm

import (
	"fmt"
	"strings"
)

// CodeGen turns parsed VM commands into Hack assembly source text.
//
// One CodeGen is threaded through an entire program so that the label
// counters stay monotonic across files; they are never reset.
type CodeGen struct {
	out strings.Builder

	currentFile     string
	currentFunction string

	cmpCounter int // comparison branch labels
	retCounter int // call-site return labels
}

func NewCodeGen() *CodeGen {
	return &CodeGen{}
}

// SetFile marks the start of a new translation unit. The file name scopes
// static variables.
func (cg *CodeGen) SetFile(name string) {
	cg.currentFile = name
}

func (cg *CodeGen) Output() string {
	return cg.out.String()
}

func (cg *CodeGen) line(format string, args ...any) {
	fmt.Fprintf(&cg.out, format+"\n", args...)
}

func (cg *CodeGen) comment(format string, args ...any) {
	cg.line("// "+format, args...)
}

// Generate dispatches one command to its emitter.
func (cg *CodeGen) Generate(cmd Command) error {
	switch cmd.Kind {
	case CmdArithmetic:
		cg.Arithmetic(cmd.Op)
	case CmdPush:
		cg.Push(cmd.Segment, cmd.Index)
	case CmdPop:
		cg.Pop(cmd.Segment, cmd.Index)
	case CmdLabel:
		cg.Label(cmd.Name)
	case CmdGoto:
		cg.Goto(cmd.Name)
	case CmdIfGoto:
		cg.IfGoto(cmd.Name)
	case CmdFunction:
		cg.Function(cmd.Name, cmd.Arg)
	case CmdCall:
		cg.Call(cmd.Name, cmd.Arg)
	case CmdReturn:
		cg.Return()
	default:
		return fmt.Errorf("line %d: no emitter for command %q", cmd.Line, cmd.Raw)
	}
	return nil
}

// Bootstrap emits the program preamble: SP = 256, then call Sys.init with no
// arguments. Sys.init has no caller, so the four saved registers are pushed
// as dummy zeros; the frame layout still matches the regular call protocol.
func (cg *CodeGen) Bootstrap() {
	cg.comment("bootstrap: SP = 256")
	cg.line("@256")
	cg.line("D=A")
	cg.line("@SP")
	cg.line("M=D")

	cg.comment("call Sys.init")
	cg.line("@Sys.init$ret.bootstrap")
	cg.line("D=A")
	cg.pushD()
	for i := 0; i < 4; i++ {
		cg.line("@SP")
		cg.line("A=M")
		cg.line("M=0")
		cg.line("@SP")
		cg.line("M=M+1")
	}
	cg.setArgBase(0)
	cg.setLocalBase()
	cg.line("@Sys.init")
	cg.line("0;JMP")
	cg.line("(Sys.init$ret.bootstrap)")
}

// Arithmetic emits the pop-compute-push block for one of the nine ops.
// True is all-bits-set (-1) so and/or/not work as both bitwise and logical
// operators.
func (cg *CodeGen) Arithmetic(op string) {
	cg.comment("%s", op)
	switch op {
	case "add", "sub", "and", "or":
		cg.popIntoD()
		cg.line("@SP")
		cg.line("M=M-1")
		cg.line("A=M")
		switch op {
		case "add":
			cg.line("M=D+M")
		case "sub":
			cg.line("M=M-D")
		case "and":
			cg.line("M=D&M")
		case "or":
			cg.line("M=D|M")
		}
		cg.line("@SP")
		cg.line("M=M+1")

	case "neg", "not":
		cg.line("@SP")
		cg.line("M=M-1")
		cg.line("A=M")
		if op == "neg" {
			cg.line("M=-M")
		} else {
			cg.line("M=!M")
		}
		cg.line("@SP")
		cg.line("M=M+1")

	case "eq", "gt", "lt":
		labelTrue := fmt.Sprintf("TRUE_%d", cg.cmpCounter)
		labelEnd := fmt.Sprintf("END_%d", cg.cmpCounter)
		cg.cmpCounter++

		cg.popIntoD()
		cg.line("@SP")
		cg.line("M=M-1")
		cg.line("A=M")
		cg.line("D=M-D") // D = x - y
		cg.line("@%s", labelTrue)
		switch op {
		case "eq":
			cg.line("D;JEQ")
		case "gt":
			cg.line("D;JGT")
		case "lt":
			cg.line("D;JLT")
		}
		cg.line("@SP")
		cg.line("A=M")
		cg.line("M=0")
		cg.line("@%s", labelEnd)
		cg.line("0;JMP")
		cg.line("(%s)", labelTrue)
		cg.line("@SP")
		cg.line("A=M")
		cg.line("M=-1")
		cg.line("(%s)", labelEnd)
		cg.line("@SP")
		cg.line("M=M+1")
	}
}

// Push emits code that reads segment[index] and pushes it.
func (cg *CodeGen) Push(seg Segment, index int) {
	cg.comment("push %s %d", seg, index)
	switch seg {
	case SegConstant:
		cg.line("@%d", index)
		cg.line("D=A")
	case SegLocal, SegArgument, SegThis, SegThat:
		cg.line("@%s", baseSymbol[seg])
		cg.line("D=M")
		cg.line("@%d", index)
		cg.line("A=D+A")
		cg.line("D=M")
	case SegTemp:
		cg.line("@%d", tempBase+index)
		cg.line("D=M")
	case SegPointer:
		cg.line("@%s", pointerSymbol(index))
		cg.line("D=M")
	case SegStatic:
		cg.line("@%s", staticSymbol(cg.currentFile, index))
		cg.line("D=M")
	}
	cg.pushD()
}

// Pop emits code that pops the stack top into segment[index].
func (cg *CodeGen) Pop(seg Segment, index int) {
	cg.comment("pop %s %d", seg, index)
	switch seg {
	case SegLocal, SegArgument, SegThis, SegThat:
		// Destination address goes to R13 first; the popped value would
		// otherwise clobber the address computation.
		cg.line("@%s", baseSymbol[seg])
		cg.line("D=M")
		cg.line("@%d", index)
		cg.line("D=D+A")
		cg.line("@R13")
		cg.line("M=D")
		cg.popIntoD()
		cg.line("@R13")
		cg.line("A=M")
		cg.line("M=D")
	case SegTemp:
		cg.popIntoD()
		cg.line("@%d", tempBase+index)
		cg.line("M=D")
	case SegPointer:
		cg.popIntoD()
		cg.line("@%s", pointerSymbol(index))
		cg.line("M=D")
	case SegStatic:
		cg.popIntoD()
		cg.line("@%s", staticSymbol(cg.currentFile, index))
		cg.line("M=D")
	}
}

// scopedLabel qualifies a label with the enclosing function so two functions
// can reuse the same label text. Outside any function the scope is "".
func (cg *CodeGen) scopedLabel(name string) string {
	return cg.currentFunction + "$" + name
}

func (cg *CodeGen) Label(name string) {
	cg.comment("label %s", name)
	cg.line("(%s)", cg.scopedLabel(name))
}

func (cg *CodeGen) Goto(name string) {
	cg.comment("goto %s", name)
	cg.line("@%s", cg.scopedLabel(name))
	cg.line("0;JMP")
}

// IfGoto pops one value and jumps if it is non-zero.
func (cg *CodeGen) IfGoto(name string) {
	cg.comment("if-goto %s", name)
	cg.popIntoD()
	cg.line("@%s", cg.scopedLabel(name))
	cg.line("D;JNE")
}

// Function emits the callee entry point: an unscoped label (entry points are
// globally addressable) followed by nLocals pushes of zero. The caller has
// already pointed LCL at the first locals slot.
func (cg *CodeGen) Function(name string, nLocals int) {
	cg.currentFunction = name
	cg.comment("function %s %d", name, nLocals)
	cg.line("(%s)", name)
	for i := 0; i < nLocals; i++ {
		cg.line("@SP")
		cg.line("A=M")
		cg.line("M=0")
		cg.line("@SP")
		cg.line("M=M+1")
	}
}

// Call emits the caller side of the call protocol: push the return address
// and the four segment bases, repoint ARG and LCL, jump to the callee, and
// drop the return label. Each call site gets a fresh return label.
func (cg *CodeGen) Call(name string, nArgs int) {
	returnLabel := fmt.Sprintf("%s$ret.%d", name, cg.retCounter)
	cg.retCounter++

	cg.comment("call %s %d", name, nArgs)
	cg.line("@%s", returnLabel)
	cg.line("D=A")
	cg.pushD()
	for _, reg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		cg.line("@%s", reg)
		cg.line("D=M")
		cg.pushD()
	}
	cg.setArgBase(nArgs)
	cg.setLocalBase()
	cg.line("@%s", name)
	cg.line("0;JMP")
	cg.line("(%s)", returnLabel)
}

// Return emits the callee side: save the frame base in R13 and the return
// address in R14 before anything is restored, move the return value into
// *ARG, collapse the stack to ARG+1, restore the caller's bases from the
// saved frame, and jump to the return address.
func (cg *CodeGen) Return() {
	cg.comment("return")

	// R13 = FRAME (= LCL)
	cg.line("@LCL")
	cg.line("D=M")
	cg.line("@R13")
	cg.line("M=D")

	// R14 = *(FRAME - 5), the return address. Read now: once ARG is
	// restored the frame offsets are unreachable.
	cg.line("@5")
	cg.line("A=D-A")
	cg.line("D=M")
	cg.line("@R14")
	cg.line("M=D")

	// *ARG = pop(): the return value lands where the first argument was.
	cg.popIntoD()
	cg.line("@ARG")
	cg.line("A=M")
	cg.line("M=D")

	// SP = ARG + 1
	cg.line("@ARG")
	cg.line("D=M+1")
	cg.line("@SP")
	cg.line("M=D")

	// Restore THAT, THIS, ARG, LCL from FRAME-1..FRAME-4.
	for i, reg := range []string{"THAT", "THIS", "ARG", "LCL"} {
		cg.line("@R13")
		cg.line("D=M")
		cg.line("@%d", i+1)
		cg.line("A=D-A")
		cg.line("D=M")
		cg.line("@%s", reg)
		cg.line("M=D")
	}

	cg.line("@R14")
	cg.line("A=M")
	cg.line("0;JMP")
}

// pushD pushes D onto the stack.
func (cg *CodeGen) pushD() {
	cg.line("@SP")
	cg.line("A=M")
	cg.line("M=D")
	cg.line("@SP")
	cg.line("M=M+1")
}

// popIntoD pops the stack top into D.
func (cg *CodeGen) popIntoD() {
	cg.line("@SP")
	cg.line("M=M-1")
	cg.line("A=M")
	cg.line("D=M")
}

// setArgBase emits ARG = SP - nArgs - 5: the five words just pushed by the
// call protocol plus the caller's own argument pushes.
func (cg *CodeGen) setArgBase(nArgs int) {
	cg.line("@SP")
	cg.line("D=M")
	cg.line("@%d", nArgs+5)
	cg.line("D=D-A")
	cg.line("@ARG")
	cg.line("M=D")
}

// setLocalBase emits LCL = SP; the callee's prologue grows the locals.
func (cg *CodeGen) setLocalBase() {
	cg.line("@SP")
	cg.line("D=M")
	cg.line("@LCL")
	cg.line("M=D")
}
