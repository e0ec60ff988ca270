package vm

import "fmt"

// Segment is one of the eight logical memory regions a VM instruction can
// reference.
type Segment string

const (
	SegConstant Segment = "constant"
	SegLocal    Segment = "local"
	SegArgument Segment = "argument"
	SegThis     Segment = "this"
	SegThat     Segment = "that"
	SegTemp     Segment = "temp"
	SegPointer  Segment = "pointer"
	SegStatic   Segment = "static"
)

// The temp segment is a fixed 8-slot window at RAM[5..12].
const (
	tempBase  = 5
	tempSlots = 8
)

// baseSymbol maps the pointer-based segments to the registers that hold
// their base addresses (RAM[1..4]).
var baseSymbol = map[Segment]string{
	SegLocal:    "LCL",
	SegArgument: "ARG",
	SegThis:     "THIS",
	SegThat:     "THAT",
}

var segments = map[string]Segment{
	"constant": SegConstant,
	"local":    SegLocal,
	"argument": SegArgument,
	"this":     SegThis,
	"that":     SegThat,
	"temp":     SegTemp,
	"pointer":  SegPointer,
	"static":   SegStatic,
}

func parseSegment(token string) (Segment, error) {
	seg, ok := segments[token]
	if !ok {
		return "", fmt.Errorf("invalid segment %q", token)
	}
	return seg, nil
}

// checkSegmentAccess enforces the segment rules that can be decided at
// translation time: constant is read-only, temp has 8 slots, pointer has 2.
func checkSegmentAccess(kind CommandKind, seg Segment, index int) error {
	switch seg {
	case SegConstant:
		if kind == CmdPop {
			return fmt.Errorf("cannot pop to constant segment")
		}
	case SegTemp:
		if index >= tempSlots {
			return fmt.Errorf("temp index %d out of range (0-%d)", index, tempSlots-1)
		}
	case SegPointer:
		if index > 1 {
			return fmt.Errorf("pointer index %d out of range (0-1)", index)
		}
	}
	return nil
}

// pointerSymbol resolves pointer 0/1 to the register it names.
func pointerSymbol(index int) string {
	if index == 0 {
		return "THIS"
	}
	return "THAT"
}

// staticSymbol builds the per-file symbol for static index. The assembler
// allocates the actual address; uniqueness across files comes from the file
// name prefix.
func staticSymbol(file string, index int) string {
	return fmt.Sprintf("%s.%d", file, index)
}
