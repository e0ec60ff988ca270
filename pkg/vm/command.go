package vm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error kinds surfaced by the parser. Wrapped with the offending line number
// and raw text, so callers can both locate the fault and match the kind with
// errors.Is.
var (
	ErrMalformedCommand = errors.New("malformed command")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrIllegalSegment   = errors.New("illegal segment operation")
)

type CommandKind int

const (
	CmdArithmetic CommandKind = iota
	CmdPush
	CmdPop
	CmdLabel
	CmdGoto
	CmdIfGoto
	CmdFunction
	CmdCall
	CmdReturn
)

// Command is one parsed VM instruction. Which fields are meaningful depends
// on Kind: Op for arithmetic, Segment/Index for push/pop, Name for the label
// and function commands, Arg for nLocals/nArgs.
type Command struct {
	Kind    CommandKind
	Op      string
	Segment Segment
	Index   int
	Name    string
	Arg     int

	Line int
	Raw  string
}

var arithmeticOps = map[string]bool{
	"add": true, "sub": true, "neg": true,
	"eq": true, "gt": true, "lt": true,
	"and": true, "or": true, "not": true,
}

// ParseLine parses one source line into a Command. Blank lines and comments
// yield (nil, nil). lineNo is carried into the Command and into any error.
func ParseLine(raw string, lineNo int) (*Command, error) {
	line := raw
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	fields := strings.Fields(line)
	keyword := fields[0]
	cmd := &Command{Line: lineNo, Raw: line}

	switch {
	case arithmeticOps[keyword]:
		if len(fields) != 1 {
			return nil, lineErr(ErrMalformedCommand, lineNo, line, "%s takes no arguments", keyword)
		}
		cmd.Kind = CmdArithmetic
		cmd.Op = keyword

	case keyword == "push" || keyword == "pop":
		if len(fields) != 3 {
			return nil, lineErr(ErrMalformedCommand, lineNo, line, "%s expects a segment and an index", keyword)
		}
		seg, err := parseSegment(fields[1])
		if err != nil {
			return nil, lineErr(ErrMalformedCommand, lineNo, line, "%v", err)
		}
		index, err := parseIndex(fields[2])
		if err != nil {
			return nil, lineErr(ErrMalformedCommand, lineNo, line, "%v", err)
		}
		if keyword == "push" {
			cmd.Kind = CmdPush
		} else {
			cmd.Kind = CmdPop
		}
		cmd.Segment = seg
		cmd.Index = index
		if err := checkSegmentAccess(cmd.Kind, seg, index); err != nil {
			return nil, lineErr(ErrIllegalSegment, lineNo, line, "%v", err)
		}

	case keyword == "label" || keyword == "goto" || keyword == "if-goto":
		if len(fields) != 2 {
			return nil, lineErr(ErrMalformedCommand, lineNo, line, "%s expects a label name", keyword)
		}
		switch keyword {
		case "label":
			cmd.Kind = CmdLabel
		case "goto":
			cmd.Kind = CmdGoto
		default:
			cmd.Kind = CmdIfGoto
		}
		cmd.Name = fields[1]

	case keyword == "function" || keyword == "call":
		if len(fields) != 3 {
			return nil, lineErr(ErrMalformedCommand, lineNo, line, "%s expects a name and a count", keyword)
		}
		n, err := parseIndex(fields[2])
		if err != nil {
			return nil, lineErr(ErrMalformedCommand, lineNo, line, "%v", err)
		}
		if keyword == "function" {
			cmd.Kind = CmdFunction
		} else {
			cmd.Kind = CmdCall
		}
		cmd.Name = fields[1]
		cmd.Arg = n

	case keyword == "return":
		if len(fields) != 1 {
			return nil, lineErr(ErrMalformedCommand, lineNo, line, "return takes no arguments")
		}
		cmd.Kind = CmdReturn

	default:
		return nil, lineErr(ErrUnknownCommand, lineNo, line, "keyword %q", keyword)
	}

	return cmd, nil
}

// ParseSource parses a whole translation unit. The first bad line aborts.
func ParseSource(src string) ([]Command, error) {
	var cmds []Command
	for i, raw := range strings.Split(src, "\n") {
		cmd, err := ParseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		if cmd != nil {
			cmds = append(cmds, *cmd)
		}
	}
	return cmds, nil
}

func parseIndex(token string) (int, error) {
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid index %q", token)
	}
	return n, nil
}

func lineErr(kind error, lineNo int, line string, format string, args ...any) error {
	return fmt.Errorf("line %d: %w: %s (%q)", lineNo, kind, fmt.Sprintf(format, args...), line)
}
