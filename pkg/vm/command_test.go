package vm

import (
	"errors"
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"add", Command{Kind: CmdArithmetic, Op: "add"}},
		{"not", Command{Kind: CmdArithmetic, Op: "not"}},
		{"push constant 7", Command{Kind: CmdPush, Segment: SegConstant, Index: 7}},
		{"pop local 2", Command{Kind: CmdPop, Segment: SegLocal, Index: 2}},
		{"push temp 7", Command{Kind: CmdPush, Segment: SegTemp, Index: 7}},
		{"pop pointer 1", Command{Kind: CmdPop, Segment: SegPointer, Index: 1}},
		{"push static 3", Command{Kind: CmdPush, Segment: SegStatic, Index: 3}},
		{"label LOOP", Command{Kind: CmdLabel, Name: "LOOP"}},
		{"goto LOOP", Command{Kind: CmdGoto, Name: "LOOP"}},
		{"if-goto END", Command{Kind: CmdIfGoto, Name: "END"}},
		{"function Main.fact 2", Command{Kind: CmdFunction, Name: "Main.fact", Arg: 2}},
		{"call Main.fact 1", Command{Kind: CmdCall, Name: "Main.fact", Arg: 1}},
		{"return", Command{Kind: CmdReturn}},
		{"  push constant 7  // inline comment", Command{Kind: CmdPush, Segment: SegConstant, Index: 7}},
	}

	for _, tc := range tests {
		got, err := ParseLine(tc.line, 1)
		if err != nil {
			t.Errorf("ParseLine(%q) error: %v", tc.line, err)
			continue
		}
		if got == nil {
			t.Errorf("ParseLine(%q) = nil, want command", tc.line)
			continue
		}
		if got.Kind != tc.want.Kind || got.Op != tc.want.Op ||
			got.Segment != tc.want.Segment || got.Index != tc.want.Index ||
			got.Name != tc.want.Name || got.Arg != tc.want.Arg {
			t.Errorf("ParseLine(%q) = %+v, want %+v", tc.line, *got, tc.want)
		}
	}
}

func TestParseLineSkipsBlanksAndComments(t *testing.T) {
	for _, line := range []string{"", "   ", "// a comment", "  // indented"} {
		cmd, err := ParseLine(line, 1)
		if err != nil {
			t.Errorf("ParseLine(%q) error: %v", line, err)
		}
		if cmd != nil {
			t.Errorf("ParseLine(%q) = %+v, want nil", line, *cmd)
		}
	}
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		line string
		kind error
	}{
		{"pushh constant 7", ErrUnknownCommand},
		{"frobnicate", ErrUnknownCommand},
		{"push constant", ErrMalformedCommand},
		{"push constant 7 8", ErrMalformedCommand},
		{"push bogus 0", ErrMalformedCommand},
		{"push constant -1", ErrMalformedCommand},
		{"push constant x", ErrMalformedCommand},
		{"add 1", ErrMalformedCommand},
		{"label", ErrMalformedCommand},
		{"function Main.f", ErrMalformedCommand},
		{"call Main.f x", ErrMalformedCommand},
		{"return 0", ErrMalformedCommand},
		{"pop constant 5", ErrIllegalSegment},
		{"push temp 8", ErrIllegalSegment},
		{"pop temp 100", ErrIllegalSegment},
		{"push pointer 2", ErrIllegalSegment},
	}

	for _, tc := range tests {
		_, err := ParseLine(tc.line, 42)
		if err == nil {
			t.Errorf("ParseLine(%q) = nil error, want %v", tc.line, tc.kind)
			continue
		}
		if !errors.Is(err, tc.kind) {
			t.Errorf("ParseLine(%q) error = %v, want kind %v", tc.line, err, tc.kind)
		}
	}
}

func TestParseSourceReportsLineNumber(t *testing.T) {
	src := "push constant 1\nadd\npop constant 3\n"
	_, err := ParseSource(src)
	if err == nil {
		t.Fatal("ParseSource accepted pop to constant")
	}
	if !errors.Is(err, ErrIllegalSegment) {
		t.Errorf("error = %v, want ErrIllegalSegment", err)
	}
	if got := err.Error(); !strings.Contains(got, "line 3") {
		t.Errorf("error %q does not name line 3", got)
	}
}

func TestParseSourceCollectsCommands(t *testing.T) {
	src := `
// factorial driver
push constant 5
call Main.fact 1

return
`
	cmds, err := ParseSource(src)
	if err != nil {
		t.Fatalf("ParseSource error: %v", err)
	}
	if len(cmds) != 3 {
		t.Fatalf("got %d commands, want 3", len(cmds))
	}
	if cmds[0].Line != 3 || cmds[1].Line != 4 || cmds[2].Line != 6 {
		t.Errorf("line numbers = %d,%d,%d, want 3,4,6", cmds[0].Line, cmds[1].Line, cmds[2].Line)
	}
}
