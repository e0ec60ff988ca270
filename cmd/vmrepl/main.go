package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"hackvm/pkg/asm"
	"hackvm/pkg/cpu"
	"hackvm/pkg/vm"
)

const (
	historyFile = ".vmrepl_history"
	prompt      = "vm> "
	maxCycles   = 1 << 20
)

const banner = `hack vm repl — type VM commands to see their translation
:asm   dump the accumulated assembly
:run   assemble and execute, then print the stack
:reset discard everything entered so far
:quit  exit`

func main() {
	os.Exit(repl())
}

func repl() int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	var lines []string
	cg := vm.NewCodeGen()
	cg.SetFile("repl")
	shown := 0

	for {
		input, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return 0
			case ":asm":
				fmt.Print(cg.Output())
			case ":run":
				run(lines)
			case ":reset":
				lines = nil
				cg = vm.NewCodeGen()
				cg.SetFile("repl")
				shown = 0
				fmt.Println("cleared")
			default:
				fmt.Println("unknown command; :asm :run :reset :quit")
			}
			continue
		}

		cmd, err := vm.ParseLine(trimmed, len(lines)+1)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if cmd == nil {
			continue
		}

		lines = append(lines, trimmed)
		if err := cg.Generate(*cmd); err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		out := cg.Output()
		fmt.Print(out[shown:])
		shown = len(out)
		ln.AppendHistory(trimmed)
	}
}

// run translates everything entered so far, assembles it, executes it and
// prints the resulting stack. No bootstrap is emitted; the segment bases are
// seeded the way the course test harness seeds them.
func run(lines []string) {
	source := strings.Join(lines, "\n")
	text, err := vm.TranslateUnits([]vm.Unit{{Name: "repl", Source: source}})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	program, _, err := asm.Assemble(text)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	machine := cpu.NewCPU()
	machine.Load(program)
	machine.RAM[cpu.RegSP] = cpu.StackBase
	machine.RAM[cpu.RegLCL] = 300
	machine.RAM[cpu.RegARG] = 400
	machine.RAM[cpu.RegTHIS] = 3000
	machine.RAM[cpu.RegTHAT] = 3010
	machine.Run(maxCycles)

	fmt.Printf("stack: %v\n", machine.Stack())
}
