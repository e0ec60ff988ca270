package vm

import "fmt"

// Unit is one translation unit: a named VM source file. The name (without
// path or extension) scopes the unit's static variables.
type Unit struct {
	Name   string
	Source string
}

// Translate turns a single unit into Hack assembly, without the bootstrap
// preamble. Useful for code fragments that do not define Sys.init.
func Translate(name, source string) (string, error) {
	cg := NewCodeGen()
	if err := translateUnit(cg, Unit{Name: name, Source: source}); err != nil {
		return "", err
	}
	return cg.Output(), nil
}

// TranslateUnits links units without the bootstrap preamble, still sharing
// one code generator so label uniqueness holds across files.
func TranslateUnits(units []Unit) (string, error) {
	cg := NewCodeGen()
	for _, unit := range units {
		if err := translateUnit(cg, unit); err != nil {
			return "", err
		}
	}
	return cg.Output(), nil
}

// TranslateProgram links an ordered set of units into one program: the
// bootstrap preamble first, then each unit in order. One CodeGen carries the
// label counters across all units, so every generated label is unique in the
// whole program.
func TranslateProgram(units []Unit) (string, error) {
	cg := NewCodeGen()
	cg.Bootstrap()
	for _, unit := range units {
		if err := translateUnit(cg, unit); err != nil {
			return "", err
		}
	}
	return cg.Output(), nil
}

func translateUnit(cg *CodeGen, unit Unit) error {
	cg.SetFile(unit.Name)
	cg.comment("===== file: %s =====", unit.Name)
	cmds, err := ParseSource(unit.Source)
	if err != nil {
		return fmt.Errorf("%s: %w", unit.Name, err)
	}
	for _, cmd := range cmds {
		if err := cg.Generate(cmd); err != nil {
			return fmt.Errorf("%s: %w", unit.Name, err)
		}
	}
	return nil
}
