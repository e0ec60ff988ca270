package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xyproto/env/v2"

	"hackvm/pkg/vm"
)

func main() {
	output := flag.String("o", "", "output file (default: derived from input)")
	bootstrap := flag.Bool("bootstrap", true, "emit the bootstrap preamble (SP=256, call Sys.init)")
	verbose := flag.Bool("v", env.Bool("VMT_VERBOSE"), "verbose output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: vmtranslator [flags] <file.vm | directory>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)

	if env.Bool("VMT_NO_BOOTSTRAP") {
		*bootstrap = false
	}

	units, outPath, err := collectUnits(input)
	if err != nil {
		log.Fatalf("vmtranslator: %v", err)
	}
	if *output != "" {
		outPath = *output
	}

	if *verbose {
		for _, u := range units {
			log.Printf("translating %s", u.Name)
		}
	}

	var asmText string
	if *bootstrap {
		asmText, err = vm.TranslateProgram(units)
	} else {
		asmText, err = vm.TranslateUnits(units)
	}
	if err != nil {
		log.Fatalf("vmtranslator: %v", err)
	}

	if err := os.WriteFile(outPath, []byte(asmText), 0o644); err != nil {
		log.Fatalf("vmtranslator: %v", err)
	}
	fmt.Printf("wrote %s\n", outPath)
}

// collectUnits loads the translation units named by path: either one .vm
// file, or every .vm file in a directory (sorted). It also derives the
// default output path: <file>.asm, or <dir>/<dirname>.asm.
func collectUnits(path string) ([]vm.Unit, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}

	var files []string
	var outPath string
	if info.IsDir() {
		matches, err := filepath.Glob(filepath.Join(path, "*.vm"))
		if err != nil {
			return nil, "", err
		}
		if len(matches) == 0 {
			return nil, "", fmt.Errorf("no .vm files in %s", path)
		}
		sort.Strings(matches)
		files = matches
		base := filepath.Base(filepath.Clean(path))
		outPath = filepath.Join(path, base+".asm")
	} else {
		if !strings.HasSuffix(path, ".vm") {
			return nil, "", fmt.Errorf("%s is not a .vm file", path)
		}
		files = []string{path}
		outPath = strings.TrimSuffix(path, ".vm") + ".asm"
	}

	units := make([]vm.Unit, 0, len(files))
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, "", err
		}
		name := strings.TrimSuffix(filepath.Base(file), ".vm")
		units = append(units, vm.Unit{Name: name, Source: string(src)})
	}
	return units, outPath, nil
}
