package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/physlang"
)

// run implements the `run <file>` subcommand (§6 "Subcommands run <file>
// (batch simulate and print detectors)"): compile, simulate to
// completion, and print each detector's value, exiting non-zero if any
// error diagnostic was produced or a runtime failure occurred.
func run(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	strictDimensions := fs.Bool("strict-dimensions", false, "promote dimensional-mismatch warnings to errors")
	checkDimensions := fs.Bool("check-dimensions", false, "enable the opt-in dimensional-analysis pass")
	denyWarnings := fs.Bool("deny-warnings", false, "treat any warning as a compile error")
	maxErrors := fs.Int("max-errors", 50, "maximum number of error diagnostics to collect before aborting")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: physlang run <file.phys> [options]

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("source file required")
	}

	path := fs.Arg(0)
	// flag parsing stops at the file name; parse the options that follow it.
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	prog, bag := physlang.Compile(string(src), physlang.Options{
		StrictDimensions: *strictDimensions,
		CheckDimensions:  *checkDimensions,
		DenyWarnings:     *denyWarnings,
		MaxErrors:        *maxErrors,
		Filename:         path,
	})
	if bag.HasErrors() || prog == nil {
		diagnostic.Render(os.Stderr, bag, map[string]string{path: string(src)})
		return fmt.Errorf("compilation failed")
	}
	diagnostic.Render(os.Stderr, bag, map[string]string{path: string(src)})

	results, err := prog.Run()
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	for _, r := range results.Detectors {
		fmt.Printf("%s = %v\n", r.Name, r.Value)
	}
	return nil
}
