package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "run":
		if err := run(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("physlang version 0.1.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`physlang - a 2D Newtonian particle-physics DSL

Usage:
  physlang <command> [options]

Commands:
  run      Batch-compile and simulate a .phys file, printing detector results
  help     Show this help message
  version  Show version information

Examples:
  physlang run scene.phys
  physlang run scene.phys --strict-dimensions --deny-warnings`)
}
