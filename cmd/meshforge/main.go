// meshforge is a CLI for combining scene meshes and baking texture atlases.
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
	case "optimize", "run":
		cmdOptimize(args)
	case "plan":
		cmdPlan(args)
	case "info":
		cmdInfo(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshforge - scene mesh combiner and texture atlas baker

Usage:
  meshforge <command> [options]

Commands:
  optimize <scene.yaml>   Run the full pipeline and write artifacts
  plan <scene.yaml>       Show merge groups and atlas layout without baking
  info <scene.yaml>       Show scene statistics

Options (optimize):
  -o <dir>       Output directory (default "out")
  -config <path> Config file path
  -strict        Treat any bake failure as fatal
  -jobs <n>      Bake concurrency (0 = all CPUs)
  -no-progress   Disable the bake progress bar
  -cpuprofile    Write a CPU profile
  -debug         Enable debug logging

Examples:
  meshforge info scene.yaml
  meshforge plan scene.yaml
  meshforge optimize scene.yaml -o build/`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
