// Command proof-trace opens a .v file, drives it through a Rocq language
// server, and prints every step's source text and, for the steps of each
// proof closed in the file, the goal state before it ran. Step
// classifications and proofs still open at the end of the file are not
// printed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rocq-mcp/rocq-mcp/internal/rocq"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: proof-trace [-config path] <file.v>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := rocq.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pf, err := rocq.Open(ctx, path, cfg)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer pf.Close(ctx)

	for i, step := range pf.Steps() {
		fmt.Printf("[%d] %q\n", i, step.Text)
	}

	for _, p := range pf.Proofs() {
		status := "open"
		if p.Closed {
			status = "closed"
		}
		fmt.Printf("\n=== proof (%s, %s) ===\n%s\n", p.Type, status, p.Text)
		for _, step := range p.Steps {
			fmt.Printf("  -- %s\n", step.Text)
			if step.Goals.Goals != nil {
				for gi, g := range step.Goals.Goals.Goals {
					fmt.Printf("     goal %d: %s\n", gi, g.Ty)
				}
			}
			if step.Goals.Error != nil {
				fmt.Printf("     error: %s\n", *step.Goals.Error)
			}
		}
	}

	diags := pf.Diagnostics()
	if len(diags) > 0 {
		fmt.Println("\n=== diagnostics ===")
		for _, d := range diags {
			fmt.Printf("  %d:%d %s\n", d.Range.Start.Line, d.Range.Start.Character, d.Message)
		}
	}
}
