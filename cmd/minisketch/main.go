// Minisketch computes minimizer sketches of DNA sequences.
//
// Usage:
//
//	minisketch sketch [flags] [input...]
//	minisketch pack -o reads.pseq [input...]
//	minisketch verify file...
//
// Inputs are FASTA (plain, gzip, zstd or lz4) or packed sequence files.
// Run "minisketch help" for the full command list.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tamirms/minisketch/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if ctx.Err() != nil && code == cli.ExitOK {
		code = cli.ExitInterrupted
	}

	stop()
	os.Exit(code)
}
