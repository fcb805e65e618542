package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/pflag"

	"github.com/tamirms/minisketch"
)

type packParams struct {
	output   string
	logLevel string
}

func packCommand(e *env) *Command {
	var p packParams
	return &Command{
		Name:    "pack",
		Summary: "Convert FASTA inputs into a packed sequence file",
		Usage:   "minisketch pack -o out.pseq [flags] [input...]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("pack", pflag.ContinueOnError)
			fs.StringVarP(&p.output, "output", "o", "", "packed sequence file to write (required)")
			fs.StringVar(&p.logLevel, "log-level", "info", "log level: debug, info, warn, error")
			return fs
		},
		Run: func(ctx context.Context, fs *pflag.FlagSet, args []string) error {
			return runPack(ctx, e, fs, &p, args)
		},
	}
}

func runPack(ctx context.Context, e *env, fs *pflag.FlagSet, p *packParams, args []string) error {
	if p.output == "" || p.output == "-" {
		return usagef("pack needs an output file (-o)")
	}
	logger, err := newLogger(e.stderr, fs, p.logLevel, "info")
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}

	var records []minisketch.Record
	var bases uint64
	for _, path := range args {
		in, err := openInput(path)
		if err != nil {
			return err
		}
		n, err := collect(ctx, in.src, &records, &bases)
		if cerr := in.closer.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		logger.Debug("input read", "path", path, "kind", in.kind, "records", n)
	}

	if err := minisketch.WriteSequenceFile(p.output, records); err != nil {
		return err
	}
	logger.Info("pack complete", "output", p.output, "records", len(records), "bases", bases)
	return nil
}

// collect appends every record of src to records. Sources may reuse their
// word buffers, so each sequence is cloned.
func collect(ctx context.Context, src minisketch.Source, records *[]minisketch.Record, bases *uint64) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		rec.Seq.Words = slices.Clone(rec.Seq.Words)
		*records = append(*records, rec)
		*bases += rec.Seq.N
		n++
	}
}
