package cli

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/tamirms/minisketch"
)

func verifyCommand(e *env) *Command {
	var recompute bool
	return &Command{
		Name:    "verify",
		Summary: "Check the checksums of packed sequence and sketch files",
		Usage:   "minisketch verify [flags] file...",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("verify", pflag.ContinueOnError)
			fs.BoolVar(&recompute, "recompute", false, "for a sketch file and its .pseq source, also recompute every sketch (verify sketch.msk reads.pseq)")
			return fs
		},
		Run: func(ctx context.Context, _ *pflag.FlagSet, args []string) error {
			if len(args) == 0 {
				return usagef("verify needs at least one file")
			}
			if recompute {
				if len(args) != 2 {
					return usagef("--recompute takes a sketch file and a packed sequence file")
				}
				return recomputeSketches(ctx, e, args[0], args[1])
			}
			for _, path := range args {
				if err := verifyFile(e, path); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func verifyFile(e *env, path string) error {
	kind, err := sniff(path)
	if err != nil {
		return err
	}
	switch kind {
	case minisketch.KindSequence:
		sf, err := minisketch.OpenSequenceFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		defer sf.Close()
		if err := sf.Verify(); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		_, err = fmt.Fprintf(e.stdout, "%s: ok (%s, %d records, %d bases)\n", path, kind, sf.NumRecords(), sf.TotalBases())
		return err
	case minisketch.KindSketch:
		f, err := minisketch.OpenSketchFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		defer f.Close()
		if err := f.Verify(); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		_, err = fmt.Fprintf(e.stdout, "%s: ok (%s, s=%d w=%d, %d records, %d hashes)\n",
			path, kind, f.SmerLength(), f.Window(), f.NumRecords(), f.TotalHashes())
		return err
	}
	return fmt.Errorf("%s: not a packed sequence or sketch file", path)
}

// recomputeSketches re-sketches every record of the sequence file with the
// parameters stored in the sketch file and compares digests.
func recomputeSketches(ctx context.Context, e *env, sketchPath, seqPath string) error {
	f, err := minisketch.OpenSketchFile(sketchPath)
	if err != nil {
		return fmt.Errorf("%s: %w", sketchPath, err)
	}
	defer f.Close()
	sf, err := minisketch.OpenSequenceFile(seqPath)
	if err != nil {
		return fmt.Errorf("%s: %w", seqPath, err)
	}
	defer sf.Close()

	if f.NumRecords() != sf.NumRecords() {
		return fmt.Errorf("%s has %d records, %s has %d", sketchPath, f.NumRecords(), seqPath, sf.NumRecords())
	}
	sk, err := minisketch.New(f.Options()...)
	if err != nil {
		return err
	}
	i := 0
	_, err = sk.Run(ctx, sf.Source(), func(res minisketch.Result) error {
		rec, err := f.Record(i)
		if err != nil {
			return err
		}
		if rec.ID != res.ID || rec.Digest != minisketch.Digest(res.Hashes) {
			return fmt.Errorf("record %d (%q): sketch does not match", i, res.ID)
		}
		i++
		return nil
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.stdout, "%s: ok (%d records match %s)\n", sketchPath, i, seqPath)
	return err
}
