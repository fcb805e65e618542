package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/tamirms/minisketch"
	"github.com/tamirms/minisketch/internal/config"
	"github.com/tamirms/minisketch/internal/output"
)

type sketchParams struct {
	configPath   string
	smerLength   int
	window       int
	staged       bool
	fifoDepth    int
	zeroSentinel bool
	format       string
	hashes       bool
	output       string
	logLevel     string
}

func sketchCommand(e *env) *Command {
	var p sketchParams
	return &Command{
		Name:    "sketch",
		Summary: "Compute minimizer sketches of FASTA or packed sequence inputs",
		Usage:   "minisketch sketch [flags] [input...]  (no input or \"-\" reads stdin)",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("sketch", pflag.ContinueOnError)
			fs.StringVar(&p.configPath, "config", "", "YAML config file (default $"+config.EnvVar+")")
			fs.IntVarP(&p.smerLength, "smer-length", "s", minisketch.DefaultSmerLength, "s-mer length in bases, 1 to 32")
			fs.IntVarP(&p.window, "window", "w", minisketch.DefaultWindow, "hashes per minimizer window")
			fs.BoolVar(&p.staged, "staged", false, "run the pipeline stages as goroutines")
			fs.IntVar(&p.fifoDepth, "fifo-depth", minisketch.DefaultFIFODepth, "channel depth of the staged pipeline")
			fs.BoolVar(&p.zeroSentinel, "zero-sentinel", false, "end a sequence at the first hash of zero")
			fs.StringVarP(&p.format, "format", "f", config.FormatText, "output format: text, cbor or sketch")
			fs.BoolVar(&p.hashes, "hashes", false, "list every minimizer in text output")
			fs.StringVarP(&p.output, "output", "o", "-", "output file")
			fs.StringVar(&p.logLevel, "log-level", "info", "log level: debug, info, warn, error")
			return fs
		},
		Run: func(ctx context.Context, fs *pflag.FlagSet, args []string) error {
			return runSketch(ctx, e, fs, &p, args)
		},
	}
}

// applyFlags copies explicitly set flags over cfg.
func (p *sketchParams) applyFlags(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("smer-length") {
		cfg.Sketch.SmerLength = p.smerLength
	}
	if fs.Changed("window") {
		cfg.Sketch.Window = p.window
	}
	if fs.Changed("staged") {
		cfg.Sketch.Staged = p.staged
	}
	if fs.Changed("fifo-depth") {
		cfg.Sketch.FIFODepth = p.fifoDepth
	}
	if fs.Changed("zero-sentinel") {
		cfg.Sketch.ZeroSentinel = p.zeroSentinel
	}
	if fs.Changed("format") {
		cfg.Output.Format = p.format
	}
	if fs.Changed("hashes") {
		cfg.Output.Hashes = p.hashes
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = p.logLevel
	}
}

func runSketch(ctx context.Context, e *env, fs *pflag.FlagSet, p *sketchParams, args []string) (err error) {
	cfg, err := config.Load(p.configPath)
	if err != nil {
		return usageError{err}
	}
	p.applyFlags(fs, cfg)
	if err := cfg.Validate(); err != nil {
		return usageError{err}
	}
	logger, err := newLogger(e.stderr, fs, p.logLevel, cfg.Log.Level)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}

	sk, err := minisketch.New(append(cfg.Options(), minisketch.WithLogger(logger))...)
	if err != nil {
		return usageError{err}
	}

	if cfg.Output.Format == config.FormatSketch && (p.output == "-" || p.output == "") {
		return usagef("sketch format needs an output file (-o)")
	}

	var dst io.Writer = e.stdout
	if cfg.Output.Format != config.FormatSketch && p.output != "-" && p.output != "" {
		f, ferr := os.Create(p.output)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		dst = f
	}
	w, err := output.New(dst, sk, output.Options{
		Format: cfg.Output.Format,
		Hashes: cfg.Output.Hashes,
		Path:   p.output,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	var total minisketch.Stats
	for _, path := range args {
		stats, err := sketchInput(ctx, sk, path, w)
		total.Records += stats.Records
		total.Bases += stats.Bases
		total.Hashes += stats.Hashes
		if err != nil {
			_ = w.Abort()
			return err
		}
		logger.Debug("input done", "path", path, "records", stats.Records, "elapsed", stats.Elapsed)
	}
	if err := w.Close(); err != nil {
		return err
	}
	logger.Info("sketch complete",
		"inputs", len(args),
		"records", total.Records,
		"bases", total.Bases,
		"hashes", total.Hashes,
		"s", sk.SmerLength(),
		"w", sk.Window(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func sketchInput(ctx context.Context, sk *minisketch.Sketcher, path string, w output.Writer) (minisketch.Stats, error) {
	in, err := openInput(path)
	if err != nil {
		return minisketch.Stats{}, err
	}
	stats, err := sk.Run(ctx, in.src, w.Write)
	if cerr := in.closer.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return stats, fmt.Errorf("%s: %w", path, err)
	}
	return stats, nil
}
