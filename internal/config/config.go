// Package config loads minisketch command-line configuration.
//
// Configuration comes from a single YAML file named by:
//   - the --config flag, or
//   - the MINISKETCH_CONFIG environment variable.
//
// There is no discovery of other locations. Without either, built-in
// defaults apply. Command-line flags override file values when set.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tamirms/minisketch"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "MINISKETCH_CONFIG"

// Output formats.
const (
	FormatText   = "text"
	FormatCBOR   = "cbor"
	FormatSketch = "sketch"
)

// Formats lists every accepted output format.
var Formats = []string{FormatText, FormatCBOR, FormatSketch}

// Config is the complete CLI configuration.
type Config struct {
	Sketch SketchConfig `yaml:"sketch"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
}

// SketchConfig holds the sketching parameters.
type SketchConfig struct {
	// SmerLength is s, in bases. Default: 28
	SmerLength int `yaml:"smer_length"`

	// Window is W, the number of hashes buffered per window. Default: 16
	Window int `yaml:"window"`

	// Staged runs the stages as goroutines joined by channels.
	Staged bool `yaml:"staged"`

	// FIFODepth is the channel depth of the staged pipeline. Default: 1024
	FIFODepth int `yaml:"fifo_depth"`

	// ZeroSentinel ends a sequence at the first canonical hash of 0.
	ZeroSentinel bool `yaml:"zero_sentinel"`
}

// OutputConfig controls how sketches are written.
type OutputConfig struct {
	// Format is one of text, cbor, sketch. Default: text
	Format string `yaml:"format"`

	// Hashes includes every minimizer in text output, not just the summary.
	Hashes bool `yaml:"hashes"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	// Level is debug, info, warn or error. Default: info
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Sketch: SketchConfig{
			SmerLength: minisketch.DefaultSmerLength,
			Window:     minisketch.DefaultWindow,
			FIFODepth:  minisketch.DefaultFIFODepth,
		},
		Output: OutputConfig{Format: FormatText},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads the file named by path, or by MINISKETCH_CONFIG when path is
// empty. With neither set it returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads and validates a config file. Keys missing from the file
// keep their defaults; unknown keys are an error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Sketch.SmerLength < 1 || c.Sketch.SmerLength > 32 {
		errs = append(errs, fmt.Errorf("sketch.smer_length must be in [1, 32], got %d", c.Sketch.SmerLength))
	}
	if c.Sketch.Window < 1 {
		errs = append(errs, fmt.Errorf("sketch.window must be at least 1, got %d", c.Sketch.Window))
	}
	if c.Sketch.FIFODepth < 1 {
		errs = append(errs, fmt.Errorf("sketch.fifo_depth must be at least 1, got %d", c.Sketch.FIFODepth))
	}
	if !slices.Contains(Formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format must be one of %v, got %q", Formats, c.Output.Format))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// Options converts the sketch section into sketcher options.
func (c *Config) Options() []minisketch.Option {
	opts := []minisketch.Option{
		minisketch.WithSmerLength(c.Sketch.SmerLength),
		minisketch.WithWindow(c.Sketch.Window),
	}
	if c.Sketch.Staged {
		opts = append(opts, minisketch.WithStagedPipeline(c.Sketch.FIFODepth))
	}
	if c.Sketch.ZeroSentinel {
		opts = append(opts, minisketch.WithZeroSentinel())
	}
	return opts
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return 0, fmt.Errorf("unknown level %q", name)
	}
	return lvl, nil
}
