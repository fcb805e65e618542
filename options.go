package minisketch

import "log/slog"

const (
	// DefaultSmerLength is the default s-mer length in bases.
	DefaultSmerLength = 28

	// DefaultWindow is the default number of buffered hashes per window.
	DefaultWindow = 16

	// DefaultFIFODepth is the channel depth between stages of the staged
	// pipeline.
	DefaultFIFODepth = 1024
)

// Option is a functional option for configuring a Sketcher.
type Option func(*sketchConfig)

type sketchConfig struct {
	smerLength   int
	window       int
	staged       bool
	fifoDepth    int
	zeroSentinel bool
	logger       *slog.Logger
}

func defaultSketchConfig() *sketchConfig {
	return &sketchConfig{
		smerLength: DefaultSmerLength,
		window:     DefaultWindow,
		fifoDepth:  DefaultFIFODepth,
		logger:     slog.New(slog.DiscardHandler),
	}
}

// WithSmerLength sets s, the number of bases per s-mer. Valid range is
// [1, 32].
func WithSmerLength(s int) Option {
	return func(c *sketchConfig) {
		c.smerLength = s
	}
}

// WithWindow sets W, the number of hashes buffered by the minimizer. Each
// minimizer is chosen among W+1 consecutive hashes.
func WithWindow(w int) Option {
	return func(c *sketchConfig) {
		c.window = w
	}
}

// WithStagedPipeline runs the four stages as goroutines connected by
// channels of the given depth. A full channel blocks its producer.
// depth <= 0 selects DefaultFIFODepth.
//
// Output is identical to the inline pipeline.
func WithStagedPipeline(depth int) Option {
	return func(c *sketchConfig) {
		c.staged = true
		if depth <= 0 {
			depth = DefaultFIFODepth
		}
		c.fifoDepth = depth
	}
}

// WithZeroSentinel makes a canonical hash of 0 end the sequence, matching
// sketches produced by pipelines that signal end of stream in-band with 0.
// The 0 is not emitted and any later s-mers are ignored.
//
// Without this option end of stream is signalled out of band and a hash of
// 0 is emitted like any other value.
func WithZeroSentinel() Option {
	return func(c *sketchConfig) {
		c.zeroSentinel = true
	}
}

// WithLogger sets the logger used by Run. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *sketchConfig) {
		if l == nil {
			l = slog.New(slog.DiscardHandler)
		}
		c.logger = l
	}
}
