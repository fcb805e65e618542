package minisketch

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	sketcherrors "github.com/tamirms/minisketch/errors"
	"github.com/tamirms/minisketch/internal/decode"
	"github.com/tamirms/minisketch/internal/smer"
	"github.com/tamirms/minisketch/internal/window"
)

// Sketcher turns packed sequences into minimizer sketches.
//
// A Sketcher owns the rolling state of every stage and reuses it across
// calls, so it is not safe for concurrent use. Use one Sketcher per
// goroutine.
type Sketcher struct {
	cfg *sketchConfig

	dec  *decode.Decoder
	smer *smer.Builder
	win  *window.Minimizer
	sink resultSink

	batchBuf []uint64 // output buffer reused by Run
}

// New returns a Sketcher configured by opts. Invalid parameters return an
// error wrapping ErrPrecondition.
func New(opts ...Option) (*Sketcher, error) {
	cfg := defaultSketchConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.smerLength < 1 || cfg.smerLength > smer.MaxLength {
		return nil, fmt.Errorf("%w: s-mer length %d outside [1, %d]",
			sketcherrors.ErrPrecondition, cfg.smerLength, smer.MaxLength)
	}
	if cfg.window < 1 {
		return nil, fmt.Errorf("%w: window %d must be at least 1",
			sketcherrors.ErrPrecondition, cfg.window)
	}
	if cfg.fifoDepth < 1 {
		return nil, fmt.Errorf("%w: fifo depth %d must be at least 1",
			sketcherrors.ErrPrecondition, cfg.fifoDepth)
	}

	return &Sketcher{
		cfg:  cfg,
		dec:  decode.NewDecoder(nil, 0),
		smer: smer.New(cfg.smerLength),
		win:  window.New(cfg.window),
	}, nil
}

// SmerLength returns s.
func (sk *Sketcher) SmerLength() int { return sk.cfg.smerLength }

// Window returns W.
func (sk *Sketcher) Window() int { return sk.cfg.window }

// ZeroSentinel reports whether a hash of 0 ends a sequence.
func (sk *Sketcher) ZeroSentinel() bool { return sk.cfg.zeroSentinel }

// Staged reports whether the staged pipeline is used.
func (sk *Sketcher) Staged() bool { return sk.cfg.staged }

// Logger returns the configured logger.
func (sk *Sketcher) Logger() *slog.Logger { return sk.cfg.logger }

// MaxHashes returns the largest number of minimizers a sequence of n
// bases can produce: n-s+1, or 0 when n < s. Output buffers passed to
// Sketch must hold at least this many values.
func (sk *Sketcher) MaxHashes(n uint64) uint64 {
	s := uint64(sk.cfg.smerLength)
	if n < s {
		return 0
	}
	return n - s + 1
}

// Sketch writes the minimizer sketch of seq into out and returns the number
// of hashes written.
//
// seq.Words must hold at least WordsFor(seq.N) words and out at least
// MaxHashes(seq.N) values; otherwise the error wraps ErrPrecondition and
// out is untouched. out[:MaxHashes(seq.N)] is cleared before the run, so
// entries past the returned count are zero.
func (sk *Sketcher) Sketch(seq Sequence, out []uint64) (uint64, error) {
	if err := checkSequence(seq); err != nil {
		return 0, err
	}
	maxOut := sk.MaxHashes(seq.N)
	if uint64(len(out)) < maxOut {
		return 0, fmt.Errorf("%w: output holds %d hashes, sequence of %d bases needs %d",
			sketcherrors.ErrPrecondition, len(out), seq.N, maxOut)
	}
	out = out[:maxOut]
	clear(out)

	sk.sink.reset(out)
	var err error
	if sk.cfg.staged {
		err = sk.runStaged(seq)
	} else {
		err = sk.runInline(seq)
	}
	return sk.sink.count, err
}

// AppendSketch appends the minimizer sketch of seq to dst.
func (sk *Sketcher) AppendSketch(dst []uint64, seq Sequence) ([]uint64, error) {
	if err := checkSequence(seq); err != nil {
		return dst, err
	}
	maxOut := int(sk.MaxHashes(seq.N))
	n := len(dst)
	dst = slices.Grow(dst, maxOut)
	count, err := sk.Sketch(seq, dst[n:n+maxOut])
	if err != nil {
		return dst[:n], err
	}
	return dst[:n+int(count)], nil
}

// checkSequence rejects sequences whose words cannot hold N bases, and
// base counts an output buffer index cannot address.
func checkSequence(seq Sequence) error {
	if seq.N > math.MaxInt {
		return fmt.Errorf("%w: sequence of %d bases exceeds the addressable length",
			sketcherrors.ErrPrecondition, seq.N)
	}
	if need := WordsFor(seq.N); uint64(len(seq.Words)) < need {
		return fmt.Errorf("%w: sequence of %d bases needs %d words, buffer has %d",
			sketcherrors.ErrPrecondition, seq.N, need, len(seq.Words))
	}
	return nil
}

// resetStages prepares every stage for a new sequence.
func (sk *Sketcher) resetStages(seq Sequence) {
	sk.dec.Reset(seq.Words, seq.N)
	sk.smer.Reset()
	sk.win.Reset()
}

// endOfSmer reports whether h terminates the sequence under the zero
// sentinel convention.
func (sk *Sketcher) endOfSmer(h uint64) bool {
	return sk.cfg.zeroSentinel && h == 0
}
