// Package smer maintains rolling forward and reverse-complement encodings
// of the last s bases and hashes their canonical form.
package smer

import (
	intbits "github.com/tamirms/minisketch/internal/bits"
	"github.com/tamirms/minisketch/internal/mix"
	"github.com/tamirms/minisketch/internal/stage"
)

// MaxLength is the longest s-mer whose 2-bit encoding fits a 64-bit word.
const MaxLength = 32

// complementMask turns a code into the code inserted into the
// reverse-complement register. The sketch format pairs A with G and C with T.
const complementMask = 0x2

// Canonical returns the smaller of the forward and reverse-complement
// values. On a tie the reverse-complement operand is returned.
func Canonical(forward, reverse uint64) uint64 {
	if forward < reverse {
		return forward
	}
	return reverse
}

// Builder is the rolling s-mer register pair. It is not safe for concurrent
// use; each pipeline owns its own Builder.
type Builder struct {
	s       int
	mask    uint64
	rcShift uint

	forward uint64
	reverse uint64
	primed  int
	state   stage.State
}

// New returns a Builder for s-mers of s bases. s must be in [1, MaxLength];
// callers validate it.
func New(s int) *Builder {
	return &Builder{
		s:       s,
		mask:    intbits.MaskRight(2 * s),
		rcShift: uint(2*s - 2),
	}
}

// Reset clears the registers for a new sequence.
func (b *Builder) Reset() {
	b.forward = 0
	b.reverse = 0
	b.primed = 0
	b.state = stage.Warmup
}

// Push shifts code into both registers. The first s-1 pushes only prime the
// registers and return ok=false; every later push returns the hash of the
// canonical s-mer ending at this base.
func (b *Builder) Push(code uint8) (hash uint64, ok bool) {
	b.forward = ((b.forward << 2) | uint64(code)) & b.mask
	b.reverse = (b.reverse >> 2) | (uint64(code^complementMask) << b.rcShift)

	if b.primed < b.s-1 {
		b.primed++
		return 0, false
	}
	b.state = stage.Streaming
	return mix.Hash(Canonical(b.forward, b.reverse), b.mask), true
}

// End marks the end of the input stream.
func (b *Builder) End() {
	b.state = stage.Drain
}

// Close marks the end-of-stream signal as forwarded.
func (b *Builder) Close() {
	b.state = stage.Done
}

// State returns the builder's lifecycle state.
func (b *Builder) State() stage.State {
	return b.state
}

// Forward returns the forward register.
func (b *Builder) Forward() uint64 { return b.forward }

// Reverse returns the reverse-complement register.
func (b *Builder) Reverse() uint64 { return b.reverse }

// Mask returns the 2s-bit register mask, also used as the hash mask.
func (b *Builder) Mask() uint64 { return b.mask }

// Length returns s.
func (b *Builder) Length() int { return b.s }
