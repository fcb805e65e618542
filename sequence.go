package minisketch

import (
	"slices"

	intbits "github.com/tamirms/minisketch/internal/bits"
	"github.com/tamirms/minisketch/internal/encoding"
)

// Sequence is a packed nucleotide sequence: N one-byte ASCII bases stored
// eight per little-endian word. Bytes at positions >= N in the last word
// are padding and never read.
type Sequence struct {
	Words []uint64
	N     uint64
}

// WordsFor returns the number of words needed to pack n bases, ceil(n/8).
func WordsFor(n uint64) uint64 {
	return intbits.WordsFor(n)
}

// Pack packs bases into a new Sequence. Bases are stored verbatim; any
// byte other than A, C, G or T is read as A by the sketcher.
func Pack(bases []byte) Sequence {
	return PackInto(nil, bases)
}

// PackInto packs bases into dst, reusing its capacity, and returns the
// Sequence backed by it. Padding bytes in the last word are zero.
func PackInto(dst []uint64, bases []byte) Sequence {
	n := uint64(len(bases))
	nw := int(WordsFor(n))
	dst = slices.Grow(dst[:0], nw)[:nw]

	full := len(bases) / 8
	encoding.Words(dst[:full], bases)
	if tail := bases[full*8:]; len(tail) > 0 {
		var w uint64
		for j, c := range tail {
			w |= uint64(c) << (8 * j)
		}
		dst[full] = w
	}
	return Sequence{Words: dst, N: n}
}

// Bases unpacks s back into ASCII bytes. An empty sequence returns nil.
func (s Sequence) Bases() []byte {
	if s.N == 0 {
		return nil
	}
	out := make([]byte, s.N)
	for i := range out {
		out[i] = byte(s.Words[i/8] >> (8 * (i % 8)))
	}
	return out
}
