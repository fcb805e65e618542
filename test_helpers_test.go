package minisketch

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"testing"

	intbits "github.com/tamirms/minisketch/internal/bits"
	"github.com/tamirms/minisketch/internal/decode"
	"github.com/tamirms/minisketch/internal/mix"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

// newTestRNG returns a generator seeded from the test name, so every test
// draws the same sequences on every run.
func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// randomBases draws n bases uniformly from alphabet.
func randomBases(rng *rand.Rand, n int, alphabet string) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[intbits.FastRange32(rng.Uint64(), uint32(len(alphabet)))]
	}
	return b
}

// canonicalHashes computes the hash of every s-mer of bases from scratch.
func canonicalHashes(bases []byte, s int) []uint64 {
	mask := intbits.MaskRight(2 * s)
	var out []uint64
	for i := 0; i+s <= len(bases); i++ {
		var fwd, rev uint64
		for j := 0; j < s; j++ {
			fwd = fwd<<2 | uint64(decode.Encode(bases[i+j]))
		}
		for j := s - 1; j >= 0; j-- {
			rev = rev<<2 | uint64(decode.Encode(bases[i+j])^2)
		}
		canonical := rev
		if fwd < rev {
			canonical = fwd
		}
		out = append(out, mix.Hash(canonical, mask))
	}
	return out
}

// referenceSketch recomputes a sketch without any rolling state: every
// window minimum is taken over an explicit slice.
func referenceSketch(bases []byte, s, w int) []uint64 {
	hashes := canonicalHashes(bases, s)
	if len(hashes) == 0 {
		return nil
	}
	var out []uint64
	emit := func(v uint64) {
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	windowMin := func(v []uint64) uint64 {
		m := v[0]
		for _, x := range v[1:] {
			m = min(m, x)
		}
		return m
	}
	if len(hashes) <= w {
		emit(windowMin(hashes))
		return out
	}
	for i := w; i < len(hashes); i++ {
		emit(windowMin(hashes[i-w : i+1]))
	}
	return out
}

// mustNew builds a Sketcher or fails the test.
func mustNew(t testing.TB, opts ...Option) *Sketcher {
	t.Helper()
	sk, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sk
}

// sketchBases packs bases and returns their sketch.
func sketchBases(t testing.TB, sk *Sketcher, bases []byte) []uint64 {
	t.Helper()
	out, err := sk.AppendSketch(nil, Pack(bases))
	if err != nil {
		t.Fatalf("AppendSketch: %v", err)
	}
	return out
}
