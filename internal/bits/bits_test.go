package bits

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

func TestMaskRight(t *testing.T) {
	cases := []struct {
		bits int
		want uint64
	}{
		{-1, 0},
		{0, 0},
		{1, 0x1},
		{2, 0x3},
		{8, 0xFF},
		{56, 0x00FFFFFFFFFFFFFF},
		{63, math.MaxUint64 >> 1},
		{64, math.MaxUint64},
		{65, math.MaxUint64},
	}
	for _, c := range cases {
		require.Equalf(t, c.want, MaskRight(c.bits), "MaskRight(%d)", c.bits)
	}
}

// TestMaskRightPopCount verifies the mask has exactly numBits set bits
// for every width a 2-bit-per-base register can take.
func TestMaskRightPopCount(t *testing.T) {
	for s := 1; s <= 32; s++ {
		m := MaskRight(2 * s)
		n := 0
		for v := m; v != 0; v &= v - 1 {
			n++
		}
		require.Equal(t, 2*s, n, "s=%d", s)
	}
}

func TestWordsFor(t *testing.T) {
	cases := map[uint64]uint64{
		0:  0,
		1:  1,
		7:  1,
		8:  1,
		9:  2,
		16: 2,
		17: 3,
		28: 4,
		29: 4,
		33: 5,

		math.MaxUint64:     1 << 61,
		math.MaxUint64 - 7: 1 << 61,
		math.MaxUint64 - 8: 1<<61 - 1,
	}
	for n, want := range cases {
		require.Equalf(t, want, WordsFor(n), "WordsFor(%d)", n)
	}
}

// TestFastRange32Range verifies that the result is always in [0, n).
func TestFastRange32Range(t *testing.T) {
	rng := newTestRNG(t)
	const iterations = 10000

	for i := 0; i < iterations; i++ {
		n := uint32(rng.Uint32N(math.MaxUint32)) + 1 // n in [1, MaxUint32]
		h := rng.Uint64()

		got := FastRange32(h, n)
		if got >= n {
			t.Fatalf("iter %d: FastRange32(0x%X, %d)=%d >= %d", i, h, n, got, n)
		}
	}
}

// TestFastRange32EdgeCases: n=0->0, n=1->0, h=0->0, h=MaxUint64->n-1.
func TestFastRange32EdgeCases(t *testing.T) {
	for _, h := range []uint64{0, 1, math.MaxUint64, 0xDEADBEEF} {
		require.Zero(t, FastRange32(h, 0))
		require.Zero(t, FastRange32(h, 1))
	}
	for n := uint32(1); n <= 100; n++ {
		require.Zero(t, FastRange32(0, n))
	}
	for n := uint32(2); n <= 100; n++ {
		require.Equal(t, n-1, FastRange32(math.MaxUint64, n))
	}
}

// TestFastRange32Bases checks the four-way split used to draw random bases
// covers every bucket.
func TestFastRange32Bases(t *testing.T) {
	rng := newTestRNG(t)
	var seen [4]int
	for i := 0; i < 4096; i++ {
		seen[FastRange32(rng.Uint64(), 4)]++
	}
	for b, c := range seen {
		require.Greaterf(t, c, 0, "bucket %d never drawn", b)
	}
}
