package mix

import (
	"encoding/binary"
	"hash/fnv"
	"math/big"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	intbits "github.com/tamirms/minisketch/internal/bits"
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

// bigHash evaluates the mix with arbitrary-precision integers, reducing
// modulo 2^64 where the native code wraps and ANDing with mask where the
// native code masks.
func bigHash(key, mask uint64) uint64 {
	mod := new(big.Int).Lsh(big.NewInt(1), 64)
	m := new(big.Int).SetUint64(mask)
	k := new(big.Int).SetUint64(key)

	wrap := func(x *big.Int) *big.Int { return x.Mod(x, mod) }
	shl := func(x *big.Int, n uint) *big.Int { return wrap(new(big.Int).Lsh(x, n)) }
	shr := func(x *big.Int, n uint) *big.Int { return new(big.Int).Rsh(x, n) }
	not := func(x *big.Int) *big.Int {
		return new(big.Int).Sub(new(big.Int).Sub(mod, big.NewInt(1)), x)
	}
	add := func(xs ...*big.Int) *big.Int {
		s := new(big.Int)
		for _, x := range xs {
			s.Add(s, x)
		}
		return wrap(s)
	}

	k = new(big.Int).And(add(not(k), shl(k, 21)), m)
	k = new(big.Int).Xor(k, shr(k, 24))
	k = new(big.Int).And(add(k, shl(k, 3), shl(k, 8)), m)
	k = new(big.Int).Xor(k, shr(k, 14))
	k = new(big.Int).And(add(k, shl(k, 2), shl(k, 4)), m)
	k = new(big.Int).Xor(k, shr(k, 28))
	k = new(big.Int).And(add(k, shl(k, 31)), m)
	return k.Uint64()
}

func TestHashKnownValues(t *testing.T) {
	m56 := intbits.MaskRight(56)
	full := intbits.MaskRight(64)

	cases := []struct {
		key, mask, want uint64
	}{
		{0, m56, 0x0077CFA1A6F01BCA},
		{0, full, 0x77CFA1EEF01BCA90},
		{1, full, 0x5BCA7C69B794F8CE},
		{0xDEADBEEF, full, 0x386F2A5F36B257CB},
		// canonical value of ACGTACGT...ACGT (28 bases), see smer tests
		{0x1B1B1B1B1B1B1B, m56, 0x00943AF65C920BE3},
	}
	for _, c := range cases {
		require.Equalf(t, c.want, Hash(c.key, c.mask), "Hash(0x%X, 0x%X)", c.key, c.mask)
	}
}

// TestHashMatchesArbitraryPrecision cross-checks the native wraparound
// arithmetic against math/big for random keys at every s-mer width.
func TestHashMatchesArbitraryPrecision(t *testing.T) {
	rng := newTestRNG(t)
	for s := 1; s <= 32; s++ {
		mask := intbits.MaskRight(2 * s)
		for i := 0; i < 200; i++ {
			key := rng.Uint64() & mask
			require.Equalf(t, bigHash(key, mask), Hash(key, mask), "s=%d key=0x%X", s, key)
		}
	}
}

func TestHashStaysWithinMask(t *testing.T) {
	rng := newTestRNG(t)
	for s := 1; s <= 32; s++ {
		mask := intbits.MaskRight(2 * s)
		for i := 0; i < 1000; i++ {
			require.Zero(t, Hash(rng.Uint64()&mask, mask)&^mask)
		}
	}
}

func TestHashDeterministic(t *testing.T) {
	rng := newTestRNG(t)
	mask := intbits.MaskRight(56)
	for i := 0; i < 100; i++ {
		k := rng.Uint64() & mask
		require.Equal(t, Hash(k, mask), Hash(k, mask))
	}
}

func TestHashWords(t *testing.T) {
	rng := newTestRNG(t)
	src := make([]uint64, 33)
	for i := range src {
		src[i] = rng.Uint64()
	}
	dst := make([]uint64, len(src))
	HashWords(dst, src)
	for i := range src {
		require.Equal(t, Hash(src[i], ^uint64(0)), dst[i])
	}

	// in place
	inPlace := append([]uint64(nil), src...)
	HashWords(inPlace, inPlace)
	require.Equal(t, dst, inPlace)

	require.Panics(t, func() { HashWords(make([]uint64, 1), src) })
}
