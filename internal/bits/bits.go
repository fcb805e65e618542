// Package bits provides low-level bit manipulation primitives.
package bits

import "math/bits"

// MaskRight returns a mask with the low numBits bits set.
// numBits >= 64 yields all ones; numBits <= 0 yields zero.
func MaskRight(numBits int) uint64 {
	if numBits >= 64 {
		return ^uint64(0)
	}
	if numBits <= 0 {
		return 0
	}
	return (uint64(1) << numBits) - 1
}

// WordsFor returns the number of 64-bit words needed to hold n one-byte
// bases, i.e. ceil(n/8). Exact for every n, including those within 7 of
// MaxUint64.
func WordsFor(n uint64) uint64 {
	w := n / 8
	if n%8 != 0 {
		w++
	}
	return w
}

// FastRange32 maps a 64-bit hash uniformly to [0, n) returning uint32.
// Uses the "fastrange" technique: multiply and take high bits.
// This is the standard way to map hashes to ranges without modulo bias.
func FastRange32(hash uint64, n uint32) uint32 {
	if n == 0 {
		return 0
	}
	hi, _ := bits.Mul64(hash, uint64(n))
	return uint32(hi)
}
