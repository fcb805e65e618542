// Package mix implements the 64-bit avalanche hash applied to canonical
// s-mer values.
//
// The step sequence and the masking after every arithmetic step are part
// of the sketch format: changing either changes every stored minimizer.
package mix

// Hash mixes key and keeps the result within mask. The mask is applied
// after each step that can carry bits above the register width, so the
// result is identical to evaluating the mix in a register exactly as wide
// as mask.
func Hash(key, mask uint64) uint64 {
	key = (^key + (key << 21)) & mask
	key = key ^ (key >> 24)
	key = ((key + (key << 3)) + (key << 8)) & mask
	key = key ^ (key >> 14)
	key = ((key + (key << 2)) + (key << 4)) & mask
	key = key ^ (key >> 28)
	key = (key + (key << 31)) & mask
	return key
}

// HashWords hashes each word of src with the full 64-bit mask into dst.
// dst and src may be the same slice. Panics if dst is shorter than src.
func HashWords(dst, src []uint64) {
	_ = dst[:len(src)]
	for i, w := range src {
		dst[i] = Hash(w, ^uint64(0))
	}
}
