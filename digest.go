package minisketch

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"

	"github.com/tamirms/minisketch/internal/encoding"
)

// DigestSize is the size of a sketch digest in bytes.
const DigestSize = 16

// Digest returns the xxHash3-128 of hashes serialized as little-endian
// words. Two sketches with equal digests are, with overwhelming
// probability, identical; sketch files store it per record.
func Digest(hashes []uint64) [DigestSize]byte {
	return digestBytes(encoding.AppendWords(nil, hashes))
}

// digestBytes hashes an already serialized hash array, such as a record
// read straight out of a mapped sketch file.
func digestBytes(raw []byte) [DigestSize]byte {
	h := xxh3.Hash128(raw)
	var out [DigestSize]byte
	binary.LittleEndian.PutUint64(out[0:8], h.Lo)
	binary.LittleEndian.PutUint64(out[8:16], h.Hi)
	return out
}
