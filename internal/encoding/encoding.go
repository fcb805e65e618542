// Package encoding provides serialization utilities for packed bases and
// hash arrays.
//
// PutWords and Words reinterpret []uint64 as raw bytes and are only correct
// on little-endian architectures (amd64, arm64). Their Generic counterparts
// are endian-independent and serve as the reference in tests.
package encoding

import (
	"encoding/binary"
	"unsafe"
)

// PutWords writes src into dst as little-endian 64-bit words.
// dst must hold at least 8*len(src) bytes. Returns the bytes written.
func PutWords(dst []byte, src []uint64) int {
	if len(src) == 0 {
		return 0
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&src[0])), len(src)*8)
	return copy(dst[:len(raw)], raw)
}

// Words reads len(dst) little-endian 64-bit words from src into dst.
// src must hold at least 8*len(dst) bytes; it need not be 8-byte aligned,
// which matters for words read out of a memory-mapped file.
func Words(dst []uint64, src []byte) {
	if len(dst) == 0 {
		return
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&dst[0])), len(dst)*8)
	copy(raw, src[:len(raw)])
}

// AppendWords appends src to dst as little-endian 64-bit words.
func AppendWords(dst []byte, src []uint64) []byte {
	n := len(dst)
	dst = append(dst, make([]byte, len(src)*8)...)
	PutWords(dst[n:], src)
	return dst
}

// PutWordsGeneric is the endian-independent form of PutWords.
func PutWordsGeneric(dst []byte, src []uint64) int {
	for i, w := range src {
		binary.LittleEndian.PutUint64(dst[i*8:], w)
	}
	return len(src) * 8
}

// WordsGeneric is the endian-independent form of Words.
func WordsGeneric(dst []uint64, src []byte) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint64(src[i*8:])
	}
}
