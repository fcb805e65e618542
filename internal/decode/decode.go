// Package decode unpacks one-byte-per-base sequence words into 2-bit
// nucleotide codes tagged with a validity flag.
//
// Input words hold eight raw ASCII bases in little-endian order: byte j of
// word i is base 8*i+j. Bases at positions >= n are padding.
package decode

import "iter"

// Nucleotide codes.
const (
	CodeA uint8 = 0
	CodeC uint8 = 1
	CodeG uint8 = 2
	CodeT uint8 = 3
)

// BasesPerWord is the number of one-byte bases packed in a 64-bit word.
const BasesPerWord = 8

// codeTable maps every byte to its 2-bit code. Anything other than the four
// upper-case bases (including 'N' and lower case) maps to CodeA.
var codeTable = func() (t [256]uint8) {
	t['A'] = CodeA
	t['C'] = CodeC
	t['G'] = CodeG
	t['T'] = CodeT
	return t
}()

// Encode returns the 2-bit code of an ASCII base. Unknown bytes silently
// encode as CodeA.
func Encode(c byte) uint8 {
	return codeTable[c]
}

// Symbol is one decoded base.
type Symbol struct {
	Code  uint8
	Valid bool
}

// Word holds the eight symbols decoded from one input word, three bits per
// symbol: bits 3j..3j+1 carry the code and bit 3j+2 the valid flag.
type Word uint32

// Symbol returns the j-th symbol (0 <= j < 8) of w.
func (w Word) Symbol(j int) Symbol {
	t := uint32(w) >> (3 * j)
	return Symbol{Code: uint8(t & 3), Valid: t&4 != 0}
}

// DecodeWord decodes the eight bases of the wordIndex-th input word of a
// sequence holding n bases. Positions >= n are marked invalid with code 0.
// allValid reports whether every position of the word is valid.
func DecodeWord(word uint64, wordIndex, n uint64) (w Word, allValid bool) {
	allValid = true
	base := wordIndex * BasesPerWord
	for j := 0; j < BasesPerWord; j++ {
		if base+uint64(j) >= n {
			allValid = false
			continue
		}
		c := Encode(byte(word >> (8 * j)))
		w |= Word(uint32(c)|4) << (3 * j)
	}
	return w, allValid
}

// Decoder produces decoded words in sequence order.
//
// Decoding stops after the first word that holds an invalid position, so at
// most ceil(n/8) words are ever read. When n is a multiple of 8 no word is
// invalid and the decoder simply runs out; consumers treat exhaustion as the
// end of the stream.
type Decoder struct {
	words []uint64
	n     uint64
	next  uint64
	done  bool
}

// NewDecoder returns a decoder over words holding n bases.
// The caller guarantees len(words) >= ceil(n/8).
func NewDecoder(words []uint64, n uint64) *Decoder {
	d := &Decoder{}
	d.Reset(words, n)
	return d
}

// Reset rewinds d onto a new sequence.
func (d *Decoder) Reset(words []uint64, n uint64) {
	d.words = words
	d.n = n
	d.next = 0
	d.done = n == 0
}

// Next returns the next decoded word. ok is false once the decoder is done.
func (d *Decoder) Next() (w Word, ok bool) {
	if d.done {
		return 0, false
	}
	w, allValid := DecodeWord(d.words[d.next], d.next, d.n)
	d.next++
	if !allValid || d.next*BasesPerWord >= d.n {
		d.done = true
	}
	return w, true
}

// WordsDecoded returns how many input words have been read so far.
func (d *Decoder) WordsDecoded() uint64 {
	return d.next
}

// Words iterates over the remaining decoded words.
func (d *Decoder) Words() iter.Seq[Word] {
	return func(yield func(Word) bool) {
		for {
			w, ok := d.Next()
			if !ok || !yield(w) {
				return
			}
		}
	}
}

// Symbols iterates over every symbol of the remaining words, padding
// included.
func (d *Decoder) Symbols() iter.Seq[Symbol] {
	return func(yield func(Symbol) bool) {
		for w := range d.Words() {
			for j := 0; j < BasesPerWord; j++ {
				if !yield(w.Symbol(j)) {
					return
				}
			}
		}
	}
}
