package minisketch

import (
	"encoding/binary"

	sketcherrors "github.com/tamirms/minisketch/errors"
	"github.com/tamirms/minisketch/internal/smer"
)

const (
	// "MSEQ" in little-endian
	seqMagic = uint32(0x5145534D)

	// "MSKT" in little-endian
	sketchMagic = uint32(0x544B534D)

	// version is the current format version of both file kinds.
	version = uint16(0x0001)

	seqHeaderSize    = 32
	sketchHeaderSize = 64
	footerSize       = 16

	// maxIDLen is the longest record ID a file can store.
	maxIDLen = 1<<16 - 1

	// sketchFlagZeroSentinel marks sketches computed with WithZeroSentinel.
	sketchFlagZeroSentinel = uint8(1 << 0)
)

// seqHeader is the 32-byte header of a packed sequence file.
//
// Layout:
//
//	Offset  Size  Field       Type
//	0       4     Magic       0x5145534D ("MSEQ")
//	4       2     Version     0x0001
//	6       2     Reserved    zero
//	8       4     NumRecords  uint32_le
//	12      8     TotalBases  uint64_le
//	20      12    Reserved    zero
//
// Records follow the header back to back:
//
//	[IDLen uint16_le][ID][N uint64_le][ceil(N/8) words, uint64_le each]
type seqHeader struct {
	Magic      uint32
	Version    uint16
	NumRecords uint32
	TotalBases uint64
}

func (h *seqHeader) encodeTo(buf []byte) {
	clear(buf[:seqHeaderSize])
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.NumRecords)
	binary.LittleEndian.PutUint64(buf[12:20], h.TotalBases)
}

func decodeSeqHeader(buf []byte) (*seqHeader, error) {
	if len(buf) < seqHeaderSize {
		return nil, sketcherrors.ErrTruncatedFile
	}
	h := &seqHeader{
		Magic:      binary.LittleEndian.Uint32(buf[0:4]),
		Version:    binary.LittleEndian.Uint16(buf[4:6]),
		NumRecords: binary.LittleEndian.Uint32(buf[8:12]),
		TotalBases: binary.LittleEndian.Uint64(buf[12:20]),
	}
	if h.Magic != seqMagic {
		return nil, sketcherrors.ErrInvalidMagic
	}
	if h.Version != version {
		return nil, sketcherrors.ErrInvalidVersion
	}
	return h, nil
}

// sketchHeader is the 64-byte header of a sketch file.
//
// Layout:
//
//	Offset  Size  Field        Type
//	0       4     Magic        0x544B534D ("MSKT")
//	4       2     Version      0x0001
//	6       1     SmerLength   uint8 (s)
//	7       1     Flags        bit 0: zero sentinel
//	8       4     Window       uint32_le (W)
//	12      8     NumRecords   uint64_le
//	20      8     TotalHashes  uint64_le
//	28      8     TotalBases   uint64_le
//	36      28    Reserved     zero
//
// Records follow the header back to back:
//
//	[IDLen uint16_le][ID][Bases uint64_le][Count uint64_le][Digest 16B][Count hashes, uint64_le each]
type sketchHeader struct {
	Magic       uint32
	Version     uint16
	SmerLength  uint8
	Flags       uint8
	Window      uint32
	NumRecords  uint64
	TotalHashes uint64
	TotalBases  uint64
}

func (h *sketchHeader) encodeTo(buf []byte) {
	clear(buf[:sketchHeaderSize])
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	buf[6] = h.SmerLength
	buf[7] = h.Flags
	binary.LittleEndian.PutUint32(buf[8:12], h.Window)
	binary.LittleEndian.PutUint64(buf[12:20], h.NumRecords)
	binary.LittleEndian.PutUint64(buf[20:28], h.TotalHashes)
	binary.LittleEndian.PutUint64(buf[28:36], h.TotalBases)
}

func decodeSketchHeader(buf []byte) (*sketchHeader, error) {
	if len(buf) < sketchHeaderSize {
		return nil, sketcherrors.ErrTruncatedFile
	}
	h := &sketchHeader{
		Magic:       binary.LittleEndian.Uint32(buf[0:4]),
		Version:     binary.LittleEndian.Uint16(buf[4:6]),
		SmerLength:  buf[6],
		Flags:       buf[7],
		Window:      binary.LittleEndian.Uint32(buf[8:12]),
		NumRecords:  binary.LittleEndian.Uint64(buf[12:20]),
		TotalHashes: binary.LittleEndian.Uint64(buf[20:28]),
		TotalBases:  binary.LittleEndian.Uint64(buf[28:36]),
	}
	if h.Magic != sketchMagic {
		return nil, sketcherrors.ErrInvalidMagic
	}
	if h.Version != version {
		return nil, sketcherrors.ErrInvalidVersion
	}
	if h.SmerLength < 1 || int(h.SmerLength) > smer.MaxLength {
		return nil, sketcherrors.ErrCorruptedFile
	}
	if h.Window < 1 {
		return nil, sketcherrors.ErrCorruptedFile
	}
	if h.Flags&^sketchFlagZeroSentinel != 0 {
		return nil, sketcherrors.ErrCorruptedFile
	}
	return h, nil
}

// footer is the 16-byte trailer shared by both file kinds.
//
// Layout:
//
//	Offset  Size  Field             Type
//	0       8     RecordRegionHash  uint64_le (xxHash64 of every record byte)
//	8       8     Reserved          zero
type footer struct {
	RecordRegionHash uint64
}

func (f *footer) encodeTo(buf []byte) {
	clear(buf[:footerSize])
	binary.LittleEndian.PutUint64(buf[0:8], f.RecordRegionHash)
}

func decodeFooter(buf []byte) (*footer, error) {
	if len(buf) < footerSize {
		return nil, sketcherrors.ErrTruncatedFile
	}
	return &footer{RecordRegionHash: binary.LittleEndian.Uint64(buf[0:8])}, nil
}

// FileKind identifies a minisketch file from its leading bytes.
type FileKind uint8

const (
	KindUnknown FileKind = iota
	KindSequence
	KindSketch
)

// MagicLen is the number of leading bytes DetectFileKind inspects.
const MagicLen = 4

// DetectFileKind reports which file format head starts with.
func DetectFileKind(head []byte) FileKind {
	if len(head) < MagicLen {
		return KindUnknown
	}
	switch binary.LittleEndian.Uint32(head) {
	case seqMagic:
		return KindSequence
	case sketchMagic:
		return KindSketch
	}
	return KindUnknown
}

func (k FileKind) String() string {
	switch k {
	case KindSequence:
		return "sequence"
	case KindSketch:
		return "sketch"
	default:
		return "unknown"
	}
}
