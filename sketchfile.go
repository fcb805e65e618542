package minisketch

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"os"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	sketcherrors "github.com/tamirms/minisketch/errors"
	"github.com/tamirms/minisketch/internal/encoding"
)

const (
	// sketchRecordFixed is the size of a record without its ID and hashes.
	sketchRecordFixed = 2 + 8 + 8 + DigestSize

	writeBufferSize = 1 << 20
)

// SketchWriter streams sketch records to a file.
//
// The header is written as a placeholder and patched on Close, once the
// record and hash totals are known. The record region checksum is computed
// while records are written.
type SketchWriter struct {
	path   string
	file   *os.File
	w      *bufio.Writer
	hasher *xxhash.Digest

	header  sketchHeader
	scratch []byte
	closed  bool
}

// CreateSketchFile creates a sketch file at path for sketches produced by
// sk. The file records sk's s, W and sentinel mode.
func CreateSketchFile(path string, sk *Sketcher) (*SketchWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create sketch file: %w", err)
	}

	sw := &SketchWriter{
		path:   path,
		file:   file,
		w:      bufio.NewWriterSize(file, writeBufferSize),
		hasher: xxhash.New(),
		header: sketchHeader{
			Magic:      sketchMagic,
			Version:    version,
			SmerLength: uint8(sk.SmerLength()),
			Window:     uint32(sk.Window()),
		},
	}
	if sk.ZeroSentinel() {
		sw.header.Flags |= sketchFlagZeroSentinel
	}

	var placeholder [sketchHeaderSize]byte
	if _, err := sw.w.Write(placeholder[:]); err != nil {
		return nil, errors.Join(fmt.Errorf("write sketch header: %w", err), sw.Abort())
	}
	return sw, nil
}

// Add appends one sketch. The digest is computed from res.Hashes.
func (sw *SketchWriter) Add(res Result) error {
	if sw.closed {
		return sketcherrors.ErrWriterClosed
	}
	if len(res.ID) > maxIDLen {
		return fmt.Errorf("%w: record of %d bytes", sketcherrors.ErrRecordIDTooLong, len(res.ID))
	}

	buf := sw.scratch[:0]
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(res.ID)))
	buf = append(buf, res.ID...)
	buf = binary.LittleEndian.AppendUint64(buf, res.Bases)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(res.Hashes)))
	digestAt := len(buf)
	buf = append(buf, make([]byte, DigestSize)...)
	hashesAt := len(buf)
	buf = encoding.AppendWords(buf, res.Hashes)
	digest := digestBytes(buf[hashesAt:])
	copy(buf[digestAt:], digest[:])
	sw.scratch = buf

	if _, err := sw.w.Write(buf); err != nil {
		return fmt.Errorf("write sketch record: %w", err)
	}
	if _, err := sw.hasher.Write(buf); err != nil {
		panic("hash.Hash.Write returned unexpected error: " + err.Error())
	}

	sw.header.NumRecords++
	sw.header.TotalHashes += uint64(len(res.Hashes))
	sw.header.TotalBases += res.Bases
	return nil
}

// Close writes the footer, patches the header and closes the file.
func (sw *SketchWriter) Close() error {
	if sw.closed {
		return sketcherrors.ErrWriterClosed
	}
	sw.closed = true

	var buf [sketchHeaderSize]byte
	ftr := footer{RecordRegionHash: sw.hasher.Sum64()}
	ftr.encodeTo(buf[:footerSize])
	if _, err := sw.w.Write(buf[:footerSize]); err != nil {
		return sw.fail(fmt.Errorf("write sketch footer: %w", err))
	}
	if err := sw.w.Flush(); err != nil {
		return sw.fail(fmt.Errorf("flush sketch file: %w", err))
	}
	sw.header.encodeTo(buf[:])
	if _, err := sw.file.WriteAt(buf[:], 0); err != nil {
		return sw.fail(fmt.Errorf("write sketch header: %w", err))
	}
	if err := sw.file.Close(); err != nil {
		sw.file = nil
		return sw.fail(fmt.Errorf("close sketch file: %w", err))
	}
	sw.file = nil
	return nil
}

// Abort closes and removes a partially written file.
func (sw *SketchWriter) Abort() error {
	sw.closed = true
	return sw.fail(nil)
}

func (sw *SketchWriter) fail(primary error) error {
	var closeErr error
	if sw.file != nil {
		closeErr = sw.file.Close()
		sw.file = nil
	}
	return errors.Join(primary, closeErr, os.Remove(sw.path))
}

// SketchRecord is one record of a sketch file.
type SketchRecord struct {
	ID     string
	Bases  uint64
	Digest [DigestSize]byte
	Hashes []uint64
}

type sketchRecordRef struct {
	id       string
	bases    uint64
	count    uint64
	digest   [DigestSize]byte
	hashesAt uint64
}

// SketchFile is a read-only sketch file.
//
// Read methods are safe for concurrent use. Close must only be called
// after all readers are done.
type SketchFile struct {
	mmap mmap.MMap
	data []byte

	header  *sketchHeader
	records []sketchRecordRef
	end     uint64

	closed atomic.Bool
}

// OpenSketchFile memory-maps the sketch file at path.
func OpenSketchFile(path string) (*SketchFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sketch file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat sketch file: %w", err)
	}
	if stat.Size() < sketchHeaderSize+footerSize {
		return nil, sketcherrors.ErrTruncatedFile
	}
	adviseSequential(file, stat.Size())

	mm, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap sketch file: %w", err)
	}
	f := &SketchFile{mmap: mm, data: []byte(mm)}
	if err := f.initFromData(); err != nil {
		return nil, errors.Join(err, f.Close())
	}
	return f, nil
}

// OpenSketchFileBytes reads a sketch file held in memory. Close is a no-op.
// data must not be modified while the file is in use.
func OpenSketchFileBytes(data []byte) (*SketchFile, error) {
	if len(data) < sketchHeaderSize+footerSize {
		return nil, sketcherrors.ErrTruncatedFile
	}
	f := &SketchFile{data: data}
	if err := f.initFromData(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *SketchFile) initFromData() error {
	hdr, err := decodeSketchHeader(f.data)
	if err != nil {
		return err
	}
	f.header = hdr

	end := uint64(len(f.data)) - footerSize
	off := uint64(sketchHeaderSize)
	var totalHashes, totalBases uint64
	f.records = make([]sketchRecordRef, 0, min(hdr.NumRecords, end/sketchRecordFixed))
	for i := uint64(0); i < hdr.NumRecords; i++ {
		if off+2 > end {
			return sketcherrors.ErrTruncatedFile
		}
		idLen := uint64(binary.LittleEndian.Uint16(f.data[off:]))
		off += 2
		if off+idLen+sketchRecordFixed-2 > end {
			return sketcherrors.ErrTruncatedFile
		}
		ref := sketchRecordRef{id: string(f.data[off : off+idLen])}
		off += idLen
		ref.bases = binary.LittleEndian.Uint64(f.data[off:])
		ref.count = binary.LittleEndian.Uint64(f.data[off+8:])
		copy(ref.digest[:], f.data[off+16:off+16+DigestSize])
		off += 16 + DigestSize
		if ref.count > (end-off)/8 {
			return sketcherrors.ErrTruncatedFile
		}
		ref.hashesAt = off
		off += ref.count * 8
		totalHashes += ref.count
		totalBases += ref.bases
		f.records = append(f.records, ref)
	}
	if off != end || totalHashes != hdr.TotalHashes || totalBases != hdr.TotalBases {
		return sketcherrors.ErrCorruptedFile
	}
	f.end = end
	return nil
}

// SmerLength returns the s the sketches were computed with.
func (f *SketchFile) SmerLength() int { return int(f.header.SmerLength) }

// Window returns the W the sketches were computed with.
func (f *SketchFile) Window() int { return int(f.header.Window) }

// ZeroSentinel reports whether the sketches were computed with
// WithZeroSentinel.
func (f *SketchFile) ZeroSentinel() bool {
	return f.header.Flags&sketchFlagZeroSentinel != 0
}

// NumRecords returns the number of records.
func (f *SketchFile) NumRecords() int { return len(f.records) }

// TotalHashes returns the summed sketch length of all records.
func (f *SketchFile) TotalHashes() uint64 { return f.header.TotalHashes }

// TotalBases returns the summed sequence length of all records.
func (f *SketchFile) TotalBases() uint64 { return f.header.TotalBases }

// Options returns the options that reproduce the file's sketches.
func (f *SketchFile) Options() []Option {
	opts := []Option{WithSmerLength(f.SmerLength()), WithWindow(f.Window())}
	if f.ZeroSentinel() {
		opts = append(opts, WithZeroSentinel())
	}
	return opts
}

// Compatible returns an error wrapping ErrParamMismatch if sk computes
// sketches with different parameters than the file's.
func (f *SketchFile) Compatible(sk *Sketcher) error {
	if sk.SmerLength() != f.SmerLength() || sk.Window() != f.Window() || sk.ZeroSentinel() != f.ZeroSentinel() {
		return fmt.Errorf("%w: file has s=%d W=%d zero-sentinel=%t, sketcher has s=%d W=%d zero-sentinel=%t",
			sketcherrors.ErrParamMismatch,
			f.SmerLength(), f.Window(), f.ZeroSentinel(),
			sk.SmerLength(), sk.Window(), sk.ZeroSentinel())
	}
	return nil
}

// Record returns a copy of the i-th record.
func (f *SketchFile) Record(i int) (SketchRecord, error) {
	if f.closed.Load() {
		return SketchRecord{}, sketcherrors.ErrFileClosed
	}
	if i < 0 || i >= len(f.records) {
		return SketchRecord{}, fmt.Errorf("record %d out of range [0, %d)", i, len(f.records))
	}
	ref := f.records[i]
	hashes := make([]uint64, ref.count)
	encoding.Words(hashes, f.data[ref.hashesAt:])
	return SketchRecord{ID: ref.id, Bases: ref.bases, Digest: ref.digest, Hashes: hashes}, nil
}

// Records iterates over every record in file order. Iteration stops early
// if the file is closed.
func (f *SketchFile) Records() iter.Seq[SketchRecord] {
	return func(yield func(SketchRecord) bool) {
		for i := range f.records {
			r, err := f.Record(i)
			if err != nil || !yield(r) {
				return
			}
		}
	}
}

// Verify checks the record region against the footer checksum and every
// record's hashes against its stored digest.
func (f *SketchFile) Verify() error {
	if f.closed.Load() {
		return sketcherrors.ErrFileClosed
	}
	ftr, err := decodeFooter(f.data[f.end:])
	if err != nil {
		return err
	}
	if xxhash.Sum64(f.data[sketchHeaderSize:f.end]) != ftr.RecordRegionHash {
		return sketcherrors.ErrChecksumFailed
	}
	for _, ref := range f.records {
		raw := f.data[ref.hashesAt : ref.hashesAt+ref.count*8]
		if digestBytes(raw) != ref.digest {
			return fmt.Errorf("%w: record %q digest", sketcherrors.ErrChecksumFailed, ref.id)
		}
	}
	return nil
}

// Close releases the mapping. Safe to call more than once.
func (f *SketchFile) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	if f.mmap != nil {
		return f.mmap.Unmap()
	}
	return nil
}
