package minisketch

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	sketcherrors "github.com/tamirms/minisketch/errors"
	"github.com/tamirms/minisketch/internal/encoding"
)

// WriteSequenceFile writes records to a packed sequence file at path.
//
// The file is sized exactly up front, pre-allocated and filled through a
// writable memory map. On failure the partial file is removed.
func WriteSequenceFile(path string, records []Record) (err error) {
	size := uint64(seqHeaderSize + footerSize)
	var totalBases uint64
	for _, r := range records {
		if len(r.ID) > maxIDLen {
			return fmt.Errorf("%w: %q...", sketcherrors.ErrRecordIDTooLong, r.ID[:32])
		}
		if need := WordsFor(r.Seq.N); uint64(len(r.Seq.Words)) < need {
			return fmt.Errorf("%w: record %q needs %d words, has %d",
				sketcherrors.ErrPrecondition, r.ID, need, len(r.Seq.Words))
		}
		size += seqRecordSize(len(r.ID), r.Seq.N)
		totalBases += r.Seq.N
	}
	if uint64(len(records)) > uint64(^uint32(0)) {
		return fmt.Errorf("%w: %d records exceed the file limit",
			sketcherrors.ErrPrecondition, len(records))
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create sequence file: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, os.Remove(path))
		}
	}()

	if err := fallocateFile(file, int64(size)); err != nil {
		primaryErr := fmt.Errorf("allocate sequence file: %w", err)
		return errors.Join(primaryErr, file.Close())
	}
	mm, err := mmap.MapRegion(file, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		primaryErr := fmt.Errorf("mmap sequence file: %w", err)
		return errors.Join(primaryErr, file.Close())
	}
	data := []byte(mm)
	populateForWrite(data)

	hdr := seqHeader{
		Magic:      seqMagic,
		Version:    version,
		NumRecords: uint32(len(records)),
		TotalBases: totalBases,
	}
	hdr.encodeTo(data)

	off := uint64(seqHeaderSize)
	for _, r := range records {
		off += putSeqRecord(data[off:], r)
	}
	ftr := footer{RecordRegionHash: xxhash.Sum64(data[seqHeaderSize:off])}
	ftr.encodeTo(data[off:])

	if err := mm.Flush(); err != nil {
		primaryErr := fmt.Errorf("mmap flush failed: %w", err)
		return errors.Join(primaryErr, mm.Unmap(), file.Close())
	}
	if err := mm.Unmap(); err != nil {
		primaryErr := fmt.Errorf("mmap unmap failed: %w", err)
		return errors.Join(primaryErr, file.Close())
	}
	return file.Close()
}

func seqRecordSize(idLen int, n uint64) uint64 {
	return 2 + uint64(idLen) + 8 + 8*WordsFor(n)
}

func putSeqRecord(buf []byte, r Record) uint64 {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(r.ID)))
	off := 2 + copy(buf[2:], r.ID)
	binary.LittleEndian.PutUint64(buf[off:], r.Seq.N)
	off += 8
	off += encoding.PutWords(buf[off:], r.Seq.Words[:WordsFor(r.Seq.N)])
	return uint64(off)
}

// seqRecordRef locates one record inside a mapped sequence file.
type seqRecordRef struct {
	id       string
	n        uint64
	wordsOff uint64
}

// SequenceFile is a read-only packed sequence file.
//
// Read methods are safe for concurrent use. Close must only be called
// after all readers are done.
type SequenceFile struct {
	mmap mmap.MMap
	data []byte

	header  *seqHeader
	records []seqRecordRef
	end     uint64 // end of the record region

	closed atomic.Bool
}

// OpenSequenceFile memory-maps the packed sequence file at path.
func OpenSequenceFile(path string) (*SequenceFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sequence file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat sequence file: %w", err)
	}
	if stat.Size() < seqHeaderSize+footerSize {
		return nil, sketcherrors.ErrTruncatedFile
	}
	adviseSequential(file, stat.Size())

	mm, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap sequence file: %w", err)
	}
	sf := &SequenceFile{mmap: mm, data: []byte(mm)}
	if err := sf.initFromData(); err != nil {
		return nil, errors.Join(err, sf.Close())
	}
	return sf, nil
}

// OpenSequenceFileBytes reads a packed sequence file held in memory.
// Close is a no-op. data must not be modified while the file is in use.
func OpenSequenceFileBytes(data []byte) (*SequenceFile, error) {
	if len(data) < seqHeaderSize+footerSize {
		return nil, sketcherrors.ErrTruncatedFile
	}
	sf := &SequenceFile{data: data}
	if err := sf.initFromData(); err != nil {
		return nil, err
	}
	return sf, nil
}

// initFromData parses the header and indexes every record.
func (sf *SequenceFile) initFromData() error {
	hdr, err := decodeSeqHeader(sf.data)
	if err != nil {
		return err
	}
	sf.header = hdr

	end := uint64(len(sf.data)) - footerSize
	off := uint64(seqHeaderSize)
	var totalBases uint64
	sf.records = make([]seqRecordRef, 0, min(uint64(hdr.NumRecords), end/10))
	for i := uint32(0); i < hdr.NumRecords; i++ {
		if off+2 > end {
			return sketcherrors.ErrTruncatedFile
		}
		idLen := uint64(binary.LittleEndian.Uint16(sf.data[off:]))
		off += 2
		if off+idLen+8 > end {
			return sketcherrors.ErrTruncatedFile
		}
		id := string(sf.data[off : off+idLen])
		off += idLen
		n := binary.LittleEndian.Uint64(sf.data[off:])
		off += 8
		if n > math.MaxInt {
			return sketcherrors.ErrCorruptedFile
		}
		nw := WordsFor(n)
		if nw > (end-off)/8 {
			return sketcherrors.ErrTruncatedFile
		}
		sf.records = append(sf.records, seqRecordRef{id: id, n: n, wordsOff: off})
		off += nw * 8
		totalBases += n
	}
	if off != end || totalBases != hdr.TotalBases {
		return sketcherrors.ErrCorruptedFile
	}
	sf.end = end
	return nil
}

// NumRecords returns the number of records in the file.
func (sf *SequenceFile) NumRecords() int {
	return len(sf.records)
}

// TotalBases returns the summed length of all records.
func (sf *SequenceFile) TotalBases() uint64 {
	return sf.header.TotalBases
}

// Record returns a copy of the i-th record.
func (sf *SequenceFile) Record(i int) (Record, error) {
	return sf.RecordInto(nil, i)
}

// RecordInto returns the i-th record with its words copied into dst,
// reusing dst's capacity.
func (sf *SequenceFile) RecordInto(dst []uint64, i int) (Record, error) {
	if sf.closed.Load() {
		return Record{}, sketcherrors.ErrFileClosed
	}
	if i < 0 || i >= len(sf.records) {
		return Record{}, fmt.Errorf("record %d out of range [0, %d)", i, len(sf.records))
	}
	ref := sf.records[i]
	nw := int(WordsFor(ref.n))
	if cap(dst) < nw {
		dst = make([]uint64, nw)
	}
	dst = dst[:nw]
	encoding.Words(dst, sf.data[ref.wordsOff:])
	return Record{ID: ref.id, Seq: Sequence{Words: dst, N: ref.n}}, nil
}

// Source returns a Source over the file's records in order. Each record's
// words are copied into one buffer reused across calls to Next, so a
// Record is only valid until the next call.
func (sf *SequenceFile) Source() Source {
	return &seqFileSource{sf: sf}
}

type seqFileSource struct {
	sf  *SequenceFile
	buf []uint64
	pos int
}

func (s *seqFileSource) Next() (Record, error) {
	if s.pos >= s.sf.NumRecords() {
		return Record{}, io.EOF
	}
	r, err := s.sf.RecordInto(s.buf, s.pos)
	if err != nil {
		return Record{}, err
	}
	s.buf = r.Seq.Words
	s.pos++
	return r, nil
}

// Verify checks the record region against the footer checksum.
func (sf *SequenceFile) Verify() error {
	if sf.closed.Load() {
		return sketcherrors.ErrFileClosed
	}
	ftr, err := decodeFooter(sf.data[sf.end:])
	if err != nil {
		return err
	}
	if xxhash.Sum64(sf.data[seqHeaderSize:sf.end]) != ftr.RecordRegionHash {
		return sketcherrors.ErrChecksumFailed
	}
	return nil
}

// Close releases the mapping. Safe to call more than once.
func (sf *SequenceFile) Close() error {
	if sf.closed.Swap(true) {
		return nil
	}
	if sf.mmap != nil {
		return sf.mmap.Unmap()
	}
	return nil
}
