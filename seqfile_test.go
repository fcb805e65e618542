package minisketch

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	sketcherrors "github.com/tamirms/minisketch/errors"
)

func writeTestSequenceFile(t *testing.T, records []Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reads.pseq")
	require.NoError(t, WriteSequenceFile(path, records))
	return path
}

func TestSequenceFileRoundTrip(t *testing.T) {
	records, raw := randomRecords(t, 9)
	records = append(records, Record{ID: "", Seq: Pack(nil)})
	raw = append(raw, nil)
	path := writeTestSequenceFile(t, records)

	sf, err := OpenSequenceFile(path)
	require.NoError(t, err)
	defer sf.Close()

	require.NoError(t, sf.Verify())
	require.Equal(t, len(records), sf.NumRecords())

	var total uint64
	for i, want := range records {
		got, err := sf.Record(i)
		require.NoError(t, err)
		require.Equal(t, want.ID, got.ID)
		require.Equal(t, want.Seq.N, got.Seq.N)
		require.Equal(t, want.Seq.Words, got.Seq.Words)
		require.Equal(t, raw[i], got.Seq.Bases())
		total += want.Seq.N
	}
	require.Equal(t, total, sf.TotalBases())

	_, err = sf.Record(len(records))
	require.Error(t, err)
}

func TestSequenceFileEmpty(t *testing.T) {
	path := writeTestSequenceFile(t, nil)
	sf, err := OpenSequenceFile(path)
	require.NoError(t, err)
	defer sf.Close()
	require.Zero(t, sf.NumRecords())
	require.NoError(t, sf.Verify())
	_, err = sf.Source().Next()
	require.ErrorIs(t, err, io.EOF)
}

// TestSequenceFileSourceSketches runs a batch straight off a mapped file.
func TestSequenceFileSourceSketches(t *testing.T) {
	records, raw := randomRecords(t, 6)
	path := writeTestSequenceFile(t, records)
	sf, err := OpenSequenceFile(path)
	require.NoError(t, err)
	defer sf.Close()

	sk := mustNew(t)
	i := 0
	_, err = sk.Run(context.Background(), sf.Source(), func(res Result) error {
		want := referenceSketch(raw[i], DefaultSmerLength, DefaultWindow)
		if len(want) == 0 {
			require.Empty(t, res.Hashes)
		} else {
			require.Equal(t, want, res.Hashes)
		}
		i++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, len(records), i)
}

func TestSequenceFileOpenBytes(t *testing.T) {
	records, _ := randomRecords(t, 3)
	data, err := os.ReadFile(writeTestSequenceFile(t, records))
	require.NoError(t, err)

	sf, err := OpenSequenceFileBytes(data)
	require.NoError(t, err)
	require.NoError(t, sf.Verify())
	require.Equal(t, 3, sf.NumRecords())
	require.NoError(t, sf.Close())
	require.NoError(t, sf.Close())

	_, err = sf.Record(0)
	require.ErrorIs(t, err, sketcherrors.ErrFileClosed)
	require.ErrorIs(t, sf.Verify(), sketcherrors.ErrFileClosed)
}

func TestSequenceFileCorruption(t *testing.T) {
	records, _ := randomRecords(t, 4)
	data, err := os.ReadFile(writeTestSequenceFile(t, records))
	require.NoError(t, err)

	clone := func() []byte { return append([]byte(nil), data...) }

	t.Run("magic", func(t *testing.T) {
		d := clone()
		d[0] ^= 0xFF
		_, err := OpenSequenceFileBytes(d)
		require.ErrorIs(t, err, sketcherrors.ErrInvalidMagic)
	})
	t.Run("version", func(t *testing.T) {
		d := clone()
		binary.LittleEndian.PutUint16(d[4:], 9)
		_, err := OpenSequenceFileBytes(d)
		require.ErrorIs(t, err, sketcherrors.ErrInvalidVersion)
	})
	t.Run("truncated", func(t *testing.T) {
		_, err := OpenSequenceFileBytes(data[:len(data)-40])
		require.ErrorIs(t, err, sketcherrors.ErrTruncatedFile)
		_, err = OpenSequenceFileBytes(data[:20])
		require.ErrorIs(t, err, sketcherrors.ErrTruncatedFile)
	})
	t.Run("record count", func(t *testing.T) {
		d := clone()
		binary.LittleEndian.PutUint32(d[8:], 3)
		_, err := OpenSequenceFileBytes(d)
		require.ErrorIs(t, err, sketcherrors.ErrCorruptedFile)
	})
	t.Run("total bases", func(t *testing.T) {
		d := clone()
		binary.LittleEndian.PutUint64(d[12:], binary.LittleEndian.Uint64(d[12:])+1)
		_, err := OpenSequenceFileBytes(d)
		require.ErrorIs(t, err, sketcherrors.ErrCorruptedFile)
	})
	t.Run("payload bit flip", func(t *testing.T) {
		d := clone()
		// first packed word of record 0: header, id length, "seqa", n
		d[seqHeaderSize+2+4+8] ^= 0x01
		sf, err := OpenSequenceFileBytes(d)
		require.NoError(t, err)
		require.ErrorIs(t, sf.Verify(), sketcherrors.ErrChecksumFailed)
	})
}

// TestSequenceFileHugeBaseCount hand-builds a file whose only record
// claims 2^64-1 bases and stores no words.
func TestSequenceFileHugeBaseCount(t *testing.T) {
	data := make([]byte, seqHeaderSize+2+8+footerSize)
	hdr := seqHeader{Magic: seqMagic, Version: version, NumRecords: 1, TotalBases: math.MaxUint64}
	hdr.encodeTo(data)
	binary.LittleEndian.PutUint64(data[seqHeaderSize+2:], math.MaxUint64)

	_, err := OpenSequenceFileBytes(data)
	require.ErrorIs(t, err, sketcherrors.ErrCorruptedFile)
}

func TestWriteSequenceFileRejects(t *testing.T) {
	dir := t.TempDir()

	long := Record{ID: strings.Repeat("x", maxIDLen+1), Seq: Pack([]byte("ACGT"))}
	err := WriteSequenceFile(filepath.Join(dir, "a.pseq"), []Record{long})
	require.ErrorIs(t, err, sketcherrors.ErrRecordIDTooLong)

	short := Record{ID: "s", Seq: Sequence{N: 20}}
	err = WriteSequenceFile(filepath.Join(dir, "b.pseq"), []Record{short})
	require.ErrorIs(t, err, sketcherrors.ErrPrecondition)

	_, err = os.Stat(filepath.Join(dir, "b.pseq"))
	require.True(t, os.IsNotExist(err))
}

func TestDetectFileKind(t *testing.T) {
	require.Equal(t, KindSequence, DetectFileKind([]byte("MSEQ....")))
	require.Equal(t, KindSketch, DetectFileKind([]byte("MSKT")))
	require.Equal(t, KindUnknown, DetectFileKind([]byte(">seq1")))
	require.Equal(t, KindUnknown, DetectFileKind([]byte("MS")))

	records, _ := randomRecords(t, 2)
	data, err := os.ReadFile(writeTestSequenceFile(t, records))
	require.NoError(t, err)
	require.Equal(t, KindSequence, DetectFileKind(data))
	require.Equal(t, "sequence", DetectFileKind(data).String())
}
