package output

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/tamirms/minisketch"
	"github.com/tamirms/minisketch/internal/config"
)

var testResults = []minisketch.Result{
	{ID: "r1", Bases: 28, Hashes: []uint64{0x00943AF65C920BE3}, Count: 1},
	{ID: "r2", Bases: 3, Hashes: nil},
	{ID: "r3", Bases: 90, Hashes: []uint64{1, 0xFF, 7}, Count: 3},
}

func writeAll(t *testing.T, w Writer) {
	t.Helper()
	for _, res := range testResults {
		require.NoError(t, w.Write(res))
	}
	require.NoError(t, w.Close())
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, nil, Options{Format: config.FormatText})
	require.NoError(t, err)
	writeAll(t, w)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "#id\tbases\thashes\tdigest", lines[0])
	d := minisketch.Digest(testResults[0].Hashes)
	require.Equal(t, "r1\t28\t1\t"+hex.EncodeToString(d[:]), lines[1])
	require.True(t, strings.HasPrefix(lines[2], "r2\t3\t0\t"))
}

func TestTextWriterHashes(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, nil, Options{Format: config.FormatText, Hashes: true})
	require.NoError(t, err)
	writeAll(t, w)

	out := buf.String()
	require.Contains(t, out, "\t00943af65c920be3\n")
	require.Contains(t, out, "\t00000000000000ff\n")
	require.Equal(t, 1+3+1+3, strings.Count(out, "\n"))
}

func TestCBORWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, nil, Options{Format: config.FormatCBOR})
	require.NoError(t, err)
	writeAll(t, w)

	dec := cbor.NewDecoder(&buf)
	for _, want := range testResults {
		var got cborRecord
		require.NoError(t, dec.Decode(&got))
		require.Equal(t, want.ID, got.ID)
		require.Equal(t, want.Bases, got.Bases)
		require.Equal(t, uint64(len(want.Hashes)), got.Count)
		d := minisketch.Digest(want.Hashes)
		require.Equal(t, d[:], got.Digest)
		require.Len(t, got.Hashes, len(want.Hashes))
	}
	var extra cborRecord
	require.ErrorIs(t, dec.Decode(&extra), io.EOF)
}

func TestCBORDeterministic(t *testing.T) {
	encode := func() []byte {
		var buf bytes.Buffer
		w := newCBORWriter(&buf)
		writeAll(t, w)
		return buf.Bytes()
	}
	require.Equal(t, encode(), encode())
}

func TestSketchFileWriter(t *testing.T) {
	sk, err := minisketch.New()
	require.NoError(t, err)

	_, err = New(nil, sk, Options{Format: config.FormatSketch})
	require.Error(t, err)
	_, err = New(nil, sk, Options{Format: config.FormatSketch, Path: "-"})
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "out.msk")
	w, err := New(nil, sk, Options{Format: config.FormatSketch, Path: path})
	require.NoError(t, err)
	writeAll(t, w)

	f, err := minisketch.OpenSketchFile(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.Verify())
	require.Equal(t, len(testResults), f.NumRecords())
	rec, err := f.Record(2)
	require.NoError(t, err)
	require.Equal(t, "r3", rec.ID)
	require.Equal(t, []uint64{1, 0xFF, 7}, rec.Hashes)
}

func TestUnknownFormat(t *testing.T) {
	_, err := New(io.Discard, nil, Options{Format: "json"})
	require.ErrorContains(t, err, "unknown output format")
}

func TestIsBrokenPipe(t *testing.T) {
	require.True(t, IsBrokenPipe(syscall.EPIPE))
	require.True(t, IsBrokenPipe(fmt.Errorf("write stdout: %w", syscall.EPIPE)))
	require.True(t, IsBrokenPipe(io.ErrClosedPipe))
	require.False(t, IsBrokenPipe(nil))
	require.False(t, IsBrokenPipe(errors.New("disk full")))
}
