// Package output writes sketch results as text, CBOR or a sketch file.
package output

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/fxamacker/cbor/v2"

	"github.com/tamirms/minisketch"
	"github.com/tamirms/minisketch/internal/config"
)

// Writer consumes sketch results in order.
type Writer interface {
	// Write records one result. res.Hashes is not retained.
	Write(res minisketch.Result) error
	// Close flushes and finalizes the output.
	Close() error
	// Abort discards whatever can be discarded after a failed run.
	Abort() error
}

// Options configures New.
type Options struct {
	Format string
	// Hashes includes every minimizer in text output.
	Hashes bool
	// Path is the destination file for the sketch format.
	Path string
}

// New returns a Writer for opts.Format. Text and CBOR go to w; the sketch
// format is written to opts.Path with the parameters of sk.
func New(w io.Writer, sk *minisketch.Sketcher, opts Options) (Writer, error) {
	switch opts.Format {
	case config.FormatText, "":
		return newTextWriter(w, opts.Hashes), nil
	case config.FormatCBOR:
		return newCBORWriter(w), nil
	case config.FormatSketch:
		if opts.Path == "" || opts.Path == "-" {
			return nil, errors.New("sketch output needs a file path (-o)")
		}
		sw, err := minisketch.CreateSketchFile(opts.Path, sk)
		if err != nil {
			return nil, err
		}
		return sketchWriter{sw}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", opts.Format)
	}
}

// IsBrokenPipe reports whether err means the reader went away, as when
// output is piped into head.
func IsBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}

type textWriter struct {
	w       *bufio.Writer
	hashes  bool
	started bool
}

func newTextWriter(w io.Writer, hashes bool) *textWriter {
	return &textWriter{w: bufio.NewWriterSize(w, 64<<10), hashes: hashes}
}

func (t *textWriter) Write(res minisketch.Result) error {
	if !t.started {
		t.started = true
		if _, err := t.w.WriteString("#id\tbases\thashes\tdigest\n"); err != nil {
			return err
		}
	}
	digest := minisketch.Digest(res.Hashes)
	if _, err := fmt.Fprintf(t.w, "%s\t%d\t%d\t%s\n", res.ID, res.Bases, len(res.Hashes), hex.EncodeToString(digest[:])); err != nil {
		return err
	}
	if t.hashes {
		for _, h := range res.Hashes {
			if _, err := fmt.Fprintf(t.w, "\t%016x\n", h); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *textWriter) Close() error { return t.w.Flush() }

func (t *textWriter) Abort() error { return t.w.Flush() }

// cborRecord is the CBOR shape of one result. Field names are stable.
type cborRecord struct {
	ID     string   `cbor:"id"`
	Bases  uint64   `cbor:"bases"`
	Count  uint64   `cbor:"count"`
	Digest []byte   `cbor:"digest"`
	Hashes []uint64 `cbor:"hashes"`
}

// encMode uses Core Deterministic Encoding, so equal sketches encode to
// identical bytes.
var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("output: CBOR encoder initialization failed: " + err.Error())
	}
	return em
}()

type cborWriter struct {
	w   *bufio.Writer
	enc *cbor.Encoder
}

func newCBORWriter(w io.Writer) *cborWriter {
	bw := bufio.NewWriterSize(w, 64<<10)
	return &cborWriter{w: bw, enc: encMode.NewEncoder(bw)}
}

func (c *cborWriter) Write(res minisketch.Result) error {
	digest := minisketch.Digest(res.Hashes)
	return c.enc.Encode(cborRecord{
		ID:     res.ID,
		Bases:  res.Bases,
		Count:  uint64(len(res.Hashes)),
		Digest: digest[:],
		Hashes: res.Hashes,
	})
}

func (c *cborWriter) Close() error { return c.w.Flush() }

func (c *cborWriter) Abort() error { return c.w.Flush() }

type sketchWriter struct {
	sw *minisketch.SketchWriter
}

func (s sketchWriter) Write(res minisketch.Result) error { return s.sw.Add(res) }

func (s sketchWriter) Close() error { return s.sw.Close() }

func (s sketchWriter) Abort() error { return s.sw.Abort() }
