// Package fasta reads FASTA records from plain or compressed streams.
package fasta

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Record is one FASTA entry. ID is the first whitespace-separated token of
// the header line; Seq holds the upper-cased sequence lines joined.
type Record struct {
	ID  string
	Seq []byte
}

// Reader yields records one at a time.
type Reader struct {
	r      *bufio.Reader
	closer io.Closer

	line      int
	pendingID string
	pending   bool
	done      bool
}

// NewReader reads FASTA from rc. Closing the Reader closes rc.
func NewReader(rc io.ReadCloser) *Reader {
	return &Reader{r: bufio.NewReaderSize(rc, 64<<10), closer: rc}
}

// Next returns the next record, or io.EOF after the last one. Seq is a
// fresh slice owned by the caller.
func (r *Reader) Next() (Record, error) {
	if r.done {
		return Record{}, io.EOF
	}

	var rec Record
	started := false
	if r.pending {
		rec.ID = r.pendingID
		r.pending = false
		started = true
	}

	for {
		raw, err := r.r.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Record{}, fmt.Errorf("fasta line %d: %w", r.line+1, err)
		}
		eof := err != nil
		if len(raw) > 0 {
			r.line++
		}
		line := bytes.TrimRight(raw, " \t\r\n")

		switch {
		case len(line) == 0:
		case line[0] == '>':
			id := headerID(line[1:])
			if started {
				r.pendingID = id
				r.pending = true
				return rec, nil
			}
			rec.ID = id
			started = true
		default:
			if !started {
				return Record{}, fmt.Errorf("fasta line %d: sequence data before first header", r.line)
			}
			rec.Seq = appendUpper(rec.Seq, bytes.TrimLeft(line, " \t"))
		}

		if eof {
			r.done = true
			if started {
				return rec, nil
			}
			return Record{}, io.EOF
		}
	}
}

// Close closes the underlying stream.
func (r *Reader) Close() error {
	return r.closer.Close()
}

func headerID(header []byte) string {
	fields := bytes.Fields(header)
	if len(fields) == 0 {
		return ""
	}
	return string(fields[0])
}

func appendUpper(dst, line []byte) []byte {
	for _, c := range line {
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		dst = append(dst, c)
	}
	return dst
}
