package minisketch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"
)

// Record is one named sequence.
type Record struct {
	ID  string
	Seq Sequence
}

// Result is the sketch of one Record.
//
// Hashes aliases a buffer owned by the Sketcher and is only valid until the
// visit callback returns. Copy it to keep it.
type Result struct {
	ID      string
	Bases   uint64
	Hashes  []uint64
	Count   uint64
	Elapsed time.Duration
}

// Stats summarizes a Run.
type Stats struct {
	Records uint64
	Bases   uint64
	Hashes  uint64
	Elapsed time.Duration
}

// Source supplies records one at a time. Next returns io.EOF after the
// last record.
type Source interface {
	Next() (Record, error)
}

// SliceSource is a Source over an in-memory slice.
type SliceSource struct {
	records []Record
	pos     int
}

// NewSliceSource returns a Source yielding records in order.
func NewSliceSource(records ...Record) *SliceSource {
	return &SliceSource{records: records}
}

// Next implements Source.
func (s *SliceSource) Next() (Record, error) {
	if s.pos >= len(s.records) {
		return Record{}, io.EOF
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}

// Run sketches every record of src in order and passes each Result to
// visit. Records are processed one at a time with a single reused output
// buffer; only the prefix a record can write is cleared before it runs.
//
// ctx is checked between records, never within one. A non-nil error from
// src (other than io.EOF) or visit stops the run and is returned with the
// Stats accumulated so far.
func (sk *Sketcher) Run(ctx context.Context, src Source, visit func(Result) error) (Stats, error) {
	var stats Stats
	log := sk.cfg.logger
	start := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read record %d: %w", stats.Records, err)
		}

		if err := checkSequence(rec.Seq); err != nil {
			return stats, fmt.Errorf("sketch %q: %w", rec.ID, err)
		}
		need := int(sk.MaxHashes(rec.Seq.N))
		if cap(sk.batchBuf) < need {
			sk.batchBuf = slices.Grow(sk.batchBuf[:0], need)
		}
		buf := sk.batchBuf[:need]

		t0 := time.Now()
		count, err := sk.Sketch(rec.Seq, buf)
		elapsed := time.Since(t0)
		if err != nil {
			return stats, fmt.Errorf("sketch %q: %w", rec.ID, err)
		}

		log.Debug("sketched sequence",
			"id", rec.ID,
			"bases", rec.Seq.N,
			"hashes", count,
			"elapsed", elapsed)

		stats.Records++
		stats.Bases += rec.Seq.N
		stats.Hashes += count

		if visit != nil {
			res := Result{
				ID:      rec.ID,
				Bases:   rec.Seq.N,
				Hashes:  buf[:count],
				Count:   count,
				Elapsed: elapsed,
			}
			if err := visit(res); err != nil {
				return stats, err
			}
		}
	}

	stats.Elapsed = time.Since(start)
	return stats, nil
}
