package minisketch

import (
	"fmt"

	sketcherrors "github.com/tamirms/minisketch/errors"
	"github.com/tamirms/minisketch/internal/stage"
)

// resultSink appends emitted minimizers to a caller-owned buffer in
// arrival order.
type resultSink struct {
	out   []uint64
	count uint64
	state stage.State
}

func (s *resultSink) reset(out []uint64) {
	s.out = out
	s.count = 0
	s.state = stage.Streaming
}

func (s *resultSink) put(v uint64) error {
	if s.count >= uint64(len(s.out)) {
		return fmt.Errorf("%w: output full after %d hashes",
			sketcherrors.ErrPrecondition, s.count)
	}
	s.out[s.count] = v
	s.count++
	return nil
}

// close records end of stream. count is final afterwards.
func (s *resultSink) close() {
	s.state = stage.Done
}
