package minisketch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tamirms/minisketch/internal/decode"
)

// runStaged runs decoder, s-mer builder, minimizer and sink as four
// goroutines joined by bounded channels. Each stage closes its output
// channel on end of stream; the sink's count is final once Wait returns.
//
// Error handling flow:
//   - A failing stage returns its error, which cancels the group context
//   - Blocked producers observe ctx.Done in send and return
//   - Consumers range until their input is closed, so every goroutine exits
func (sk *Sketcher) runStaged(seq Sequence) error {
	sk.resetStages(seq)

	depth := sk.cfg.fifoDepth
	words := make(chan decode.Word, depth)
	hashes := make(chan uint64, depth)
	mins := make(chan uint64, depth)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return sk.decodeStage(ctx, words) })
	g.Go(func() error { return sk.smerStage(ctx, words, hashes) })
	g.Go(func() error { return sk.windowStage(ctx, hashes, mins) })
	g.Go(func() error { return sk.sinkStage(mins) })
	return g.Wait()
}

func (sk *Sketcher) decodeStage(ctx context.Context, out chan<- decode.Word) error {
	defer close(out)
	for w := range sk.dec.Words() {
		if err := send(ctx, out, w); err != nil {
			return err
		}
	}
	return nil
}

// smerStage stops hashing at the first invalid symbol (or, with the zero
// sentinel, the first 0 hash) and drains the rest of its input.
func (sk *Sketcher) smerStage(ctx context.Context, in <-chan decode.Word, out chan<- uint64) error {
	defer close(out)
	ended := false
	for w := range in {
		for j := 0; j < decode.BasesPerWord && !ended; j++ {
			sym := w.Symbol(j)
			if !sym.Valid {
				ended = true
				break
			}
			h, ok := sk.smer.Push(sym.Code)
			if !ok {
				continue
			}
			if sk.endOfSmer(h) {
				ended = true
				break
			}
			if err := send(ctx, out, h); err != nil {
				return err
			}
		}
	}
	sk.smer.End()
	sk.smer.Close()
	return nil
}

func (sk *Sketcher) windowStage(ctx context.Context, in <-chan uint64, out chan<- uint64) error {
	defer close(out)
	for h := range in {
		if m, emit := sk.win.Push(h); emit {
			if err := send(ctx, out, m); err != nil {
				return err
			}
		}
	}
	if m, emit := sk.win.Flush(); emit {
		if err := send(ctx, out, m); err != nil {
			return err
		}
	}
	sk.win.Close()
	return nil
}

func (sk *Sketcher) sinkStage(in <-chan uint64) error {
	var err error
	for m := range in {
		if err == nil {
			err = sk.sink.put(m)
		}
	}
	sk.sink.close()
	return err
}

// send blocks until v is accepted or ctx is cancelled.
func send[T any](ctx context.Context, ch chan<- T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
