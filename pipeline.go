package minisketch

import "github.com/tamirms/minisketch/internal/decode"

// runInline computes the four stages per base in a single pass. Each
// stage's state is a bounded lookback, so composing them inline yields
// the same output as running them concurrently.
func (sk *Sketcher) runInline(seq Sequence) error {
	sk.resetStages(seq)

words:
	for w := range sk.dec.Words() {
		for j := 0; j < decode.BasesPerWord; j++ {
			sym := w.Symbol(j)
			if !sym.Valid {
				break words
			}
			h, ok := sk.smer.Push(sym.Code)
			if !ok {
				continue
			}
			if sk.endOfSmer(h) {
				break words
			}
			if m, emit := sk.win.Push(h); emit {
				if err := sk.sink.put(m); err != nil {
					return err
				}
			}
		}
	}

	sk.smer.End()
	sk.smer.Close()
	if m, emit := sk.win.Flush(); emit {
		if err := sk.sink.put(m); err != nil {
			return err
		}
	}
	sk.win.Close()
	sk.sink.close()
	return nil
}
