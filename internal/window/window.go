// Package window selects minimizers: the smallest canonical hash over a
// sliding run of W+1 consecutive hashes, with adjacent duplicates dropped.
package window

import "github.com/tamirms/minisketch/internal/stage"

// Minimizer keeps the last W hashes in a ring buffer. It is not safe for
// concurrent use.
type Minimizer struct {
	buf    []uint64
	pos    int // oldest entry once the ring is full
	filled int

	last    uint64
	hasLast bool
	stepped bool

	state stage.State
}

// New returns a Minimizer over windows of w buffered hashes. w must be >= 1;
// callers validate it.
func New(w int) *Minimizer {
	return &Minimizer{buf: make([]uint64, w)}
}

// Reset empties the window for a new sequence.
func (m *Minimizer) Reset() {
	m.pos = 0
	m.filled = 0
	m.last = 0
	m.hasLast = false
	m.stepped = false
	m.state = stage.Warmup
}

// Push offers the next canonical hash. The first W hashes only fill the
// ring. Each later hash yields the minimum over the ring plus h, then
// replaces the oldest entry. emit is false when that minimum equals the
// previously emitted value.
func (m *Minimizer) Push(h uint64) (min uint64, emit bool) {
	w := len(m.buf)
	if m.filled < w {
		m.buf[m.filled] = h
		m.filled++
		return 0, false
	}

	min = h
	for _, v := range m.buf {
		if v < min {
			min = v
		}
	}
	m.buf[m.pos] = h
	m.pos++
	if m.pos == w {
		m.pos = 0
	}
	m.stepped = true
	m.state = stage.Streaming
	return m.emit(min)
}

// Flush ends the sequence. A window that received hashes but never made a
// full W+1 step emits the minimum of what it holds; otherwise nothing is
// emitted. The Minimizer moves to Drain.
func (m *Minimizer) Flush() (min uint64, emit bool) {
	m.state = stage.Drain
	if m.stepped || m.filled == 0 {
		return 0, false
	}
	min = m.buf[0]
	for _, v := range m.buf[1:m.filled] {
		if v < min {
			min = v
		}
	}
	return m.emit(min)
}

func (m *Minimizer) emit(v uint64) (uint64, bool) {
	if m.hasLast && v == m.last {
		return v, false
	}
	m.last = v
	m.hasLast = true
	return v, true
}

// Close marks end of stream as forwarded downstream.
func (m *Minimizer) Close() {
	m.state = stage.Done
}

// State returns the minimizer's lifecycle state.
func (m *Minimizer) State() stage.State {
	return m.state
}

// Size returns W.
func (m *Minimizer) Size() int {
	return len(m.buf)
}
