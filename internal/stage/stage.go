// Package stage defines the per-sequence lifecycle shared by every pipeline
// stage.
package stage

// State is the position of a stage within one sequence.
//
// Every stage starts in Warmup, moves to Streaming once its rolling state
// is primed, to Drain on the first end-of-stream signal, and to Done once
// the signal has been passed on.
type State uint8

const (
	Warmup State = iota
	Streaming
	Drain
	Done
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Warmup:
		return "warmup"
	case Streaming:
		return "streaming"
	case Drain:
		return "drain"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}
