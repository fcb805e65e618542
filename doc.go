// Package minisketch computes minimizer sketches of DNA sequences.
//
// A sketch is the ordered list of canonical minimizer hashes of a
// sequence: every s-mer is encoded in both orientations, the smaller
// encoding is hashed, and the smallest hash of every W+1 consecutive
// s-mers is kept, dropping values equal to the one just emitted.
//
// # Basic Usage
//
// Sketching one sequence:
//
//	sk, err := minisketch.New(minisketch.WithSmerLength(28), minisketch.WithWindow(16))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	hashes, err := sk.AppendSketch(nil, minisketch.Pack([]byte("ACGT...")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Sketching a packed sequence file into a sketch file:
//
//	sf, err := minisketch.OpenSequenceFile("reads.pseq")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sf.Close()
//
//	w, err := minisketch.CreateSketchFile("reads.msk", sk)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := sk.Run(ctx, sf.Source(), w.Add); err != nil {
//	    log.Fatal(errors.Join(err, w.Abort()))
//	}
//	if err := w.Close(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Input
//
// Sequences are packed one ASCII byte per base, eight bases per
// little-endian 64-bit word (see Pack). Bytes other than A, C, G and T,
// including 'N' and lower case, are read as A. This is lossy: normalize
// input first if that matters.
//
// # End of stream
//
// By default a sequence ends when its bases run out. WithZeroSentinel
// instead ends it at the first canonical hash equal to 0, for bit-exact
// agreement with sketches produced that way.
//
// # Package Structure
//
//   - Public API: sketcher.go (New, Sketch, AppendSketch), batch.go (Run, Source)
//   - Configuration: options.go (Option, With* functions)
//   - Pipeline: pipeline.go (inline), pipeline_staged.go (goroutines and channels), sink.go
//   - Stages: internal/decode, internal/smer, internal/mix, internal/window, internal/stage
//   - Files: header.go, seqfile.go (.pseq), sketchfile.go (.msk), digest.go
//   - Platform: fallocate_*.go, fadvise_*.go, prefault_*.go (OS-specific optimizations)
//   - Command line: cmd/minisketch, internal/cli, internal/config, internal/fasta, internal/output
//   - Benchmarks: cmd/bench
package minisketch
