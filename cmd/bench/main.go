// Bench measures minisketch throughput and memory on random sequences.
//
// Usage:
//
//	go run ./cmd/bench --bases 100000000 --records 1000 -s 28 -w 16
//
// Flags:
//
//	--bases       Total bases across all records (default: 50,000,000)
//	--records     Number of records (default: 1000)
//	-s            s-mer length (default: 28)
//	-w            Window size (default: 16)
//	--fifo-depth  Channel depth of the staged run (default: 1024)
//	--seed        RNG seed for the generated sequences (default: 1)
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spaolacci/murmur3"
	"github.com/spf13/pflag"

	"github.com/tamirms/minisketch"
	"github.com/tamirms/minisketch/internal/bits"
	"github.com/tamirms/minisketch/internal/mix"
)

// getMaxRSS returns the maximum resident set size in bytes.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// kilobytes on Linux, bytes on macOS
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// memSampler tracks peak heap and RSS every 10ms. runtime/metrics avoids the
// stop-the-world pause of ReadMemStats.
type memSampler struct {
	baseAlloc uint64
	baseRSS   uint64
	peakAlloc atomic.Uint64
	peakRSS   atomic.Uint64
	done      chan struct{}
}

func startSampler() *memSampler {
	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)

	m := &memSampler{baseAlloc: baseline.Alloc, baseRSS: getMaxRSS(), done: make(chan struct{})}
	m.peakAlloc.Store(m.baseAlloc)
	m.peakRSS.Store(m.baseRSS)
	go func() {
		samples := []metrics.Sample{{Name: "/memory/classes/heap/objects:bytes"}}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-m.done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				storeMax(&m.peakAlloc, samples[0].Value.Uint64())
				storeMax(&m.peakRSS, getMaxRSS())
			}
		}
	}()
	return m
}

func storeMax(v *atomic.Uint64, x uint64) {
	for {
		old := v.Load()
		if x <= old || v.CompareAndSwap(old, x) {
			return
		}
	}
}

// stop returns peak heap and RSS growth over the baseline.
func (m *memSampler) stop() (heap, rss uint64) {
	close(m.done)
	var final runtime.MemStats
	runtime.ReadMemStats(&final)
	storeMax(&m.peakAlloc, final.Alloc)
	storeMax(&m.peakRSS, getMaxRSS())
	return m.peakAlloc.Load() - m.baseAlloc, m.peakRSS.Load() - m.baseRSS
}

type runResult struct {
	name     string
	elapsed  time.Duration
	hashes   uint64
	peakHeap uint64
	peakRSS  uint64
}

func main() {
	basesFlag := pflag.Int("bases", 50_000_000, "total bases across all records")
	recordsFlag := pflag.Int("records", 1000, "number of records")
	smerFlag := pflag.IntP("smer-length", "s", minisketch.DefaultSmerLength, "s-mer length")
	windowFlag := pflag.IntP("window", "w", minisketch.DefaultWindow, "window size")
	depthFlag := pflag.Int("fifo-depth", minisketch.DefaultFIFODepth, "channel depth of the staged run")
	seedFlag := pflag.Uint64("seed", 1, "RNG seed for the generated sequences")
	cpuprofile := pflag.String("cpuprofile", "", "write cpu profile to file (inline run only)")
	memprofile := pflag.String("memprofile", "", "write memory profile to file (after inline run)")
	pflag.Parse()

	if *recordsFlag < 1 || *basesFlag < *recordsFlag {
		fmt.Println("need --records >= 1 and --bases >= --records")
		os.Exit(2)
	}

	fmt.Println("Generating sequences...")
	rng := rand.New(rand.NewPCG(*seedFlag, *seedFlag^0x9E3779B97F4A7C15))
	const alphabet = "ACGT"
	per := *basesFlag / *recordsFlag
	raw := make([][]byte, *recordsFlag)
	records := make([]minisketch.Record, *recordsFlag)
	for i := range raw {
		raw[i] = make([]byte, per)
		for j := range raw[i] {
			raw[i][j] = alphabet[bits.FastRange32(rng.Uint64(), uint32(len(alphabet)))]
		}
		records[i] = minisketch.Record{ID: fmt.Sprintf("r%d", i), Seq: minisketch.Pack(raw[i])}
	}
	totalBases := uint64(per) * uint64(*recordsFlag)

	tmpDir, err := os.MkdirTemp("", "minisketch-bench-")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	fmt.Println("Writing packed sequence file...")
	seqPath := filepath.Join(tmpDir, "bench.pseq")
	if err := minisketch.WriteSequenceFile(seqPath, records); err != nil {
		fmt.Printf("WriteSequenceFile failed: %v\n", err)
		return
	}
	records = nil
	sf, err := minisketch.OpenSequenceFile(seqPath)
	if err != nil {
		fmt.Printf("OpenSequenceFile failed: %v\n", err)
		return
	}
	defer func() { _ = sf.Close() }()

	s := *smerFlag
	fmt.Println("Hashing s-mers with murmur3...")
	baseline := runResult{name: "murmur3 s-mers"}
	mem := startSampler()
	start := time.Now()
	var sink uint64
	for _, r := range raw {
		for i := 0; i+s <= len(r); i++ {
			sink ^= murmur3.Sum64(r[i : i+s])
			baseline.hashes++
		}
	}
	baseline.elapsed = time.Since(start)
	baseline.peakHeap, baseline.peakRSS = mem.stop()
	_ = sink
	raw = nil

	fmt.Println("Mixing packed words...")
	mixed := runResult{name: "mix packed words"}
	mem = startSampler()
	start = time.Now()
	var scratch []uint64
	for i := range sf.NumRecords() {
		rec, err := sf.RecordInto(scratch, i)
		if err != nil {
			fmt.Printf("RecordInto failed: %v\n", err)
			return
		}
		scratch = rec.Seq.Words
		mix.HashWords(scratch, scratch)
		mixed.hashes += uint64(len(scratch))
	}
	mixed.elapsed = time.Since(start)
	mixed.peakHeap, mixed.peakRSS = mem.stop()

	sketchRun := func(name string, profile bool, opts ...minisketch.Option) (runResult, error) {
		res := runResult{name: name}
		sk, err := minisketch.New(append([]minisketch.Option{
			minisketch.WithSmerLength(s),
			minisketch.WithWindow(*windowFlag),
		}, opts...)...)
		if err != nil {
			return res, err
		}
		if profile && *cpuprofile != "" {
			f, err := os.Create(*cpuprofile)
			if err != nil {
				return res, fmt.Errorf("could not create CPU profile: %w", err)
			}
			defer func() { _ = f.Close() }()
			if err := pprof.StartCPUProfile(f); err != nil {
				return res, fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}
		mem := startSampler()
		start := time.Now()
		stats, err := sk.Run(context.Background(), sf.Source(), nil)
		res.elapsed = time.Since(start)
		res.peakHeap, res.peakRSS = mem.stop()
		res.hashes = stats.Hashes
		return res, err
	}

	fmt.Println("Sketching (inline)...")
	inline, err := sketchRun("inline", true)
	if err != nil {
		fmt.Printf("Inline run failed: %v\n", err)
		return
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("could not create memory profile: %v\n", err)
		} else {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Printf("could not write memory profile: %v\n", err)
			}
			_ = f.Close()
		}
	}

	fmt.Println("Sketching (staged)...")
	staged, err := sketchRun("staged", false, minisketch.WithStagedPipeline(*depthFlag))
	if err != nil {
		fmt.Printf("Staged run failed: %v\n", err)
		return
	}
	if staged.hashes != inline.hashes {
		fmt.Printf("Staged run produced %d hashes, inline %d\n", staged.hashes, inline.hashes)
		return
	}

	density := float64(inline.hashes) / float64(totalBases)

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦════════════════╦════════════════╦═══════════════╗\n")
	fmt.Printf("║ s=%-2d w=%-4d         ║ Time           ║ Throughput     ║ Peak heap/RSS ║\n", s, *windowFlag)
	fmt.Printf("╠═════════════════════╬════════════════╬════════════════╬═══════════════╣\n")
	for _, r := range []runResult{baseline, mixed, inline, staged} {
		fmt.Printf("║ %-19s ║ %8.3f sec   ║ %7.1f Mb/sec ║ %5.1f/%5.1f MB ║\n",
			r.name, r.elapsed.Seconds(),
			float64(totalBases)/r.elapsed.Seconds()/1_000_000,
			float64(r.peakHeap)/1_000_000, float64(r.peakRSS)/1_000_000)
	}
	fmt.Printf("╠═════════════════════╬════════════════╩════════════════╩═══════════════╣\n")
	fmt.Printf("║ Records             ║ %-46d ║\n", sf.NumRecords())
	fmt.Printf("║ Bases               ║ %-46d ║\n", totalBases)
	fmt.Printf("║ Minimizers          ║ %-46d ║\n", inline.hashes)
	fmt.Printf("║ Density             ║ %-46.4f ║\n", density)
	fmt.Printf("║ Staged/inline time  ║ %-46.2f ║\n", staged.elapsed.Seconds()/inline.elapsed.Seconds())
	fmt.Printf("╚═════════════════════╩════════════════════════════════════════════════╝\n")
}
