// Bench measures Bloom filter build and query throughput, and compares the
// observed false positive rate with the calculator's prediction.
//
// Usage:
//
//	go run ./cmd/bench -items 10000000 -fp 0.001 -scheme xxh3 -trials 4
//
// Flags:
//
//	-items     Number of items inserted per trial (default: 10,000,000)
//	-fp        Target false positive rate (default: 0.01)
//	-scheme    Hash scheme: xxh3 or murmur3 (default: xxh3)
//	-trials    Number of independent trials (default: 4)
//	-workers   Trials run in parallel (default: GOMAXPROCS)
//	-probes    Non-member queries per trial (default: 1,000,000)
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	mrand "math/rand/v2"
	"os"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tamirms/streambloom"
)

// getMaxRSS returns the maximum resident set size in bytes.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// macOS reports bytes, Linux kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

type trialResult struct {
	build          time.Duration
	query          time.Duration
	falsePositives int
}

// item writes a 16-byte key unique to (trial, i). Probes use a tag that no
// inserted item carries, so every positive probe is a false positive.
func item(buf []byte, tag byte, trial, i uint64) []byte {
	binary.LittleEndian.PutUint64(buf[0:8], trial<<8|uint64(tag))
	binary.LittleEndian.PutUint64(buf[8:16], i)
	return buf[:16]
}

func runTrial(ctx context.Context, calc streambloom.Calculation, scheme streambloom.HashScheme, trial uint64, numItems, numProbes int) (trialResult, error) {
	f, err := streambloom.New(calc.Requested.NumBits, calc.Requested.NumHashes, streambloom.WithHashScheme(scheme))
	if err != nil {
		return trialResult{}, err
	}

	var res trialResult
	buf := make([]byte, 16)
	start := time.Now()
	for i := range numItems {
		if i%(1<<20) == 0 && ctx.Err() != nil {
			return trialResult{}, ctx.Err()
		}
		f.Insert(item(buf, 'm', trial, uint64(i)))
	}
	res.build = time.Since(start)

	// Random probe order keeps the access pattern independent of insert order.
	rng := mrand.New(mrand.NewPCG(trial, 0x5eed))
	start = time.Now()
	for range numProbes {
		if f.Test(item(buf, 'p', trial, rng.Uint64())) {
			res.falsePositives++
		}
	}
	res.query = time.Since(start)

	// Sanity check that nothing inserted went missing.
	for i := 0; i < numItems; i += max(numItems/1000, 1) {
		if !f.Test(item(buf, 'm', trial, uint64(i))) {
			return trialResult{}, fmt.Errorf("trial %d: false negative for item %d", trial, i)
		}
	}
	return res, nil
}

func main() {
	itemsFlag := flag.Int("items", 10_000_000, "items inserted per trial")
	fpFlag := flag.Float64("fp", 0.01, "target false positive rate")
	schemeFlag := flag.String("scheme", "xxh3", "hash scheme: xxh3 or murmur3")
	trialsFlag := flag.Int("trials", 4, "number of independent trials")
	workersFlag := flag.Int("workers", runtime.GOMAXPROCS(0), "trials run in parallel")
	probesFlag := flag.Int("probes", 1_000_000, "non-member queries per trial")
	flag.Parse()

	scheme, err := streambloom.ParseHashScheme(*schemeFlag)
	if err != nil {
		fmt.Printf("Invalid scheme: %v\n", err)
		os.Exit(2)
	}
	if *itemsFlag <= 0 || *trialsFlag <= 0 || *probesFlag <= 0 {
		fmt.Println("-items, -trials and -probes must be positive")
		os.Exit(2)
	}

	calc, err := streambloom.Calculate(uint64(*itemsFlag), *fpFlag, streambloom.WithCalcHashScheme(scheme))
	if err != nil {
		fmt.Printf("Calculate failed: %v\n", err)
		os.Exit(2)
	}

	runtime.GC()
	baselineRSS := getMaxRSS()

	fmt.Printf("Running %d trials (%d workers)...\n", *trialsFlag, *workersFlag)
	results := make([]trialResult, *trialsFlag)
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(*workersFlag, 1))
	wallStart := time.Now()
	for trial := range results {
		g.Go(func() error {
			res, err := runTrial(ctx, calc, scheme, uint64(trial), *itemsFlag, *probesFlag)
			if err != nil {
				return err
			}
			results[trial] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Printf("Trial failed: %v\n", err)
		os.Exit(1)
	}
	wall := time.Since(wallStart)
	peakRSS := getMaxRSS() - baselineRSS

	var build, query time.Duration
	var falsePositives int
	for _, res := range results {
		build += res.build
		query += res.query
		falsePositives += res.falsePositives
	}
	trials := float64(len(results))
	totalItems := float64(*itemsFlag) * trials
	totalProbes := float64(*probesFlag) * trials
	observed := float64(falsePositives) / totalProbes
	act := calc.Actual

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦══════════════════╗\n")
	fmt.Printf("║ Scheme: %-12s║ Trials: %-8d ║\n", scheme, len(results))
	fmt.Printf("╠═════════════════════╬══════════════════╣\n")
	fmt.Printf("║ Metric              ║ Value            ║\n")
	fmt.Printf("╠═════════════════════╬══════════════════╣\n")
	fmt.Printf("║ Filter bits         ║ %16d ║\n", act.NumBits)
	fmt.Printf("║ Hash count          ║ %16d ║\n", act.NumHashes)
	fmt.Printf("║ Bits per item       ║ %10.3f bits ║\n", float64(act.NumBits)/float64(*itemsFlag))
	fmt.Printf("║ Serialized size     ║ %13.1f MB ║\n", float64(act.SerializedSize)/1_000_000)
	fmt.Printf("║ Predicted FP rate   ║ %16.6f ║\n", act.FalsePositiveRate)
	fmt.Printf("║ Observed FP rate    ║ %16.6f ║\n", observed)
	fmt.Printf("║ Insert latency      ║ %13.1f ns ║\n", float64(build.Nanoseconds())/totalItems)
	fmt.Printf("║ Query latency       ║ %13.1f ns ║\n", float64(query.Nanoseconds())/totalProbes)
	fmt.Printf("║ Build throughput    ║ %10.2f M/sec ║\n", totalItems/build.Seconds()/1_000_000)
	fmt.Printf("║ Query throughput    ║ %10.2f M/sec ║\n", totalProbes/query.Seconds()/1_000_000)
	fmt.Printf("║ Wall time           ║ %12.2f sec ║\n", wall.Seconds())
	fmt.Printf("║ Peak RSS memory     ║ %13.1f MB ║\n", float64(peakRSS)/1_000_000)
	fmt.Printf("╚═════════════════════╩══════════════════╝\n")
}
