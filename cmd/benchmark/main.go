// Benchmark tool for the analysis engine.
//
// Usage:
//
//	go run cmd/benchmark/main.go -iterations 5
//
// Generates synthetic ledgers of increasing size, runs the full pipeline on
// each, and reports wall time and transaction throughput.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/daniel-st3/ai-cfo-agent/internal/config"
	"github.com/daniel-st3/ai-cfo-agent/internal/engine"
	"github.com/daniel-st3/ai-cfo-agent/internal/ledger"
)

func main() {
	var (
		iterations = flag.Int("iterations", 3, "runs per ledger size")
		seed       = flag.Uint64("seed", 42, "ledger generation seed")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	cfg := config.New()
	eng, err := engine.New(cfg, nil, prometheus.NewRegistry(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}

	sizes := []struct {
		weeks     int
		customers int
	}{
		{26, 10},
		{52, 50},
		{104, 200},
		{156, 500},
	}

	fmt.Printf("%-8s %-8s %-8s %-12s %-12s %-12s\n",
		"weeks", "cust", "txs", "best", "avg", "txs/sec")

	for _, size := range sizes {
		txs := ledger.Generate(ledger.Config{
			Weeks:      size.weeks,
			Customers:  size.customers,
			Seed:       *seed,
			PlantFraud: true,
		})

		var total time.Duration
		best := time.Duration(1<<63 - 1)
		for i := 0; i < *iterations; i++ {
			start := time.Now()
			if _, err := eng.Analyze(context.Background(), uuid.New(), txs, engine.Options{}); err != nil {
				fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
				os.Exit(1)
			}
			elapsed := time.Since(start)
			total += elapsed
			if elapsed < best {
				best = elapsed
			}
		}
		avg := total / time.Duration(*iterations)
		throughput := float64(len(txs)) / avg.Seconds()

		fmt.Printf("%-8d %-8d %-8d %-12s %-12s %-12.0f\n",
			size.weeks, size.customers, len(txs), best.Round(time.Microsecond), avg.Round(time.Microsecond), throughput)
	}
}
