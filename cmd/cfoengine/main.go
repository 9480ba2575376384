// cfoengine runs the financial analysis pipeline over a transaction ledger
// and prints the full result bundle as JSON.
//
// Usage:
//
//	cfoengine -demo-weeks 26            # synthetic demo ledger
//	cfoengine -stdin < ledger.json      # JSON array of transactions
//	cfoengine -stdin -cash 500000 < ledger.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/daniel-st3/ai-cfo-agent/internal/config"
	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
	"github.com/daniel-st3/ai-cfo-agent/internal/engine"
	"github.com/daniel-st3/ai-cfo-agent/internal/ledger"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	var (
		fromStdin = flag.Bool("stdin", false, "read a JSON transaction array from stdin")
		demoWeeks = flag.Int("demo-weeks", 26, "weeks of synthetic ledger when not reading stdin")
		cash      = flag.Float64("cash", 0, "current cash balance override (0 = infer from burn history)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("starting cfoengine",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	var txs []domain.Transaction
	if *fromStdin {
		if err := json.NewDecoder(os.Stdin).Decode(&txs); err != nil {
			slog.Error("decode ledger from stdin", "error", err)
			os.Exit(1)
		}
	} else {
		txs = ledger.Demo(*demoWeeks)
	}

	eng, err := engine.New(cfg, nil, nil, logger)
	if err != nil {
		slog.Error("build engine", "error", err)
		os.Exit(1)
	}

	result, err := eng.Analyze(context.Background(), uuid.New(), txs, engine.Options{
		CashBalance: *cash,
	})
	if err != nil {
		slog.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	if err := out.Encode(result); err != nil {
		slog.Error("encode result", "error", err)
		os.Exit(1)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
