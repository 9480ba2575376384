// Package config defines engine configuration and its layered loading:
// defaults, an optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the analysis engine tunables.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Seed drives every Monte Carlo component; identical ledgers and seeds
	// produce identical results.
	Seed uint64 `koanf:"seed"`

	// Workers bounds the simulation worker pool.
	Workers int `koanf:"workers"`

	// SurvivalPaths is the Monte Carlo path count for the runway simulation.
	SurvivalPaths int `koanf:"survival_paths"`

	// CashFlowPaths is the path count for the 13-week cash forecast.
	CashFlowPaths int `koanf:"cashflow_paths"`

	// ForecastEnabled toggles the model-based anomaly detector.
	ForecastEnabled bool `koanf:"forecast_enabled"`

	// ForecastCacheSize bounds the forecast memoisation cache.
	ForecastCacheSize int `koanf:"forecast_cache_size"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Seed:              42,
		Workers:           runtime.NumCPU(),
		SurvivalPaths:     1000,
		CashFlowPaths:     500,
		ForecastEnabled:   true,
		ForecastCacheSize: 256,
	}
}

// Load builds a Config by layering (low to high precedence):
//  1. defaults (New)
//  2. YAML file named by CFO_CONFIG, if set
//  3. environment variables with prefix CFO_ (CFO_SEED, CFO_WORKERS, ...)
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv("CFO_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("CFO_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "cfo_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.SurvivalPaths < 1 {
		return errors.New("survival_paths must be at least 1")
	}
	if c.CashFlowPaths < 1 {
		return errors.New("cashflow_paths must be at least 1")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
