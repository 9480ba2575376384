// Package engine orchestrates a full analysis run: KPI snapshots first, then
// the independent analytics fanned out concurrently, then the anomaly merge.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/daniel-st3/ai-cfo-agent/internal/anomaly"
	"github.com/daniel-st3/ai-cfo-agent/internal/cashflow"
	"github.com/daniel-st3/ai-cfo-agent/internal/config"
	"github.com/daniel-st3/ai-cfo-agent/internal/customer"
	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
	"github.com/daniel-st3/ai-cfo-agent/internal/fraud"
	"github.com/daniel-st3/ai-cfo-agent/internal/scenario"
	"github.com/daniel-st3/ai-cfo-agent/internal/snapshot"
	"github.com/daniel-st3/ai-cfo-agent/internal/survival"
)

var tracer = otel.Tracer("cfo-engine")

// Options carries per-run inputs that are not part of the ledger.
type Options struct {
	// CashBalance overrides the inferred cash position when positive.
	CashBalance float64

	// CommittedExpenses refine the cash-flow forecast.
	CommittedExpenses []domain.CommittedExpense

	// Today anchors date arithmetic (fundraising deadline, forecast weeks).
	// Zero value means time.Now.
	Today time.Time
}

// Engine wires the analysis components. Construct once with New, then call
// Analyze per run; the engine itself is stateless across runs.
type Engine struct {
	cfg       *config.Config
	fraud     *fraud.Engine
	detector  *anomaly.ForecastDetector
	simulator *survival.Simulator
	cashflow  *cashflow.Forecaster
	metrics   *Metrics
	log       *slog.Logger
}

// New builds an engine from config. forecaster may be nil, or forecasting
// may be disabled in config; either way the model-based detector contributes
// nothing. reg may be nil to use the default Prometheus registerer.
func New(cfg *config.Config, forecaster domain.Forecaster, reg prometheus.Registerer, log *slog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if log == nil {
		log = slog.Default()
	}

	fraudEngine, err := fraud.NewEngine(fraud.BuiltinRules())
	if err != nil {
		return nil, fmt.Errorf("compile fraud rules: %w", err)
	}

	var detector *anomaly.ForecastDetector
	if cfg.ForecastEnabled && forecaster != nil {
		detector = anomaly.NewForecastDetector(forecaster, cfg.ForecastCacheSize)
	}

	return &Engine{
		cfg:       cfg,
		fraud:     fraudEngine,
		detector:  detector,
		simulator: survival.New(cfg.SurvivalPaths, cfg.Seed, cfg.Workers),
		cashflow:  cashflow.New(cfg.CashFlowPaths, cfg.Seed),
		metrics:   NewMetrics(reg),
		log:       log,
	}, nil
}

// Analyze runs the full pipeline over the ledger. The only fatal failures
// are an unusable ledger and fraud rule evaluation errors; the model-based
// detector degrades silently. Results are rebuilt from scratch: analyzing
// the same ledger twice yields the same result.
func (e *Engine) Analyze(ctx context.Context, runID uuid.UUID, txs []domain.Transaction, opts Options) (*domain.AnalysisResult, error) {
	ctx, span := tracer.Start(ctx, "engine.Analyze",
		trace.WithAttributes(
			attribute.String("run.id", runID.String()),
			attribute.Int("ledger.transactions", len(txs)),
		),
	)
	defer span.End()
	start := time.Now()

	today := opts.Today
	if today.IsZero() {
		today = time.Now().UTC()
	}

	snapshots, err := timedStage(ctx, e, "snapshots", func(context.Context) ([]domain.WeeklySnapshot, error) {
		return snapshot.Build(txs)
	})
	if err != nil {
		e.metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build snapshots: %w", err)
	}

	result := &domain.AnalysisResult{
		RunID:      runID,
		Snapshots:  snapshots,
		ComputedAt: today,
	}

	var (
		statistical []domain.AnomalyRecord
		forecasted  []domain.AnomalyRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		statistical, _ = timedStage(gctx, e, "anomaly_statistical", func(context.Context) ([]domain.AnomalyRecord, error) {
			return anomaly.DetectStatistical(snapshots), nil
		})
		return nil
	})
	g.Go(func() error {
		forecasted, _ = timedStage(gctx, e, "anomaly_forecast", func(c context.Context) ([]domain.AnomalyRecord, error) {
			return e.detector.Detect(c, snapshots), nil
		})
		return nil
	})
	g.Go(func() error {
		result.Survival, _ = timedStage(gctx, e, "survival", func(context.Context) (*domain.SurvivalResult, error) {
			return e.simulator.Run(snapshots, opts.CashBalance, today), nil
		})
		return nil
	})
	g.Go(func() error {
		result.Scenarios, _ = timedStage(gctx, e, "scenarios", func(context.Context) ([]domain.ScenarioResult, error) {
			return scenario.Run(snapshots, opts.CashBalance), nil
		})
		return nil
	})
	g.Go(func() error {
		alerts, err := timedStage(gctx, e, "fraud", func(context.Context) ([]domain.FraudAlert, error) {
			return e.fraud.Scan(txs)
		})
		if err != nil {
			return fmt.Errorf("fraud scan: %w", err)
		}
		result.FraudAlerts = alerts
		return nil
	})
	g.Go(func() error {
		result.Customers, _ = timedStage(gctx, e, "customers", func(context.Context) ([]domain.CustomerProfile, error) {
			return customer.Profiles(txs), nil
		})
		return nil
	})
	g.Go(func() error {
		result.CashFlow, _ = timedStage(gctx, e, "cashflow", func(context.Context) (*domain.CashFlowForecast, error) {
			return e.cashflow.Forecast(snapshots, opts.CommittedExpenses, opts.CashBalance, today), nil
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		e.metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	result.Anomalies = anomaly.Merge(append(statistical, forecasted...))

	e.metrics.RunsTotal.WithLabelValues("ok").Inc()
	e.metrics.Anomalies.Add(float64(len(result.Anomalies)))
	e.metrics.FraudAlerts.Add(float64(len(result.FraudAlerts)))

	fields := []any{
		"run_id", runID,
		"transactions", len(txs),
		"snapshots", len(result.Snapshots),
		"anomalies", len(result.Anomalies),
		"fraud_alerts", len(result.FraudAlerts),
		"customers", len(result.Customers),
		"duration", time.Since(start),
	}
	if latest := result.Latest(); latest != nil {
		fields = append(fields, "latest_mrr", latest.MRR, "latest_burn", latest.BurnRate)
	}
	e.log.InfoContext(ctx, "analysis complete", fields...)
	return result, nil
}

// timedStage wraps a pipeline stage with a child span and a duration
// observation.
func timedStage[T any](ctx context.Context, e *Engine, stage string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "engine."+stage)
	defer span.End()
	start := time.Now()
	out, err := fn(ctx)
	e.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return out, err
}
