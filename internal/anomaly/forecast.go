package anomaly

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
)

const (
	// minForecastHistory is the snapshot count below which the detector
	// contributes nothing.
	minForecastHistory = 12

	// minContext is the minimum history that must remain after withholding
	// the forecast horizon.
	minContext = 6

	horizonMin = 2
	horizonMax = 4
)

// ForecastDetector flags KPI points that escape the quantile bounds predicted
// by an external probabilistic forecaster for the withheld tail of each
// series. Model failures are swallowed: the detector yields nothing for that
// metric rather than failing the run.
type ForecastDetector struct {
	forecaster domain.Forecaster
	cache      *boundsCache
}

// NewForecastDetector wraps a forecaster with a bounded memoisation cache.
// A nil forecaster disables the detector.
func NewForecastDetector(f domain.Forecaster, cacheSize int) *ForecastDetector {
	return &ForecastDetector{
		forecaster: f,
		cache:      newBoundsCache(cacheSize),
	}
}

// Detect withholds the last h points of each KPI series (h = clamp(len/6,
// 2, 4)), forecasts bounds for them, and reports HIGH anomalies where the
// actual value escapes the band.
func (d *ForecastDetector) Detect(ctx context.Context, snapshots []domain.WeeklySnapshot) []domain.AnomalyRecord {
	if d == nil || d.forecaster == nil || len(snapshots) < minForecastHistory {
		return nil
	}

	var records []domain.AnomalyRecord
	for _, metric := range domain.MetricNames {
		values := metricSeries(snapshots, metric)

		horizon := len(values) / 6
		if horizon < horizonMin {
			horizon = horizonMin
		}
		if horizon > horizonMax {
			horizon = horizonMax
		}
		if len(values)-horizon < minContext {
			continue
		}

		history := values[:len(values)-horizon]
		bounds, err := d.bounds(ctx, history, horizon)
		if err != nil {
			slog.Debug("forecast bounds unavailable", "metric", metric, "error", err)
			continue
		}

		tail := values[len(values)-horizon:]
		tailSnaps := snapshots[len(snapshots)-horizon:]
		for i := 0; i < horizon; i++ {
			actual := tail[i]
			week := tailSnaps[i].WeekStart.Format("2006-01-02")

			var description string
			switch {
			case actual > bounds.High[i]:
				description = fmt.Sprintf("forecast detected upward spike for %s in week %s", metric, week)
			case actual < bounds.Low[i]:
				description = fmt.Sprintf("forecast detected downward collapse for %s in week %s", metric, week)
			default:
				continue
			}

			records = append(records, domain.AnomalyRecord{
				Metric:      metric,
				ActualValue: round4(actual),
				ExpectedRange: domain.ExpectedRange{
					Low:    bounds.Low[i],
					Median: bounds.Median[i],
					High:   bounds.High[i],
				},
				Severity:    domain.SeverityHigh,
				Source:      domain.SourceForecast,
				Description: description,
			})
		}
	}
	return records
}

// bounds memoises forecaster calls by content hash of the series plus horizon
// so retried runs skip redundant model inference.
func (d *ForecastDetector) bounds(ctx context.Context, series []float64, horizon int) (domain.ForecastBounds, error) {
	key := boundsKey(series, horizon)
	if b, ok := d.cache.get(key); ok {
		return b, nil
	}

	b, err := d.forecaster.ForecastBounds(ctx, series, horizon)
	if err != nil {
		return domain.ForecastBounds{}, fmt.Errorf("%w: %v", domain.ErrForecastUnavailable, err)
	}
	if len(b.Low) < horizon || len(b.Median) < horizon || len(b.High) < horizon {
		return domain.ForecastBounds{}, fmt.Errorf("%w: bounds shorter than horizon %d", domain.ErrForecastUnavailable, horizon)
	}

	d.cache.put(key, b)
	return b, nil
}

func boundsKey(series []float64, horizon int) uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, v := range series {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(horizon))
	_, _ = h.Write(buf[:])
	return h.Sum64()
}
