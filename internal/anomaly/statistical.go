package anomaly

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
)

const (
	// minStatisticalHistory is the snapshot count below which the detector
	// degrades to empty output.
	minStatisticalHistory = 8

	// contamination is the expected outlier share: points scoring above the
	// (1-contamination) quantile of the batch are flagged.
	contamination = 0.05

	// forestSeed fixes the ensemble so reruns over the same series agree.
	forestSeed = 42
)

// DetectStatistical runs the seeded isolation-forest ensemble over each KPI
// series and flags outlying points. Metrics with short or constant series
// contribute nothing.
func DetectStatistical(snapshots []domain.WeeklySnapshot) []domain.AnomalyRecord {
	if len(snapshots) < minStatisticalHistory {
		return nil
	}

	var records []domain.AnomalyRecord
	for _, metric := range domain.MetricNames {
		values := metricSeries(snapshots, metric)
		if isConstant(values) {
			continue
		}

		forest := newIsolationForest(values, forestSeed)
		scores := forest.scores(values)

		minS, maxS := scores[0], scores[0]
		for _, s := range scores[1:] {
			minS = math.Min(minS, s)
			maxS = math.Max(maxS, s)
		}
		scale := math.Max(maxS-minS, 1e-9)
		threshold := quantile(scores, 1-contamination)

		expected := domain.ExpectedRange{
			Low:    quantile(values, 0.1),
			Median: quantile(values, 0.5),
			High:   quantile(values, 0.9),
		}

		for i, s := range scores {
			if s <= threshold {
				continue
			}
			strength := (s - minS) / scale
			records = append(records, domain.AnomalyRecord{
				Metric:        metric,
				ActualValue:   round4(values[i]),
				ExpectedRange: expected,
				Severity:      strengthSeverity(strength),
				Source:        domain.SourceStatistical,
				Description: fmt.Sprintf("statistical outlier in %s for week %s",
					metric, snapshots[i].WeekStart.Format("2006-01-02")),
			})
		}
	}
	return records
}

// strengthSeverity maps a normalised anomaly strength in [0,1] to a severity.
func strengthSeverity(strength float64) domain.Severity {
	switch {
	case strength >= 0.66:
		return domain.SeverityHigh
	case strength >= 0.33:
		return domain.SeverityMedium
	}
	return domain.SeverityLow
}

func metricSeries(snapshots []domain.WeeklySnapshot, metric string) []float64 {
	values := make([]float64, len(snapshots))
	for i := range snapshots {
		values[i] = snapshots[i].Metric(metric)
	}
	return values
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if math.Abs(v-values[0]) > 1e-9 {
			return false
		}
	}
	return true
}

func quantile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
