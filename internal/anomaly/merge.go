package anomaly

import "github.com/daniel-st3/ai-cfo-agent/internal/domain"

// Merge deduplicates detector output by (metric, actual value rounded to four
// decimals, description). For duplicate keys the higher-severity record wins;
// on equal severity the forecast source is preferred over the statistical
// one. Merging an already-merged set yields the same set.
func Merge(records []domain.AnomalyRecord) []domain.AnomalyRecord {
	if len(records) == 0 {
		return nil
	}

	merged := make(map[string]domain.AnomalyRecord, len(records))
	order := make([]string, 0, len(records))

	for _, rec := range records {
		key := rec.DedupeKey()
		existing, ok := merged[key]
		if !ok {
			merged[key] = rec
			order = append(order, key)
			continue
		}

		switch {
		case rec.Severity > existing.Severity:
			merged[key] = rec
		case rec.Severity == existing.Severity &&
			rec.Source == domain.SourceForecast && existing.Source != domain.SourceForecast:
			merged[key] = rec
		}
	}

	out := make([]domain.AnomalyRecord, 0, len(order))
	for _, key := range order {
		out = append(out, merged[key])
	}
	return out
}
