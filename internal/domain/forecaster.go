package domain

import "context"

// ForecastBounds are the quantile bands predicted for the final horizon points
// of a series. Each slice holds at least horizon values.
type ForecastBounds struct {
	Low    []float64 `json:"low"`
	Median []float64 `json:"median"`
	High   []float64 `json:"high"`
}

// Forecaster produces probabilistic quantile bounds for the last horizon
// points of a series, conditioning on the history before them. Implementations
// wrap an external pretrained time-series model; the engine treats every
// failure as non-fatal.
type Forecaster interface {
	ForecastBounds(ctx context.Context, series []float64, horizon int) (ForecastBounds, error)
}
