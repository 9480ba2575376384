package domain

import (
	"encoding/json"
	"fmt"
)

// Severity orders findings from detectors and the fraud scanner. The numeric
// order is meaningful: merge and sort logic compare severities directly.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// MarshalJSON encodes the severity as its label string.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a label string back into a Severity.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	switch label {
	case "LOW":
		*s = SeverityLow
	case "MEDIUM":
		*s = SeverityMedium
	case "HIGH":
		*s = SeverityHigh
	default:
		return fmt.Errorf("unknown severity %q", label)
	}
	return nil
}

// AnomalySource identifies which detector produced a record.
type AnomalySource string

const (
	// SourceStatistical marks records from the outlier-ensemble detector.
	SourceStatistical AnomalySource = "statistical"

	// SourceForecast marks records from the forecast-band detector.
	SourceForecast AnomalySource = "forecast"
)

// ExpectedRange is the band a metric was expected to stay inside.
type ExpectedRange struct {
	Low    float64 `json:"low"`
	Median float64 `json:"median"`
	High   float64 `json:"high"`
}

// AnomalyRecord is one flagged KPI observation.
type AnomalyRecord struct {
	Metric        string        `json:"metric"`
	ActualValue   float64       `json:"actualValue"`
	ExpectedRange ExpectedRange `json:"expectedRange"`
	Severity      Severity      `json:"severity"`
	Source        AnomalySource `json:"source"`
	Description   string        `json:"description"`
}

// DedupeKey groups records that describe the same finding: metric, actual
// value rounded to four decimals, and description.
func (a AnomalyRecord) DedupeKey() string {
	return fmt.Sprintf("%s|%.4f|%s", a.Metric, a.ActualValue, a.Description)
}
