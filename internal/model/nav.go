package model

import "time"

// HistoryRecord is one official end-of-day NAV publication.
type HistoryRecord struct {
	Date time.Time `json:"date"`
	NAV  float64   `json:"nav"`
}

// Method identifies which estimator produced a result.
type Method string

const (
	MethodWeightedMA Method = "weighted_ma"
	MethodSimpleMA   Method = "simple_ma"
)

// EstimationResult is the engine output for a single call.
type EstimationResult struct {
	Estimate   float64 `json:"estimate"`   // 4 decimals
	EstRate    float64 `json:"estRate"`    // percent, 2 decimals
	Confidence float64 `json:"confidence"` // 0..1, 2 decimals
	Method     Method  `json:"method"`
}

// NAVs extracts the NAV column of a history.
func NAVs(history []HistoryRecord) []float64 {
	navs := make([]float64, len(history))
	for i, r := range history {
		navs[i] = r.NAV
	}
	return navs
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar date in t's location, expressed as UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
