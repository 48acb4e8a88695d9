package estimate

import (
	"NavSentinel/internal/calculator"
	"NavSentinel/internal/model"
)

const (
	// DefaultDays is the simple estimator's default lookback.
	DefaultDays = 5
	// SimpleConfidence is the fixed confidence of the simple estimator.
	SimpleConfidence = 0.60
)

// EstimateSimple extrapolates the latest NAV by the plain mean of the last
// days daily changes, clamped to the history available.
func EstimateSimple(history []model.HistoryRecord, days int) (model.EstimationResult, error) {
	if len(history) < MinHistory {
		return model.EstimationResult{}, ErrInsufficientData
	}
	n := window(history, days)
	if n < 1 {
		return model.EstimationResult{}, ErrInsufficientData
	}

	changes, err := recentChanges(history, n)
	if err != nil {
		return model.EstimationResult{}, err
	}
	avg, err := calculator.Mean(changes)
	if err != nil {
		return model.EstimationResult{}, ErrInsufficientData
	}
	return extrapolate(history, avg, SimpleConfidence, model.MethodSimpleMA)
}
