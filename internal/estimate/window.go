package estimate

import (
	"errors"
	"math"

	"NavSentinel/internal/calculator"
	"NavSentinel/internal/model"
)

// MinHistory is the fewest records any estimator accepts.
const MinHistory = 2

// window returns the number of transitions usable under a strategy limit.
func window(history []model.HistoryRecord, limit int) int {
	n := len(history) - 1
	if limit < n {
		n = limit
	}
	if n < 0 {
		return 0
	}
	return n
}

// recentChanges computes the n most recent percentage changes, most recent first.
func recentChanges(history []model.HistoryRecord, n int) ([]float64, error) {
	changes, err := calculator.DailyChanges(model.NAVs(history), n)
	switch {
	case errors.Is(err, calculator.ErrNotEnoughData):
		return nil, ErrInsufficientData
	case err != nil:
		return nil, ErrInvalidArithmetic
	}
	return changes, nil
}

// extrapolate applies a percentage change to the latest NAV and rounds the outputs.
func extrapolate(history []model.HistoryRecord, change, confidence float64, method model.Method) (model.EstimationResult, error) {
	last := history[len(history)-1].NAV
	est := last * (1 + change/100)
	if !calculator.Positive(est) || math.IsNaN(change) || math.IsInf(change, 0) {
		return model.EstimationResult{}, ErrInvalidArithmetic
	}
	return model.EstimationResult{
		Estimate:   calculator.Round(est, 4),
		EstRate:    calculator.Round(change, 2),
		Confidence: calculator.Round(confidence, 2),
		Method:     method,
	}, nil
}
