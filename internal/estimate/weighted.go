package estimate

import (
	"errors"

	"NavSentinel/internal/calculator"
	"NavSentinel/internal/model"
)

// DefaultWeights apply to transitions most recent first.
var DefaultWeights = []float64{0.40, 0.30, 0.20, 0.07, 0.03}

const (
	// VolatilityThreshold is the mean absolute daily change, in percent, above
	// which the weighted estimate's confidence is penalized.
	VolatilityThreshold = 3.0
	// VolatilityPenalty multiplies confidence for volatile histories.
	VolatilityPenalty = 0.8
)

// EstimateWeighted extrapolates the latest NAV by a weighted average of recent
// daily changes. A nil weights slice selects DefaultWeights. At least two
// transitions are required.
func EstimateWeighted(history []model.HistoryRecord, weights []float64) (model.EstimationResult, error) {
	if len(history) < MinHistory {
		return model.EstimationResult{}, ErrInsufficientData
	}
	if weights == nil {
		weights = DefaultWeights
	}
	n := window(history, len(weights))
	if n < 2 {
		return model.EstimationResult{}, ErrInsufficientData
	}

	changes, err := recentChanges(history, n)
	if err != nil {
		return model.EstimationResult{}, err
	}
	weighted, err := calculator.WeightedMean(changes, weights)
	if err != nil {
		if errors.Is(err, calculator.ErrNotEnoughData) {
			return model.EstimationResult{}, ErrInsufficientData
		}
		return model.EstimationResult{}, ErrInvalidArithmetic
	}

	confidence := float64(n) / float64(len(weights))
	if confidence > 1 {
		confidence = 1
	}
	volatility, err := calculator.MeanAbs(changes)
	if err != nil {
		return model.EstimationResult{}, ErrInsufficientData
	}
	if volatility > VolatilityThreshold {
		confidence *= VolatilityPenalty
	}

	return extrapolate(history, weighted, confidence, model.MethodWeightedMA)
}
