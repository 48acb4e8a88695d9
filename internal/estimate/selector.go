package estimate

import "NavSentinel/internal/model"

// Strategy is one estimator in the selector's priority list.
type Strategy struct {
	Method     model.Method
	MinHistory int
	Estimate   func(history []model.HistoryRecord) (model.EstimationResult, error)
}

// Strategies is ordered strongest first.
var Strategies = []Strategy{
	{
		Method:     model.MethodWeightedMA,
		MinHistory: 5,
		Estimate: func(h []model.HistoryRecord) (model.EstimationResult, error) {
			return EstimateWeighted(h, nil)
		},
	},
	{
		Method:     model.MethodSimpleMA,
		MinHistory: MinHistory,
		Estimate: func(h []model.HistoryRecord) (model.EstimationResult, error) {
			return EstimateSimple(h, DefaultDays)
		},
	},
}

// EstimateNav is the engine entry point. It tries each strategy in order and
// returns the first result; when all abstain it returns the last abstention.
// fundID is for the caller's tracing only and does not affect the result.
func EstimateNav(fundID string, history []model.HistoryRecord) (model.EstimationResult, error) {
	if len(history) < MinHistory {
		return model.EstimationResult{}, ErrInsufficientData
	}
	err := ErrInsufficientData
	for _, s := range Strategies {
		if len(history) < s.MinHistory {
			continue
		}
		var res model.EstimationResult
		if res, err = s.Estimate(history); err == nil {
			return res, nil
		}
	}
	return model.EstimationResult{}, err
}
