package calculator

import (
	"errors"
	"math"
)

var (
	// ErrNotEnoughData is returned when a series is shorter than the requested window.
	ErrNotEnoughData = errors.New("not enough data")
	// ErrInvalidValue is returned when a NAV or weight is zero, negative, NaN or infinite.
	ErrInvalidValue = errors.New("value must be a finite positive number")
)

// Positive reports whether v is a finite number greater than zero.
func Positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// DailyChanges returns the n most recent day-over-day percentage changes of an
// ascending NAV series, most recent first: changes[0] compares navs[len-1] with navs[len-2].
// Every NAV touched by the window must be finite and positive.
func DailyChanges(navs []float64, n int) ([]float64, error) {
	if n <= 0 || len(navs) < n+1 {
		return nil, ErrNotEnoughData
	}
	last := len(navs) - 1
	changes := make([]float64, n)
	for i := 0; i < n; i++ {
		cur, prev := navs[last-i], navs[last-i-1]
		if !Positive(cur) || !Positive(prev) {
			return nil, ErrInvalidValue
		}
		changes[i] = (cur - prev) / prev * 100
	}
	return changes, nil
}

// Mean computes the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrNotEnoughData
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// MeanAbs computes the mean of absolute values.
func MeanAbs(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrNotEnoughData
	}
	sum := 0.0
	for _, v := range values {
		sum += math.Abs(v)
	}
	return sum / float64(len(values)), nil
}

// WeightedMean pairs values[i] with weights[i] and divides by the mass of the
// weights actually used, so a short window is not biased towards zero.
func WeightedMean(values, weights []float64) (float64, error) {
	if len(values) == 0 || len(weights) < len(values) {
		return 0, ErrNotEnoughData
	}
	var sum, mass float64
	for i, v := range values {
		w := weights[i]
		if !Positive(w) {
			return 0, ErrInvalidValue
		}
		sum += v * w
		mass += w
	}
	return sum / mass, nil
}
