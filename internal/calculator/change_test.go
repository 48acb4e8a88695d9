package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyChanges_MostRecentFirst(t *testing.T) {
	changes, err := DailyChanges([]float64{100, 110, 99}, 2)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.InDelta(t, -10.0, changes[0], 1e-9)
	assert.InDelta(t, 10.0, changes[1], 1e-9)
}

func TestDailyChanges_Errors(t *testing.T) {
	tests := []struct {
		name string
		navs []float64
		n    int
		want error
	}{
		{"zero window", []float64{1, 2}, 0, ErrNotEnoughData},
		{"window too long", []float64{1, 2}, 2, ErrNotEnoughData},
		{"zero nav", []float64{1, 0, 2}, 2, ErrInvalidValue},
		{"nan nav", []float64{1, math.NaN()}, 1, ErrInvalidValue},
		{"inf nav", []float64{math.Inf(1), 1}, 1, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DailyChanges(tt.navs, tt.n)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMeans(t *testing.T) {
	m, err := Mean([]float64{1, -2, 4})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m, 1e-12)

	ma, err := MeanAbs([]float64{1, -2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, ma, 1e-12)

	_, err = Mean(nil)
	assert.ErrorIs(t, err, ErrNotEnoughData)
	_, err = MeanAbs(nil)
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestWeightedMean_UsesOnlyPairedWeights(t *testing.T) {
	wm, err := WeightedMean([]float64{2, 4}, []float64{0.75, 0.25, 10})
	require.NoError(t, err)
	assert.InDelta(t, 2.5, wm, 1e-12)

	_, err = WeightedMean([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrNotEnoughData)
	_, err = WeightedMean([]float64{1, 2}, []float64{1, -1})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.0376, Round(1.0376006602409882, 4))
	assert.Equal(t, 0.74, Round(0.7379281787367324, 2))
	assert.Equal(t, -0.5, Round(-0.495, 2))
	assert.Equal(t, 1.0001, Round(1.00005, 4))
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
}
