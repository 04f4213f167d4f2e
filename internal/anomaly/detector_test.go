package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorlane/marketpulse/pkg/models"
)

func makeSeries(values ...float64) []models.TimePoint {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	series := make([]models.TimePoint, len(values))
	for i, v := range values {
		series[i] = models.TimePoint{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Value:     v,
		}
	}
	return series
}

func TestDetect_UnknownMethod(t *testing.T) {
	d := New(Config{})

	_, err := d.Detect(Request{Method: "spectral"})
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestZScore(t *testing.T) {
	d := New(Config{})

	tests := []struct {
		name      string
		reference []float64
		current   float64
		isAnomaly bool
	}{
		{"obvious outlier", []float64{10, 12, 10, 12, 10, 12}, 100, true},
		{"value near mean", []float64{10, 12, 10, 12, 10, 12}, 11, false},
		{"zero variance reference", []float64{10, 10, 10, 10}, 100, false},
		{"empty reference", nil, 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := d.ZScore(tt.reference, tt.current)
			assert.Equal(t, tt.isAnomaly, result.IsAnomaly)
			assert.GreaterOrEqual(t, result.Score, 0.0)
			assert.LessOrEqual(t, result.Score, 1.0)
		})
	}
}

func TestMAD(t *testing.T) {
	d := New(Config{})

	result := d.MAD([]float64{8, 9, 10, 11, 12}, 30)
	assert.True(t, result.IsAnomaly)
	assert.InDelta(t, 10.0, result.Details.Expected, 1e-9)

	// Zero MAD degrades to no-anomaly even for a wild value.
	result = d.MAD([]float64{10, 10, 10, 10, 100}, 500)
	assert.False(t, result.IsAnomaly)
	assert.Zero(t, result.Score)
}

func TestIQR(t *testing.T) {
	d := New(Config{})

	tests := []struct {
		name      string
		reference []float64
		current   float64
		isAnomaly bool
	}{
		{"outside upper fence", []float64{1, 2, 3, 4, 5, 6, 7, 8}, 20, true},
		{"outside lower fence", []float64{1, 2, 3, 4, 5, 6, 7, 8}, -10, true},
		{"inside fences", []float64{1, 2, 3, 4, 5, 6, 7, 8}, 5, false},
		{"too few reference points", []float64{1, 2, 3}, 100, false},
		{"zero spread", []float64{5, 5, 5, 5, 5}, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := d.IQR(tt.reference, tt.current)
			assert.Equal(t, tt.isAnomaly, result.IsAnomaly)
		})
	}
}

func TestMovingAverage(t *testing.T) {
	d := New(Config{Window: 3})

	// Last point compared against the mean of the preceding window.
	result := d.MovingAverage(makeSeries(10, 12, 10, 12, 10, 12, 60))
	assert.True(t, result.IsAnomaly)
	assert.InDelta(t, 60.0, result.Details.Value, 1e-9)

	result = d.MovingAverage(makeSeries(10, 12, 10, 12, 10, 12, 11))
	assert.False(t, result.IsAnomaly)

	// Too short for the window.
	result = d.MovingAverage(makeSeries(10, 12, 10))
	assert.False(t, result.IsAnomaly)

	// Flat preceding window.
	result = d.MovingAverage(makeSeries(10, 10, 10, 100))
	assert.False(t, result.IsAnomaly)
}

func TestVolatilityRatio(t *testing.T) {
	d := New(Config{Window: 3})

	// Calm window followed by a noisy one.
	result := d.VolatilityRatio(makeSeries(10, 11, 10, 10, 50, 0))
	assert.True(t, result.IsAnomaly)

	// Similar spread in both windows.
	result = d.VolatilityRatio(makeSeries(10, 12, 10, 10, 12, 10))
	assert.False(t, result.IsAnomaly)

	// Flat previous window cannot produce a ratio.
	result = d.VolatilityRatio(makeSeries(10, 10, 10, 10, 50, 0))
	assert.False(t, result.IsAnomaly)

	// Not enough points for two windows.
	result = d.VolatilityRatio(makeSeries(10, 11, 10, 12, 9))
	assert.False(t, result.IsAnomaly)
}

func TestEnsemble(t *testing.T) {
	reference := []float64{10, 12, 11, 9, 10, 12, 11, 10}

	d := New(Config{})
	result := d.Ensemble(reference, 100)
	assert.True(t, result.IsAnomaly)
	assert.GreaterOrEqual(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 1.0)

	result = d.Ensemble(reference, 11)
	assert.False(t, result.IsAnomaly)

	// An unreachable quorum never flags, but the blended score survives.
	strict := New(Config{MinMethodsAgreement: 4})
	result = strict.Ensemble(reference, 100)
	assert.False(t, result.IsAnomaly)
	assert.Greater(t, result.Score, 0.0)
}

func TestDetect_ThresholdOverride(t *testing.T) {
	d := New(Config{})
	reference := []float64{10, 12, 10, 12, 10, 12}

	// z is about 22 for current=34: flagged with the default threshold,
	// suppressed when the caller raises it far enough.
	base, err := d.Detect(Request{Method: MethodZScore, Reference: reference, Current: 34})
	require.NoError(t, err)
	assert.True(t, base.IsAnomaly)

	relaxed, err := d.Detect(Request{Method: MethodZScore, Reference: reference, Current: 34, Threshold: 50})
	require.NoError(t, err)
	assert.False(t, relaxed.IsAnomaly)
}

func TestDetect_Dispatch(t *testing.T) {
	d := New(Config{})

	methods := []Method{MethodZScore, MethodMAD, MethodIQR, MethodEnsemble}
	for _, m := range methods {
		result, err := d.Detect(Request{
			Method:    m,
			Reference: []float64{10, 11, 9, 10, 12, 10},
			Current:   10,
		})
		require.NoError(t, err)
		assert.Equal(t, string(m), result.Method)
		assert.False(t, result.IsAnomaly)
	}
}
