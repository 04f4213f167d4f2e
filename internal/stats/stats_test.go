package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty slice", nil, 0},
		{"single value", []float64{5}, 5},
		{"multiple values", []float64{2, 4, 6}, 4},
		{"negative values", []float64{-2, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Mean(tt.values), 1e-9)
		})
	}
}

func TestVariance(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty slice", nil, 0},
		{"single value", []float64{5}, 0},
		{"constant series", []float64{3, 3, 3, 3}, 0},
		{"known variance", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Variance(tt.values), 1e-9)
		})
	}
}

func TestStdDev(t *testing.T) {
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
	assert.Zero(t, StdDev(nil))
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty slice", nil, 0},
		{"odd count", []float64{3, 1, 2}, 2},
		{"even count", []float64{1, 2, 3, 4}, 2.5},
		{"unsorted input", []float64{9, 1, 5}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Median(tt.values), 1e-9)
		})
	}
}

func TestQuartiles(t *testing.T) {
	q1, q3 := Quartiles([]float64{1, 2, 3, 4, 5, 6, 7, 8})
	assert.InDelta(t, 3.0, q1, 1e-9)
	assert.InDelta(t, 7.0, q3, 1e-9)

	q1, q3 = Quartiles(nil)
	assert.Zero(t, q1)
	assert.Zero(t, q3)
}

func TestMAD(t *testing.T) {
	assert.InDelta(t, 1.0, MAD([]float64{8, 9, 10, 11, 12}), 1e-9)
	assert.Zero(t, MAD([]float64{5, 5, 5}))
	assert.Zero(t, MAD(nil))
}

func TestMovingAverage(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		window   int
		expected float64
	}{
		{"trailing window", []float64{1, 2, 3, 4, 5, 6}, 3, 5},
		{"series shorter than window", []float64{2, 4}, 5, 3},
		{"zero window", []float64{1, 2, 3}, 0, 0},
		{"empty series", nil, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MovingAverage(tt.values, tt.window), 1e-9)
		})
	}
}
