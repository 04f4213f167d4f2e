package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// Variance returns the population variance, 0 for fewer than 2 values.
func Variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		diff := v - mean
		sum += diff * diff
	}
	return sum / float64(len(values))
}

func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// Median returns the middle value of the sorted input, 0 for an empty slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := sortedCopy(values)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Quartiles returns Q1 and Q3 using floor indexing on the sorted slice.
func Quartiles(values []float64) (q1, q3 float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sorted := sortedCopy(values)
	q1 = sorted[len(sorted)/4]
	q3 = sorted[(len(sorted)*3)/4]
	return q1, q3
}

// MAD returns the median absolute deviation from the median.
func MAD(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	median := Median(values)
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - median)
	}
	return Median(deviations)
}

// MovingAverage returns the mean of the trailing window, or the mean of the
// whole series when it is shorter than the window.
func MovingAverage(values []float64, window int) float64 {
	if window <= 0 || len(values) == 0 {
		return 0
	}
	if len(values) < window {
		return Mean(values)
	}
	return Mean(values[len(values)-window:])
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}
