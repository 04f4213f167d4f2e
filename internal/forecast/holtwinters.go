package forecast

import "math"

// holtWinters is a triple-exponential-smoothing tracker with an additive
// seasonal component. The first full season only accumulates observations;
// level, trend, and seasonal indices are derived once it completes.
type holtWinters struct {
	alpha       float64
	beta        float64
	gamma       float64
	seasonLen   int
	level       float64
	trend       float64
	seasonal    []float64
	samples     int
	initialized bool
}

func newHoltWinters(alpha, beta, gamma float64, seasonLen int) *holtWinters {
	if seasonLen < 2 {
		seasonLen = 24
	}
	return &holtWinters{
		alpha:     clamp(alpha, 0, 1),
		beta:      clamp(beta, 0, 1),
		gamma:     clamp(gamma, 0, 1),
		seasonLen: seasonLen,
		seasonal:  make([]float64, seasonLen),
	}
}

func (hw *holtWinters) Update(value float64) {
	hw.samples++
	idx := (hw.samples - 1) % hw.seasonLen

	if !hw.initialized {
		hw.seasonal[idx] = value
		if hw.samples == hw.seasonLen {
			hw.initialize()
		}
		return
	}

	prevLevel := hw.level
	hw.level = hw.alpha*(value-hw.seasonal[idx]) + (1-hw.alpha)*(prevLevel+hw.trend)
	hw.trend = hw.beta*(hw.level-prevLevel) + (1-hw.beta)*hw.trend
	hw.seasonal[idx] = hw.gamma*(value-hw.level) + (1-hw.gamma)*hw.seasonal[idx]
}

func (hw *holtWinters) initialize() {
	hw.initialized = true

	sum := 0.0
	for _, v := range hw.seasonal {
		sum += v
	}
	hw.level = sum / float64(hw.seasonLen)
	hw.trend = 0

	// Seasonal indices become deviations from the first-season mean.
	for i := range hw.seasonal {
		hw.seasonal[i] -= hw.level
	}
}

// NextFitted returns the one-step-ahead forecast for the observation
// about to arrive. Used to collect in-sample residuals during fitting.
func (hw *holtWinters) NextFitted() float64 {
	idx := hw.samples % hw.seasonLen
	return hw.level + hw.trend + hw.seasonal[idx]
}

// Predict returns the forecast stepsAhead points into the future.
func (hw *holtWinters) Predict(stepsAhead int) float64 {
	if !hw.initialized {
		return 0
	}
	idx := (hw.samples + stepsAhead - 1) % hw.seasonLen
	return hw.level + float64(stepsAhead)*hw.trend + hw.seasonal[idx]
}

func (hw *holtWinters) Initialized() bool {
	return hw.initialized
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
