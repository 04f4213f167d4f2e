package anomaly

import (
	"errors"
	"fmt"
	"math"

	"github.com/tutorlane/marketpulse/internal/stats"
	"github.com/tutorlane/marketpulse/pkg/models"
)

type Method string

const (
	MethodZScore        Method = "zscore"
	MethodMAD           Method = "mad"
	MethodIQR           Method = "iqr"
	MethodMovingAverage Method = "moving_average"
	MethodVolatility    Method = "volatility"
	MethodEnsemble      Method = "ensemble"
)

// ErrUnknownMethod is a configuration error and the only error class the
// dispatcher surfaces; thin or degenerate input degrades to a
// no-anomaly result instead.
var ErrUnknownMethod = errors.New("unknown detection method")

// madScale rescales the MAD so the modified z-score is comparable to a
// standard z-score under normality.
const madScale = 0.6745

type Config struct {
	ZScoreThreshold     float64
	MADThreshold        float64
	IQRMultiplier       float64
	Window              int
	VolatilityThreshold float64
	MinMethodsAgreement int
}

type Detector struct {
	config Config
}

func New(cfg Config) *Detector {
	if cfg.ZScoreThreshold == 0 {
		cfg.ZScoreThreshold = 3.0
	}
	if cfg.MADThreshold == 0 {
		cfg.MADThreshold = 3.5
	}
	if cfg.IQRMultiplier == 0 {
		cfg.IQRMultiplier = 1.5
	}
	if cfg.Window == 0 {
		cfg.Window = 7
	}
	if cfg.VolatilityThreshold == 0 {
		cfg.VolatilityThreshold = 2.0
	}
	if cfg.MinMethodsAgreement == 0 {
		cfg.MinMethodsAgreement = 2
	}

	return &Detector{config: cfg}
}

// Request is one detection invocation. Cross-sectional methods read
// Reference and Current; time-ordered methods read Series. Threshold and
// Window override the detector defaults when non-zero.
type Request struct {
	Method    Method
	Reference []float64
	Series    []models.TimePoint
	Current   float64
	Threshold float64
	Window    int
}

// Detect dispatches to the requested method. Unknown methods fail fast;
// every other path returns a structurally valid result.
func (d *Detector) Detect(req Request) (models.AnomalyResult, error) {
	det := d.withOverrides(req.Threshold, req.Window)

	switch req.Method {
	case MethodZScore:
		return det.ZScore(req.Reference, req.Current), nil
	case MethodMAD:
		return det.MAD(req.Reference, req.Current), nil
	case MethodIQR:
		return det.IQR(req.Reference, req.Current), nil
	case MethodMovingAverage:
		return det.MovingAverage(req.Series), nil
	case MethodVolatility:
		return det.VolatilityRatio(req.Series), nil
	case MethodEnsemble:
		return det.Ensemble(req.Reference, req.Current), nil
	default:
		return models.AnomalyResult{}, fmt.Errorf("%w: %q", ErrUnknownMethod, req.Method)
	}
}

func (d *Detector) withOverrides(threshold float64, window int) *Detector {
	if threshold == 0 && window == 0 {
		return d
	}
	cfg := d.config
	if threshold > 0 {
		cfg.ZScoreThreshold = threshold
		cfg.MADThreshold = threshold
		cfg.IQRMultiplier = threshold
		cfg.VolatilityThreshold = threshold
	}
	if window > 0 {
		cfg.Window = window
	}
	return &Detector{config: cfg}
}

// ZScore flags current when it sits more than the threshold number of
// standard deviations away from the reference mean.
func (d *Detector) ZScore(reference []float64, current float64) models.AnomalyResult {
	result := models.AnomalyResult{
		Method:  string(MethodZScore),
		Details: models.AnomalyDetails{Value: current, Threshold: d.config.ZScoreThreshold},
	}

	mean := stats.Mean(reference)
	stdDev := stats.StdDev(reference)
	result.Details.Expected = mean

	if stdDev == 0 {
		return result
	}

	z := math.Abs(current-mean) / stdDev
	result.Details.ZScore = z
	result.Score = clampScore(z / (2 * d.config.ZScoreThreshold))
	result.IsAnomaly = z > d.config.ZScoreThreshold

	return result
}

// MAD is the robust z-score variant, resistant to outliers in the reference.
func (d *Detector) MAD(reference []float64, current float64) models.AnomalyResult {
	result := models.AnomalyResult{
		Method:  string(MethodMAD),
		Details: models.AnomalyDetails{Value: current, Threshold: d.config.MADThreshold},
	}

	median := stats.Median(reference)
	mad := stats.MAD(reference)
	result.Details.Expected = median

	if mad == 0 {
		return result
	}

	modifiedZ := madScale * math.Abs(current-median) / mad
	result.Details.ZScore = modifiedZ
	result.Score = clampScore(modifiedZ / (2 * d.config.MADThreshold))
	result.IsAnomaly = modifiedZ > d.config.MADThreshold

	return result
}

// IQR flags current when it falls outside the Tukey fences built from the
// reference quartiles. Needs at least 4 reference points.
func (d *Detector) IQR(reference []float64, current float64) models.AnomalyResult {
	result := models.AnomalyResult{
		Method:  string(MethodIQR),
		Details: models.AnomalyDetails{Value: current, Threshold: d.config.IQRMultiplier},
	}

	if len(reference) < 4 {
		return result
	}

	q1, q3 := stats.Quartiles(reference)
	iqr := q3 - q1
	result.Details.Expected = (q1 + q3) / 2

	if iqr == 0 {
		return result
	}

	k := d.config.IQRMultiplier
	lower := q1 - k*iqr
	upper := q3 + k*iqr

	var distance float64
	switch {
	case current < lower:
		distance = lower - current
	case current > upper:
		distance = current - upper
	default:
		return result
	}

	result.IsAnomaly = true
	result.Details.Deviation = distance
	result.Score = clampScore(distance / (iqr * k))

	return result
}

// MovingAverage compares the last point of the series against the mean and
// spread of the window immediately preceding it.
func (d *Detector) MovingAverage(series []models.TimePoint) models.AnomalyResult {
	window := d.config.Window
	result := models.AnomalyResult{
		Method:  string(MethodMovingAverage),
		Details: models.AnomalyDetails{Threshold: d.config.ZScoreThreshold},
	}

	if len(series) < window+1 {
		return result
	}

	current := series[len(series)-1].Value
	result.Details.Value = current

	preceding := make([]float64, window)
	for i := 0; i < window; i++ {
		preceding[i] = series[len(series)-1-window+i].Value
	}

	mean := stats.Mean(preceding)
	stdDev := stats.StdDev(preceding)
	result.Details.Expected = mean

	if stdDev == 0 {
		return result
	}

	z := math.Abs(current-mean) / stdDev
	result.Details.ZScore = z
	result.Details.Deviation = current - mean
	result.Score = clampScore(z / (2 * d.config.ZScoreThreshold))
	result.IsAnomaly = z > d.config.ZScoreThreshold

	return result
}

// VolatilityRatio flags a regime change when the spread of the most recent
// window dwarfs the spread of the window before it.
func (d *Detector) VolatilityRatio(series []models.TimePoint) models.AnomalyResult {
	window := d.config.Window
	result := models.AnomalyResult{
		Method:  string(MethodVolatility),
		Details: models.AnomalyDetails{Threshold: d.config.VolatilityThreshold},
	}

	if len(series) < 2*window {
		return result
	}

	recent := make([]float64, window)
	previous := make([]float64, window)
	for i := 0; i < window; i++ {
		recent[i] = series[len(series)-window+i].Value
		previous[i] = series[len(series)-2*window+i].Value
	}

	recentStd := stats.StdDev(recent)
	previousStd := stats.StdDev(previous)
	result.Details.Value = recentStd
	result.Details.Expected = previousStd

	if previousStd == 0 {
		return result
	}

	ratio := recentStd / previousStd
	result.Details.Deviation = ratio
	result.Score = clampScore(ratio / (2 * d.config.VolatilityThreshold))
	result.IsAnomaly = ratio > d.config.VolatilityThreshold

	return result
}

// Ensemble runs z-score, MAD, and IQR and votes. The reported score is the
// mean of all three component scores whether or not the quorum is met.
func (d *Detector) Ensemble(reference []float64, current float64) models.AnomalyResult {
	components := []models.AnomalyResult{
		d.ZScore(reference, current),
		d.MAD(reference, current),
		d.IQR(reference, current),
	}

	flagged := 0
	var scoreSum float64
	for _, c := range components {
		if c.IsAnomaly {
			flagged++
		}
		scoreSum += c.Score
	}

	return models.AnomalyResult{
		IsAnomaly: flagged >= d.config.MinMethodsAgreement,
		Score:     scoreSum / float64(len(components)),
		Method:    string(MethodEnsemble),
		Details: models.AnomalyDetails{
			Value:     current,
			Expected:  stats.Mean(reference),
			Threshold: float64(d.config.MinMethodsAgreement),
			Deviation: float64(flagged),
		},
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
