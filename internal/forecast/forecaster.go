package forecast

import (
	"errors"
	"math"
	"time"

	"github.com/tutorlane/marketpulse/internal/logger"
	"github.com/tutorlane/marketpulse/internal/stats"
	"github.com/tutorlane/marketpulse/pkg/models"
)

// ErrInvalidHorizon is the only error Forecast surfaces; insufficient or
// degenerate input degrades to the baseline forecast instead.
var ErrInvalidHorizon = errors.New("forecast horizon must be positive")

// Contract values, not tunables: the fallback confidences are fixed.
const (
	baselineConfidence    = 0.6
	emptySeriesConfidence = 0.3
)

type Config struct {
	Alpha        float64
	Beta         float64
	Gamma        float64
	SeasonLength int

	MinConfidence float64
	MaxConfidence float64

	// Risk cutoffs, evaluated strictly greater-than in descending order.
	CriticalRatio float64
	HighRatio     float64
	MediumRatio   float64

	// Hard-coded projection used when the input series is empty.
	DefaultVolume       float64
	DefaultAvailability float64
}

type Forecaster struct {
	config Config
}

func New(cfg Config) *Forecaster {
	if cfg.Alpha == 0 {
		cfg.Alpha = 0.3
	}
	if cfg.Beta == 0 {
		cfg.Beta = 0.1
	}
	if cfg.Gamma == 0 {
		cfg.Gamma = 0.2
	}
	if cfg.SeasonLength == 0 {
		cfg.SeasonLength = 24
	}
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = 0.3
	}
	if cfg.MaxConfidence == 0 {
		cfg.MaxConfidence = 0.95
	}
	if cfg.CriticalRatio == 0 {
		cfg.CriticalRatio = 1.5
	}
	if cfg.HighRatio == 0 {
		cfg.HighRatio = 1.2
	}
	if cfg.MediumRatio == 0 {
		cfg.MediumRatio = 0.9
	}
	if cfg.DefaultVolume == 0 {
		cfg.DefaultVolume = 15
	}
	if cfg.DefaultAvailability == 0 {
		cfg.DefaultAvailability = 20
	}

	return &Forecaster{config: cfg}
}

// seriesForecast is the fitted projection of one numeric series.
type seriesForecast struct {
	points     []float64
	halfWidth  float64
	confidence float64
}

// Forecast projects session volume and tutor availability horizon hours
// ahead and combines them into per-hour predictions. The history must be
// sorted ascending by timestamp (caller contract, not re-verified).
func (f *Forecaster) Forecast(history []models.HistoricalRecord, horizon int) ([]models.Prediction, error) {
	if horizon <= 0 {
		return nil, ErrInvalidHorizon
	}

	volume := f.forecastSeries(models.VolumeSeries(history), horizon, f.config.DefaultVolume)
	availability := f.forecastSeries(models.AvailabilitySeries(history), horizon, f.config.DefaultAvailability)

	start := time.Now().Truncate(time.Hour).Add(time.Hour)
	if len(history) > 0 {
		start = history[len(history)-1].Timestamp.Add(time.Hour)
	}

	predictions := make([]models.Prediction, horizon)
	for i := 0; i < horizon; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)

		predictedVolume := int(math.Round(math.Max(0, volume.points[i])))
		predictedAvailable := int(math.Round(availability.points[i]))
		if predictedAvailable < 1 {
			predictedAvailable = 1
		}

		ratio := float64(predictedVolume) / float64(predictedAvailable)
		confidence := clamp((volume.confidence+availability.confidence)/2, 0, 1)

		lower := predictedVolume - int(math.Ceil(volume.halfWidth))
		if lower < 0 {
			lower = 0
		}
		upper := predictedVolume + int(math.Ceil(volume.halfWidth))

		predictions[i] = models.Prediction{
			Timestamp:          ts,
			Hour:               ts.Hour(),
			DayOfWeek:          int(ts.Weekday()),
			PredictedVolume:    predictedVolume,
			PredictedAvailable: predictedAvailable,
			PredictedRatio:     ratio,
			Confidence:         confidence,
			ImbalanceRisk:      f.classifyRisk(ratio),
			LowerBound:         lower,
			UpperBound:         upper,
		}
	}

	return predictions, nil
}

func (f *Forecaster) forecastSeries(values []float64, horizon int, emptyDefault float64) seriesForecast {
	if len(values) == 0 {
		points := make([]float64, horizon)
		for i := range points {
			points[i] = emptyDefault
		}
		return seriesForecast{
			points:     points,
			halfWidth:  emptyDefault / 2,
			confidence: emptySeriesConfidence,
		}
	}

	if len(values) < 2*f.config.SeasonLength {
		return f.baseline(values, horizon)
	}

	hw := newHoltWinters(f.config.Alpha, f.config.Beta, f.config.Gamma, f.config.SeasonLength)

	var residuals []float64
	for _, v := range values {
		if hw.Initialized() {
			residuals = append(residuals, v-hw.NextFitted())
		}
		hw.Update(v)
	}

	points := make([]float64, horizon)
	for h := 1; h <= horizon; h++ {
		p := hw.Predict(h)
		if !isFinite(p) {
			logger.Warn("Non-finite forecast value, falling back to baseline")
			return f.baseline(values, horizon)
		}
		points[h-1] = math.Max(0, p)
	}

	residStd := stats.StdDev(residuals)
	if !isFinite(residStd) {
		logger.Warn("Non-finite residual variance, falling back to baseline")
		return f.baseline(values, horizon)
	}

	// Confidence shrinks with the residual spread relative to the
	// series mean, clamped to the configured band.
	relativeError := residStd / math.Max(1, stats.Mean(values))
	confidence := clamp(f.config.MaxConfidence-relativeError, f.config.MinConfidence, f.config.MaxConfidence)

	return seriesForecast{
		points:     points,
		halfWidth:  1.96 * residStd,
		confidence: confidence,
	}
}

// baseline projects the mean of the last min(24, len) points flat across
// the horizon. Confidence is the fixed degraded-mode value.
func (f *Forecaster) baseline(values []float64, horizon int) seriesForecast {
	window := f.config.SeasonLength
	if len(values) < window {
		window = len(values)
	}
	tail := values[len(values)-window:]
	mean := stats.Mean(tail)

	points := make([]float64, horizon)
	for i := range points {
		points[i] = mean
	}

	return seriesForecast{
		points:     points,
		halfWidth:  1.96 * stats.StdDev(tail),
		confidence: baselineConfidence,
	}
}

func (f *Forecaster) classifyRisk(ratio float64) models.ImbalanceRisk {
	switch {
	case ratio > f.config.CriticalRatio:
		return models.RiskCritical
	case ratio > f.config.HighRatio:
		return models.RiskHigh
	case ratio > f.config.MediumRatio:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
