package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorlane/marketpulse/pkg/models"
)

func makeHistory(hours, volume, tutors int) []models.HistoricalRecord {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	records := make([]models.HistoricalRecord, hours)
	for i := 0; i < hours; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		records[i] = models.HistoricalRecord{
			Timestamp:         ts,
			Hour:              ts.Hour(),
			DayOfWeek:         int(ts.Weekday()),
			SessionVolume:     volume,
			AvailableTutors:   tutors,
			ActiveTutors:      tutors / 2,
			SupplyDemandRatio: float64(volume) / float64(tutors),
		}
	}
	return records
}

func TestForecast_InvalidHorizon(t *testing.T) {
	f := New(Config{})

	for _, horizon := range []int{0, -1} {
		_, err := f.Forecast(makeHistory(24, 10, 20), horizon)
		assert.ErrorIs(t, err, ErrInvalidHorizon)
	}
}

func TestForecast_EmptyHistory(t *testing.T) {
	f := New(Config{})

	predictions, err := f.Forecast(nil, 3)
	require.NoError(t, err)
	require.Len(t, predictions, 3)

	for _, p := range predictions {
		assert.Equal(t, 15, p.PredictedVolume)
		assert.Equal(t, 20, p.PredictedAvailable)
		assert.InDelta(t, 0.75, p.PredictedRatio, 1e-9)
		assert.InDelta(t, 0.3, p.Confidence, 1e-9)
		assert.Equal(t, models.RiskLow, p.ImbalanceRisk)
	}
}

func TestForecast_BaselineForShortHistory(t *testing.T) {
	f := New(Config{})

	// 24 points is below two full seasons, so the flat baseline applies.
	predictions, err := f.Forecast(makeHistory(24, 30, 20), 6)
	require.NoError(t, err)
	require.Len(t, predictions, 6)

	for _, p := range predictions {
		assert.Equal(t, 30, p.PredictedVolume)
		assert.Equal(t, 20, p.PredictedAvailable)
		assert.InDelta(t, 0.6, p.Confidence, 1e-9)
		assert.Equal(t, 30, p.LowerBound)
		assert.Equal(t, 30, p.UpperBound)
	}
}

func TestForecast_RiskBoundaries(t *testing.T) {
	f := New(Config{})

	tests := []struct {
		name     string
		volume   int
		tutors   int
		expected models.ImbalanceRisk
	}{
		{"ratio exactly 1.5 is high", 30, 20, models.RiskHigh},
		{"ratio above 1.5 is critical", 31, 20, models.RiskCritical},
		{"ratio exactly 1.2 is medium", 24, 20, models.RiskMedium},
		{"ratio above 1.2 is high", 25, 20, models.RiskHigh},
		{"ratio exactly 0.9 is low", 18, 20, models.RiskLow},
		{"ratio above 0.9 is medium", 19, 20, models.RiskMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predictions, err := f.Forecast(makeHistory(24, tt.volume, tt.tutors), 1)
			require.NoError(t, err)
			require.Len(t, predictions, 1)
			assert.Equal(t, tt.expected, predictions[0].ImbalanceRisk)
		})
	}
}

func TestForecast_Timestamps(t *testing.T) {
	f := New(Config{})
	history := makeHistory(24, 10, 20)
	last := history[len(history)-1].Timestamp

	predictions, err := f.Forecast(history, 4)
	require.NoError(t, err)

	for i, p := range predictions {
		expected := last.Add(time.Duration(i+1) * time.Hour)
		assert.True(t, p.Timestamp.Equal(expected))
		assert.Equal(t, expected.Hour(), p.Hour)
		assert.Equal(t, int(expected.Weekday()), p.DayOfWeek)
	}
}

func TestForecast_SeasonalModelOnConstantSeries(t *testing.T) {
	f := New(Config{})

	// Three full seasons of a constant series: the fit is exact, so
	// residuals vanish and confidence sits at the ceiling.
	predictions, err := f.Forecast(makeHistory(72, 10, 20), 24)
	require.NoError(t, err)
	require.Len(t, predictions, 24)

	for _, p := range predictions {
		assert.Equal(t, 10, p.PredictedVolume)
		assert.Equal(t, 20, p.PredictedAvailable)
		assert.InDelta(t, 0.5, p.PredictedRatio, 1e-9)
		assert.InDelta(t, 0.95, p.Confidence, 1e-9)
		assert.Equal(t, models.RiskLow, p.ImbalanceRisk)
	}
}

func TestForecast_SeasonalPatternTracked(t *testing.T) {
	f := New(Config{})

	// Daily cycle: quiet nights, busy afternoons.
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	var history []models.HistoricalRecord
	for i := 0; i < 7*24; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		volume := 5
		if h := ts.Hour(); h >= 14 && h <= 18 {
			volume = 40
		}
		history = append(history, models.HistoricalRecord{
			Timestamp:       ts,
			Hour:            ts.Hour(),
			DayOfWeek:       int(ts.Weekday()),
			SessionVolume:   volume,
			AvailableTutors: 20,
		})
	}

	predictions, err := f.Forecast(history, 24)
	require.NoError(t, err)

	var peak, trough int
	for _, p := range predictions {
		if p.Hour == 16 {
			peak = p.PredictedVolume
		}
		if p.Hour == 4 {
			trough = p.PredictedVolume
		}
	}

	assert.Greater(t, peak, trough, "afternoon forecast should exceed the night forecast")
	assert.Greater(t, peak, 25)
	assert.Less(t, trough, 15)
}

func TestHoltWinters_ConstantSeries(t *testing.T) {
	hw := newHoltWinters(0.3, 0.1, 0.2, 4)

	for i := 0; i < 12; i++ {
		hw.Update(8)
	}

	require.True(t, hw.Initialized())
	for h := 1; h <= 8; h++ {
		assert.InDelta(t, 8.0, hw.Predict(h), 1e-9)
	}
}

func TestHoltWinters_NotInitializedBeforeFirstSeason(t *testing.T) {
	hw := newHoltWinters(0.3, 0.1, 0.2, 24)

	for i := 0; i < 23; i++ {
		hw.Update(10)
	}
	assert.False(t, hw.Initialized())

	hw.Update(10)
	assert.True(t, hw.Initialized())
}
