package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorlane/marketpulse/internal/anomaly"
	"github.com/tutorlane/marketpulse/pkg/models"
)

func makeWindow(volumes ...int) []models.HistoricalRecord {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	records := make([]models.HistoricalRecord, len(volumes))
	for i, v := range volumes {
		ts := start.Add(time.Duration(i) * time.Hour)
		records[i] = models.HistoricalRecord{
			Timestamp:     ts,
			Hour:          ts.Hour(),
			DayOfWeek:     int(ts.Weekday()),
			SessionVolume: v,
		}
	}
	return records
}

func TestNewPipeline_Defaults(t *testing.T) {
	p := NewPipeline(PipelineConfig{MarketID: "algebra"})

	assert.Equal(t, 5*time.Minute, p.config.IngestInterval)
	assert.Equal(t, time.Hour, p.config.ForecastInterval)
	assert.Equal(t, 720, p.config.LookbackHours)
	assert.Equal(t, 24, p.config.HorizonHours)
	assert.Equal(t, anomaly.MethodEnsemble, p.config.AnomalyMethod)
}

func TestNewPipeline_KeepsConfiguredAnomalyMethod(t *testing.T) {
	p := NewPipeline(PipelineConfig{MarketID: "algebra", AnomalyMethod: anomaly.MethodMAD})

	assert.Equal(t, anomaly.MethodMAD, p.config.AnomalyMethod)
}

func TestAnomalyRequest_FramesWindow(t *testing.T) {
	history := makeWindow(10, 12, 11, 40)

	req := anomalyRequest(anomaly.MethodMAD, history)

	assert.Equal(t, anomaly.MethodMAD, req.Method)
	assert.Equal(t, []float64{10, 12, 11}, req.Reference)
	assert.InDelta(t, 40.0, req.Current, 1e-9)

	require.Len(t, req.Series, 4)
	assert.InDelta(t, 40.0, req.Series[3].Value, 1e-9)
	assert.True(t, req.Series[0].Timestamp.Before(req.Series[3].Timestamp))
}

func TestAnomalyRequest_MethodReachesDetector(t *testing.T) {
	history := makeWindow(8, 9, 10, 11, 12, 200)
	detector := anomaly.New(anomaly.Config{})

	tests := []struct {
		method  anomaly.Method
		flagged bool
	}{
		{anomaly.MethodZScore, true},
		{anomaly.MethodMAD, true},
		{anomaly.MethodEnsemble, true},
		// Six points cannot fill the default window of 7 plus the
		// current value, so this method degrades to no-anomaly.
		{anomaly.MethodMovingAverage, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			result, err := detector.Detect(anomalyRequest(tt.method, history))
			require.NoError(t, err)
			assert.Equal(t, string(tt.method), result.Method)
			assert.Equal(t, tt.flagged, result.IsAnomaly)
		})
	}
}
