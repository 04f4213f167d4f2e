package recommend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorlane/marketpulse/internal/forecast"
	"github.com/tutorlane/marketpulse/internal/simulator"
	"github.com/tutorlane/marketpulse/pkg/models"
)

func pred(ts time.Time, volume, available int, risk models.ImbalanceRisk) models.Prediction {
	return models.Prediction{
		Timestamp:          ts,
		Hour:               ts.Hour(),
		DayOfWeek:          int(ts.Weekday()),
		PredictedVolume:    volume,
		PredictedAvailable: available,
		PredictedRatio:     float64(volume) / float64(available),
		Confidence:         0.8,
		ImbalanceRisk:      risk,
	}
}

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestGenerate_CriticalPeriod(t *testing.T) {
	e := New(Config{})

	predictions := []models.Prediction{
		pred(t0, 10, 20, models.RiskLow),
		pred(t0.Add(time.Hour), 40, 20, models.RiskCritical),
	}

	recommendations := e.Generate(predictions)
	require.NotEmpty(t, recommendations)

	// Highest priority first: recruitment at 10 leads the batch.
	assert.Equal(t, models.RecTutorRecruitment, recommendations[0].Type)
	assert.Equal(t, 10, recommendations[0].Priority)
	assert.Equal(t, models.SeverityCritical, recommendations[0].Severity)

	var budget *models.Recommendation
	for i := range recommendations {
		if recommendations[i].Type == models.RecBudgetIncrease {
			budget = &recommendations[i]
			break
		}
	}
	require.NotNil(t, budget)
	assert.Equal(t, 9, budget.Priority)
}

func TestGenerate_HighRiskPriorities(t *testing.T) {
	e := New(Config{})

	predictions := []models.Prediction{
		pred(t0, 26, 20, models.RiskHigh),
	}

	// 26 vs 20 is not a big enough absolute gap for the supply-gap rule,
	// so only the two critical-period actions fire.
	recommendations := e.Generate(predictions)
	require.Len(t, recommendations, 2)

	assert.Equal(t, models.RecTutorRecruitment, recommendations[0].Type)
	assert.Equal(t, 8, recommendations[0].Priority)
	assert.Equal(t, models.RecBudgetIncrease, recommendations[1].Type)
	assert.Equal(t, 7, recommendations[1].Priority)
}

func TestGenerate_DemandSurge(t *testing.T) {
	e := New(Config{})

	predictions := []models.Prediction{
		pred(t0, 10, 20, models.RiskLow),
		pred(t0.Add(time.Hour), 20, 20, models.RiskMedium),
	}

	recommendations := e.Generate(predictions)
	require.Len(t, recommendations, 1)

	r := recommendations[0]
	assert.Equal(t, models.RecScheduleOptimization, r.Type)
	assert.Equal(t, 6, r.Priority)
	assert.Equal(t, models.SeverityMedium, r.Severity)
	assert.True(t, r.TargetTimeframe.Start.Equal(t0))
}

func TestGenerate_SurgeBelowRatioFloorIgnored(t *testing.T) {
	e := New(Config{})

	// Volume doubles but the market stays loose (ratio 0.5).
	predictions := []models.Prediction{
		pred(t0, 10, 40, models.RiskLow),
		pred(t0.Add(time.Hour), 20, 40, models.RiskLow),
	}

	assert.Empty(t, e.Generate(predictions))
}

func TestGenerate_SupplyGap(t *testing.T) {
	e := New(Config{})

	predictions := []models.Prediction{
		pred(t0, 40, 20, models.RiskCritical),
	}

	recommendations := e.Generate(predictions)

	var shift *models.Recommendation
	for i := range recommendations {
		if recommendations[i].Type == models.RecPriorityShift {
			shift = &recommendations[i]
			break
		}
	}
	require.NotNil(t, shift)
	assert.Equal(t, 8, shift.Priority)
}

func TestGenerate_Deterministic(t *testing.T) {
	e := New(Config{})

	predictions := []models.Prediction{
		pred(t0, 10, 20, models.RiskLow),
		pred(t0.Add(time.Hour), 40, 20, models.RiskCritical),
		pred(t0.Add(2*time.Hour), 26, 20, models.RiskHigh),
	}

	first := e.Generate(predictions)
	second := e.Generate(predictions)

	assert.Equal(t, first, second)
}

func TestGenerate_DeterministicIDs(t *testing.T) {
	e := New(Config{})

	predictions := []models.Prediction{
		pred(t0, 10, 20, models.RiskLow),
		pred(t0.Add(time.Hour), 40, 20, models.RiskCritical),
	}

	recommendations := e.Generate(predictions)

	ids := make(map[string]bool)
	for _, r := range recommendations {
		ids[r.ID] = true
	}
	assert.True(t, ids["tutor_recruitment-1"])
	assert.True(t, ids["budget_increase-1"])
}

func TestGenerate_Empty(t *testing.T) {
	e := New(Config{})

	assert.Empty(t, e.Generate(nil))
	assert.Empty(t, e.Generate([]models.Prediction{pred(t0, 10, 20, models.RiskLow)}))
}

func TestSummarize(t *testing.T) {
	e := New(Config{})

	predictions := []models.Prediction{
		pred(t0, 10, 20, models.RiskLow),
		pred(t0.Add(time.Hour), 40, 20, models.RiskCritical),
	}
	recommendations := e.Generate(predictions)

	summary := e.Summarize(recommendations)
	assert.Equal(t, len(recommendations), summary.Total)
	require.NotNil(t, summary.Top)
	assert.Equal(t, 10, summary.Top.Priority)
	assert.Positive(t, summary.BySeverity[models.SeverityCritical])
	assert.Positive(t, summary.ByType[models.RecTutorRecruitment])

	empty := e.Summarize(nil)
	assert.Zero(t, empty.Total)
	assert.Nil(t, empty.Top)
}

// TestAfterSchoolPeakPipeline replays a month of school-week demand with
// lagging tutor supply through the forecaster and expects a strong
// recruitment recommendation for the afternoon peak.
func TestAfterSchoolPeakPipeline(t *testing.T) {
	sim := simulator.NewMarketSim("algebra", simulator.MarketSimConfig{
		BaseVolume: 12,
		BaseTutors: 18,
		Variance:   0.01,
	})
	sim.SetPattern(simulator.PatternSchoolWeek)
	sim.SetSupplyFollow(0.2)

	history := sim.GenerateHistory(30)
	require.Len(t, history, 30*24)

	f := forecast.New(forecast.Config{})
	predictions, err := f.Forecast(history, 24)
	require.NoError(t, err)

	e := New(Config{})
	recommendations := e.Generate(predictions)
	require.NotEmpty(t, recommendations)

	var recruitment *models.Recommendation
	for i := range recommendations {
		if recommendations[i].Type == models.RecTutorRecruitment {
			recruitment = &recommendations[i]
			break
		}
	}
	require.NotNil(t, recruitment, "after-school peak should demand recruitment")
	assert.GreaterOrEqual(t, recruitment.Priority, 8)

	summary := e.Summarize(recommendations)
	require.NotNil(t, summary.Top)
	assert.GreaterOrEqual(t, summary.Top.Priority, 8)
}
