package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchoolWeekPattern(t *testing.T) {
	p := &SchoolWeekPattern{}

	tests := []struct {
		name     string
		at       time.Time
		expected float64
	}{
		{"weekday after-school peak", time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC), 39.6},
		{"weekday evening", time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC), 18},
		{"weekday overnight", time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC), 2.4},
		{"weekday midday", time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC), 12},
		{"saturday afternoon", time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC), 8.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, p.Apply(12, tt.at), 1e-9)
		})
	}
}

func TestEveningPattern(t *testing.T) {
	p := &EveningPattern{}

	assert.InDelta(t, 24.0, p.Apply(12, time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)), 1e-9)
	assert.InDelta(t, 15.6, p.Apply(12, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)), 1e-9)
	assert.InDelta(t, 3.6, p.Apply(12, time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC)), 1e-9)
	assert.InDelta(t, 12.0, p.Apply(12, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)), 1e-9)
}

func TestExamSeasonPattern(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	p := &ExamSeasonPattern{startTime: start}

	// 5% per day, capped at double.
	assert.InDelta(t, 12.0, p.Apply(12, start), 1e-9)
	assert.InDelta(t, 12.6, p.Apply(12, start.AddDate(0, 0, 1)), 1e-9)
	assert.InDelta(t, 18.0, p.Apply(12, start.AddDate(0, 0, 10)), 1e-9)
	assert.InDelta(t, 24.0, p.Apply(12, start.AddDate(0, 0, 40)), 1e-9)
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"school_week", "school_week"},
		{"evening", "evening"},
		{"random", "random"},
		{"exam_season", "exam_season"},
		{"steady", "steady"},
		{"unknown", "steady"},
		{"", "steady"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParsePattern(tt.input).Name())
	}
}

func TestMarketSim_Defaults(t *testing.T) {
	m := NewMarketSim("algebra", MarketSimConfig{})

	assert.Equal(t, "steady", m.GetPattern())

	snap := m.Snapshot()
	assert.Equal(t, "algebra", snap.MarketID)
	assert.GreaterOrEqual(t, snap.SessionsRequested, 0)
	assert.GreaterOrEqual(t, snap.TutorsOnline, 1)
	assert.LessOrEqual(t, snap.TutorsActive, snap.TutorsOnline)
}

func TestMarketSim_GenerateHistory(t *testing.T) {
	m := NewMarketSim("algebra", MarketSimConfig{BaseVolume: 10, BaseTutors: 20, Variance: 0.05})

	records := m.GenerateHistory(2)
	require.Len(t, records, 48)

	for i := 1; i < len(records); i++ {
		assert.Equal(t, time.Hour, records[i].Timestamp.Sub(records[i-1].Timestamp))
	}

	last := records[len(records)-1]
	assert.Equal(t, 0, last.Timestamp.Minute())
	assert.WithinDuration(t, time.Now(), last.Timestamp, 2*time.Hour)
	assert.Equal(t, last.Timestamp.Hour(), last.Hour)
	assert.Equal(t, int(last.Timestamp.Weekday()), last.DayOfWeek)
}

func TestMarketSim_GenerateHistoryDefaultDays(t *testing.T) {
	m := NewMarketSim("algebra", MarketSimConfig{})
	assert.Len(t, m.GenerateHistory(0), 30*24)
}

func TestMarketSim_InjectSurge(t *testing.T) {
	m := NewMarketSim("algebra", MarketSimConfig{BaseVolume: 12, BaseTutors: 18, Variance: 0.01})

	m.InjectSurge(100, time.Hour, 0)

	snap := m.Snapshot()
	assert.Greater(t, snap.SessionsRequested, 80, "surge should dominate the base volume")

	status := m.Status()
	surge, ok := status["surge"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, surge["active"])
}

func TestMarketSim_SupplyFollowTightensMarket(t *testing.T) {
	m := NewMarketSim("algebra", MarketSimConfig{BaseVolume: 12, BaseTutors: 18, Variance: 0.01})
	m.SetPattern(PatternSchoolWeek)
	m.SetSupplyFollow(0.2)

	// Monday 15:00: demand triples but supply barely moves.
	at := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	snap := m.SnapshotAt(at)

	assert.Greater(t, snap.SessionsRequested, snap.TutorsOnline)
}
