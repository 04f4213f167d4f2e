package models

import "time"

// TimePoint is a single immutable sample in an ordered series.
// Series handed to the forecaster must be sorted ascending by timestamp;
// no sorting happens downstream.
type TimePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// MarketSnapshot is one raw observation pulled from the upstream
// booking system for a market.
type MarketSnapshot struct {
	MarketID          string    `json:"market_id"`
	Timestamp         time.Time `json:"timestamp"`
	SessionsRequested int       `json:"sessions_requested"`
	TutorsOnline      int       `json:"tutors_online"`
	TutorsActive      int       `json:"tutors_active"`
}

// HistoricalRecord is the derived hourly entity the forecaster consumes,
// one per calendar hour.
type HistoricalRecord struct {
	Timestamp         time.Time `json:"timestamp"`
	Hour              int       `json:"hour"`
	DayOfWeek         int       `json:"day_of_week"`
	SessionVolume     int       `json:"session_volume"`
	AvailableTutors   int       `json:"available_tutors"`
	ActiveTutors      int       `json:"active_tutors"`
	SupplyDemandRatio float64   `json:"supply_demand_ratio"`
}

// NewHistoricalRecord derives the hourly record from a raw snapshot.
func NewHistoricalRecord(snap *MarketSnapshot) *HistoricalRecord {
	ratio := 0.0
	if snap.TutorsOnline > 0 {
		ratio = float64(snap.SessionsRequested) / float64(snap.TutorsOnline)
	}

	return &HistoricalRecord{
		Timestamp:         snap.Timestamp,
		Hour:              snap.Timestamp.Hour(),
		DayOfWeek:         int(snap.Timestamp.Weekday()),
		SessionVolume:     snap.SessionsRequested,
		AvailableTutors:   snap.TutorsOnline,
		ActiveTutors:      snap.TutorsActive,
		SupplyDemandRatio: ratio,
	}
}

// VolumeSeries extracts the session-volume values in input order.
func VolumeSeries(records []HistoricalRecord) []float64 {
	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = float64(r.SessionVolume)
	}
	return values
}

// AvailabilitySeries extracts the available-tutor counts in input order.
func AvailabilitySeries(records []HistoricalRecord) []float64 {
	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = float64(r.AvailableTutors)
	}
	return values
}
