package models

import "time"

type ImbalanceRisk string

const (
	RiskLow      ImbalanceRisk = "low"
	RiskMedium   ImbalanceRisk = "medium"
	RiskHigh     ImbalanceRisk = "high"
	RiskCritical ImbalanceRisk = "critical"
)

// Prediction is one forecast step for a market hour. Immutable after creation.
type Prediction struct {
	ID                 int           `json:"id,omitempty"`
	MarketID           string        `json:"market_id,omitempty"`
	Timestamp          time.Time     `json:"timestamp"`
	Hour               int           `json:"hour"`
	DayOfWeek          int           `json:"day_of_week"`
	PredictedVolume    int           `json:"predicted_volume"`
	PredictedAvailable int           `json:"predicted_available"`
	PredictedRatio     float64       `json:"predicted_ratio"`
	Confidence         float64       `json:"confidence"`
	ImbalanceRisk      ImbalanceRisk `json:"imbalance_risk"`
	LowerBound         int           `json:"lower_bound"`
	UpperBound         int           `json:"upper_bound"`
}

func (p *Prediction) IsHighConfidence(threshold float64) bool {
	return p.Confidence >= threshold
}

// AtRisk reports whether the hour needs operator attention.
func (p *Prediction) AtRisk() bool {
	return p.ImbalanceRisk == RiskHigh || p.ImbalanceRisk == RiskCritical
}
