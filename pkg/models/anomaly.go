package models

// AnomalyDetails carries the numbers behind a detection verdict.
// Fields other than Value are populated only when the method computed them.
type AnomalyDetails struct {
	Value     float64 `json:"value"`
	Expected  float64 `json:"expected,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	ZScore    float64 `json:"z_score,omitempty"`
	Deviation float64 `json:"deviation,omitempty"`
}

// AnomalyResult is the outcome of a single detector invocation.
// Stateless; the core never persists these.
type AnomalyResult struct {
	IsAnomaly bool           `json:"is_anomaly"`
	Score     float64        `json:"score"`
	Method    string         `json:"method"`
	Details   AnomalyDetails `json:"details"`
}
