package models

import "time"

type RecommendationType string

const (
	RecBudgetIncrease       RecommendationType = "budget_increase"
	RecBudgetDecrease       RecommendationType = "budget_decrease"
	RecPriorityShift        RecommendationType = "priority_shift"
	RecTutorRecruitment     RecommendationType = "tutor_recruitment"
	RecDemandIncentive      RecommendationType = "demand_incentive"
	RecScheduleOptimization RecommendationType = "schedule_optimization"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Timeframe is the window an action should land in.
type Timeframe struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RecommendationMetrics compares the forecast against the target ratio.
type RecommendationMetrics struct {
	CurrentRatio    float64 `json:"current_ratio"`
	TargetRatio     float64 `json:"target_ratio"`
	EstimatedImpact string  `json:"estimated_impact"`
}

// Recommendation is a ranked, actionable suggestion for an operator.
// Never mutated after creation; persistence is the caller's concern.
type Recommendation struct {
	ID              string                `json:"id"`
	MarketID        string                `json:"market_id,omitempty"`
	Type            RecommendationType    `json:"type"`
	Severity        Severity              `json:"severity"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Rationale       string                `json:"rationale"`
	TargetTimeframe Timeframe             `json:"target_timeframe"`
	Metrics         RecommendationMetrics `json:"metrics"`
	Actions         []string              `json:"actions"`
	Priority        int                   `json:"priority"`
}

// RecommendationSummary aggregates a generated batch.
type RecommendationSummary struct {
	Total      int                        `json:"total"`
	BySeverity map[Severity]int           `json:"by_severity"`
	ByType     map[RecommendationType]int `json:"by_type"`
	Top        *Recommendation            `json:"top,omitempty"`
}
