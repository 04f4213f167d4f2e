package recommend

import (
	"fmt"
	"sort"
	"time"

	"github.com/tutorlane/marketpulse/pkg/models"
)

type Config struct {
	// OptimalRatio is the target supply/demand ratio every metrics block
	// compares against.
	OptimalRatio float64

	// SurgeIncrease is the minimum hour-over-hour volume growth that
	// counts as a demand surge. Fixed contract value, 30%.
	SurgeIncrease float64

	// RatioFloor gates surge and gap rules: below it the market absorbs
	// the change without intervention.
	RatioFloor float64

	// SupplyGapMin is the minimum volume-minus-availability shortfall
	// for the supply-gap rule.
	SupplyGapMin int
}

// Engine turns forecasted imbalance into ranked operator actions.
// Stateless; Generate is a pure function of its input.
type Engine struct {
	config Config
}

func New(cfg Config) *Engine {
	if cfg.OptimalRatio == 0 {
		cfg.OptimalRatio = 0.8
	}
	if cfg.SurgeIncrease == 0 {
		cfg.SurgeIncrease = 0.30
	}
	if cfg.RatioFloor == 0 {
		cfg.RatioFloor = 0.9
	}
	if cfg.SupplyGapMin == 0 {
		cfg.SupplyGapMin = 10
	}

	return &Engine{config: cfg}
}

// Generate runs the three detection passes in fixed order (critical
// periods, demand surges, supply gaps) and returns the recommendations
// sorted by priority descending. The sort is stable, so ties keep the
// pass order.
func (e *Engine) Generate(predictions []models.Prediction) []models.Recommendation {
	var recommendations []models.Recommendation

	recommendations = append(recommendations, e.criticalPeriods(predictions)...)
	recommendations = append(recommendations, e.demandSurges(predictions)...)
	recommendations = append(recommendations, e.supplyGaps(predictions)...)

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Priority > recommendations[j].Priority
	})

	return recommendations
}

// criticalPeriods emits a recruitment and a budget-increase action for
// every high- or critical-risk hour.
func (e *Engine) criticalPeriods(predictions []models.Prediction) []models.Recommendation {
	var out []models.Recommendation

	for i, p := range predictions {
		if !p.AtRisk() {
			continue
		}

		recruitPriority, budgetPriority := 8, 7
		if p.ImbalanceRisk == models.RiskCritical {
			recruitPriority, budgetPriority = 10, 9
		}

		rationale := fmt.Sprintf(
			"Predicted supply/demand ratio %.2f (%d sessions vs %d tutors) at %s is %s risk",
			p.PredictedRatio, p.PredictedVolume, p.PredictedAvailable,
			p.Timestamp.Format("Mon 15:04"), p.ImbalanceRisk,
		)

		out = append(out, models.Recommendation{
			ID:          recID(models.RecTutorRecruitment, i),
			Type:        models.RecTutorRecruitment,
			Severity:    severityForRisk(p.ImbalanceRisk),
			Title:       "Recruit tutors for upcoming demand peak",
			Description: fmt.Sprintf("Activate additional tutors before the %s slot", p.Timestamp.Format("15:04")),
			Rationale:   rationale,
			TargetTimeframe: models.Timeframe{
				Start: p.Timestamp.Add(-2 * time.Hour),
				End:   p.Timestamp.Add(1 * time.Hour),
			},
			Metrics:  e.metricsFor(p),
			Actions:  Actions(models.RecTutorRecruitment),
			Priority: recruitPriority,
		})

		out = append(out, models.Recommendation{
			ID:          recID(models.RecBudgetIncrease, i),
			Type:        models.RecBudgetIncrease,
			Severity:    severityForRisk(p.ImbalanceRisk),
			Title:       "Increase supply-side campaign budget",
			Description: fmt.Sprintf("Raise spend ahead of the %s demand peak", p.Timestamp.Format("15:04")),
			Rationale:   rationale,
			TargetTimeframe: models.Timeframe{
				Start: generationTime(predictions),
				End:   p.Timestamp,
			},
			Metrics:  e.metricsFor(p),
			Actions:  Actions(models.RecBudgetIncrease),
			Priority: budgetPriority,
		})
	}

	return out
}

// demandSurges emits a schedule-optimization action when volume jumps more
// than SurgeIncrease hour over hour while the market is already tight.
func (e *Engine) demandSurges(predictions []models.Prediction) []models.Recommendation {
	var out []models.Recommendation

	for i := 1; i < len(predictions); i++ {
		prev, curr := predictions[i-1], predictions[i]
		if prev.PredictedVolume <= 0 {
			continue
		}

		increase := float64(curr.PredictedVolume-prev.PredictedVolume) / float64(prev.PredictedVolume)
		if increase <= e.config.SurgeIncrease || curr.PredictedRatio <= e.config.RatioFloor {
			continue
		}

		priority := 6
		switch curr.ImbalanceRisk {
		case models.RiskCritical:
			priority = 9
		case models.RiskHigh:
			priority = 7
		}

		out = append(out, models.Recommendation{
			ID:       recID(models.RecScheduleOptimization, i),
			Type:     models.RecScheduleOptimization,
			Severity: severityForRisk(curr.ImbalanceRisk),
			Title:    "Optimize schedules for demand surge",
			Description: fmt.Sprintf(
				"Session volume jumps %.0f%% into the %s slot", increase*100, curr.Timestamp.Format("15:04"),
			),
			Rationale: fmt.Sprintf(
				"Volume rises from %d to %d (%.0f%%) while ratio %.2f already exceeds %.2f",
				prev.PredictedVolume, curr.PredictedVolume, increase*100,
				curr.PredictedRatio, e.config.RatioFloor,
			),
			TargetTimeframe: models.Timeframe{
				Start: prev.Timestamp,
				End:   curr.Timestamp,
			},
			Metrics:  e.metricsFor(curr),
			Actions:  Actions(models.RecScheduleOptimization),
			Priority: priority,
		})
	}

	return out
}

// supplyGaps emits a priority-shift action when the absolute shortfall
// between volume and availability is large and the market is tight.
func (e *Engine) supplyGaps(predictions []models.Prediction) []models.Recommendation {
	var out []models.Recommendation

	for i, p := range predictions {
		gap := p.PredictedVolume - p.PredictedAvailable
		if gap <= e.config.SupplyGapMin || p.PredictedRatio <= e.config.RatioFloor {
			continue
		}

		priority := 5
		switch p.ImbalanceRisk {
		case models.RiskCritical:
			priority = 8
		case models.RiskHigh:
			priority = 6
		}

		out = append(out, models.Recommendation{
			ID:       recID(models.RecPriorityShift, i),
			Type:     models.RecPriorityShift,
			Severity: severityForRisk(p.ImbalanceRisk),
			Title:    "Shift campaign priority to supply side",
			Description: fmt.Sprintf(
				"Forecast leaves %d sessions uncovered in the %s slot", gap, p.Timestamp.Format("15:04"),
			),
			Rationale: fmt.Sprintf(
				"Predicted %d sessions against %d available tutors (gap %d, ratio %.2f)",
				p.PredictedVolume, p.PredictedAvailable, gap, p.PredictedRatio,
			),
			TargetTimeframe: models.Timeframe{
				Start: p.Timestamp,
				End:   p.Timestamp.Add(1 * time.Hour),
			},
			Metrics:  e.metricsFor(p),
			Actions:  Actions(models.RecPriorityShift),
			Priority: priority,
		})
	}

	return out
}

// Summarize aggregates a batch: totals, per-severity and per-type counts,
// and the single highest-priority entry (nil when empty).
func (e *Engine) Summarize(recommendations []models.Recommendation) models.RecommendationSummary {
	summary := models.RecommendationSummary{
		Total:      len(recommendations),
		BySeverity: make(map[models.Severity]int),
		ByType:     make(map[models.RecommendationType]int),
	}

	for i := range recommendations {
		r := &recommendations[i]
		summary.BySeverity[r.Severity]++
		summary.ByType[r.Type]++
		if summary.Top == nil || r.Priority > summary.Top.Priority {
			summary.Top = r
		}
	}

	return summary
}

func (e *Engine) metricsFor(p models.Prediction) models.RecommendationMetrics {
	return models.RecommendationMetrics{
		CurrentRatio: p.PredictedRatio,
		TargetRatio:  e.config.OptimalRatio,
		EstimatedImpact: fmt.Sprintf(
			"reduce imbalance ratio from %.2f toward %.2f", p.PredictedRatio, e.config.OptimalRatio,
		),
	}
}

// recID is deterministic per type and source prediction index, keeping
// Generate a pure function of its input.
func recID(recType models.RecommendationType, index int) string {
	return fmt.Sprintf("%s-%d", recType, index)
}

// generationTime anchors "now" to the hour before the first forecast step
// so repeated calls with the same input produce identical output.
func generationTime(predictions []models.Prediction) time.Time {
	if len(predictions) == 0 {
		return time.Time{}
	}
	return predictions[0].Timestamp.Add(-1 * time.Hour)
}

func severityForRisk(risk models.ImbalanceRisk) models.Severity {
	switch risk {
	case models.RiskCritical:
		return models.SeverityCritical
	case models.RiskHigh:
		return models.SeverityHigh
	case models.RiskMedium:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
