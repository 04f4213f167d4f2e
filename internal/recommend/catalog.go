package recommend

import "github.com/tutorlane/marketpulse/pkg/models"

// actionCatalog holds the fixed, ordered operator actions attached verbatim
// to each recommendation type.
var actionCatalog = map[models.RecommendationType][]string{
	models.RecTutorRecruitment: {
		"Send push notifications to inactive tutors",
		"Activate standby tutors for the target window",
		"Offer peak-hour bonuses to high-rated tutors",
		"Fast-track pending tutor applications",
	},
	models.RecBudgetIncrease: {
		"Raise acquisition campaign budget for the affected window",
		"Increase bids on high-intent keywords",
		"Extend retargeting to recently active students",
	},
	models.RecBudgetDecrease: {
		"Lower acquisition spend during low-demand hours",
		"Pause underperforming campaigns",
	},
	models.RecPriorityShift: {
		"Reallocate budget from demand-side to supply-side campaigns",
		"Prioritize tutor onboarding ads over student acquisition",
		"Shift featured promotion slots to tutor recruitment",
	},
	models.RecDemandIncentive: {
		"Issue limited-time discounts for off-peak sessions",
		"Send re-engagement emails to dormant students",
		"Promote underbooked time slots on the landing page",
	},
	models.RecScheduleOptimization: {
		"Ask tutors to extend availability into the surge window",
		"Rebalance tutor shifts toward peak hours",
		"Enable the overbooking buffer for the surge period",
	},
}

// Actions returns a copy of the catalog entry so callers cannot mutate it.
func Actions(recType models.RecommendationType) []string {
	catalog := actionCatalog[recType]
	actions := make([]string, len(catalog))
	copy(actions, catalog)
	return actions
}
