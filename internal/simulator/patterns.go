package simulator

import (
	"math"
	"math/rand"
	"time"
)

// Pattern shapes session demand over time. Apply takes the evaluation time
// explicitly so the same pattern can replay history.
type Pattern interface {
	Apply(baseVolume float64, t time.Time) float64
	Name() string
}

var (
	PatternSteady     Pattern = &SteadyPattern{}
	PatternSchoolWeek Pattern = &SchoolWeekPattern{}
	PatternEvening    Pattern = &EveningPattern{}
	PatternRandom     Pattern = &RandomPattern{}
)

func ParsePattern(name string) Pattern {
	switch name {
	case "school_week":
		return PatternSchoolWeek
	case "evening":
		return PatternEvening
	case "random":
		return PatternRandom
	case "exam_season":
		return &ExamSeasonPattern{startTime: time.Now()}
	default:
		return PatternSteady
	}
}

// SteadyPattern - constant demand
type SteadyPattern struct{}

func (p *SteadyPattern) Apply(baseVolume float64, t time.Time) float64 {
	return baseVolume
}

func (p *SteadyPattern) Name() string {
	return "steady"
}

// SchoolWeekPattern - after-school surge on weekday afternoons, quiet
// weekends and nights
type SchoolWeekPattern struct{}

func (p *SchoolWeekPattern) Apply(baseVolume float64, t time.Time) float64 {
	weekday := t.Weekday()
	hour := t.Hour()

	var modifier float64 = 1.0

	if weekday == time.Saturday || weekday == time.Sunday {
		modifier = 0.7
	} else {
		switch {
		case hour >= 14 && hour <= 18:
			modifier = 3.3 // after-school peak
		case hour >= 19 && hour <= 21:
			modifier = 1.5
		case hour >= 0 && hour <= 6:
			modifier = 0.2
		}
	}

	return baseVolume * modifier
}

func (p *SchoolWeekPattern) Name() string {
	return "school_week"
}

// EveningPattern - adult learners, demand concentrated after work hours
type EveningPattern struct{}

func (p *EveningPattern) Apply(baseVolume float64, t time.Time) float64 {
	hour := t.Hour()

	var modifier float64
	switch {
	case hour >= 18 && hour <= 22:
		modifier = 2.0
	case hour >= 7 && hour <= 9:
		modifier = 1.3
	case hour >= 0 && hour <= 6:
		modifier = 0.3
	default:
		modifier = 1.0
	}

	return baseVolume * modifier
}

func (p *EveningPattern) Name() string {
	return "evening"
}

// RandomPattern - unpredictable spikes and drops
type RandomPattern struct{}

func (p *RandomPattern) Apply(baseVolume float64, t time.Time) float64 {
	// Random modifier between 0.5 and 1.5
	modifier := 0.5 + rand.Float64()
	result := baseVolume * modifier
	if result < 1 {
		result = 1
	}
	return result
}

func (p *RandomPattern) Name() string {
	return "random"
}

// ExamSeasonPattern - demand ramps up week over week, capped at double
type ExamSeasonPattern struct {
	startTime time.Time
}

func (p *ExamSeasonPattern) Apply(baseVolume float64, t time.Time) float64 {
	elapsed := t.Sub(p.startTime)
	days := elapsed.Hours() / 24

	increasePercent := math.Min(days*5, 100)
	modifier := 1.0 + (increasePercent / 100)

	return baseVolume * modifier
}

func (p *ExamSeasonPattern) Name() string {
	return "exam_season"
}
