package simulator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/tutorlane/marketpulse/pkg/models"
)

type MarketSimConfig struct {
	BaseVolume int
	BaseTutors int
	Variance   float64
}

// MarketSim generates snapshots for one simulated market. Supply reacts
// to demand with a configurable lag factor instead of tracking it exactly.
type MarketSim struct {
	id           string
	baseVolume   float64
	baseTutors   float64
	variance     float64
	pattern      Pattern
	surge        *Surge
	supplyFollow float64 // fraction of demand growth tutors cover
	mu           sync.RWMutex
}

// Surge temporarily lifts demand to a target volume with a ramp-up.
type Surge struct {
	TargetVolume float64
	StartTime    time.Time
	Duration     time.Duration
	RampUp       time.Duration
}

func NewMarketSim(id string, cfg MarketSimConfig) *MarketSim {
	if cfg.BaseVolume <= 0 {
		cfg.BaseVolume = 12
	}
	if cfg.BaseTutors <= 0 {
		cfg.BaseTutors = 18
	}
	if cfg.Variance <= 0 {
		cfg.Variance = 0.15
	}

	return &MarketSim{
		id:           id,
		baseVolume:   float64(cfg.BaseVolume),
		baseTutors:   float64(cfg.BaseTutors),
		variance:     cfg.Variance,
		pattern:      PatternSteady,
		supplyFollow: 0.4,
	}
}

// SnapshotAt produces the market state at an arbitrary time, which lets
// history seeding and live collection share one code path.
func (m *MarketSim) SnapshotAt(t time.Time) *models.MarketSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	volume := m.pattern.Apply(m.baseVolume, t)

	if m.surge != nil {
		elapsed := t.Sub(m.surge.StartTime)
		switch {
		case elapsed < 0 || elapsed > m.surge.Duration:
			if elapsed > m.surge.Duration {
				m.surge = nil
			}
		case elapsed < m.surge.RampUp:
			progress := float64(elapsed) / float64(m.surge.RampUp)
			volume = volume + (m.surge.TargetVolume-volume)*progress
		default:
			volume = m.surge.TargetVolume
		}
	}

	// Tutors cover only part of demand growth, so surges tighten the market
	demandDelta := volume - m.baseVolume
	tutors := m.baseTutors + demandDelta*m.supplyFollow

	sessions := jitterInt(volume, m.variance)
	online := jitterInt(tutors, m.variance)
	if online < 1 {
		online = 1
	}

	active := int(float64(online) * 0.6)
	if active > sessions {
		active = sessions
	}

	return &models.MarketSnapshot{
		MarketID:          m.id,
		Timestamp:         t,
		SessionsRequested: sessions,
		TutorsOnline:      online,
		TutorsActive:      active,
	}
}

func (m *MarketSim) Snapshot() *models.MarketSnapshot {
	return m.SnapshotAt(time.Now())
}

// GenerateHistory replays the pattern hourly over the past days, ending at
// the top of the current hour.
func (m *MarketSim) GenerateHistory(days int) []models.HistoricalRecord {
	if days <= 0 {
		days = 30
	}

	end := time.Now().Truncate(time.Hour)
	hours := days * 24

	records := make([]models.HistoricalRecord, 0, hours)
	for i := hours; i > 0; i-- {
		t := end.Add(-time.Duration(i) * time.Hour)
		snap := m.SnapshotAt(t)
		records = append(records, *models.NewHistoricalRecord(snap))
	}

	return records
}

func jitterInt(base, variance float64) int {
	value := base * (1 + (rand.Float64()*2-1)*variance)
	if value < 0 {
		return 0
	}
	return int(value + 0.5)
}

func (m *MarketSim) SetBaseVolume(volume int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseVolume = float64(volume)
}

func (m *MarketSim) SetBaseTutors(tutors int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseTutors = float64(tutors)
}

func (m *MarketSim) SetVariance(variance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variance = variance
}

func (m *MarketSim) SetSupplyFollow(factor float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if factor < 0 {
		factor = 0
	}
	if factor > 1 {
		factor = 1
	}
	m.supplyFollow = factor
}

func (m *MarketSim) SetPattern(pattern Pattern) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pattern = pattern
}

func (m *MarketSim) GetPattern() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pattern.Name()
}

func (m *MarketSim) InjectSurge(targetVolume int, duration, rampUp time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.surge = &Surge{
		TargetVolume: float64(targetVolume),
		StartTime:    time.Now(),
		Duration:     duration,
		RampUp:       rampUp,
	}
}

func (m *MarketSim) Status() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	surgeInfo := map[string]interface{}{"active": false}
	if m.surge != nil {
		elapsed := time.Since(m.surge.StartTime)
		remaining := m.surge.Duration - elapsed
		if remaining < 0 {
			remaining = 0
		}
		surgeInfo = map[string]interface{}{
			"active":        true,
			"target_volume": m.surge.TargetVolume,
			"remaining":     remaining.String(),
		}
	}

	return map[string]interface{}{
		"id":            m.id,
		"base_volume":   m.baseVolume,
		"base_tutors":   m.baseTutors,
		"variance":      m.variance,
		"supply_follow": m.supplyFollow,
		"pattern":       m.pattern.Name(),
		"surge":         surgeInfo,
	}
}
