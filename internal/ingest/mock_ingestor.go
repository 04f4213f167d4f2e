package ingest

import (
	"context"
	"math/rand"
	"time"

	"github.com/tutorlane/marketpulse/pkg/models"
)

type MockIngestor struct {
	markets      map[string]MockMarketProfile
	shouldFail   bool
	failureError error
}

// MockMarketProfile shapes the generated snapshots for one market.
type MockMarketProfile struct {
	BaseVolume   int
	BaseTutors   int
	Variance     float64
	PeakHours    []int
	PeakVolume   int
	PeakTutors   int
	WeekdaysOnly bool
}

func NewMockIngestor() *MockIngestor {
	return &MockIngestor{
		markets: make(map[string]MockMarketProfile),
	}
}

func (c *MockIngestor) SetMarket(marketID string, profile MockMarketProfile) {
	if profile.BaseVolume == 0 {
		profile.BaseVolume = 12
	}
	if profile.BaseTutors == 0 {
		profile.BaseTutors = 18
	}
	if profile.Variance == 0 {
		profile.Variance = 0.2
	}
	c.markets[marketID] = profile
}

func (c *MockIngestor) SetShouldFail(shouldFail bool, err error) {
	c.shouldFail = shouldFail
	c.failureError = err
}

func (c *MockIngestor) Fetch(ctx context.Context, marketID string) (*models.MarketSnapshot, error) {
	if c.shouldFail {
		if c.failureError != nil {
			return nil, c.failureError
		}
		return nil, ErrIngestFailed
	}

	profile, exists := c.markets[marketID]
	if !exists {
		return nil, ErrMarketNotFound
	}

	now := time.Now()
	volume, tutors := profile.valuesAt(now)

	active := int(float64(tutors) * 0.6)
	if active > volume {
		active = volume
	}

	return &models.MarketSnapshot{
		MarketID:          marketID,
		Timestamp:         now,
		SessionsRequested: volume,
		TutorsOnline:      tutors,
		TutorsActive:      active,
	}, nil
}

func (p MockMarketProfile) valuesAt(t time.Time) (volume, tutors int) {
	volume = p.BaseVolume
	tutors = p.BaseTutors

	weekday := t.Weekday()
	onWeekday := weekday >= time.Monday && weekday <= time.Friday
	if p.inPeak(t.Hour()) && (!p.WeekdaysOnly || onWeekday) {
		if p.PeakVolume > 0 {
			volume = p.PeakVolume
		}
		if p.PeakTutors > 0 {
			tutors = p.PeakTutors
		}
	}

	volume = jitter(volume, p.Variance)
	tutors = jitter(tutors, p.Variance)
	return volume, tutors
}

func (p MockMarketProfile) inPeak(hour int) bool {
	for _, h := range p.PeakHours {
		if h == hour {
			return true
		}
	}
	return false
}

func jitter(base int, variance float64) int {
	value := float64(base) * (1 + (rand.Float64()*2-1)*variance)
	if value < 0 {
		return 0
	}
	return int(value + 0.5)
}

func (c *MockIngestor) HealthCheck(ctx context.Context) error {
	if c.shouldFail {
		return ErrIngestFailed
	}
	return nil
}

func (c *MockIngestor) Close() error {
	return nil
}
