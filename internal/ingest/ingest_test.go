package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorlane/marketpulse/internal/resilience"
	"github.com/tutorlane/marketpulse/pkg/models"
)

func TestMockIngestor_Fetch(t *testing.T) {
	ing := NewMockIngestor()
	ing.SetMarket("algebra", MockMarketProfile{BaseVolume: 10, BaseTutors: 15, Variance: 0.1})

	snapshot, err := ing.Fetch(context.Background(), "algebra")
	require.NoError(t, err)

	assert.Equal(t, "algebra", snapshot.MarketID)
	assert.GreaterOrEqual(t, snapshot.SessionsRequested, 0)
	assert.GreaterOrEqual(t, snapshot.TutorsOnline, 0)
	assert.LessOrEqual(t, snapshot.TutorsActive, snapshot.TutorsOnline)
	assert.WithinDuration(t, time.Now(), snapshot.Timestamp, time.Minute)
}

func TestMockIngestor_UnknownMarket(t *testing.T) {
	ing := NewMockIngestor()

	_, err := ing.Fetch(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrMarketNotFound)
}

func TestMockIngestor_FailureInjection(t *testing.T) {
	ing := NewMockIngestor()
	ing.SetMarket("algebra", MockMarketProfile{})

	injected := errors.New("upstream down")
	ing.SetShouldFail(true, injected)

	_, err := ing.Fetch(context.Background(), "algebra")
	assert.ErrorIs(t, err, injected)
	assert.Error(t, ing.HealthCheck(context.Background()))

	ing.SetShouldFail(true, nil)
	_, err = ing.Fetch(context.Background(), "algebra")
	assert.ErrorIs(t, err, ErrIngestFailed)

	ing.SetShouldFail(false, nil)
	_, err = ing.Fetch(context.Background(), "algebra")
	assert.NoError(t, err)
}

func TestMockIngestor_PeakHours(t *testing.T) {
	profile := MockMarketProfile{
		BaseVolume: 10,
		BaseTutors: 20,
		PeakHours:  []int{15, 16, 17},
		PeakVolume: 40,
	}

	assert.True(t, profile.inPeak(16))
	assert.False(t, profile.inPeak(3))
}

func TestResilientIngestor_PassThrough(t *testing.T) {
	inner := NewMockIngestor()
	inner.SetMarket("algebra", MockMarketProfile{})

	ing := NewResilientIngestor(ResilientIngestorConfig{
		Ingestor:      inner,
		MaxFailures:   2,
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
	})

	snapshot, err := ing.Fetch(context.Background(), "algebra")
	require.NoError(t, err)
	assert.Equal(t, "algebra", snapshot.MarketID)
	assert.Equal(t, resilience.StateClosed, ing.CircuitState())
}

func TestResilientIngestor_OpensCircuitAfterFailures(t *testing.T) {
	inner := NewMockIngestor()
	inner.SetShouldFail(true, errors.New("upstream down"))

	ing := NewResilientIngestor(ResilientIngestorConfig{
		Ingestor:      inner,
		MaxFailures:   2,
		Timeout:       time.Hour,
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := ing.Fetch(ctx, "algebra")
		require.Error(t, err)
	}

	assert.Equal(t, resilience.StateOpen, ing.CircuitState())

	_, err := ing.Fetch(ctx, "algebra")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestResilientIngestor_ResetCircuit(t *testing.T) {
	inner := NewMockIngestor()
	inner.SetMarket("algebra", MockMarketProfile{})
	inner.SetShouldFail(true, errors.New("upstream down"))

	ing := NewResilientIngestor(ResilientIngestorConfig{
		Ingestor:      inner,
		MaxFailures:   1,
		Timeout:       time.Hour,
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
	})

	ctx := context.Background()
	_, err := ing.Fetch(ctx, "algebra")
	require.Error(t, err)
	require.Equal(t, resilience.StateOpen, ing.CircuitState())

	ing.ResetCircuit()
	inner.SetShouldFail(false, nil)

	snapshot, err := ing.Fetch(ctx, "algebra")
	require.NoError(t, err)
	assert.Equal(t, "algebra", snapshot.MarketID)
	assert.Equal(t, resilience.StateClosed, ing.CircuitState())
}

func TestResilientIngestor_RetriesBeforeFailing(t *testing.T) {
	inner := &countingIngestor{err: errors.New("flaky")}

	ing := NewResilientIngestor(ResilientIngestorConfig{
		Ingestor:      inner,
		MaxFailures:   5,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	})

	_, err := ing.Fetch(context.Background(), "algebra")
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}

type countingIngestor struct {
	calls int
	err   error
}

func (c *countingIngestor) Fetch(ctx context.Context, marketID string) (*models.MarketSnapshot, error) {
	c.calls++
	return nil, c.err
}

func (c *countingIngestor) HealthCheck(ctx context.Context) error { return nil }

func (c *countingIngestor) Close() error { return nil }
