package ingest

import (
	"context"
	"time"

	"github.com/tutorlane/marketpulse/internal/logger"
	"github.com/tutorlane/marketpulse/internal/resilience"
	"github.com/tutorlane/marketpulse/pkg/models"
)

type ResilientIngestor struct {
	ingestor       Ingestor
	circuitBreaker *resilience.CircuitBreaker
	retryAttempts  int
	retryDelay     time.Duration
}

type ResilientIngestorConfig struct {
	Ingestor      Ingestor
	MaxFailures   int
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	OnStateChange func(name string, from, to resilience.State)
}

func NewResilientIngestor(cfg ResilientIngestorConfig) *ResilientIngestor {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1 * time.Second
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:          "ingestor",
		MaxFailures:   cfg.MaxFailures,
		Timeout:       cfg.Timeout,
		OnStateChange: cfg.OnStateChange,
	})

	return &ResilientIngestor{
		ingestor:       cfg.Ingestor,
		circuitBreaker: cb,
		retryAttempts:  cfg.RetryAttempts,
		retryDelay:     cfg.RetryDelay,
	}
}

func (c *ResilientIngestor) Fetch(ctx context.Context, marketID string) (*models.MarketSnapshot, error) {
	var snapshot *models.MarketSnapshot
	var lastErr error

	err := c.circuitBreaker.Execute(func() error {
		for attempt := 1; attempt <= c.retryAttempts; attempt++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var err error
			snapshot, err = c.ingestor.Fetch(ctx, marketID)
			if err == nil {
				return nil
			}

			lastErr = err
			logger.WithMarket(marketID).Warnf(
				"Ingest attempt %d/%d failed: %v",
				attempt, c.retryAttempts, err,
			)

			if attempt < c.retryAttempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(c.retryDelay):
				}
			}
		}
		return lastErr
	})

	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (c *ResilientIngestor) HealthCheck(ctx context.Context) error {
	return c.ingestor.HealthCheck(ctx)
}

func (c *ResilientIngestor) Close() error {
	return c.ingestor.Close()
}

func (c *ResilientIngestor) CircuitState() resilience.State {
	return c.circuitBreaker.State()
}

func (c *ResilientIngestor) ResetCircuit() {
	c.circuitBreaker.Reset()
}
