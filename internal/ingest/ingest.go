package ingest

import (
	"context"
	"errors"

	"github.com/tutorlane/marketpulse/pkg/models"
)

var (
	ErrIngestFailed    = errors.New("snapshot ingestion failed")
	ErrTimeout         = errors.New("ingestion timeout")
	ErrMarketNotFound  = errors.New("market not found")
	ErrInvalidResponse = errors.New("invalid response from data source")
)

// Ingestor defines the interface for pulling market snapshots
type Ingestor interface {
	// Fetch pulls the current snapshot for a specific market
	Fetch(ctx context.Context, marketID string) (*models.MarketSnapshot, error)

	// HealthCheck verifies the ingestor can reach its data source
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the ingestor
	Close() error
}
