package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tutorlane/marketpulse/internal/logger"
	"github.com/tutorlane/marketpulse/pkg/models"
)

type HTTPIngestor struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
}

type HTTPIngestorConfig struct {
	Endpoint string
	Timeout  time.Duration
}

func NewHTTPIngestor(cfg HTTPIngestorConfig) *HTTPIngestor {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &HTTPIngestor{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint: cfg.Endpoint,
		timeout:  timeout,
	}
}

// snapshotResponse matches the booking system's snapshot payload
type snapshotResponse struct {
	MarketID          string `json:"market_id"`
	Timestamp         string `json:"timestamp"`
	SessionsRequested int    `json:"sessions_requested"`
	TutorsOnline      int    `json:"tutors_online"`
	TutorsActive      int    `json:"tutors_active"`
}

func (c *HTTPIngestor) Fetch(ctx context.Context, marketID string) (*models.MarketSnapshot, error) {
	url := fmt.Sprintf("%s/%s", c.endpoint, marketID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrIngestFailed, err)
	}

	req.Header.Set("Accept", "application/json")

	logger.WithMarket(marketID).Debugf("Fetching snapshot from %s", url)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrIngestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrMarketNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrIngestFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrIngestFailed, err)
	}

	var snapResp snapshotResponse
	if err := json.Unmarshal(body, &snapResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if snapResp.SessionsRequested < 0 || snapResp.TutorsOnline < 0 || snapResp.TutorsActive < 0 {
		return nil, fmt.Errorf("%w: negative counts in snapshot", ErrInvalidResponse)
	}

	snapshot := c.convertResponse(marketID, &snapResp)

	logger.WithMarket(marketID).Debugf(
		"Fetched snapshot: %d sessions, %d tutors online",
		snapshot.SessionsRequested, snapshot.TutorsOnline,
	)

	return snapshot, nil
}

func (c *HTTPIngestor) convertResponse(marketID string, resp *snapshotResponse) *models.MarketSnapshot {
	timestamp := time.Now()
	if resp.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, resp.Timestamp); err == nil {
			timestamp = parsed
		}
	}

	return &models.MarketSnapshot{
		MarketID:          marketID,
		Timestamp:         timestamp,
		SessionsRequested: resp.SessionsRequested,
		TutorsOnline:      resp.TutorsOnline,
		TutorsActive:      resp.TutorsActive,
	}
}

func (c *HTTPIngestor) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", c.endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *HTTPIngestor) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
