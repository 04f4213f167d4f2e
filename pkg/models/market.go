package models

import (
	"encoding/json"
	"time"
)

type MarketStatus string

const (
	MarketStatusActive MarketStatus = "active"
	MarketStatusPaused MarketStatus = "paused"
	MarketStatusError  MarketStatus = "error"
)

type MarketConfig struct {
	IngestEndpoint string `json:"ingest_endpoint,omitempty"`
	LookbackHours  int    `json:"lookback_hours,omitempty"`
	HorizonHours   int    `json:"horizon_hours,omitempty"`
}

// Market is one forecastable marketplace segment (e.g. a subject).
type Market struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Subject   string        `json:"subject,omitempty"`
	Status    MarketStatus  `json:"status"`
	Config    *MarketConfig `json:"config,omitempty"`
	UserID    *int          `json:"user_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func NewMarket(name, subject string) *Market {
	now := time.Now()
	return &Market{
		ID:        NewUUID(),
		Name:      name,
		Subject:   subject,
		Status:    MarketStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (m *Market) IsActive() bool {
	return m.Status == MarketStatusActive
}

func (m *Market) ConfigJSON() ([]byte, error) {
	if m.Config == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.Config)
}

func (m *Market) ParseConfig(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	m.Config = &MarketConfig{}
	return json.Unmarshal(data, m.Config)
}
