package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:     "marketpulse",
			Mode:     "development",
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			Name:           "marketpulse",
			MaxConnections: 25,
		},
		Ingest: IngestConfig{
			Timeout:       5 * time.Second,
			RetryAttempts: 3,
		},
		Forecast: ForecastConfig{
			Alpha:         0.3,
			Beta:          0.1,
			Gamma:         0.2,
			SeasonLength:  24,
			HorizonHours:  24,
			MinConfidence: 0.3,
			MaxConfidence: 0.95,
		},
		Anomaly: AnomalyConfig{
			Method:       "ensemble",
			MovingWindow: 7,
		},
		Recommend: RecommendConfig{
			OptimalRatio: 0.8,
		},
		Orchestrator: OrchestratorConfig{
			Interval:       time.Hour,
			IngestInterval: 5 * time.Minute,
		},
		API: APIConfig{
			Port:      8080,
			JWTSecret: "local-secret",
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing app name", func(c *Config) { c.App.Name = "" }},
		{"unknown mode", func(c *Config) { c.App.Mode = "staging" }},
		{"unknown log level", func(c *Config) { c.App.LogLevel = "trace" }},
		{"missing database host", func(c *Config) { c.Database.Host = "" }},
		{"database port out of range", func(c *Config) { c.Database.Port = 70000 }},
		{"missing database name", func(c *Config) { c.Database.Name = "" }},
		{"zero database connections", func(c *Config) { c.Database.MaxConnections = 0 }},
		{"zero ingest timeout", func(c *Config) { c.Ingest.Timeout = 0 }},
		{"negative retry attempts", func(c *Config) { c.Ingest.RetryAttempts = -1 }},
		{"alpha at zero", func(c *Config) { c.Forecast.Alpha = 0 }},
		{"alpha at one", func(c *Config) { c.Forecast.Alpha = 1 }},
		{"beta above one", func(c *Config) { c.Forecast.Beta = 1.5 }},
		{"gamma negative", func(c *Config) { c.Forecast.Gamma = -0.1 }},
		{"season length too short", func(c *Config) { c.Forecast.SeasonLength = 1 }},
		{"zero horizon", func(c *Config) { c.Forecast.HorizonHours = 0 }},
		{"min confidence above max", func(c *Config) { c.Forecast.MinConfidence = 0.99 }},
		{"unsupported anomaly method", func(c *Config) { c.Anomaly.Method = "spectral" }},
		{"moving window too small", func(c *Config) { c.Anomaly.MovingWindow = 1 }},
		{"zero optimal ratio", func(c *Config) { c.Recommend.OptimalRatio = 0 }},
		{"negative supply gap", func(c *Config) { c.Recommend.SupplyGapMin = -1 }},
		{"zero orchestrator interval", func(c *Config) { c.Orchestrator.Interval = 0 }},
		{"zero ingest interval", func(c *Config) { c.Orchestrator.IngestInterval = 0 }},
		{"api port out of range", func(c *Config) { c.API.Port = 0 }},
		{"default jwt secret in production", func(c *Config) {
			c.App.Mode = "production"
			c.API.JWTSecret = "change-me-in-production"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_AcceptsEveryAnomalyMethod(t *testing.T) {
	methods := []string{"zscore", "mad", "iqr", "moving_average", "volatility", "ensemble"}

	for _, method := range methods {
		cfg := validConfig()
		cfg.Anomaly.Method = method
		assert.NoError(t, cfg.Validate(), method)
	}
}
