package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, errors.New("database.port must be between 1 and 65535"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Database.MaxConnections <= 0 {
		errs = append(errs, errors.New("database.max_connections must be positive"))
	}

	// Ingest validation
	if c.Ingest.Timeout <= 0 {
		errs = append(errs, errors.New("ingest.timeout must be positive"))
	}
	if c.Ingest.RetryAttempts < 0 {
		errs = append(errs, errors.New("ingest.retry_attempts must not be negative"))
	}

	// Forecast validation
	if c.Forecast.Alpha <= 0 || c.Forecast.Alpha >= 1 {
		errs = append(errs, errors.New("forecast.alpha must be between 0 and 1"))
	}
	if c.Forecast.Beta <= 0 || c.Forecast.Beta >= 1 {
		errs = append(errs, errors.New("forecast.beta must be between 0 and 1"))
	}
	if c.Forecast.Gamma <= 0 || c.Forecast.Gamma >= 1 {
		errs = append(errs, errors.New("forecast.gamma must be between 0 and 1"))
	}
	if c.Forecast.SeasonLength <= 1 {
		errs = append(errs, errors.New("forecast.season_length must be greater than 1"))
	}
	if c.Forecast.HorizonHours <= 0 {
		errs = append(errs, errors.New("forecast.horizon_hours must be positive"))
	}
	if c.Forecast.MinConfidence < 0 || c.Forecast.MinConfidence > c.Forecast.MaxConfidence {
		errs = append(errs, errors.New("forecast.min_confidence must be between 0 and max_confidence"))
	}

	// Anomaly validation
	validMethods := map[string]bool{
		"zscore": true, "mad": true, "iqr": true,
		"moving_average": true, "volatility": true, "ensemble": true,
	}
	if !validMethods[c.Anomaly.Method] {
		errs = append(errs, fmt.Errorf("anomaly.method %q is not supported", c.Anomaly.Method))
	}
	if c.Anomaly.MovingWindow <= 1 {
		errs = append(errs, errors.New("anomaly.moving_window must be greater than 1"))
	}

	// Recommend validation
	if c.Recommend.OptimalRatio <= 0 {
		errs = append(errs, errors.New("recommend.optimal_ratio must be positive"))
	}
	if c.Recommend.SupplyGapMin < 0 {
		errs = append(errs, errors.New("recommend.supply_gap_min must not be negative"))
	}

	// Orchestrator validation
	if c.Orchestrator.Interval <= 0 {
		errs = append(errs, errors.New("orchestrator.interval must be positive"))
	}
	if c.Orchestrator.IngestInterval <= 0 {
		errs = append(errs, errors.New("orchestrator.ingest_interval must be positive"))
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.App.Mode == "production" && c.API.JWTSecret == "change-me-in-production" {
		errs = append(errs, errors.New("api.jwt_secret must be changed in production"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
