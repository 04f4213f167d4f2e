package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/marketpulse")
	}

	// Environment variable settings
	v.SetEnvPrefix("MARKETPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "marketpulse")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "15s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "marketpulse")
	v.SetDefault("database.user", "admin")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.ssl_mode", "disable")

	// Ingest defaults
	v.SetDefault("ingest.type", "http")
	v.SetDefault("ingest.endpoint", "http://localhost:9000/snapshot")
	v.SetDefault("ingest.timeout", "5s")
	v.SetDefault("ingest.retry_attempts", 3)
	v.SetDefault("ingest.circuit_breaker.max_failures", 5)
	v.SetDefault("ingest.circuit_breaker.timeout", "30s")

	// Forecast defaults
	v.SetDefault("forecast.alpha", 0.3)
	v.SetDefault("forecast.beta", 0.1)
	v.SetDefault("forecast.gamma", 0.2)
	v.SetDefault("forecast.season_length", 24)
	v.SetDefault("forecast.horizon_hours", 24)
	v.SetDefault("forecast.lookback_hours", 720)
	v.SetDefault("forecast.min_confidence", 0.3)
	v.SetDefault("forecast.max_confidence", 0.95)

	// Anomaly defaults
	v.SetDefault("anomaly.method", "ensemble")
	v.SetDefault("anomaly.zscore_threshold", 3.0)
	v.SetDefault("anomaly.mad_threshold", 3.5)
	v.SetDefault("anomaly.iqr_multiplier", 1.5)
	v.SetDefault("anomaly.moving_window", 7)
	v.SetDefault("anomaly.volatility_threshold", 2.0)
	v.SetDefault("anomaly.ensemble_quorum", 2)

	// Recommend defaults
	v.SetDefault("recommend.optimal_ratio", 0.8)
	v.SetDefault("recommend.surge_increase", 0.30)
	v.SetDefault("recommend.ratio_floor", 0.9)
	v.SetDefault("recommend.supply_gap_min", 10)

	// Orchestrator defaults
	v.SetDefault("orchestrator.interval", "1h")
	v.SetDefault("orchestrator.ingest_interval", "5m")

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.jwt_secret", "change-me-in-production")
	v.SetDefault("api.jwt_duration", "24h")
	v.SetDefault("api.default_limit", 50)
	v.SetDefault("api.max_limit", 500)

	// WebSocket defaults
	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.ping_interval", "30s")

	// Prometheus defaults
	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.path", "/metrics")

	// Events defaults
	v.SetDefault("events.buffer_size", 256)
}
