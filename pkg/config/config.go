package config

import (
	"fmt"
	"time"
)

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Ingest       IngestConfig       `mapstructure:"ingest"`
	Forecast     ForecastConfig     `mapstructure:"forecast"`
	Anomaly      AnomalyConfig      `mapstructure:"anomaly"`
	Recommend    RecommendConfig    `mapstructure:"recommend"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	API          APIConfig          `mapstructure:"api"`
	WebSocket    WebSocketConfig    `mapstructure:"websocket"`
	Prometheus   PrometheusConfig   `mapstructure:"prometheus"`
	Events       EventsConfig       `mapstructure:"events"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Name             string        `mapstructure:"name"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	MaxConnections   int           `mapstructure:"max_connections"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `mapstructure:"conn_max_idle_time"`
	PingTimeout      time.Duration `mapstructure:"ping_timeout"`
	MigrationTimeout time.Duration `mapstructure:"migration_timeout"`
}

func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
	)
}

type IngestConfig struct {
	Type           string               `mapstructure:"type"`
	Endpoint       string               `mapstructure:"endpoint"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	RetryAttempts  int                  `mapstructure:"retry_attempts"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type ForecastConfig struct {
	Alpha         float64 `mapstructure:"alpha"`
	Beta          float64 `mapstructure:"beta"`
	Gamma         float64 `mapstructure:"gamma"`
	SeasonLength  int     `mapstructure:"season_length"`
	HorizonHours  int     `mapstructure:"horizon_hours"`
	LookbackHours int     `mapstructure:"lookback_hours"`
	MinConfidence float64 `mapstructure:"min_confidence"`
	MaxConfidence float64 `mapstructure:"max_confidence"`
}

type AnomalyConfig struct {
	Method              string  `mapstructure:"method"`
	ZScoreThreshold     float64 `mapstructure:"zscore_threshold"`
	MADThreshold        float64 `mapstructure:"mad_threshold"`
	IQRMultiplier       float64 `mapstructure:"iqr_multiplier"`
	MovingWindow        int     `mapstructure:"moving_window"`
	VolatilityThreshold float64 `mapstructure:"volatility_threshold"`
	EnsembleQuorum      int     `mapstructure:"ensemble_quorum"`
}

type RecommendConfig struct {
	OptimalRatio  float64 `mapstructure:"optimal_ratio"`
	SurgeIncrease float64 `mapstructure:"surge_increase"`
	RatioFloor    float64 `mapstructure:"ratio_floor"`
	SupplyGapMin  int     `mapstructure:"supply_gap_min"`
}

type OrchestratorConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	IngestInterval time.Duration `mapstructure:"ingest_interval"`
}

type APIConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RateLimit      int           `mapstructure:"rate_limit"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTDuration    time.Duration `mapstructure:"jwt_duration"`
	CookieName     string        `mapstructure:"cookie_name"`
	CookieMaxAge   int           `mapstructure:"cookie_max_age"`
	CookiePath     string        `mapstructure:"cookie_path"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
	CookieHTTPOnly bool          `mapstructure:"cookie_http_only"`
	DefaultLimit   int           `mapstructure:"default_limit"`
	MaxLimit       int           `mapstructure:"max_limit"`
	CORS           CORSConfig    `mapstructure:"cors"`
}

type WebSocketConfig struct {
	MaxConnections  int           `mapstructure:"max_connections"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	BroadcastBuffer int           `mapstructure:"broadcast_buffer"`
	ClientBuffer    int           `mapstructure:"client_buffer"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}
