// Package config provides configuration management for the course service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Config holds all configuration for the course service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Kakao contains place search API settings.
	Kakao KakaoConfig `mapstructure:"kakao"`
	// Claude contains LLM client settings for curation and generation.
	Claude ClaudeConfig `mapstructure:"claude"`
	// Cache contains the generation response cache settings.
	Cache CacheConfig `mapstructure:"cache"`
	// Breaker contains circuit breaker settings for generation.
	Breaker BreakerConfig `mapstructure:"breaker"`
	// Collection contains place collection batch settings.
	Collection CollectionConfig `mapstructure:"collection"`
	// Curation contains curation batch settings.
	Curation CurationConfig `mapstructure:"curation"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (loaded from DDALKKAK_DATABASE_PASSWORD env var).
	Password string `mapstructure:"-"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	// Default is "require" for production security. Use "disable" only for local development.
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool (default: 20).
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open (default: 2).
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace is the metric name prefix.
	Namespace string `mapstructure:"namespace"`
}

// KakaoConfig holds place search API settings.
type KakaoConfig struct {
	// APIKey is the Kakao REST API key (loaded from DDALKKAK_KAKAO_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// BaseURL is the Kakao Local API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for a single API call.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the maximum number of retries for transient failures.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryDelay is the base delay between retries; doubles per attempt.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// MaxRetryDelay caps the backoff delay.
	MaxRetryDelay time.Duration `mapstructure:"max_retry_delay"`
	// RequestPacing is the pause between consecutive page requests.
	RequestPacing time.Duration `mapstructure:"request_pacing"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// ClaudeConfig holds LLM client settings.
type ClaudeConfig struct {
	// APIKey is the Anthropic API key (loaded from DDALKKAK_CLAUDE_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// BaseURL is the Anthropic API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Model is the model to use.
	Model string `mapstructure:"model"`
	// MaxTokens is the maximum tokens per completion.
	MaxTokens int `mapstructure:"max_tokens"`
	// Timeout is the timeout for a single API call.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the maximum number of retries for transient failures.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryDelay is the base delay between retries; doubles per attempt.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// MaxRetryDelay caps the backoff delay.
	MaxRetryDelay time.Duration `mapstructure:"max_retry_delay"`
}

// CacheConfig holds the generation response cache settings.
type CacheConfig struct {
	// Enabled enables the response cache.
	Enabled bool `mapstructure:"enabled"`
	// Path is the on-disk store location. Empty runs the store in memory.
	Path string `mapstructure:"path"`
	// TTL is how long cached generation results stay valid.
	TTL time.Duration `mapstructure:"ttl"`
}

// BreakerConfig holds circuit breaker settings for generation.
type BreakerConfig struct {
	// FailureThreshold is consecutive failures before the circuit opens.
	FailureThreshold uint32 `mapstructure:"failure_threshold"`
	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
	// HalfOpenRequests is the number of probe requests allowed half-open.
	HalfOpenRequests uint32 `mapstructure:"half_open_requests"`
}

// CollectionConfig holds place collection batch settings.
type CollectionConfig struct {
	// QuotaPerRegion caps new places stored per region per run.
	QuotaPerRegion int `mapstructure:"quota_per_region"`
	// SearchRadius is the search radius in meters around the region center.
	SearchRadius int `mapstructure:"search_radius"`
}

// CurationConfig holds curation batch settings.
type CurationConfig struct {
	// Pacing is the pause between consecutive curation calls.
	Pacing time.Duration `mapstructure:"pacing"`
	// BatchSize caps the number of uncurated places loaded per run.
	BatchSize int `mapstructure:"batch_size"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("DDALKKAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/course-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.Database.Password = os.Getenv("DDALKKAK_DATABASE_PASSWORD")
	cfg.Kakao.APIKey = os.Getenv("DDALKKAK_KAKAO_API_KEY")
	cfg.Claude.APIKey = os.Getenv("DDALKKAK_CLAUDE_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "ddalkkak")
	v.SetDefault("database.name", "course_service")
	// Default to "require" for production security. Use DDALKKAK_DATABASE_SSL_MODE=disable for local development.
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "course_service")

	// Kakao defaults
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("kakao.base_url", "https://dapi.kakao.com")
	v.SetDefault("kakao.timeout", "10s")
	v.SetDefault("kakao.max_retries", 3)
	v.SetDefault("kakao.retry_delay", "1s")
	v.SetDefault("kakao.max_retry_delay", "5s")
	v.SetDefault("kakao.request_pacing", "100ms")
	v.SetDefault("kakao.rate_limit", 10.0)

	// Claude defaults
	v.SetDefault("claude.base_url", "https://api.anthropic.com")
	v.SetDefault("claude.model", "claude-3-5-haiku-20241022")
	v.SetDefault("claude.max_tokens", 2048)
	v.SetDefault("claude.timeout", "60s")
	v.SetDefault("claude.max_retries", 2)
	v.SetDefault("claude.retry_delay", "2s")
	v.SetDefault("claude.max_retry_delay", "10s")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.ttl", "24h")

	// Breaker defaults
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.open_timeout", "30s")
	v.SetDefault("breaker.half_open_requests", 1)

	// Collection defaults
	v.SetDefault("collection.quota_per_region", 100)
	v.SetDefault("collection.search_radius", 2000)

	// Curation defaults
	v.SetDefault("curation.pacing", "1s")
	v.SetDefault("curation.batch_size", 500)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate external API config
	if c.Kakao.BaseURL == "" {
		return fmt.Errorf("kakao base URL is required")
	}
	if c.Kakao.MaxRetries < 0 {
		return fmt.Errorf("kakao max_retries must be non-negative")
	}
	if c.Claude.BaseURL == "" {
		return fmt.Errorf("claude base URL is required")
	}
	if c.Claude.Model == "" {
		return fmt.Errorf("claude model is required")
	}
	if c.Claude.MaxTokens <= 0 {
		return fmt.Errorf("claude max_tokens must be positive")
	}

	// Validate cache config
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive when cache is enabled")
	}

	// Validate breaker config
	if c.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("breaker failure_threshold must be positive")
	}
	if c.Breaker.OpenTimeout <= 0 {
		return fmt.Errorf("breaker open_timeout must be positive")
	}

	// Validate collection config
	if c.Collection.QuotaPerRegion <= 0 {
		return fmt.Errorf("collection quota_per_region must be positive")
	}
	if c.Collection.SearchRadius <= 0 {
		return fmt.Errorf("collection search_radius must be positive")
	}

	return nil
}
