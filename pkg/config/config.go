package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `env:", prefix=SERVER_"`
	Upstream  UpstreamConfig  `env:", prefix=UPSTREAM_"`
	Redis     RedisConfig     `env:", prefix=REDIS_"`
	NATS      NATSConfig      `env:", prefix=NATS_"`
	Dashboard DashboardConfig `env:", prefix=DASHBOARD_"`
	Logging   LoggingConfig   `env:", prefix=LOG_"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `env:"HOST, default=0.0.0.0"`
	Port         int           `env:"PORT, default=8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT, default=120s"`
	CORSEnabled  bool          `env:"CORS_ENABLED, default=true"`
	CORSOrigins  []string      `env:"CORS_ORIGINS, default=*"`
}

// UpstreamConfig holds market-data provider configuration. The API key
// is the one required secret; it stays server-side and is never exposed
// to clients.
type UpstreamConfig struct {
	APIKey   string        `env:"API_KEY"`
	BaseURL  string        `env:"BASE_URL, default=https://pro-api.coinmarketcap.com"`
	Start    int           `env:"START, default=1"`
	Limit    int           `env:"LIMIT, default=50"`
	Convert  string        `env:"CONVERT, default=USD"`
	Timeout  time.Duration `env:"TIMEOUT, default=10s"`
	MaxCount int           `env:"MAX_COUNT, default=10"`
	CacheTTL time.Duration `env:"CACHE_TTL, default=60s"`
}

// RedisConfig holds the optional shared response cache configuration
type RedisConfig struct {
	Enabled      bool          `env:"ENABLED, default=false"`
	Host         string        `env:"HOST, default=localhost"`
	Port         int           `env:"PORT, default=6379"`
	Password     string        `env:"PASSWORD"`
	DB           int           `env:"DB, default=0"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT, default=5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=3s"`
}

// NATSConfig holds the optional purchase telemetry sink configuration
type NATSConfig struct {
	Enabled       bool          `env:"ENABLED, default=false"`
	URL           string        `env:"URL, default=nats://localhost:4222"`
	MaxReconnect  int           `env:"MAX_RECONNECT, default=10"`
	ReconnectWait time.Duration `env:"RECONNECT_WAIT, default=2s"`
}

// DashboardConfig holds the watch client configuration. Defaults are
// the reference values: 10s refresh, 10s countdown, top 10 assets,
// BTC preferred, purchase bounds $0.01–$5000, 5s notification delay.
type DashboardConfig struct {
	GatewayURL        string        `env:"GATEWAY_URL, default=http://localhost:8080/api/crypto"`
	RefreshInterval   time.Duration `env:"REFRESH_INTERVAL, default=10s"`
	CountdownSeconds  int           `env:"COUNTDOWN_SECONDS, default=10"`
	PreferredSymbol   string        `env:"PREFERRED_SYMBOL, default=BTC"`
	MinPurchaseUSD    float64       `env:"MIN_PURCHASE_USD, default=0.01"`
	MaxPurchaseUSD    float64       `env:"MAX_PURCHASE_USD, default=5000"`
	NotificationDelay time.Duration `env:"NOTIFICATION_DELAY, default=5s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT, default=10s"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `env:"LEVEL, default=info"`
	Format string `env:"FORMAT, default=json"`
	Output string `env:"OUTPUT, default=stdout"`
}

// Load loads configuration from environment variables using go-envconfig
func Load() (*Config, error) {
	ctx := context.Background()
	var cfg Config

	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration. The upstream API key is
// deliberately not checked here: a missing key is a per-request
// configuration error at the gateway, not a startup failure.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Upstream.MaxCount <= 0 {
		return fmt.Errorf("upstream max count must be positive: %d", c.Upstream.MaxCount)
	}

	if c.Dashboard.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive: %s", c.Dashboard.RefreshInterval)
	}

	if c.Dashboard.CountdownSeconds <= 0 {
		return fmt.Errorf("countdown seconds must be positive: %d", c.Dashboard.CountdownSeconds)
	}

	if c.Dashboard.MaxPurchaseUSD <= c.Dashboard.MinPurchaseUSD {
		return fmt.Errorf("max purchase must exceed min purchase")
	}

	return nil
}

// GetRedisAddr returns Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// GetServerAddr returns server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
