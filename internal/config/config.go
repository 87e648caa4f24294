// Package config loads syncer configuration from YAML.
package config

import "time"

// SyncerConfig is the root configuration for one syncer instance. Each DAO
// space runs as its own instance.
type SyncerConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Sync     SyncConfig     `yaml:"sync"`
	Cache    CacheConfig    `yaml:"cache"`
	Treasury TreasuryConfig `yaml:"treasury"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InstanceConfig identifies this syncer.
type InstanceConfig struct {
	ID    string `yaml:"id"`
	Space string `yaml:"space"` // Governance space, e.g. "aave.eth"
}

// APIConfig holds upstream provider settings.
type APIConfig struct {
	HubURL      string        `yaml:"hub_url"`      // Governance hub GraphQL endpoint
	TreasuryURL string        `yaml:"treasury_url"` // Treasury valuation REST base URL
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}

// DatabaseConfig holds the Postgres connection for synced data.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// SyncConfig holds the incremental syncer settings.
type SyncConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	PageSize       int           `yaml:"page_size"`
	PersistTimeout time.Duration `yaml:"persist_timeout"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
}

// CacheConfig holds provider cache settings.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// TreasuryConfig holds treasury valuation settings.
type TreasuryConfig struct {
	DAO      string        `yaml:"dao"`      // Provider slug; empty disables the treasury service
	Lookback time.Duration `yaml:"lookback"` // Cutoff window for valuation history
	Window   time.Duration `yaml:"window"`   // Variation window

	BreakerMaxRequests uint32        `yaml:"breaker_max_requests"`
	BreakerInterval    time.Duration `yaml:"breaker_interval"`
	BreakerTimeout     time.Duration `yaml:"breaker_timeout"`
	BreakerFailures    uint32        `yaml:"breaker_failures"` // Consecutive failures before tripping
}

// MetricsConfig holds Prometheus metrics and health server settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
