package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHubURL             = "https://hub.snapshot.org/graphql"
	DefaultTreasuryURL        = "https://api.llama.fi"
	DefaultAPITimeout         = 30 * time.Second
	DefaultMaxRetries         = 3
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultPollInterval       = 5 * time.Minute
	DefaultPageSize           = 1000
	DefaultPersistTimeout     = 30 * time.Second
	DefaultFetchTimeout       = time.Minute
	DefaultCacheTTL           = 24 * time.Hour
	DefaultTreasuryLookback   = 365 * 24 * time.Hour
	DefaultTreasuryWindow     = 30 * 24 * time.Hour
	DefaultBreakerMaxRequests = 1
	DefaultBreakerInterval    = time.Minute
	DefaultBreakerTimeout     = 5 * time.Minute
	DefaultBreakerFailures    = 3
	DefaultMetricsPort        = 9090
	DefaultMetricsPath        = "/metrics"
)

func (c *SyncerConfig) applyDefaults() {
	// API defaults
	if c.API.HubURL == "" {
		c.API.HubURL = DefaultHubURL
	}
	if c.API.TreasuryURL == "" {
		c.API.TreasuryURL = DefaultTreasuryURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Sync defaults
	if c.Sync.PollInterval == 0 {
		c.Sync.PollInterval = DefaultPollInterval
	}
	if c.Sync.PageSize == 0 {
		c.Sync.PageSize = DefaultPageSize
	}
	if c.Sync.PersistTimeout == 0 {
		c.Sync.PersistTimeout = DefaultPersistTimeout
	}
	if c.Sync.FetchTimeout == 0 {
		c.Sync.FetchTimeout = DefaultFetchTimeout
	}

	// Cache defaults
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	// Treasury defaults
	if c.Treasury.Lookback == 0 {
		c.Treasury.Lookback = DefaultTreasuryLookback
	}
	if c.Treasury.Window == 0 {
		c.Treasury.Window = DefaultTreasuryWindow
	}
	if c.Treasury.BreakerMaxRequests == 0 {
		c.Treasury.BreakerMaxRequests = DefaultBreakerMaxRequests
	}
	if c.Treasury.BreakerInterval == 0 {
		c.Treasury.BreakerInterval = DefaultBreakerInterval
	}
	if c.Treasury.BreakerTimeout == 0 {
		c.Treasury.BreakerTimeout = DefaultBreakerTimeout
	}
	if c.Treasury.BreakerFailures == 0 {
		c.Treasury.BreakerFailures = DefaultBreakerFailures
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
