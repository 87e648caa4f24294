package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the config section by section and returns the first
// problem found.
func (c *SyncerConfig) Validate() error {
	checks := []func() error{
		c.validateInstance,
		c.validateAPI,
		func() error { return c.Database.Postgres.validate("database.postgres") },
		c.validateSync,
		c.validateTreasury,
		c.validateMetrics,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (c *SyncerConfig) validateInstance() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}
	if c.Instance.Space == "" {
		return errors.New("instance.space is required")
	}
	return nil
}

func (c *SyncerConfig) validateAPI() error {
	if c.API.HubURL == "" {
		return errors.New("api.hub_url is required")
	}
	if err := validateURL("api.hub_url", c.API.HubURL); err != nil {
		return err
	}
	if c.API.TreasuryURL != "" {
		if err := validateURL("api.treasury_url", c.API.TreasuryURL); err != nil {
			return err
		}
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}
	return nil
}

func (c *SyncerConfig) validateSync() error {
	if c.Sync.PollInterval <= 0 {
		return errors.New("sync.poll_interval must be > 0")
	}
	if c.Sync.PageSize < 1 || c.Sync.PageSize > 1000 {
		return fmt.Errorf("sync.page_size must be between 1 and 1000, got %d", c.Sync.PageSize)
	}
	if c.Sync.PersistTimeout < 0 || c.Sync.FetchTimeout < 0 {
		return errors.New("sync timeouts must be >= 0")
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be > 0")
	}
	return nil
}

func (c *SyncerConfig) validateTreasury() error {
	if c.Treasury.DAO == "" {
		return nil
	}
	if c.API.TreasuryURL == "" {
		return errors.New("api.treasury_url is required when treasury.dao is set")
	}
	if c.Treasury.Lookback < 0 || c.Treasury.Window < 0 {
		return errors.New("treasury.lookback and treasury.window must be >= 0")
	}
	return nil
}

func (c *SyncerConfig) validateMetrics() error {
	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, raw)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	switch {
	case db.Host == "":
		return fmt.Errorf("%s.host is required", prefix)
	case db.Name == "":
		return fmt.Errorf("%s.name is required", prefix)
	case db.User == "":
		return fmt.Errorf("%s.user is required", prefix)
	case db.Password == "":
		return fmt.Errorf("%s.password is required", prefix)
	case db.MaxConns < 1:
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	case db.MinConns < 0:
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	case db.MinConns > db.MaxConns:
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
