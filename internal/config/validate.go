package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Mode != ModeLive && c.Mode != ModeReplay {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeLive, ModeReplay, c.Mode)
	}

	if !strings.HasSuffix(c.API.BaseURL, "/") {
		return errors.New("api.base_url must end with /")
	}
	if c.API.ChunkSize < 1 {
		return errors.New("api.chunk_size must be >= 1")
	}
	if c.API.MaxPages < 1 {
		return errors.New("api.max_pages must be >= 1")
	}
	if c.API.RateLimit < 0 {
		return errors.New("api.rate_limit must be >= 0")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be > 0, got %v", c.API.Timeout)
	}

	if c.Mode == ModeLive && c.Auth.Token == "" {
		if c.Auth.Login == "" || c.Auth.Password == "" {
			return errors.New("auth.token or auth.login and auth.password are required")
		}
	}

	if c.Auth.ReauthInterval <= 0 {
		return fmt.Errorf("auth.reauth_interval must be > 0, got %v", c.Auth.ReauthInterval)
	}

	if c.Poller.Interval <= 0 {
		return errors.New("poller.interval must be > 0")
	}
	if c.Poller.RetryAttempts < 1 {
		return errors.New("poller.retry_attempts must be >= 1")
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return errors.New("store.path is required")
		}
	case DriverPostgres:
		if err := c.Store.Postgres.validate("store.postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Store.Driver)
	}

	if c.Replay.Interval <= 0 {
		return errors.New("replay.interval must be > 0")
	}
	if !c.Replay.From.IsZero() && !c.Replay.To.IsZero() && c.Replay.To.Before(c.Replay.From) {
		return errors.New("replay.to cannot be before replay.from")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
