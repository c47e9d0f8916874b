package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultMode           = ModeLive
	DefaultBaseURL        = "https://api.smarkets.com/v3/"
	DefaultAPITimeout     = 30 * time.Second
	DefaultChunkSize      = 20
	DefaultMaxPages       = 1000
	DefaultReauthInterval = 15 * time.Minute
	DefaultPollInterval   = 10 * time.Second
	DefaultEventLimit     = 20
	DefaultRetryAttempts  = 3
	DefaultRetryBackoff   = time.Second
	DefaultStoreDriver    = DriverSQLite
	DefaultStorePath      = "tickerplant.db"
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 10
	DefaultMinConns       = 2
	DefaultReplayInterval = time.Second
	DefaultCacheTTL       = time.Minute
	DefaultMetricsPort    = 9090
	DefaultMetricsPath    = "/metrics"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultLogMaxSizeMB   = 100
	DefaultLogMaxBackups  = 5
	DefaultLogMaxAgeDays  = 14
)

// Modes and drivers.
const (
	ModeLive   = "live"
	ModeReplay = "replay"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultEventStates and DefaultEventTypes drive market discovery when no
// market ids are configured.
var (
	DefaultEventStates = []string{"upcoming", "live"}
	DefaultEventTypes  = []string{"football_match"}
)

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = DefaultMode
	}

	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.ChunkSize == 0 {
		c.API.ChunkSize = DefaultChunkSize
	}
	if c.API.MaxPages == 0 {
		c.API.MaxPages = DefaultMaxPages
	}
	if c.API.RateLimit > 0 && c.API.RateBurst == 0 {
		c.API.RateBurst = 1
	}

	if c.Auth.ReauthInterval == 0 {
		c.Auth.ReauthInterval = DefaultReauthInterval
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if len(c.Poller.EventStates) == 0 {
		c.Poller.EventStates = DefaultEventStates
	}
	if len(c.Poller.EventTypes) == 0 {
		c.Poller.EventTypes = DefaultEventTypes
	}
	if c.Poller.EventLimit == 0 {
		c.Poller.EventLimit = DefaultEventLimit
	}
	if c.Poller.RetryAttempts == 0 {
		c.Poller.RetryAttempts = DefaultRetryAttempts
	}
	if c.Poller.RetryBackoff == 0 {
		c.Poller.RetryBackoff = DefaultRetryBackoff
	}

	// Store defaults
	if c.Store.Driver == "" {
		c.Store.Driver = DefaultStoreDriver
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
	applyDBDefaults(&c.Store.Postgres)

	if c.Replay.Interval == 0 {
		c.Replay.Interval = DefaultReplayInterval
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = DefaultLogMaxAgeDays
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
