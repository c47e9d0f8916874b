package config

import "time"

// Config is the root configuration for a tickplant process.
type Config struct {
	Mode    string        `yaml:"mode"` // "live" or "replay"
	API     APIConfig     `yaml:"api"`
	Auth    AuthConfig    `yaml:"auth"`
	Poller  PollerConfig  `yaml:"poller"`
	Store   StoreConfig   `yaml:"store"`
	Replay  ReplayConfig  `yaml:"replay"`
	Cache   CacheConfig   `yaml:"cache"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig holds exchange REST settings.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	ChunkSize int           `yaml:"chunk_size"`
	MaxPages  int           `yaml:"max_pages"`
	RateLimit float64       `yaml:"rate_limit"` // Requests per second, 0 = unlimited
	RateBurst int           `yaml:"rate_burst"`
}

// AuthConfig holds session credentials. A pre-issued token skips login.
type AuthConfig struct {
	Login          string        `yaml:"login"`
	Password       string        `yaml:"password"`
	Token          string        `yaml:"token"`
	ReauthInterval time.Duration `yaml:"reauth_interval"`
}

// PollerConfig holds quote poller settings.
type PollerConfig struct {
	Interval      time.Duration `yaml:"interval"`
	MarketIDs     []string      `yaml:"market_ids"`
	EventStates   []string      `yaml:"event_states"` // Used to discover markets when market_ids is empty
	EventTypes    []string      `yaml:"event_types"`
	EventLimit    int           `yaml:"event_limit"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
}

// StoreConfig selects and configures the tick store backend.
type StoreConfig struct {
	Driver   string   `yaml:"driver"` // "sqlite" or "postgres"
	Path     string   `yaml:"path"`   // SQLite file path
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single PostgreSQL connection.
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

// ReplayConfig holds backtest replay settings.
type ReplayConfig struct {
	Interval  time.Duration `yaml:"interval"`
	From      time.Time     `yaml:"from"`
	To        time.Time     `yaml:"to"`
	MarketIDs []string      `yaml:"market_ids"`
}

// CacheConfig holds the optional Redis latest-quote mirror.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"` // Empty disables the mirror
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	TTL       time.Duration `yaml:"ttl"`
}

// MetricsConfig holds Prometheus and health endpoint settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`   // Empty logs to stdout
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}
