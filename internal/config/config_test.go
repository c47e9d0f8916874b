package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
mode: live
api:
  base_url: https://api.example.com/v3/
  chunk_size: 10
  timeout: 5s
auth:
  login: trader
  password: hunter2
poller:
  interval: 2s
  market_ids: ["101", "102"]
store:
  driver: sqlite
  path: ticks.db
`
	path := writeTempFile(t, "config.yaml", yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.BaseURL != "https://api.example.com/v3/" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "https://api.example.com/v3/")
	}
	if cfg.API.ChunkSize != 10 {
		t.Errorf("API.ChunkSize = %d, want 10", cfg.API.ChunkSize)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("API.Timeout = %v, want 5s", cfg.API.Timeout)
	}
	if cfg.Poller.Interval != 2*time.Second {
		t.Errorf("Poller.Interval = %v, want 2s", cfg.Poller.Interval)
	}
	if len(cfg.Poller.MarketIDs) != 2 || cfg.Poller.MarketIDs[1] != "102" {
		t.Errorf("Poller.MarketIDs = %v, want [101 102]", cfg.Poller.MarketIDs)
	}
}

func TestLoadTOML(t *testing.T) {
	doc := `
mode = "replay"

[api]
base_url = "https://api.example.com/v3/"
chunk_size = 15
timeout = "7s"

[replay]
interval = "1m"
market_ids = ["42"]

[store]
driver = "sqlite"
path = "replay.db"
`
	path := writeTempFile(t, "config.toml", doc)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.Mode != ModeReplay {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeReplay)
	}
	if cfg.API.ChunkSize != 15 {
		t.Errorf("API.ChunkSize = %d, want 15", cfg.API.ChunkSize)
	}
	if cfg.API.Timeout != 7*time.Second {
		t.Errorf("API.Timeout = %v, want 7s", cfg.API.Timeout)
	}
	if cfg.Replay.Interval != time.Minute {
		t.Errorf("Replay.Interval = %v, want 1m", cfg.Replay.Interval)
	}
	if cfg.Store.Path != "replay.db" {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, "replay.db")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_SMK_PASSWORD", "secret123")

	yaml := `
auth:
  login: trader
  password: ${TEST_SMK_PASSWORD}
`
	path := writeTempFile(t, "config.yaml", yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Auth.Password != "secret123" {
		t.Errorf("Auth.Password = %q, want %q", cfg.Auth.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
auth:
  token: pre-issued
`
	path := writeTempFile(t, "config.yaml", yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Mode != DefaultMode {
		t.Errorf("Mode = %q, want default %q", cfg.Mode, DefaultMode)
	}
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want default %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.API.ChunkSize != DefaultChunkSize {
		t.Errorf("API.ChunkSize = %d, want default %d", cfg.API.ChunkSize, DefaultChunkSize)
	}
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("API.Timeout = %v, want default %v", cfg.API.Timeout, DefaultAPITimeout)
	}
	if cfg.Auth.ReauthInterval != DefaultReauthInterval {
		t.Errorf("Auth.ReauthInterval = %v, want default %v", cfg.Auth.ReauthInterval, DefaultReauthInterval)
	}
	if cfg.Store.Driver != DriverSQLite {
		t.Errorf("Store.Driver = %q, want default %q", cfg.Store.Driver, DriverSQLite)
	}
	if cfg.Store.Postgres.Port != DefaultDBPort {
		t.Errorf("Store.Postgres.Port = %d, want default %d", cfg.Store.Postgres.Port, DefaultDBPort)
	}
	if cfg.Replay.Interval != DefaultReplayInterval {
		t.Errorf("Replay.Interval = %v, want default %v", cfg.Replay.Interval, DefaultReplayInterval)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want default %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Config{Auth: AuthConfig{Token: "tok"}}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.Mode = "paper" },
			wantErr: `mode must be "live" or "replay", got "paper"`,
		},
		{
			name:    "base url without trailing slash",
			mutate:  func(c *Config) { c.API.BaseURL = "https://api.example.com/v3" },
			wantErr: "api.base_url must end with /",
		},
		{
			name:    "zero chunk size",
			mutate:  func(c *Config) { c.API.ChunkSize = -1 },
			wantErr: "api.chunk_size must be >= 1",
		},
		{
			name:    "negative api timeout",
			mutate:  func(c *Config) { c.API.Timeout = -time.Second },
			wantErr: "api.timeout must be > 0, got -1s",
		},
		{
			name:    "negative reauth interval",
			mutate:  func(c *Config) { c.Auth.ReauthInterval = -time.Minute },
			wantErr: "auth.reauth_interval must be > 0, got -1m0s",
		},
		{
			name: "live mode without credentials",
			mutate: func(c *Config) {
				c.Auth = AuthConfig{Login: "trader"}
			},
			wantErr: "auth.token or auth.login and auth.password are required",
		},
		{
			name: "replay mode without credentials",
			mutate: func(c *Config) {
				c.Mode = ModeReplay
				c.Auth = AuthConfig{}
			},
			wantErr: "",
		},
		{
			name: "postgres missing host",
			mutate: func(c *Config) {
				c.Store.Driver = DriverPostgres
			},
			wantErr: "store.postgres.host is required",
		},
		{
			name: "postgres min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Store.Driver = DriverPostgres
				c.Store.Postgres = DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10}
			},
			wantErr: "store.postgres.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Store.Driver = "bolt" },
			wantErr: `store.driver must be "sqlite" or "postgres", got "bolt"`,
		},
		{
			name: "replay range inverted",
			mutate: func(c *Config) {
				c.Replay.From = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
				c.Replay.To = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			},
			wantErr: "replay.to cannot be before replay.from",
		},
		{
			name:    "metrics port out of range",
			mutate:  func(c *Config) { c.Metrics.Port = 70000 },
			wantErr: "metrics.port must be between 1 and 65535, got 70000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
