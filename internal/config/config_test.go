package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[market]
symbol = "BTC"

[[market.venues]]
name = "hyperliquid"
coin = "BTC"

[refresh]
interval = "2s"
fetch_timeout = "1s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("expected log_level debug, got %s", cfg.LogLevel)
	}
	if cfg.Market.Symbol != "BTC" {
		t.Errorf("expected symbol BTC, got %s", cfg.Market.Symbol)
	}
	if cfg.Refresh.Interval.Duration != 2*time.Second {
		t.Errorf("expected 2s interval, got %v", cfg.Refresh.Interval.Duration)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Postgres.Host != "localhost" {
		t.Errorf("expected default postgres host, got %s", cfg.Postgres.Host)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[market]
symbol = "BTC"
`)

	t.Setenv("NBBO_MARKET_SYMBOL", "ETH")
	t.Setenv("NBBO_POSTGRES_PASSWORD", "secret")
	t.Setenv("NBBO_REFRESH_INTERVAL", "10s")
	t.Setenv("NBBO_REDIS_ENABLED", "true")
	t.Setenv("NBBO_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Market.Symbol != "ETH" {
		t.Errorf("env must win over file: got %s", cfg.Market.Symbol)
	}
	if cfg.Postgres.Password != "secret" {
		t.Errorf("expected env password, got %q", cfg.Postgres.Password)
	}
	if cfg.Refresh.Interval.Duration != 10*time.Second {
		t.Errorf("expected 10s interval, got %v", cfg.Refresh.Interval.Duration)
	}
	if !cfg.Redis.Enabled {
		t.Error("expected redis enabled from env")
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("expected split origins, got %v", cfg.Server.CORSOrigins)
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate, got %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.LogLevel = "verbose" },
			want:   "log_level",
		},
		{
			name:   "no venues",
			mutate: func(c *Config) { c.Market.Venues = nil },
			want:   "at least one venue",
		},
		{
			name: "duplicate venue",
			mutate: func(c *Config) {
				c.Market.Venues = append(c.Market.Venues, c.Market.Venues[0])
			},
			want: "duplicate venue",
		},
		{
			name: "fetch timeout too long",
			mutate: func(c *Config) {
				c.Refresh.FetchTimeout = duration{5 * time.Second}
			},
			want: "fetch_timeout must be shorter",
		},
		{
			name:   "telegram token without chat id",
			mutate: func(c *Config) { c.Notify.TelegramToken = "tok" },
			want:   "telegram_chat_id",
		},
		{
			name: "s3 enabled without bucket",
			mutate: func(c *Config) {
				c.S3.Enabled = true
				c.S3.Bucket = ""
			},
			want: "bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}
