package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the full runtime configuration for the aggregator. It is
// decoded from a TOML file, merged over Defaults(), and finally patched by
// NBBO_* environment variables (see loader.go).
type Config struct {
	Hyperliquid HyperliquidConfig `toml:"hyperliquid"`
	Market      MarketConfig      `toml:"market"`
	Refresh     RefreshConfig     `toml:"refresh"`
	Account     AccountConfig     `toml:"account"`
	Postgres    PostgresConfig    `toml:"postgres"`
	Redis       RedisConfig       `toml:"redis"`
	S3          S3Config          `toml:"s3"`
	Archive     ArchiveConfig     `toml:"archive"`
	Server      ServerConfig      `toml:"server"`
	Notify      NotifyConfig      `toml:"notify"`
	LogLevel    string            `toml:"log_level"`
}

// HyperliquidConfig holds the upstream exchange endpoints.
type HyperliquidConfig struct {
	APIURL string `toml:"api_url"`
	WSURL  string `toml:"ws_url"`
}

// VenueConfig names one order-book source. Name is the venue identifier
// reported in consolidated books; Coin is the instrument identifier the
// venue's API expects (builder-deployed dexs use the "dex:COIN" form).
type VenueConfig struct {
	Name string `toml:"name"`
	Coin string `toml:"coin"`
}

// MarketConfig describes the consolidated instrument. Venue order matters:
// when two venues quote the same price, the earlier venue is ranked first.
type MarketConfig struct {
	Symbol string        `toml:"symbol"`
	Venues []VenueConfig `toml:"venues"`
}

// RefreshConfig controls the periodic order-book poll.
type RefreshConfig struct {
	Interval     duration `toml:"interval"`
	FetchTimeout duration `toml:"fetch_timeout"`
	QueueDepth   int      `toml:"queue_depth"`
}

// AccountConfig drives the account proxy endpoints. Address may be empty, in
// which case callers must supply ?address= on each request.
type AccountConfig struct {
	Address string   `toml:"address"`
	Dexs    []string `toml:"dexs"`
	Coins   []string `toml:"coins"`
}

// PostgresConfig holds snapshot-store connection parameters. DSN wins over
// the discrete fields when set.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"sslmode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds cache connection parameters. Enabled=false skips Redis
// entirely; the aggregator serves everything from memory and Postgres.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	TTL        duration `toml:"ttl"`
}

// S3Config holds archival object-storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig controls snapshot retention and S3 export.
type ArchiveConfig struct {
	RetentionDays int      `toml:"retention_days"`
	Interval      duration `toml:"interval"`
}

// ServerConfig holds the HTTP/WebSocket listener parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds alerting sinks. Leaving both Telegram and Discord empty
// disables alerting.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	Throttle          duration `toml:"throttle"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding ("4s", "24h").
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Hyperliquid: HyperliquidConfig{
			APIURL: "https://api.hyperliquid.xyz",
			WSURL:  "wss://api.hyperliquid.xyz/ws",
		},
		Market: MarketConfig{
			Symbol: "HYPE",
			Venues: []VenueConfig{
				{Name: "hyperliquid", Coin: "HYPE"},
			},
		},
		Refresh: RefreshConfig{
			Interval:     duration{4 * time.Second},
			FetchTimeout: duration{3 * time.Second},
			QueueDepth:   16,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "nbbo",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TTL:        duration{30 * time.Second},
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "nbbo-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			RetentionDays: 30,
			Interval:      duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events:   []string{"degraded_cycle", "storage_failure"},
			Throttle: duration{5 * time.Minute},
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for internal consistency and returns a
// single error listing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Hyperliquid.APIURL == "" {
		errs = append(errs, "hyperliquid: api_url must not be empty")
	}
	if c.Hyperliquid.WSURL == "" {
		errs = append(errs, "hyperliquid: ws_url must not be empty")
	}

	if strings.TrimSpace(c.Market.Symbol) == "" {
		errs = append(errs, "market: symbol must not be empty")
	}
	if len(c.Market.Venues) == 0 {
		errs = append(errs, "market: at least one venue must be configured")
	}
	seen := make(map[string]bool, len(c.Market.Venues))
	for i, v := range c.Market.Venues {
		if v.Name == "" {
			errs = append(errs, fmt.Sprintf("market: venue %d has an empty name", i))
		}
		if v.Coin == "" {
			errs = append(errs, fmt.Sprintf("market: venue %q has an empty coin", v.Name))
		}
		if seen[v.Name] {
			errs = append(errs, fmt.Sprintf("market: duplicate venue name %q", v.Name))
		}
		seen[v.Name] = true
	}

	if c.Refresh.Interval.Duration <= 0 {
		errs = append(errs, "refresh: interval must be positive")
	}
	if c.Refresh.FetchTimeout.Duration <= 0 {
		errs = append(errs, "refresh: fetch_timeout must be positive")
	}
	if c.Refresh.FetchTimeout.Duration >= c.Refresh.Interval.Duration {
		errs = append(errs, "refresh: fetch_timeout must be shorter than interval")
	}
	if c.Refresh.QueueDepth <= 0 {
		errs = append(errs, "refresh: queue_depth must be positive")
	}

	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port %d out of range", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty when redis is enabled")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when s3 is enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when s3 is enabled")
		}
	}

	if c.Archive.RetentionDays <= 0 {
		errs = append(errs, "archive: retention_days must be positive")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port %d out of range", c.Server.Port))
	}

	if c.Notify.TelegramToken != "" && c.Notify.TelegramChatID == "" {
		errs = append(errs, "notify: telegram_chat_id is required when telegram_token is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
