package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies NBBO_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known NBBO_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Hyperliquid ──
	setStr(&cfg.Hyperliquid.APIURL, "NBBO_HYPERLIQUID_API_URL")
	setStr(&cfg.Hyperliquid.WSURL, "NBBO_HYPERLIQUID_WS_URL")

	// ── Market ──
	setStr(&cfg.Market.Symbol, "NBBO_MARKET_SYMBOL")

	// ── Refresh ──
	setDuration(&cfg.Refresh.Interval, "NBBO_REFRESH_INTERVAL")
	setDuration(&cfg.Refresh.FetchTimeout, "NBBO_REFRESH_FETCH_TIMEOUT")
	setInt(&cfg.Refresh.QueueDepth, "NBBO_REFRESH_QUEUE_DEPTH")

	// ── Account ──
	setStr(&cfg.Account.Address, "NBBO_ACCOUNT_ADDRESS")
	setStringSlice(&cfg.Account.Dexs, "NBBO_ACCOUNT_DEXS")
	setStringSlice(&cfg.Account.Coins, "NBBO_ACCOUNT_COINS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "NBBO_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "NBBO_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "NBBO_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "NBBO_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "NBBO_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "NBBO_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "NBBO_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "NBBO_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "NBBO_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "NBBO_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "NBBO_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "NBBO_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "NBBO_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "NBBO_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "NBBO_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "NBBO_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "NBBO_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.TTL, "NBBO_REDIS_TTL")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "NBBO_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "NBBO_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "NBBO_S3_REGION")
	setStr(&cfg.S3.Bucket, "NBBO_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "NBBO_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "NBBO_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "NBBO_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "NBBO_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setInt(&cfg.Archive.RetentionDays, "NBBO_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "NBBO_ARCHIVE_INTERVAL")

	// ── Server ──
	setInt(&cfg.Server.Port, "NBBO_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "NBBO_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "NBBO_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "NBBO_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "NBBO_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "NBBO_NOTIFY_EVENTS")
	setDuration(&cfg.Notify.Throttle, "NBBO_NOTIFY_THROTTLE")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "NBBO_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
