package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/Hugo-SEQUIER/nbbo-backend/internal/blob/s3"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/book"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/cache/redis"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/candle"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/config"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/feed"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/notify"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/pipeline"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/platform/hyperliquid"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/server"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/server/handler"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/server/ws"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/store/postgres"
)

// Dependencies bundles everything the application run loop needs. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	SnapshotStore domain.SnapshotStore
	NbboCache     domain.NbboCache // nil when Redis is disabled
	Latest        *book.LatestCell
	Hub           *ws.Hub
	Refresher     *pipeline.Refresher
	TradeFeed     *feed.TradeFeed
	Archiver      *pipeline.Archiver // nil when S3 is disabled
	Notifier      *notify.Notifier
	Server        *server.Server
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}
	deps.SnapshotStore = postgres.NewSnapshotStore(pgClient.Pool())

	// --- Redis (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.NbboCache = redis.NewNbboCache(redisClient, cfg.Redis.TTL.Duration)
	}

	// --- S3 + archiver (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = pipeline.NewArchiver(
			deps.SnapshotStore,
			s3blob.NewWriter(s3Client),
			cfg.Archive.RetentionDays,
			cfg.Archive.Interval.Duration,
			logger,
		)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, cfg.Notify.Throttle.Duration, logger)

	// --- Venue clients ---
	hlClient := hyperliquid.NewClient(cfg.Hyperliquid.APIURL)
	venues := make([]domain.VenueClient, 0, len(cfg.Market.Venues))
	venueByCoin := make(map[string]domain.VenueID, len(cfg.Market.Venues))
	venueIDs := make([]domain.VenueID, 0, len(cfg.Market.Venues))
	for _, vc := range cfg.Market.Venues {
		id := domain.VenueID(vc.Name)
		venues = append(venues, hyperliquid.NewVenue(hlClient, id, vc.Coin))
		venueByCoin[vc.Coin] = id
		venueIDs = append(venueIDs, id)
	}

	symbol := domain.Symbol(cfg.Market.Symbol)

	// --- Hub, latest cell, pipeline ---
	deps.Latest = book.NewLatestCell()
	deps.Hub = ws.NewHub(cfg.Refresh.QueueDepth, logger)
	deps.Refresher = pipeline.NewRefresher(pipeline.RefresherConfig{
		Symbol:       symbol,
		Venues:       venues,
		Interval:     cfg.Refresh.Interval.Duration,
		FetchTimeout: cfg.Refresh.FetchTimeout.Duration,
		Store:        deps.SnapshotStore,
		Cache:        deps.NbboCache,
		Hub:          deps.Hub,
		Latest:       deps.Latest,
		Alerter:      deps.Notifier,
	}, logger)
	deps.TradeFeed = feed.NewTradeFeed(cfg.Hyperliquid.WSURL, symbol, venueByCoin, deps.Hub, deps.NbboCache, logger)

	// --- HTTP server ---
	var accountHandler *handler.AccountHandler
	{
		coins := cfg.Account.Coins
		if len(coins) == 0 {
			for _, vc := range cfg.Market.Venues {
				coins = append(coins, vc.Coin)
			}
		}
		dexs := cfg.Account.Dexs
		if len(dexs) == 0 {
			dexs = []string{""} // the exchange's native dex
		}
		accountHandler = handler.NewAccountHandler(hlClient, cfg.Account.Address, dexs, coins, logger)
	}
	deps.Server = server.NewServer(
		server.Config{
			Port:        cfg.Server.Port,
			CORSOrigins: cfg.Server.CORSOrigins,
		},
		server.Handlers{
			Health:  handler.NewHealthHandler(deps.Latest, venueIDs, logger),
			Book:    handler.NewBookHandler(deps.Latest, deps.NbboCache, symbol, logger),
			Chart:   handler.NewChartHandler(candle.NewBuilder(deps.SnapshotStore), symbol, logger),
			Account: accountHandler,
		},
		deps.Hub,
		logger,
	)

	return deps, cleanup, nil
}
