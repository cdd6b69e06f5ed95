package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"item-service/internal/adapters/broadcaster"
	"item-service/internal/adapters/db"
	"item-service/internal/adapters/redis"
	"item-service/internal/adapters/rest"
	"item-service/internal/adapters/ws"
	"item-service/internal/app"
	"item-service/internal/config"
	"item-service/internal/ports/outbound"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting Item Service...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	dbConn, err := db.NewConnection(ctx, db.ConnectionParams{
		Config: cfg.Database,
		Logger: log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	log.Info().Str("driver", cfg.Database.Driver).Msg("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := dbConn.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
		log.Info().Msg("Database schema ensured")
	}

	// Create repositories
	repoFactory := db.NewRepositoryFactory(dbConn)
	itemRepo := repoFactory.GetItemRepository()

	log.Info().Msg("Database repositories initialized")

	publisher, subscriber := newEventPublisher(ctx, cfg)
	if publisher != nil {
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing event publisher")
			}
		}()
	}

	// Create business services
	itemService := app.NewItemService(app.ItemServiceParams{
		ItemRepo:  itemRepo,
		Publisher: publisher,
		Logger:    log.Logger,
	})
	healthService := app.NewHealthService(app.HealthServiceParams{
		Prober: repoFactory.GetStoreProber(),
		Logger: log.Logger,
	})

	log.Info().Msg("Business services initialized")

	feed := ws.NewFeedHandler(ws.FeedHandlerParams{
		Subscriber:     subscriber,
		Config:         cfg.WebSocket,
		AllowedOrigins: cfg.Server.CORSOrigins,
		Logger:         log.Logger,
	})

	httpServer := rest.NewServer(rest.ServerParams{
		Config:        cfg.Server,
		ItemService:   itemService,
		HealthService: healthService,
		Feed:          feed,
		Logger:        log.Logger,
	})

	// Start HTTP server
	go func() {
		if err := httpServer.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start HTTP server")
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	}

	stats := dbConn.Stats()
	log.Info().
		Int("open_connections", stats.OpenConnections).
		Int64("wait_count", stats.WaitCount).
		Dur("wait_duration", stats.WaitDuration).
		Int64("max_lifetime_closed", stats.MaxLifetimeClosed).
		Msg("Database pool statistics")

	log.Info().Msg("Graceful shutdown completed")
}

// newEventPublisher builds the configured item-event publisher. The subscriber
// is only non-nil for backends that can feed /ws/items.
func newEventPublisher(ctx context.Context, cfg *config.Config) (outbound.Publisher, outbound.Subscriber) {
	var (
		next       outbound.Publisher
		subscriber outbound.Subscriber
	)

	switch cfg.Events.Backend {
	case config.EventsBackendRedis:
		redisClient := redis.NewClient(cfg.Redis)
		if err := redis.PingRedis(ctx, redisClient); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		log.Info().Msg("Redis connection established")

		redisBroadcaster := broadcaster.NewRedisBroadcaster(broadcaster.RedisBroadcasterParams{
			RedisClient: redisClient,
			Channel:     cfg.Redis.Channel,
			Logger:      log.Logger,
		})
		next, subscriber = redisBroadcaster, redisBroadcaster

	case config.EventsBackendAMQP:
		amqpPublisher := broadcaster.NewAMQPPublisher(broadcaster.AMQPPublisherParams{
			URL:      cfg.AMQP.URL,
			Exchange: cfg.AMQP.Exchange,
			Logger:   log.Logger,
		})
		// the broker may come up after us; publishing redials lazily
		if err := amqpPublisher.Connect(); err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable at startup, item events will be retried per publish")
		} else {
			log.Info().Msg("RabbitMQ connection established")
		}
		next = amqpPublisher

	default:
		log.Info().Msg("Item events disabled")
		return nil, nil
	}

	log.Info().Str("backend", cfg.Events.Backend).Msg("Item event publisher initialized")

	return broadcaster.NewAsyncPublisher(broadcaster.AsyncPublisherParams{
		Publisher:     next,
		Workers:       cfg.Events.Workers,
		QueueCapacity: cfg.Events.QueueCapacity,
		Logger:        log.Logger,
	}), subscriber
}

func initLogging(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.Server.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if cfg.Logging.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Console format for development
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log.Logger
}
