package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/api/internal/cache"
	"storefront/api/internal/config"
	"storefront/api/internal/database"
	"storefront/api/internal/events"
	"storefront/api/internal/handlers"
	"storefront/api/internal/jobs"
	"storefront/api/internal/log"
	"storefront/api/internal/repository"
	"storefront/api/internal/security"
	"storefront/api/internal/server"
	"storefront/api/internal/service"
	"storefront/api/internal/throttle"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Log.Level)

	ctx := context.Background()

	var repos repository.Manager
	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres, "storefront-api")
	switch {
	case errors.Is(err, database.ErrNoDSN):
		logger.Warn().Msg("postgres dsn not set, using in-memory storage; data is lost on restart")
		repos = repository.NewMemoryManager()
	case err != nil:
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	default:
		if cfg.Postgres.AutoMigrate {
			if err := database.Migrate(ctx, dbPool); err != nil {
				logger.Fatal().Err(err).Msg("failed to migrate postgres")
			}
		}
		repos = repository.NewPostgresManager(dbPool)
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, audit stream and login throttling disabled")
		redisClient = nil
	}

	var (
		publisher    *events.RedisPublisher
		eventSink    service.EventPublisher
		loginLimiter service.LoginLimiter
		pruneQueue   jobs.PruneEnqueuer
	)
	if redisClient != nil {
		publisher = events.NewRedisPublisher(redisClient, cfg.Audit.Stream)
		eventSink = publisher
		pruneQueue = publisher
		loginLimiter = throttle.NewRedisLimiter(redisClient, cfg.Security.MaxLoginAttempts, cfg.Security.LoginWindow)
	}

	codec := security.NewCookieCodec(cfg.Security.CookieSigningSecret)
	credentials := service.NewCredentialStore(repos, cfg, logger)
	sessions := service.NewSessionManager(repos, cfg.Security.SessionTTL, logger)
	authService := service.NewAuthService(repos, credentials, sessions, eventSink, loginLimiter, cfg, logger)

	if _, err := credentials.EnsureDefaultAccount(ctx); err != nil {
		logger.Error().Err(err).Msg("bootstrap admin account failed, will retry on first login")
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, repos, redisClient, authService, codec)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet, codec)

	scheduler := jobs.NewScheduler(pruneQueue, cfg.Audit.PruneSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop(shutdownCtx)

	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
