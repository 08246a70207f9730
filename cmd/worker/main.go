package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"buhoeats/api/internal/cache"
	"buhoeats/api/internal/config"
	"buhoeats/api/internal/database"
	"buhoeats/api/internal/log"
	"buhoeats/api/internal/queue"
	"buhoeats/api/internal/ratelimit"
	"buhoeats/api/internal/repository"
	"buhoeats/api/internal/service"
	"buhoeats/api/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level).With().Str("process", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	st := repository.NewStore(dbPool)
	limiter := ratelimit.NewLimiter(repository.NewLoginAttemptRepository(dbPool), cfg.RateLimit, logger, nil)

	processor := tasks.NewProcessor(
		limiter,
		st.Sessions(),
		service.NewRatingAggregator(st, logger),
		logger,
	)
	consumer := queue.NewConsumer(
		client,
		cfg.Redis.Stream,
		cfg.Redis.Group,
		cfg.Redis.Consumer,
		cfg.Worker.ClaimInterval,
		logger,
		processor,
	)

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
		return
	}
	logger.Info().Msg("worker exited cleanly")
}
