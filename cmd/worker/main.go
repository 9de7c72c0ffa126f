package main

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"zoomclip/internal/config"
	"zoomclip/internal/pkg/logger"
	"zoomclip/internal/pkg/shutdown"
	"zoomclip/internal/repositories"
	"zoomclip/internal/storage"
	"zoomclip/internal/worker"
)

func main() {
	dotEnvErr := config.LoadDotEnv()

	log := logger.New(logger.Config{
		Level:       config.Env("LOG_LEVEL", "info"),
		Format:      config.Env("LOG_FORMAT", "json"),
		ServiceName: "zoomclip-worker",
		AddSource:   config.BoolEnv("LOG_SOURCE", false),
	})
	if dotEnvErr != nil {
		log.Warn("failed to load .env", "error", dotEnvErr.Error())
	}

	cfg, err := config.LoadWorker()
	if err != nil {
		log.LogFatal("invalid configuration", err)
	}

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, cfg.ShutdownTimeout)

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	shutdownMgr.RegisterSimple("postgres", pool.Close)
	if err := repositories.NewJobRepository(pool).EnsureSchema(ctx); err != nil {
		log.LogFatal("failed to prepare schema", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}

	sp, err := storage.NewProvider(ctx, cfg.Storage)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}

	// The consumer stops when the manager's context is canceled; the
	// "worker" handler then waits for the in-flight job to be recorded
	// before postgres and redis are closed.
	stopped := make(chan struct{})
	runCtx, runDone := context.WithCancel(context.Background())
	go func() {
		defer close(stopped)
		defer runDone()
		err := worker.Run(shutdownMgr.Context(), worker.Deps{
			Pool: pool,
			RDB:  rdb,
			SP:   sp,
			Cfg:  cfg,
			Log:  log,
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("worker stopped", "error", err.Error())
		}
	}()
	shutdownMgr.Register("worker", func(ctx context.Context) error {
		select {
		case <-stopped:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if err := shutdownMgr.WaitWithContext(runCtx); err != nil {
		log.Error("shutdown finished with errors", "error", err.Error())
	}
}
