package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"zoomclip/internal/config"
	"zoomclip/internal/httpapi"
	"zoomclip/internal/httpapi/handlers"
	"zoomclip/internal/httpkit"
	"zoomclip/internal/pkg/logger"
	"zoomclip/internal/pkg/shutdown"
	"zoomclip/internal/repositories"
	"zoomclip/internal/storage"
	"zoomclip/internal/worker/queue"
)

func main() {
	// .env is optional; real environment variables win.
	dotEnvErr := config.LoadDotEnv()

	log := logger.New(logger.Config{
		Level:       config.Env("LOG_LEVEL", "info"),
		Format:      config.Env("LOG_FORMAT", "json"),
		ServiceName: "zoomclip-api",
		AddSource:   config.BoolEnv("LOG_SOURCE", false),
	})
	if dotEnvErr != nil {
		log.Warn("failed to load .env", "error", dotEnvErr.Error())
	}

	cfg, err := config.LoadAPI()
	if err != nil {
		log.LogFatal("invalid configuration", err)
	}
	log.Info("starting zoomclip API", "storage_provider", cfg.Storage.Provider)

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, cfg.ShutdownTimeout)

	// Connect to PostgreSQL
	log.Info("connecting to PostgreSQL")
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	shutdownMgr.RegisterSimple("postgres", pool.Close)

	if err := pool.Ping(ctx); err != nil {
		log.LogFatal("failed to ping PostgreSQL", err)
	}
	jobs := repositories.NewJobRepository(pool)
	if err := jobs.EnsureSchema(ctx); err != nil {
		log.LogFatal("failed to prepare schema", err)
	}
	log.Info("PostgreSQL connected")

	// Connect to Redis
	log.Info("connecting to Redis")
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}
	log.Info("Redis connected")

	sp, err := storage.NewProvider(ctx, cfg.Storage)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	log.Info("storage provider initialized", "provider", sp.Provider())

	router := httpapi.NewRouter(httpapi.Deps{
		Handlers: handlers.Deps{
			Jobs:     jobs,
			Queue:    queue.NewRedisQueue(rdb, cfg.QueueName),
			SP:       sp,
			Postgres: jobs,
			Redis: handlers.PingFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}),
			Log: log,
		},
		AllowedOrigins: httpkit.ParseOrigins(cfg.CORSAllowedOrigins),
		RequestTimeout: cfg.RequestTimeout,
		Log:            log,
	})

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	if err := shutdownMgr.Wait(); err != nil {
		log.Error("shutdown finished with errors", "error", err.Error())
	}
}
