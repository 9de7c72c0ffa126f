package worker

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"zoomclip/internal/config"
	"zoomclip/internal/pkg/logger"
	"zoomclip/internal/ports"
)

type Deps struct {
	Pool *pgxpool.Pool
	RDB  redis.UniversalClient
	SP   ports.StorageProvider
	Cfg  config.Worker
	Log  *logger.Logger
}
