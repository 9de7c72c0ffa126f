package handlers

import (
	"context"

	"zoomclip/internal/models"
	"zoomclip/internal/pkg/logger"
	"zoomclip/internal/ports"
)

// JobStore is the part of the job repository the API uses.
type JobStore interface {
	Create(ctx context.Context, j *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context, status models.JobStatus, limit int) ([]models.Job, error)
	Delete(ctx context.Context, id string) error
}

// Enqueuer hands job ids to the worker.
type Enqueuer interface {
	Push(ctx context.Context, jobID string) error
}

// Pinger is a dependency the deep health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Deps struct {
	Jobs     JobStore
	Queue    Enqueuer
	SP       ports.StorageProvider
	Postgres Pinger
	Redis    Pinger
	Log      *logger.Logger
}

type Handler struct {
	jobs     JobStore
	queue    Enqueuer
	sp       ports.StorageProvider
	postgres Pinger
	redis    Pinger
	log      *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Handler{
		jobs:     d.Jobs,
		queue:    d.Queue,
		sp:       d.SP,
		postgres: d.Postgres,
		redis:    d.Redis,
		log:      log.WithComponent("api"),
	}
}
