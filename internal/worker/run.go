package worker

import (
	"context"
	"time"

	"zoomclip/internal/pkg/logger"
	"zoomclip/internal/repositories"
	"zoomclip/internal/thumbnail"
	"zoomclip/internal/worker/processor"
	"zoomclip/internal/worker/queue"
	"zoomclip/internal/worker/webhook"
	"zoomclip/internal/zoomvideo"
)

// popRetryDelay is the pause after a failed queue pop.
var popRetryDelay = time.Second

// Queue hands out job ids. An empty id with a nil error means the pop timed
// out with nothing queued.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (string, error)
}

// JobProcessor renders one job by id.
type JobProcessor interface {
	ProcessJob(ctx context.Context, jobID string) error
}

// Run wires the render pipeline from d and consumes the queue until ctx is
// canceled.
func Run(ctx context.Context, d Deps) error {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("worker")

	thumbs := thumbnail.New(d.Cfg.WorkDir, log)
	builder := zoomvideo.New(zoomvideo.Config{
		StorageDir:  d.Cfg.WorkDir,
		EncoderPath: d.Cfg.FFmpegPath,
		Fetcher:     zoomvideo.NewSourceFetcher(nil, d.SP),
		Log:         log,
		AfterEncode: thumbs.AfterEncode,
	})

	p := processor.New(processor.Deps{
		Jobs:         repositories.NewJobRepository(d.Pool),
		Builder:      builder,
		Thumbs:       thumbs,
		SP:           d.SP,
		Webhook:      webhook.NewHTTPClient(d.Cfg.WebhookTimeout),
		CleanupLocal: d.Cfg.CleanupLocal,
		Log:          log,
	})

	q := queue.NewRedisQueue(d.RDB, d.Cfg.QueueName)
	log.Info("worker started",
		"queue", q.Name(),
		"work_dir", d.Cfg.WorkDir,
		"storage_provider", d.SP.Provider(),
	)
	return consume(ctx, q, p, d.Cfg.PopTimeout, log)
}

// consume pops and processes jobs one at a time. Job failures are already
// recorded on the job row, so they only get logged here.
func consume(ctx context.Context, q Queue, p JobProcessor, popTimeout time.Duration, log *logger.Logger) error {
	for {
		if err := ctx.Err(); err != nil {
			log.Info("worker context canceled, stopping")
			return err
		}

		jobID, err := q.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping due to context cancellation")
				return ctx.Err()
			}
			log.WithError(err).Warn("queue pop error, retrying")
			select {
			case <-ctx.Done():
			case <-time.After(popRetryDelay):
			}
			continue
		}

		if jobID == "" {
			continue
		}

		jobCtx := logger.ContextWithJobID(ctx, jobID)
		jobLog := log.FromContext(jobCtx)
		jobLog.Info("processing job")
		start := time.Now()

		if err := p.ProcessJob(jobCtx, jobID); err != nil {
			jobLog.WithError(err).Error("job failed",
				"duration_ms", time.Since(start).Milliseconds(),
			)
			continue
		}
		jobLog.Info("job completed", "duration_ms", time.Since(start).Milliseconds())
	}
}
