package processor

import (
	"context"
	"time"

	"zoomclip/internal/models"
	"zoomclip/internal/pkg/errors"
	"zoomclip/internal/pkg/logger"
	"zoomclip/internal/ports"
	"zoomclip/internal/thumbnail"
	"zoomclip/internal/worker/webhook"
	"zoomclip/internal/zoomvideo"
)

// JobStore is the part of the job repository the processor drives.
type JobStore interface {
	Get(ctx context.Context, id string) (*models.Job, error)
	MarkRunning(ctx context.Context, id string) error
	MarkDone(ctx context.Context, id string, out models.JobOutputs) error
	MarkFailed(ctx context.Context, id, code, text string) error
}

// VideoBuilder renders a request to a local file.
type VideoBuilder interface {
	BuildDetailed(ctx context.Context, req zoomvideo.Request) (*zoomvideo.Result, error)
}

type Deps struct {
	Jobs         JobStore
	Builder      VideoBuilder
	Thumbs       *thumbnail.Thumbnailer
	SP           ports.StorageProvider
	Webhook      webhook.Notifier
	CleanupLocal bool
	Log          *logger.Logger
}

type Processor struct {
	jobs    JobStore
	builder VideoBuilder
	thumbs  *thumbnail.Thumbnailer
	log     *logger.Logger

	outputs *OutputHandler
	notify  *Notify
	cleanup *Cleanup
}

func New(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("processor")

	return &Processor{
		jobs:    d.Jobs,
		builder: d.Builder,
		thumbs:  d.Thumbs,
		log:     log,
		outputs: NewOutputHandler(d.SP),
		notify:  NewNotify(d.Webhook, log),
		cleanup: NewCleanup(d.CleanupLocal, d.SP, log),
	}
}

// ProcessJob renders one queued job end to end. Every failure after the job
// row is loaded marks it FAILED and fires the webhook before returning.
func (p *Processor) ProcessJob(ctx context.Context, jobID string) error {
	ctx = logger.ContextWithJobID(ctx, jobID)
	log := p.log.FromContext(ctx)

	// 1. Load the job
	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		return errors.Wrap(err, "processor.load", "failed to load job")
	}
	if job.Status.Terminal() {
		log.Warn("job already finished, skipping", "status", string(job.Status))
		return nil
	}

	// 2. Mark running
	if err := p.jobs.MarkRunning(ctx, jobID); err != nil {
		return p.failJob(ctx, job, errors.Wrap(err, "processor.status", "failed to mark job as running"))
	}

	// 3. Render
	if p.thumbs != nil {
		p.thumbs.Reset(jobID)
	}
	res, err := p.builder.BuildDetailed(ctx, zoomvideo.Request{
		ImageSource:        job.Params.ImageURL,
		DurationSeconds:    job.Params.Length,
		FrameRate:          job.Params.FrameRate,
		ZoomSpeedPerSecond: job.Params.ZoomSpeed,
		JobID:              job.ID,
		WebhookURL:         job.Params.WebhookURL,
		OutputFormat:       job.Params.OutputFormat,
	})
	if err != nil {
		return p.failJob(ctx, job, err)
	}

	// 4. Upload outputs
	out := models.JobOutputs{Provider: p.outputs.Provider()}
	out.OutputKey, err = p.outputs.Video(ctx, jobID, res.OutputPath)
	if err != nil {
		return p.failJob(ctx, job, err)
	}

	var thumbPath string
	if p.thumbs != nil {
		thumbPath = p.thumbs.Path(jobID)
		out.ThumbKey, err = p.outputs.Thumbnail(ctx, jobID, thumbPath)
		if err != nil {
			log.Warn("thumbnail upload failed", "error", err.Error())
		}
	}
	log.Info("outputs uploaded",
		"provider", out.Provider,
		"video_key", out.OutputKey,
		"thumb_key", out.ThumbKey,
	)

	// 5. Mark done
	if err := p.jobs.MarkDone(ctx, jobID, out); err != nil {
		return p.failJob(ctx, job, errors.Wrap(err, "processor.status", "failed to mark job as done"))
	}

	// 6. Notify and clean up
	p.notify.Done(context.WithoutCancel(ctx), job, out)
	p.cleanup.CleanupJob(res.OutputPath, thumbPath)

	return nil
}

// failJob records cause on the job row and notifies the webhook. Both run
// even when ctx is already canceled so that a shutdown mid-render still
// leaves the job in a terminal state.
func (p *Processor) failJob(ctx context.Context, job *models.Job, cause error) error {
	log := p.log.FromContext(ctx)
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	code := errors.GetCode(cause)
	p.log.LogError(ctx, "job failed", cause,
		"code", string(code),
		"op", opOf(cause),
	)

	if err := p.jobs.MarkFailed(bg, job.ID, string(code), cause.Error()); err != nil {
		log.Error("failed to mark job as failed", "error", err.Error())
	}
	p.notify.Failed(bg, job, cause)

	return cause
}

func opOf(err error) string {
	var e *errors.Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}
