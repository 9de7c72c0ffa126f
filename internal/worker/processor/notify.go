package processor

import (
	"context"
	"strings"
	"time"

	v1 "zoomclip/internal/contracts/webhook/v1"
	"zoomclip/internal/models"
	"zoomclip/internal/pkg/errors"
	"zoomclip/internal/pkg/logger"
	"zoomclip/internal/worker/webhook"
)

type Notify struct {
	client webhook.Notifier
	log    *logger.Logger
}

func NewNotify(client webhook.Notifier, log *logger.Logger) *Notify {
	return &Notify{client: client, log: log}
}

// Done reports a successful job. Delivery errors are logged only.
func (n *Notify) Done(ctx context.Context, job *models.Job, out models.JobOutputs) {
	n.send(ctx, job, v1.Payload{
		JobID:          job.ID,
		Status:         string(models.JobDone),
		VideoObjectKey: out.OutputKey,
		ThumbObjectKey: out.ThumbKey,
		Provider:       out.Provider,
		FinishedAt:     time.Now().UTC(),
	})
}

// Failed reports a failed job with the error code and message.
func (n *Notify) Failed(ctx context.Context, job *models.Job, cause error) {
	n.send(ctx, job, v1.Payload{
		JobID:  job.ID,
		Status: string(models.JobFailed),
		Error: &v1.ErrorInfo{
			Code:    string(errors.GetCode(cause)),
			Message: cause.Error(),
		},
		FinishedAt: time.Now().UTC(),
	})
}

func (n *Notify) send(ctx context.Context, job *models.Job, p v1.Payload) {
	url := strings.TrimSpace(job.Params.WebhookURL)
	if url == "" || n.client == nil {
		return
	}
	log := n.log.FromContext(ctx)
	if err := n.client.Notify(ctx, url, p); err != nil {
		log.Warn("webhook delivery failed", "url", url, "status", p.Status, "error", err.Error())
		return
	}
	log.Info("webhook delivered", "url", url, "status", p.Status)
}
